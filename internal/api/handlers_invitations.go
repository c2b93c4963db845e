package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/biomathcore/email-service/internal/mailing"
)

// HandleListInvitations is GET /api/invitations?status=.
func (h *Handlers) HandleListInvitations(w http.ResponseWriter, r *http.Request) {
	invitations, err := h.invitations.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		log.Printf("Error listing invitations: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load invitations")
		return
	}
	if invitations == nil {
		invitations = []*mailing.Invitation{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"invitations": invitations})
}

// HandleInvitationStats is GET /api/invitations/stats.
func (h *Handlers) HandleInvitationStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.invitations.Stats(r.Context())
	if err != nil {
		log.Printf("Error loading invitation stats: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleCreateInvitation is POST /api/invitations. A failed notification
// email is reported in the response but the invitation stands.
func (h *Handlers) HandleCreateInvitation(w http.ResponseWriter, r *http.Request) {
	var req mailing.IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if issuer := r.Header.Get("X-User-ID"); issuer != "" {
		if id, err := uuid.Parse(issuer); err == nil {
			req.InvitedBy = id
		}
	}

	result, err := h.issuer.Issue(r.Context(), &req)
	if err != nil {
		log.Printf("Error creating invitation for %s: %v", req.Email, err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// HandleRedeemLookup is GET /api/invitations/redeem/{code}: the
// code-only lookup used by the redemption flow.
func (h *Handlers) HandleRedeemLookup(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	inv, err := h.invitations.GetByCode(r.Context(), code)
	if err != nil {
		log.Printf("Error looking up invitation code: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to look up invitation")
		return
	}
	if inv == nil {
		writeError(w, http.StatusNotFound, "invitation code not found")
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// HandleResendInvitation is POST /api/invitations/{id}/resend.
func (h *Handlers) HandleResendInvitation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid invitation id")
		return
	}

	var body struct {
		InviterName string `json:"inviter_name"`
	}
	json.NewDecoder(r.Body).Decode(&body)

	if err := h.issuer.Resend(r.Context(), id, body.InviterName); err != nil {
		log.Printf("Error resending invitation %s: %v", id, err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Invitation email re-sent successfully"})
}

// HandleRevokeInvitation is POST /api/invitations/{id}/revoke. Only
// pending invitations can be revoked.
func (h *Handlers) HandleRevokeInvitation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid invitation id")
		return
	}

	if err := h.invitations.Revoke(r.Context(), id); err != nil {
		log.Printf("Error revoking invitation %s: %v", id, err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Invitation revoked"})
}

// HandleDeleteInvitation is DELETE /api/invitations/{id}.
func (h *Handlers) HandleDeleteInvitation(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid invitation id")
		return
	}

	if err := h.invitations.Delete(r.Context(), id); err != nil {
		log.Printf("Error deleting invitation %s: %v", id, err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id.String(), "deleted": true})
}
