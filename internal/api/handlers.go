// Package api exposes the HTTP surface: the dispatch endpoints used by
// the product, and the admin endpoints behind the template and
// invitation management screens.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/biomathcore/email-service/internal/mailing"
)

// Handlers bundles the stores and services the HTTP layer needs.
type Handlers struct {
	templates   *mailing.EmailTemplateStore
	logs        *mailing.SendLogStore
	invitations *mailing.InvitationStore
	dispatcher  *mailing.Dispatcher
	issuer      *mailing.Issuer
	cache       *mailing.TemplateCache // nil when Redis is not configured
}

// NewHandlers creates the handler set. cache may be nil.
func NewHandlers(
	templates *mailing.EmailTemplateStore,
	logs *mailing.SendLogStore,
	invitations *mailing.InvitationStore,
	dispatcher *mailing.Dispatcher,
	issuer *mailing.Issuer,
	cache *mailing.TemplateCache,
) *Handlers {
	return &Handlers{
		templates:   templates,
		logs:        logs,
		invitations: invitations,
		dispatcher:  dispatcher,
		issuer:      issuer,
		cache:       cache,
	}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps the error taxonomy onto HTTP statuses:
// validation 400, unknown template 404, provider failure 502,
// persistence failure 500.
func writeDomainError(w http.ResponseWriter, err error) {
	var validationErr *mailing.ValidationError
	var providerErr *mailing.ProviderError

	switch {
	case errors.Is(err, mailing.ErrTemplateNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Message)
	case errors.As(err, &providerErr):
		writeError(w, http.StatusBadGateway, "failed to send email: "+providerErr.Message)
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
