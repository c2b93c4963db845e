package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/biomathcore/email-service/internal/mailing"
)

// HandleSendTemplated is POST /api/email/send:
// {to, templateSlug, templateData, language?} → {message}.
func (h *Handlers) HandleSendTemplated(w http.ResponseWriter, r *http.Request) {
	var req mailing.SendTemplatedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.dispatcher.SendTemplated(r.Context(), &req)
	if err != nil {
		log.Printf("SendTemplated %s to %s: %v", req.TemplateSlug, req.To, err)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":   "Email sent successfully",
		"messageId": result.MessageID,
	})
}

// HandleSendTest is POST /api/email/send-test:
// {to, subject, html} → {message, messageId}. Used by the admin screen's
// test-send action; the attempt is logged with send type "test".
func (h *Handlers) HandleSendTest(w http.ResponseWriter, r *http.Request) {
	var req mailing.SendAdhocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.dispatcher.SendAdhoc(r.Context(), &req)
	if err != nil {
		log.Printf("SendAdhoc to %s: %v", req.To, err)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":   "Email sent successfully",
		"messageId": result.MessageID,
	})
}

// HandleGetSendLogs is GET /api/sends: the most recent send attempts.
func (h *Handlers) HandleGetSendLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.logs.List(r.Context(), 100)
	if err != nil {
		log.Printf("Error listing send logs: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load send logs")
		return
	}
	if logs == nil {
		logs = []*mailing.EmailSendLog{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"sends": logs})
}
