package mailing

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// TemplateResolver resolves a template by slug. Implemented by
// EmailTemplateStore, and by TemplateCache when Redis is configured.
// A nil template with a nil error means no row matched.
type TemplateResolver interface {
	GetBySlug(ctx context.Context, slug string) (*EmailTemplate, error)
}

// SendLogWriter appends one send-attempt record.
type SendLogWriter interface {
	Insert(ctx context.Context, entry *EmailSendLog) error
}

// EmailProvider is the external transactional-email API. Send returns
// the provider's message id on success.
type EmailProvider interface {
	Name() string
	Send(ctx context.Context, from, to, subject, html string) (string, error)
}

// SendTemplatedRequest is the dispatch endpoint's input.
type SendTemplatedRequest struct {
	To           string            `json:"to"`
	TemplateSlug string            `json:"templateSlug"`
	TemplateData map[string]string `json:"templateData"`
	Language     string            `json:"language,omitempty"`

	// SendType tags the log row; internal callers (invitation issuance)
	// override the default.
	SendType string `json:"-"`
}

// SendAdhocRequest carries a literal subject/body pair for test sends.
type SendAdhocRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// SendResult reports one completed dispatch.
type SendResult struct {
	MessageID string
	Log       *EmailSendLog
}

// Dispatcher runs the per-request send pipeline:
// received -> template-resolved -> rendered -> sent-or-failed -> logged.
// It holds no state across requests; one synchronous attempt, no retries.
type Dispatcher struct {
	templates   TemplateResolver
	logs        SendLogWriter
	provider    EmailProvider
	defaultFrom string
}

// NewDispatcher creates a dispatcher. defaultFrom is used whenever the
// caller does not otherwise specify a sender.
func NewDispatcher(templates TemplateResolver, logs SendLogWriter, provider EmailProvider, defaultFrom string) *Dispatcher {
	return &Dispatcher{
		templates:   templates,
		logs:        logs,
		provider:    provider,
		defaultFrom: defaultFrom,
	}
}

// SendTemplated resolves a template by slug, renders it against the
// supplied data and sends the result. Exactly one send-log row is written
// whether the provider call succeeds or fails; a failed log write is
// reported to the operator log and never changes the send outcome.
func (d *Dispatcher) SendTemplated(ctx context.Context, req *SendTemplatedRequest) (*SendResult, error) {
	if req.To == "" || req.TemplateSlug == "" || req.TemplateData == nil {
		return nil, NewValidationError("missing required fields: to, templateSlug, templateData")
	}
	if !ValidateEmail(req.To) {
		return nil, NewValidationError("invalid recipient address: %s", req.To)
	}

	tmpl, err := d.templates.GetBySlug(ctx, req.TemplateSlug)
	if err != nil {
		return nil, &PersistenceError{Op: "resolve template " + req.TemplateSlug, Err: err}
	}
	if tmpl == nil {
		return nil, ErrTemplateNotFound
	}

	subjectTmpl, bodyTmpl := tmpl.Content(req.Language)
	subject := Render(subjectTmpl, req.TemplateData)
	html := Render(bodyTmpl, req.TemplateData)

	sendType := req.SendType
	if sendType == "" {
		sendType = SendTypeTransactional
	}

	entry := &EmailSendLog{
		TemplateID:     &tmpl.ID,
		RecipientEmail: req.To,
		Subject:        subject,
		BodyHTML:       html,
		BodyText:       ToPlainText(html),
		VariablesUsed:  Variables(req.TemplateData),
		SendType:       sendType,
		Provider:       d.provider.Name(),
	}

	messageID, sendErr := d.provider.Send(ctx, d.defaultFrom, req.To, subject, html)
	d.recordOutcome(ctx, entry, messageID, sendErr)

	if sendErr != nil {
		return nil, &ProviderError{Provider: d.provider.Name(), Message: sendErr.Error()}
	}
	return &SendResult{MessageID: messageID, Log: entry}, nil
}

// SendAdhoc sends a literal subject/body pair without template
// resolution, logging the attempt with send type "test".
func (d *Dispatcher) SendAdhoc(ctx context.Context, req *SendAdhocRequest) (*SendResult, error) {
	if req.To == "" || req.Subject == "" || req.HTML == "" {
		return nil, NewValidationError("missing required fields: to, subject, html")
	}
	if !ValidateEmail(req.To) {
		return nil, NewValidationError("invalid recipient address: %s", req.To)
	}

	entry := &EmailSendLog{
		RecipientEmail: req.To,
		Subject:        req.Subject,
		BodyHTML:       req.HTML,
		BodyText:       ToPlainText(req.HTML),
		VariablesUsed:  Variables{},
		SendType:       SendTypeTest,
		Provider:       d.provider.Name(),
	}

	messageID, sendErr := d.provider.Send(ctx, d.defaultFrom, req.To, req.Subject, req.HTML)
	d.recordOutcome(ctx, entry, messageID, sendErr)

	if sendErr != nil {
		return nil, &ProviderError{Provider: d.provider.Name(), Message: sendErr.Error()}
	}
	return &SendResult{MessageID: messageID, Log: entry}, nil
}

// recordOutcome finalizes the log entry from the provider result and
// appends it. The send outcome is already decided at this point, so an
// insert failure only reaches the operator log.
func (d *Dispatcher) recordOutcome(ctx context.Context, entry *EmailSendLog, messageID string, sendErr error) {
	if sendErr != nil {
		entry.Status = SendStatusFailed
		msg := sendErr.Error()
		entry.ErrorMessage = &msg
	} else {
		entry.Status = SendStatusSent
		now := time.Now()
		entry.SentAt = &now
		if messageID != "" {
			entry.ProviderMessageID = &messageID
		}
	}
	entry.ID = uuid.New()

	if err := d.logs.Insert(ctx, entry); err != nil {
		log.Printf("Dispatcher: failed to write send log for %s: %v", entry.RecipientEmail, err)
	}
}
