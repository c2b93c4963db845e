package mailing

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Template lifecycle statuses
const (
	TemplateDraft    = "draft"
	TemplateActive   = "active"
	TemplateArchived = "archived"
)

// Send log statuses and types
const (
	SendStatusSent   = "sent"
	SendStatusFailed = "failed"

	SendTypeTest          = "test"
	SendTypeTransactional = "transactional"
	SendTypeInvitation    = "invitation"
)

// Invitation statuses
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationExpired  = "expired"
	InvitationRevoked  = "revoked"
)

// Supported locales. A template's Russian fields are optional; English is
// mandatory and terminates every fallback chain.
const (
	LocaleEN = "en"
	LocaleRU = "ru"
)

// FallbackChain returns the ordered locale lookup chain for a requested
// language. Unknown languages fall straight through to English.
func FallbackChain(language string) []string {
	if language == "" || language == LocaleEN {
		return []string{LocaleEN}
	}
	return []string{language, LocaleEN}
}

// VariableSpec declares one variable a template expects.
type VariableSpec struct {
	Key      string `json:"key"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// VariableSchema is the ordered list of variables a template declares.
// Stored as a JSON column.
type VariableSchema []VariableSpec

func (s VariableSchema) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	return json.Marshal(s)
}

func (s *VariableSchema) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	}
	return fmt.Errorf("cannot scan %T into VariableSchema", src)
}

// Variables is the flat key/value mapping supplied to a render. Stored on
// the send log as a JSON column.
type Variables map[string]string

func (v Variables) Value() (driver.Value, error) {
	if v == nil {
		return "{}", nil
	}
	return json.Marshal(v)
}

func (v *Variables) Scan(src interface{}) error {
	switch val := src.(type) {
	case nil:
		*v = nil
		return nil
	case []byte:
		return json.Unmarshal(val, v)
	case string:
		return json.Unmarshal([]byte(val), v)
	}
	return fmt.Errorf("cannot scan %T into Variables", src)
}

// EmailTemplate is one named template with subject/body per locale.
// Slug is the stable lookup key used by dispatch and is immutable after
// creation.
type EmailTemplate struct {
	ID             uuid.UUID      `json:"id"`
	Slug           string         `json:"slug"`
	Name           string         `json:"name"`
	Category       string         `json:"category"`
	SubjectEN      string         `json:"subject_en"`
	SubjectRU      *string        `json:"subject_ru"`
	BodyEN         string         `json:"body_en"`
	BodyRU         *string        `json:"body_ru"`
	VariableSchema VariableSchema `json:"variable_schema"`
	Status         string         `json:"status"`
	Description    *string        `json:"description"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Content returns the subject/body pair for a requested language,
// walking the locale fallback chain when a locale's fields are empty.
func (t *EmailTemplate) Content(language string) (subject, body string) {
	for _, locale := range FallbackChain(language) {
		switch locale {
		case LocaleRU:
			if t.SubjectRU != nil && *t.SubjectRU != "" && t.BodyRU != nil && *t.BodyRU != "" {
				return *t.SubjectRU, *t.BodyRU
			}
		case LocaleEN:
			return t.SubjectEN, t.BodyEN
		}
	}
	return t.SubjectEN, t.BodyEN
}

// EmailSendLog is one append-only record of a dispatch attempt.
type EmailSendLog struct {
	ID                uuid.UUID  `json:"id"`
	TemplateID        *uuid.UUID `json:"template_id"`
	RecipientEmail    string     `json:"recipient_email"`
	Subject           string     `json:"subject"`
	BodyHTML          string     `json:"body_html"`
	BodyText          string     `json:"body_text"`
	VariablesUsed     Variables  `json:"variables_used"`
	SendType          string     `json:"send_type"`
	Status            string     `json:"status"`
	Provider          string     `json:"provider"`
	ProviderMessageID *string    `json:"provider_message_id"`
	SentAt            *time.Time `json:"sent_at"`
	ErrorMessage      *string    `json:"error_message"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Invitation is one issued redemption offer. Code is globally unique and
// is the only token the redemption flow may use to locate the row.
type Invitation struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	FirstName      *string    `json:"first_name"`
	LastName       *string    `json:"last_name"`
	Code           string     `json:"code"`
	InvitedBy      uuid.UUID  `json:"invited_by"`
	Status         string     `json:"status"`
	PlanType       string     `json:"plan_type"`
	DurationMonths int        `json:"duration_months"`
	ExpiresAt      *time.Time `json:"expires_at"`
	AcceptedAt     *time.Time `json:"accepted_at"`
	AcceptedBy     *uuid.UUID `json:"accepted_by"`
	Notes          *string    `json:"notes"`
	Language       string     `json:"language"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// InvitationStats aggregates invitation counts by status.
type InvitationStats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Accepted int `json:"accepted"`
	Expired  int `json:"expired"`
	Revoked  int `json:"revoked"`
}

// PlanDisplayName maps a plan type to its customer-facing name.
func PlanDisplayName(planType string) string {
	switch planType {
	case "core":
		return "Core Plan"
	case "daily":
		return "Daily Plan"
	case "max":
		return "Max Plan"
	}
	return planType
}

// DurationText formats a plan duration in months for email copy.
func DurationText(months int) string {
	switch months {
	case 0:
		return "Forever"
	case 1:
		return "1 month"
	case 12:
		return "1 year"
	}
	return fmt.Sprintf("%d months", months)
}

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateEmail performs a basic shape check on a recipient address.
func ValidateEmail(email string) bool {
	if len(email) > 254 {
		return false
	}
	return emailRe.MatchString(email)
}
