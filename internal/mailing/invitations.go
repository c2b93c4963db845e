package mailing

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// InvitationTemplateSlug is the fixed template used for invitation
// notification emails.
const InvitationTemplateSlug = "user-invitation"

// InvitationRepository is the narrow store surface issuance needs.
// Implemented by InvitationStore.
type InvitationRepository interface {
	GenerateCode(ctx context.Context) (string, error)
	Create(ctx context.Context, inv *Invitation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Invitation, error)
}

// IssueRequest is the input for creating a new invitation.
type IssueRequest struct {
	Email          string    `json:"email"`
	FirstName      string    `json:"first_name,omitempty"`
	LastName       string    `json:"last_name,omitempty"`
	PlanType       string    `json:"plan_type"`
	DurationMonths int       `json:"duration_months"`
	ExpiresInDays  int       `json:"expires_in_days"`
	Notes          string    `json:"notes,omitempty"`
	SendEmail      bool      `json:"send_email"`
	Language       string    `json:"language,omitempty"`
	InvitedBy      uuid.UUID `json:"-"`
	InviterName    string    `json:"inviter_name,omitempty"`
}

// IssueResult reports the created invitation and, when a notification
// email was requested, whether it went out. A failed email never rolls
// back the invitation; the admin UI offers a manual resend.
type IssueResult struct {
	Invitation *Invitation `json:"invitation"`
	EmailSent  bool        `json:"email_sent"`
	EmailError string      `json:"email_error,omitempty"`
}

// Issuer creates invitations and triggers their notification emails
// through the dispatch pipeline.
type Issuer struct {
	invitations InvitationRepository
	dispatcher  *Dispatcher
	baseURL     string
}

// NewIssuer creates an invitation issuer. baseURL is the public site
// root used to build redemption links.
func NewIssuer(invitations InvitationRepository, dispatcher *Dispatcher, baseURL string) *Issuer {
	return &Issuer{
		invitations: invitations,
		dispatcher:  dispatcher,
		baseURL:     baseURL,
	}
}

// Issue allocates a unique code, persists a pending invitation and, when
// requested, sends the notification email.
func (i *Issuer) Issue(ctx context.Context, req *IssueRequest) (*IssueResult, error) {
	if req.Email == "" {
		return nil, NewValidationError("email is required")
	}
	if !ValidateEmail(req.Email) {
		return nil, NewValidationError("invalid email address: %s", req.Email)
	}

	code, err := i.invitations.GenerateCode(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "allocate invitation code", Err: err}
	}

	var expiresAt *time.Time
	if req.ExpiresInDays > 0 {
		t := time.Now().Add(time.Duration(req.ExpiresInDays) * 24 * time.Hour)
		expiresAt = &t
	}

	inv := &Invitation{
		Email:          req.Email,
		FirstName:      optional(req.FirstName),
		LastName:       optional(req.LastName),
		Code:           code,
		InvitedBy:      req.InvitedBy,
		Status:         InvitationPending,
		PlanType:       req.PlanType,
		DurationMonths: req.DurationMonths,
		ExpiresAt:      expiresAt,
		Notes:          optional(req.Notes),
		Language:       req.Language,
	}
	if err := i.invitations.Create(ctx, inv); err != nil {
		return nil, &PersistenceError{Op: "create invitation", Err: err}
	}

	result := &IssueResult{Invitation: inv}
	if req.SendEmail {
		if err := i.SendInvitationEmail(ctx, inv, req.InviterName); err != nil {
			log.Printf("Issuer: invitation %s created but email failed: %v", inv.Code, err)
			result.EmailError = err.Error()
		} else {
			result.EmailSent = true
		}
	}
	return result, nil
}

// SendInvitationEmail dispatches the user-invitation template for an
// existing invitation. Also backs the manual resend action.
func (i *Issuer) SendInvitationEmail(ctx context.Context, inv *Invitation, inviterName string) error {
	if inviterName == "" {
		inviterName = "A team member"
	}
	recipientName := inv.Email
	if inv.FirstName != nil && *inv.FirstName != "" {
		recipientName = *inv.FirstName
	}

	_, err := i.dispatcher.SendTemplated(ctx, &SendTemplatedRequest{
		To:           inv.Email,
		TemplateSlug: InvitationTemplateSlug,
		Language:     inv.Language,
		SendType:     SendTypeInvitation,
		TemplateData: map[string]string{
			"recipient_name":  recipientName,
			"inviter_name":    inviterName,
			"invitation_code": inv.Code,
			"plan_name":       PlanDisplayName(inv.PlanType),
			"duration":        DurationText(inv.DurationMonths),
			"redemption_link": i.RedemptionLink(inv.Code),
		},
	})
	return err
}

// Resend re-dispatches the notification email for an invitation by id.
func (i *Issuer) Resend(ctx context.Context, id uuid.UUID, inviterName string) error {
	inv, err := i.invitations.GetByID(ctx, id)
	if err != nil {
		return &PersistenceError{Op: "load invitation", Err: err}
	}
	if inv == nil {
		return NewValidationError("invitation not found")
	}
	return i.SendInvitationEmail(ctx, inv, inviterName)
}

// RedemptionLink builds the public URL an invitee follows to redeem a
// code.
func (i *Issuer) RedemptionLink(code string) string {
	return fmt.Sprintf("%s/#/redeem-invitation?code=%s", i.baseURL, code)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
