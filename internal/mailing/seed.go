package mailing

import (
	"context"
	"fmt"
)

func strPtr(s string) *string { return &s }

// DefaultTemplates returns the built-in template catalog. Seeding
// upserts by slug, so re-running refreshes content without duplicating
// rows or breaking send-log references.
func DefaultTemplates() []*EmailTemplate {
	return []*EmailTemplate{
		{
			Slug:      "welcome",
			Name:      "Welcome Email",
			Category:  "welcome",
			SubjectEN: "Welcome to BioMath Core, {{ first_name }}!",
			SubjectRU: strPtr("Добро пожаловать в BioMath Core, {{ first_name }}!"),
			BodyEN: `<div><p>Hi {{ first_name }},</p>
<p>Your account is ready. Jump back in any time:</p>
<p><a href="{{ dashboard_link }}">Open your dashboard</a></p>
<p>— The BioMath Core Team</p></div>`,
			BodyRU: strPtr(`<div><p>Здравствуйте, {{ first_name }}!</p>
<p>Ваш аккаунт готов. Возвращайтесь в любое время:</p>
<p><a href="{{ dashboard_link }}">Открыть панель</a></p>
<p>— Команда BioMath Core</p></div>`),
			VariableSchema: VariableSchema{
				{Key: "first_name", Type: "string", Required: true},
				{Key: "dashboard_link", Type: "string", Required: true},
			},
			Status:      TemplateActive,
			Description: strPtr("Sent after account creation."),
		},
		{
			Slug:      "user-invitation",
			Name:      "User Invitation",
			Category:  "general",
			SubjectEN: "{{ inviter_name }} invited you to BioMath Core",
			SubjectRU: strPtr("{{ inviter_name }} приглашает вас в BioMath Core"),
			BodyEN: `<div><p>Hi {{ recipient_name }},</p>
<p>{{ inviter_name }} has invited you to join BioMath Core on the {{ plan_name }} ({{ duration }}).</p>
<p>Your invitation code: <strong>{{ invitation_code }}</strong></p>
<p><a href="{{ redemption_link }}">Redeem your invitation</a></p></div>`,
			BodyRU: strPtr(`<div><p>Здравствуйте, {{ recipient_name }}!</p>
<p>{{ inviter_name }} приглашает вас присоединиться к BioMath Core: {{ plan_name }} ({{ duration }}).</p>
<p>Код приглашения: <strong>{{ invitation_code }}</strong></p>
<p><a href="{{ redemption_link }}">Активировать приглашение</a></p></div>`),
			VariableSchema: VariableSchema{
				{Key: "recipient_name", Type: "string", Required: true},
				{Key: "inviter_name", Type: "string", Required: true},
				{Key: "invitation_code", Type: "string", Required: true},
				{Key: "plan_name", Type: "string", Required: true},
				{Key: "duration", Type: "string", Required: true},
				{Key: "redemption_link", Type: "string", Required: true},
			},
			Status:      TemplateActive,
			Description: strPtr("Sent when an administrator issues an invitation."),
		},
		{
			Slug:      "password-reset",
			Name:      "Password Reset",
			Category:  "password_reset",
			SubjectEN: "Reset your BioMath Core password",
			BodyEN: `<div><p>Hi {{ first_name }},</p>
<p>We received a request to reset your password. This link expires in {{ expiry_hours }} hours:</p>
<p><a href="{{ reset_link }}">Reset password</a></p>
<p>If you didn't request this, you can ignore this email.</p></div>`,
			VariableSchema: VariableSchema{
				{Key: "first_name", Type: "string", Required: true},
				{Key: "reset_link", Type: "string", Required: true},
				{Key: "expiry_hours", Type: "string", Required: false},
			},
			Status:      TemplateActive,
			Description: strPtr("Password reset flow."),
		},
		{
			Slug:      "payment-success",
			Name:      "Payment Successful",
			Category:  "payment_success",
			SubjectEN: "Payment received for {{ plan_name }}",
			BodyEN: `<div><p>Hi {{ first_name }},</p>
<p>We've received your payment of {{ amount }} for the {{ plan_name }}.</p>
<ul><li>Invoice: {{ invoice_number }}</li><li>Date: {{ payment_date }}</li></ul>
<p>Thank you!</p></div>`,
			VariableSchema: VariableSchema{
				{Key: "first_name", Type: "string", Required: true},
				{Key: "amount", Type: "string", Required: true},
				{Key: "plan_name", Type: "string", Required: true},
				{Key: "invoice_number", Type: "string", Required: true},
				{Key: "payment_date", Type: "string", Required: true},
			},
			Status:      TemplateActive,
			Description: strPtr("Billing confirmation."),
		},
		{
			Slug:      "payment-failed",
			Name:      "Payment Failed",
			Category:  "payment_failed",
			SubjectEN: "Action needed: payment for {{ plan_name }} failed",
			BodyEN: `<div><p>Hi {{ first_name }},</p>
<p>Your payment of {{ amount }} for the {{ plan_name }} could not be processed.</p>
<p>Please update your payment method to keep your subscription active:</p>
<p><a href="{{ billing_link }}">Update payment method</a></p></div>`,
			VariableSchema: VariableSchema{
				{Key: "first_name", Type: "string", Required: true},
				{Key: "amount", Type: "string", Required: true},
				{Key: "plan_name", Type: "string", Required: true},
				{Key: "billing_link", Type: "string", Required: true},
			},
			Status:      TemplateActive,
			Description: strPtr("Dunning notification."),
		},
		{
			Slug:      "billing-invoice",
			Name:      "Billing Invoice",
			Category:  "billing_invoice",
			SubjectEN: "Your BioMath Core invoice {{ invoice_number }}",
			BodyEN: `<div><p>Hi {{ first_name }},</p>
<p>Your invoice {{ invoice_number }} for {{ amount }} is attached to your account.</p>
<p><a href="{{ invoice_link }}">View invoice</a></p></div>`,
			VariableSchema: VariableSchema{
				{Key: "first_name", Type: "string", Required: true},
				{Key: "invoice_number", Type: "string", Required: true},
				{Key: "amount", Type: "string", Required: true},
				{Key: "invoice_link", Type: "string", Required: true},
			},
			Status:      TemplateActive,
			Description: strPtr("Monthly invoice notification."),
		},
		{
			Slug:      "subscription-update",
			Name:      "Subscription Updated",
			Category:  "subscription_update",
			SubjectEN: "Your subscription changed to {{ plan_name }}",
			BodyEN: `<div><p>Hi {{ first_name }},</p>
<p>Your subscription is now <strong>{{ plan_name }}</strong>, effective {{ effective_date }}.</p>
<p>Questions? Just reply to this email.</p></div>`,
			VariableSchema: VariableSchema{
				{Key: "first_name", Type: "string", Required: true},
				{Key: "plan_name", Type: "string", Required: true},
				{Key: "effective_date", Type: "string", Required: true},
			},
			Status:      TemplateActive,
			Description: strPtr("Plan change confirmation."),
		},
		{
			Slug:      "weekly-health-summary",
			Name:      "Weekly Health Summary",
			Category:  "notification",
			SubjectEN: "Your week in review, {{ first_name }}",
			BodyEN: `<div><p>Hi {{ first_name }},</p>
<p>Here's your health summary for {{ week_range }}:</p>
<ul><li>Reports generated: {{ report_count }}</li><li>New insights: {{ insight_count }}</li></ul>
<p><a href="{{ summary_link }}">See the full summary</a></p></div>`,
			VariableSchema: VariableSchema{
				{Key: "first_name", Type: "string", Required: true},
				{Key: "week_range", Type: "string", Required: true},
				{Key: "report_count", Type: "string", Required: false},
				{Key: "insight_count", Type: "string", Required: false},
				{Key: "summary_link", Type: "string", Required: true},
			},
			Status:      TemplateActive,
			Description: strPtr("Weekly digest for active members."),
		},
	}
}

// Seed upserts the default catalog and returns the number of templates
// written.
func Seed(ctx context.Context, store *EmailTemplateStore) (int, error) {
	count := 0
	for _, t := range DefaultTemplates() {
		if err := store.UpsertBySlug(ctx, t); err != nil {
			return count, fmt.Errorf("seed %s: %w", t.Slug, err)
		}
		count++
	}
	return count, nil
}
