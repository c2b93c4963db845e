package mailing

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SendLogStore provides database operations for the append-only email
// send log. Rows are inserted once per dispatch attempt and never
// updated.
type SendLogStore struct {
	db *sql.DB
}

// NewSendLogStore creates a new SendLogStore
func NewSendLogStore(db *sql.DB) *SendLogStore {
	return &SendLogStore{db: db}
}

// Insert appends one send-attempt record.
func (s *SendLogStore) Insert(ctx context.Context, entry *EmailSendLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO email_sends (id, template_id, recipient_email, subject, body_html,
			body_text, variables_used, send_type, status, provider, provider_message_id,
			sent_at, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, entry.ID, entry.TemplateID, entry.RecipientEmail, entry.Subject, entry.BodyHTML,
		entry.BodyText, entry.VariablesUsed, entry.SendType, entry.Status, entry.Provider,
		entry.ProviderMessageID, entry.SentAt, entry.ErrorMessage, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert send log: %w", err)
	}
	return nil
}

// List retrieves the most recent send attempts, newest first.
func (s *SendLogStore) List(ctx context.Context, limit int) ([]*EmailSendLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, template_id, recipient_email, subject, body_html, body_text,
			variables_used, send_type, status, provider, provider_message_id,
			sent_at, error_message, created_at
		FROM email_sends ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list send logs: %w", err)
	}
	defer rows.Close()

	var logs []*EmailSendLog
	for rows.Next() {
		entry := &EmailSendLog{}
		err := rows.Scan(&entry.ID, &entry.TemplateID, &entry.RecipientEmail, &entry.Subject,
			&entry.BodyHTML, &entry.BodyText, &entry.VariablesUsed, &entry.SendType,
			&entry.Status, &entry.Provider, &entry.ProviderMessageID, &entry.SentAt,
			&entry.ErrorMessage, &entry.CreatedAt)
		if err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}
