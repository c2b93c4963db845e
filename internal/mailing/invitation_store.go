package mailing

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const invitationColumns = `id, email, first_name, last_name, code, invited_by, status,
	plan_type, duration_months, expires_at, accepted_at, accepted_by, notes, language,
	created_at, updated_at`

// InvitationStore provides database operations for invitations. Code
// generation is delegated to the database so that uniqueness is enforced
// where the rows live.
type InvitationStore struct {
	db *sql.DB
}

// NewInvitationStore creates a new InvitationStore
func NewInvitationStore(db *sql.DB) *InvitationStore {
	return &InvitationStore{db: db}
}

func scanInvitation(row interface{ Scan(...interface{}) error }) (*Invitation, error) {
	inv := &Invitation{}
	err := row.Scan(&inv.ID, &inv.Email, &inv.FirstName, &inv.LastName, &inv.Code,
		&inv.InvitedBy, &inv.Status, &inv.PlanType, &inv.DurationMonths, &inv.ExpiresAt,
		&inv.AcceptedAt, &inv.AcceptedBy, &inv.Notes, &inv.Language,
		&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// GenerateCode allocates a fresh redemption code via the database's
// generate_invitation_code() function, which retries until the code is
// unique among existing invitations.
func (s *InvitationStore) GenerateCode(ctx context.Context) (string, error) {
	var code string
	err := s.db.QueryRowContext(ctx, `SELECT generate_invitation_code()`).Scan(&code)
	if err != nil {
		return "", fmt.Errorf("generate invitation code: %w", err)
	}
	return code, nil
}

// Create persists a new invitation. The unique index on code turns an
// allocator collision into a creation failure rather than a silent
// overwrite.
func (s *InvitationStore) Create(ctx context.Context, inv *Invitation) error {
	inv.ID = uuid.New()
	inv.Email = strings.ToLower(strings.TrimSpace(inv.Email))
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = time.Now()
	if inv.Status == "" {
		inv.Status = InvitationPending
	}
	if inv.Language == "" {
		inv.Language = LocaleEN
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invitations (id, email, first_name, last_name, code, invited_by,
			status, plan_type, duration_months, expires_at, notes, language, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, inv.ID, inv.Email, inv.FirstName, inv.LastName, inv.Code, inv.InvitedBy,
		inv.Status, inv.PlanType, inv.DurationMonths, inv.ExpiresAt, inv.Notes,
		inv.Language, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create invitation: %w", err)
	}
	return nil
}

// List retrieves invitations newest first, optionally filtered by status.
func (s *InvitationStore) List(ctx context.Context, status string) ([]*Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations`
	args := []interface{}{}
	if status != "" && status != "all" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	defer rows.Close()

	var invitations []*Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

// GetByID retrieves an invitation by ID. Returns (nil, nil) when no row
// matches.
func (s *InvitationStore) GetByID(ctx context.Context, id uuid.UUID) (*Invitation, error) {
	inv, err := scanInvitation(s.db.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return inv, err
}

// GetByCode retrieves an invitation by its redemption code, the only
// token the redemption flow may use. A pending invitation past its
// expiry reads back (and is persisted) as expired.
func (s *InvitationStore) GetByCode(ctx context.Context, code string) (*Invitation, error) {
	inv, err := scanInvitation(s.db.QueryRowContext(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE code = $1`, code))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if inv.Status == InvitationPending && inv.ExpiresAt != nil && inv.ExpiresAt.Before(time.Now()) {
		if _, uerr := s.db.ExecContext(ctx, `
			UPDATE invitations SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3
		`, inv.ID, InvitationExpired, InvitationPending); uerr != nil {
			return nil, fmt.Errorf("expire invitation %s: %w", inv.ID, uerr)
		}
		inv.Status = InvitationExpired
	}
	return inv, nil
}

// Revoke moves a pending invitation to revoked. Terminal states never
// transition again, so anything but pending is rejected.
func (s *InvitationStore) Revoke(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE invitations SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`, id, InvitationRevoked, InvitationPending)
	if err != nil {
		return fmt.Errorf("revoke invitation: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return NewValidationError("only pending invitations can be revoked")
	}
	return nil
}

// Accept marks a pending invitation accepted by the given user. The
// WHERE clause enforces the one-directional transition.
func (s *InvitationStore) Accept(ctx context.Context, code string, acceptedBy uuid.UUID) (*Invitation, error) {
	inv, err := s.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, NewValidationError("invitation code not found")
	}
	if inv.Status != InvitationPending {
		return nil, NewValidationError("invitation is %s and can no longer be accepted", inv.Status)
	}

	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		UPDATE invitations SET status = $2, accepted_at = $3, accepted_by = $4, updated_at = NOW()
		WHERE id = $1 AND status = $5
	`, inv.ID, InvitationAccepted, now, acceptedBy, InvitationPending)
	if err != nil {
		return nil, fmt.Errorf("accept invitation: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, NewValidationError("invitation is no longer pending")
	}

	inv.Status = InvitationAccepted
	inv.AcceptedAt = &now
	inv.AcceptedBy = &acceptedBy
	return inv, nil
}

// Delete removes an invitation row entirely.
func (s *InvitationStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM invitations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete invitation: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return NewValidationError("invitation not found")
	}
	return nil
}

// Stats aggregates invitation counts by status.
func (s *InvitationStore) Stats(ctx context.Context) (*InvitationStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM invitations GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("invitation stats: %w", err)
	}
	defer rows.Close()

	stats := &InvitationStats{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.Total += count
		switch status {
		case InvitationPending:
			stats.Pending = count
		case InvitationAccepted:
			stats.Accepted = count
		case InvitationExpired:
			stats.Expired = count
		case InvitationRevoked:
			stats.Revoked = count
		}
	}
	return stats, rows.Err()
}
