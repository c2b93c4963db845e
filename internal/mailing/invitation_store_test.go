package mailing

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invitationRows(inv *Invitation) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "email", "first_name", "last_name", "code", "invited_by", "status",
		"plan_type", "duration_months", "expires_at", "accepted_at", "accepted_by",
		"notes", "language", "created_at", "updated_at",
	}).AddRow(inv.ID.String(), inv.Email, inv.FirstName, inv.LastName, inv.Code, inv.InvitedBy.String(),
		inv.Status, inv.PlanType, inv.DurationMonths, inv.ExpiresAt, inv.AcceptedAt,
		inv.AcceptedBy, inv.Notes, inv.Language, inv.CreatedAt, inv.UpdatedAt)
}

func TestInvitationStoreGenerateCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT generate_invitation_code\(\)`).
		WillReturnRows(sqlmock.NewRows([]string{"generate_invitation_code"}).AddRow("ABCD2345EFGH"))

	store := NewInvitationStore(db)
	code, err := store.GenerateCode(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ABCD2345EFGH", code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Sequential allocations must return distinct codes; the database
// function retries until the candidate is unused, so at this boundary
// we assert that two calls never observe the same value.
func TestInvitationStoreGenerateCodeDistinct(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT generate_invitation_code\(\)`).
		WillReturnRows(sqlmock.NewRows([]string{"generate_invitation_code"}).AddRow("CODEAAAA2222"))
	mock.ExpectQuery(`SELECT generate_invitation_code\(\)`).
		WillReturnRows(sqlmock.NewRows([]string{"generate_invitation_code"}).AddRow("CODEBBBB3333"))

	store := NewInvitationStore(db)
	first, err := store.GenerateCode(context.Background())
	require.NoError(t, err)
	second, err := store.GenerateCode(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationStoreCreateNormalizesEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO invitations`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewInvitationStore(db)
	inv := &Invitation{
		Email:     "  Anna@Example.COM ",
		Code:      "CODEAAAA2222",
		InvitedBy: uuid.New(),
		PlanType:  "core",
	}
	require.NoError(t, store.Create(context.Background(), inv))

	assert.Equal(t, "anna@example.com", inv.Email)
	assert.Equal(t, InvitationPending, inv.Status)
	assert.Equal(t, LocaleEN, inv.Language)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationStoreGetByCodeLazyExpiry(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	past := time.Now().Add(-24 * time.Hour)
	inv := &Invitation{
		ID: uuid.New(), Email: "anna@example.com", Code: "CODEAAAA2222",
		InvitedBy: uuid.New(), Status: InvitationPending, PlanType: "core",
		DurationMonths: 3, ExpiresAt: &past, Language: LocaleEN,
		CreatedAt: time.Now().Add(-48 * time.Hour), UpdatedAt: time.Now().Add(-48 * time.Hour),
	}

	mock.ExpectQuery(`SELECT (.+) FROM invitations WHERE code = \$1`).
		WithArgs("CODEAAAA2222").
		WillReturnRows(invitationRows(inv))
	mock.ExpectExec(`UPDATE invitations SET status = \$2`).
		WithArgs(inv.ID, InvitationExpired, InvitationPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewInvitationStore(db)
	got, err := store.GetByCode(context.Background(), "CODEAAAA2222")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, InvitationExpired, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationStoreRevokeRequiresPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// RowsAffected 0 means the row was not pending (or absent).
	mock.ExpectExec(`UPDATE invitations SET status = \$2`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewInvitationStore(db)
	err = store.Revoke(context.Background(), uuid.New())

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationStoreStats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM invitations GROUP BY status`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow(InvitationPending, 4).
			AddRow(InvitationAccepted, 2).
			AddRow(InvitationRevoked, 1))

	store := NewInvitationStore(db)
	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, stats.Total)
	assert.Equal(t, 4, stats.Pending)
	assert.Equal(t, 2, stats.Accepted)
	assert.Equal(t, 0, stats.Expired)
	assert.Equal(t, 1, stats.Revoked)
	assert.NoError(t, mock.ExpectationsWereMet())
}
