package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biomathcore/email-service/internal/mailing"
)

type stubProvider struct {
	mu        sync.Mutex
	calls     int
	messageID string
	err       error
}

func (s *stubProvider) Name() string { return "resend" }

func (s *stubProvider) Send(ctx context.Context, from, to, subject, html string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.messageID, nil
}

type testServer struct {
	router   http.Handler
	mock     sqlmock.Sqlmock
	provider *stubProvider
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	templates := mailing.NewEmailTemplateStore(db)
	logs := mailing.NewSendLogStore(db)
	invitations := mailing.NewInvitationStore(db)
	provider := &stubProvider{messageID: "msg-1"}
	dispatcher := mailing.NewDispatcher(templates, logs, provider, "BioMath Core <noreply@biomathcore.com>")
	issuer := mailing.NewIssuer(invitations, dispatcher, "https://biomathcore.com")

	h := NewHandlers(templates, logs, invitations, dispatcher, issuer, nil)
	return &testServer{router: SetupRoutes(h), mock: mock, provider: provider}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func welcomeTemplateRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "slug", "name", "category", "subject_en", "subject_ru", "body_en", "body_ru",
		"variable_schema", "status", "description", "created_at", "updated_at",
	}).AddRow(uuid.New().String(), "welcome", "Welcome Email", "welcome",
		"Hello {{ name }}", nil, "<p>Hi {{ name }}</p>", nil,
		`[{"key":"name","type":"string","required":true}]`, "active", nil,
		time.Now(), time.Now())
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do("GET", "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestSendTemplatedEndpoint(t *testing.T) {
	srv := newTestServer(t)
	srv.mock.ExpectQuery(`SELECT (.+) FROM email_templates WHERE slug = \$1`).
		WithArgs("welcome").
		WillReturnRows(welcomeTemplateRows())
	srv.mock.ExpectExec(`INSERT INTO email_sends`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := srv.do("POST", "/api/email/send",
		`{"to": "anna@example.com", "templateSlug": "welcome", "templateData": {"name": "Anna"}}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "msg-1", body["messageId"])
	assert.Equal(t, 1, srv.provider.calls)
	assert.NoError(t, srv.mock.ExpectationsWereMet())
}

func TestSendTemplatedUnknownSlug(t *testing.T) {
	srv := newTestServer(t)
	srv.mock.ExpectQuery(`SELECT (.+) FROM email_templates WHERE slug = \$1`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec := srv.do("POST", "/api/email/send",
		`{"to": "anna@example.com", "templateSlug": "ghost", "templateData": {}}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, srv.provider.calls, "an unknown slug never reaches the provider")
	assert.NoError(t, srv.mock.ExpectationsWereMet(), "no send-log row for an unknown slug")
}

func TestSendTemplatedValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do("POST", "/api/email/send", `{"to": "anna@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, srv.provider.calls)
}

func TestSendTemplatedInvalidJSON(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do("POST", "/api/email/send", `{broken`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendTemplatedProviderFailure(t *testing.T) {
	srv := newTestServer(t)
	srv.provider.err = errors.New("resend: rate limited")
	srv.mock.ExpectQuery(`SELECT (.+) FROM email_templates WHERE slug = \$1`).
		WithArgs("welcome").
		WillReturnRows(welcomeTemplateRows())
	// The failed attempt is still logged.
	srv.mock.ExpectExec(`INSERT INTO email_sends`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := srv.do("POST", "/api/email/send",
		`{"to": "anna@example.com", "templateSlug": "welcome", "templateData": {"name": "Anna"}}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "failed to send email")
	assert.NoError(t, srv.mock.ExpectationsWereMet())
}

func TestSendTestEndpoint(t *testing.T) {
	srv := newTestServer(t)
	srv.mock.ExpectExec(`INSERT INTO email_sends`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := srv.do("POST", "/api/email/send-test",
		`{"to": "anna@example.com", "subject": "Test", "html": "<p>Test</p>"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, srv.provider.calls)
	assert.NoError(t, srv.mock.ExpectationsWereMet())
}

func TestGetTemplateEndpoint(t *testing.T) {
	srv := newTestServer(t)
	srv.mock.ExpectQuery(`SELECT (.+) FROM email_templates WHERE slug = \$1`).
		WithArgs("welcome").
		WillReturnRows(welcomeTemplateRows())

	rec := srv.do("GET", "/api/templates/welcome", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var tmpl mailing.EmailTemplate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tmpl))
	assert.Equal(t, "welcome", tmpl.Slug)
	assert.Equal(t, "Hello {{ name }}", tmpl.SubjectEN)
}

func TestGetTemplateEndpointMissing(t *testing.T) {
	srv := newTestServer(t)
	srv.mock.ExpectQuery(`SELECT (.+) FROM email_templates WHERE slug = \$1`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec := srv.do("GET", "/api/templates/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateInvitationEndpoint(t *testing.T) {
	srv := newTestServer(t)
	srv.mock.ExpectQuery(`SELECT generate_invitation_code\(\)`).
		WillReturnRows(sqlmock.NewRows([]string{"generate_invitation_code"}).AddRow("ABCD2345EFGH"))
	srv.mock.ExpectExec(`INSERT INTO invitations`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest("POST", "/api/invitations",
		strings.NewReader(`{"email": "anna@example.com", "plan_type": "core", "expires_in_days": 0}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", uuid.New().String())
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var result mailing.IssueResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotNil(t, result.Invitation)
	assert.Equal(t, "ABCD2345EFGH", result.Invitation.Code)
	assert.Nil(t, result.Invitation.ExpiresAt, "zero expires_in_days means no expiry")
	assert.False(t, result.EmailSent)
	assert.NoError(t, srv.mock.ExpectationsWereMet())
}

func TestCreateInvitationRejectsBadEmail(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do("POST", "/api/invitations", `{"email": "not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRedeemLookupUnknownCode(t *testing.T) {
	srv := newTestServer(t)
	srv.mock.ExpectQuery(`SELECT (.+) FROM invitations WHERE code = \$1`).
		WithArgs("NOPE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec := srv.do("GET", "/api/invitations/redeem/NOPE", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRevokeInvitationInvalidID(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do("POST", "/api/invitations/not-a-uuid/revoke", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
