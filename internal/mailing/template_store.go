package mailing

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const templateColumns = `id, slug, name, category, subject_en, subject_ru, body_en, body_ru,
	variable_schema, status, description, created_at, updated_at`

// EmailTemplateStore provides database operations for email templates.
// It is the only component that touches the email_templates table; the
// admin API and the dispatcher both go through it.
type EmailTemplateStore struct {
	db *sql.DB
}

// NewEmailTemplateStore creates a new EmailTemplateStore
func NewEmailTemplateStore(db *sql.DB) *EmailTemplateStore {
	return &EmailTemplateStore{db: db}
}

func scanTemplate(row interface{ Scan(...interface{}) error }) (*EmailTemplate, error) {
	t := &EmailTemplate{}
	err := row.Scan(&t.ID, &t.Slug, &t.Name, &t.Category, &t.SubjectEN, &t.SubjectRU,
		&t.BodyEN, &t.BodyRU, &t.VariableSchema, &t.Status, &t.Description,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// List retrieves templates newest first, optionally filtered by a search
// term (matched against name and slug) and a category.
func (s *EmailTemplateStore) List(ctx context.Context, search, category string) ([]*EmailTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM email_templates WHERE 1=1`
	args := []interface{}{}

	if search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		query += fmt.Sprintf(` AND (LOWER(name) LIKE $%d OR LOWER(slug) LIKE $%d)`, len(args), len(args))
	}
	if category != "" && category != "all" {
		args = append(args, category)
		query += fmt.Sprintf(` AND category = $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var templates []*EmailTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// GetBySlug retrieves a template by its slug. Returns (nil, nil) when no
// row matches.
func (s *EmailTemplateStore) GetBySlug(ctx context.Context, slug string) (*EmailTemplate, error) {
	t, err := scanTemplate(s.db.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM email_templates WHERE slug = $1`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// GetByID retrieves a template by ID. Returns (nil, nil) when no row matches.
func (s *EmailTemplateStore) GetByID(ctx context.Context, id uuid.UUID) (*EmailTemplate, error) {
	t, err := scanTemplate(s.db.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM email_templates WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// Create inserts a new template. The caller-chosen slug must be unique;
// the database constraint turns a duplicate into an error.
func (s *EmailTemplateStore) Create(ctx context.Context, t *EmailTemplate) error {
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	t.UpdatedAt = time.Now()
	if t.Status == "" {
		t.Status = TemplateDraft
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO email_templates (id, slug, name, category, subject_en, subject_ru,
			body_en, body_ru, variable_schema, status, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, t.ID, t.Slug, t.Name, t.Category, t.SubjectEN, t.SubjectRU, t.BodyEN, t.BodyRU,
		t.VariableSchema, t.Status, t.Description, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

// Update rewrites a template's mutable fields. Slug is immutable and is
// deliberately absent from the SET list.
func (s *EmailTemplateStore) Update(ctx context.Context, t *EmailTemplate) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE email_templates SET name = $2, category = $3, subject_en = $4, subject_ru = $5,
			body_en = $6, body_ru = $7, variable_schema = $8, status = $9, description = $10,
			updated_at = NOW()
		WHERE id = $1
	`, t.ID, t.Name, t.Category, t.SubjectEN, t.SubjectRU, t.BodyEN, t.BodyRU,
		t.VariableSchema, t.Status, t.Description)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

// Delete removes a template row. Send logs keep a nullable reference to
// the template, so history survives the delete (ON DELETE SET NULL).
func (s *EmailTemplateStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM email_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

// UpsertBySlug inserts a template or, when the slug already exists,
// overwrites the existing row's content. Used by import and seeding;
// slug is the only conflict key considered.
func (s *EmailTemplateStore) UpsertBySlug(ctx context.Context, t *EmailTemplate) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = TemplateActive
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO email_templates (id, slug, name, category, subject_en, subject_ru,
			body_en, body_ru, variable_schema, status, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		ON CONFLICT (slug) DO UPDATE SET
			name = EXCLUDED.name, category = EXCLUDED.category,
			subject_en = EXCLUDED.subject_en, subject_ru = EXCLUDED.subject_ru,
			body_en = EXCLUDED.body_en, body_ru = EXCLUDED.body_ru,
			variable_schema = EXCLUDED.variable_schema, status = EXCLUDED.status,
			description = EXCLUDED.description, updated_at = NOW()
	`, t.ID, t.Slug, t.Name, t.Category, t.SubjectEN, t.SubjectRU, t.BodyEN, t.BodyRU,
		t.VariableSchema, t.Status, t.Description)
	if err != nil {
		return fmt.Errorf("upsert template %s: %w", t.Slug, err)
	}
	return nil
}
