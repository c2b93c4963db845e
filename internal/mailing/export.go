package mailing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// ExportVersion is the current export file format version.
const ExportVersion = "1.0"

// TemplateExport is the export/import document: the full template set
// with format metadata. Import upserts by slug only.
type TemplateExport struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Templates  []*EmailTemplate `json:"templates"`
}

// Export snapshots every template into an export document.
func (s *EmailTemplateStore) Export(ctx context.Context) (*TemplateExport, error) {
	templates, err := s.List(ctx, "", "")
	if err != nil {
		return nil, err
	}
	if templates == nil {
		templates = []*EmailTemplate{}
	}
	return &TemplateExport{
		Version:    ExportVersion,
		ExportedAt: time.Now().UTC(),
		Templates:  templates,
	}, nil
}

// ParseTemplateExport decodes and validates an export document.
func ParseTemplateExport(data []byte) (*TemplateExport, error) {
	var doc TemplateExport
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, NewValidationError("invalid template file: %v", err)
	}
	if doc.Templates == nil {
		return nil, NewValidationError("invalid template file format: missing templates array")
	}
	for idx, t := range doc.Templates {
		if t.Slug == "" {
			return nil, NewValidationError("template %d has no slug", idx)
		}
	}
	return &doc, nil
}

// Import upserts every template in the document by slug and returns the
// number of rows written.
func (s *EmailTemplateStore) Import(ctx context.Context, doc *TemplateExport) (int, error) {
	imported := 0
	for _, t := range doc.Templates {
		if err := s.UpsertBySlug(ctx, t); err != nil {
			return imported, fmt.Errorf("import %s: %w", t.Slug, err)
		}
		imported++
	}
	return imported, nil
}
