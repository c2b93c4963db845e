package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/biomathcore/email-service/internal/mailing"
)

// templatePayload is the create/update body for the admin screen.
type templatePayload struct {
	Slug           string                 `json:"slug"`
	Name           string                 `json:"name"`
	Category       string                 `json:"category"`
	SubjectEN      string                 `json:"subject_en"`
	SubjectRU      *string                `json:"subject_ru"`
	BodyEN         string                 `json:"body_en"`
	BodyRU         *string                `json:"body_ru"`
	VariableSchema mailing.VariableSchema `json:"variable_schema"`
	Status         string                 `json:"status"`
	Description    *string                `json:"description"`
}

// HandleListTemplates is GET /api/templates?search=&category=.
func (h *Handlers) HandleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.templates.List(r.Context(), r.URL.Query().Get("search"), r.URL.Query().Get("category"))
	if err != nil {
		log.Printf("Error listing templates: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to load templates")
		return
	}
	if templates == nil {
		templates = []*mailing.EmailTemplate{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"templates": templates})
}

// HandleGetTemplate is GET /api/templates/{slug}.
func (h *Handlers) HandleGetTemplate(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	tmpl, err := h.templates.GetBySlug(r.Context(), slug)
	if err != nil {
		log.Printf("Error loading template %s: %v", slug, err)
		writeError(w, http.StatusInternalServerError, "failed to load template")
		return
	}
	if tmpl == nil {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

// HandleCreateTemplate is POST /api/templates.
func (h *Handlers) HandleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var input templatePayload
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if input.Slug == "" || input.Name == "" || input.SubjectEN == "" || input.BodyEN == "" {
		writeError(w, http.StatusBadRequest, "missing required fields: slug, name, subject_en, body_en")
		return
	}

	tmpl := &mailing.EmailTemplate{
		Slug:           input.Slug,
		Name:           input.Name,
		Category:       input.Category,
		SubjectEN:      input.SubjectEN,
		SubjectRU:      input.SubjectRU,
		BodyEN:         input.BodyEN,
		BodyRU:         input.BodyRU,
		VariableSchema: input.VariableSchema,
		Status:         input.Status,
		Description:    input.Description,
	}
	if err := h.templates.Create(r.Context(), tmpl); err != nil {
		log.Printf("Error creating template %s: %v", input.Slug, err)
		writeError(w, http.StatusInternalServerError, "failed to create template")
		return
	}
	writeJSON(w, http.StatusCreated, tmpl)
}

// HandleUpdateTemplate is PUT /api/templates/{id}. The slug cannot be
// changed after creation.
func (h *Handlers) HandleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template id")
		return
	}

	existing, err := h.templates.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load template")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}

	var input templatePayload
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	existing.Name = input.Name
	existing.Category = input.Category
	existing.SubjectEN = input.SubjectEN
	existing.SubjectRU = input.SubjectRU
	existing.BodyEN = input.BodyEN
	existing.BodyRU = input.BodyRU
	existing.VariableSchema = input.VariableSchema
	existing.Status = input.Status
	existing.Description = input.Description

	if err := h.templates.Update(r.Context(), existing); err != nil {
		log.Printf("Error updating template %s: %v", id, err)
		writeDomainError(w, err)
		return
	}
	h.invalidateTemplate(r, existing.Slug)
	writeJSON(w, http.StatusOK, existing)
}

// HandleDeleteTemplate is DELETE /api/templates/{id}. Send logs keep a
// nulled reference, so history is preserved.
func (h *Handlers) HandleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid template id")
		return
	}

	existing, err := h.templates.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load template")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}

	if err := h.templates.Delete(r.Context(), id); err != nil {
		log.Printf("Error deleting template %s: %v", id, err)
		writeDomainError(w, err)
		return
	}
	h.invalidateTemplate(r, existing.Slug)
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id.String(), "deleted": true})
}

// HandleSeedTemplates is POST /api/templates/seed: upserts the built-in
// catalog by slug.
func (h *Handlers) HandleSeedTemplates(w http.ResponseWriter, r *http.Request) {
	count, err := mailing.Seed(r.Context(), h.templates)
	if err != nil {
		log.Printf("Error seeding templates: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to seed templates")
		return
	}
	for _, t := range mailing.DefaultTemplates() {
		h.invalidateTemplate(r, t.Slug)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"seeded": count})
}

// HandleExportTemplates is GET /api/templates/export: the full catalog
// as a {version, exported_at, templates} document.
func (h *Handlers) HandleExportTemplates(w http.ResponseWriter, r *http.Request) {
	doc, err := h.templates.Export(r.Context())
	if err != nil {
		log.Printf("Error exporting templates: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to export templates")
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="email-templates.json"`)
	writeJSON(w, http.StatusOK, doc)
}

// HandleImportTemplates is POST /api/templates/import: upserts an export
// document by slug.
func (h *Handlers) HandleImportTemplates(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 10<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	doc, err := mailing.ParseTemplateExport(body)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	imported, err := h.templates.Import(r.Context(), doc)
	if err != nil {
		log.Printf("Error importing templates: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to import templates")
		return
	}
	for _, t := range doc.Templates {
		h.invalidateTemplate(r, t.Slug)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"imported": imported})
}

func (h *Handlers) invalidateTemplate(r *http.Request, slug string) {
	if h.cache != nil {
		h.cache.Invalidate(r.Context(), slug)
	}
}
