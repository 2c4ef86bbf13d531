package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Cipherchain/internal/domain"
	"github.com/shaiso/Cipherchain/internal/repo"
)

// ListTemplates возвращает все шаблоны.
// GET /api/v1/templates
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := h.templates.List(r.Context())
	if HandleRepoError(w, h.log(r), err, "") {
		return
	}

	List(w, list, len(list))
}

// CreateTemplate сохраняет новый шаблон.
// POST /api/v1/templates
func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req TemplateRequest
	if !decode(w, r, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		BadRequest(w, "name is required")
		return
	}

	tmpl := &domain.ChainTemplate{
		ID:          uuid.NewString(),
		Name:        name,
		Description: req.Description,
		Steps:       normalizeSteps(req.Steps),
		Created:     time.Now().UTC(),
		Tags:        req.Tags,
	}

	if err := h.templates.Create(r.Context(), tmpl); err != nil {
		HandleRepoError(w, h.log(r), err, "")
		return
	}

	Created(w, tmpl)
}

// GetTemplate возвращает шаблон по ID.
// GET /api/v1/templates/{id}
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	tmpl, err := h.templates.Get(r.Context(), r.PathValue("id"))
	if HandleRepoError(w, h.log(r), err, "template not found") {
		return
	}

	Success(w, tmpl)
}

// UpdateTemplate заменяет имя, описание, шаги и теги шаблона.
// PUT /api/v1/templates/{id}
func (h *Handler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var req TemplateRequest
	if !decode(w, r, &req) {
		return
	}

	tmpl, err := h.templates.Get(r.Context(), r.PathValue("id"))
	if HandleRepoError(w, h.log(r), err, "template not found") {
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		tmpl.Name = name
	}
	tmpl.Description = req.Description
	tmpl.Steps = normalizeSteps(req.Steps)
	tmpl.Tags = req.Tags

	if err := h.templates.Update(r.Context(), tmpl); err != nil {
		HandleRepoError(w, h.log(r), err, "template not found")
		return
	}

	Success(w, tmpl)
}

// DeleteTemplate удаляет шаблон.
// DELETE /api/v1/templates/{id}
func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.templates.Delete(r.Context(), r.PathValue("id")); err != nil {
		HandleRepoError(w, h.log(r), err, "template not found")
		return
	}

	NoContent(w)
}

// RunTemplate выполняет сохранённый шаблон.
// POST /api/v1/templates/{id}/run
func (h *Handler) RunTemplate(w http.ResponseWriter, r *http.Request) {
	var req RunTemplateRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.service.RunTemplate(r.Context(), r.PathValue("id"), req.Input)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			NotFound(w, "template not found")
			return
		}
		InternalError(w, h.log(r), err)
		return
	}

	Success(w, res)
}

// normalizeSteps выдаёт ID шагам без него.
func normalizeSteps(steps []domain.Step) []domain.Step {
	out := make([]domain.Step, len(steps))
	for i, s := range steps {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		out[i] = s
	}
	return out
}
