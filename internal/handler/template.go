package handler

import (
	"log/slog"
	"net/http"

	"apdvault/internal/httputil"
	"apdvault/internal/template"
)

// TemplateHandler serves the built-in document template registry.
type TemplateHandler struct {
	registry *template.Registry
	logger   *slog.Logger
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(registry *template.Registry, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{
		registry: registry,
		logger:   logger,
	}
}

// ListTemplates returns all registered document templates
// GET /api/templates
func (h *TemplateHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates := h.registry.List()
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"templates": templates,
		"total":     len(templates),
	})
}

// GetTemplate returns a single template by document type
// GET /api/templates/{type}
func (h *TemplateHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	docType := r.PathValue("type")
	if docType == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document type is required")
		return
	}

	tmpl, err := h.registry.Get(docType)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, tmpl)
}
