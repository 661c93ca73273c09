package handler

import (
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"apdvault/internal/config"
	"apdvault/internal/httputil"
	"apdvault/internal/service/versioncontrol"
)

// CommitRequest carries the inputs for freezing a working copy into a version.
type CommitRequest struct {
	Message string `json:"message"`
	Author  string `json:"author"` // optional; falls back to the authenticated identity
}

// Validate checks the request shape.
func (r CommitRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Message, validation.Required, validation.Length(1, config.MaxCommitMessageLength)),
		validation.Field(&r.Author, validation.Length(0, config.MaxAuthorLength)),
	)
}

// RevertRequest carries the inputs for staging a rollback.
type RevertRequest struct {
	TargetVersionID     string `json:"target_version_id"`
	PreserveWorkingCopy bool   `json:"preserve_working_copy"`
	CreateBackup        bool   `json:"create_backup"`
}

// Validate checks the request shape.
func (r RevertRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.TargetVersionID, validation.Required),
	)
}

// BranchRequest carries the inputs for branching a working copy off a version.
type BranchRequest struct {
	VersionID string `json:"version_id"`
}

// Validate checks the request shape.
func (r BranchRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.VersionID, validation.Required),
	)
}

// VersionHandler exposes the version-control engine over HTTP: working-copy
// access, commits, history, compare, revert, and branch.
type VersionHandler struct {
	engine *versioncontrol.Service
	logger *slog.Logger
}

// NewVersionHandler creates a new version handler
func NewVersionHandler(engine *versioncontrol.Service, logger *slog.Logger) *VersionHandler {
	return &VersionHandler{
		engine: engine,
		logger: logger,
	}
}

// GetWorkingCopy returns the document's working copy, creating it on first access
// GET /api/documents/{id}/working-copy
func (h *VersionHandler) GetWorkingCopy(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	wc, err := h.engine.GetOrCreateWorkingCopy(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, wc)
}

// GetPendingHighlights returns highlight metadata for uncommitted changes
// GET /api/documents/{id}/working-copy/highlights
func (h *VersionHandler) GetPendingHighlights(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	highlights, err := h.engine.PendingHighlights(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"highlights": highlights,
		"total":      len(highlights),
	})
}

// Commit freezes the working copy into a new version
// POST /api/documents/{id}/versions
func (h *VersionHandler) Commit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	var req CommitRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	author := req.Author
	if author == "" {
		author = httputil.GetAuthor(r)
	}

	version, err := h.engine.Commit(r.Context(), id, req.Message, author)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, version)
}

// History lists all versions of a document
// GET /api/documents/{id}/versions
func (h *VersionHandler) History(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	versions, err := h.engine.History(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"versions": versions,
		"total":    len(versions),
	})
}

// GetVersion retrieves a single version
// GET /api/versions/{id}
func (h *VersionHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "version ID is required")
		return
	}

	version, err := h.engine.GetVersion(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, version)
}

// Compare diffs two versions
// GET /api/documents/{id}/compare?from={versionID}&to={versionID}
func (h *VersionHandler) Compare(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		httputil.RespondError(w, http.StatusBadRequest, "from and to version IDs are required")
		return
	}

	diff, err := h.engine.Compare(r.Context(), from, to)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, diff)
}

// Revert stages a rollback to a historical version
// POST /api/documents/{id}/revert
func (h *VersionHandler) Revert(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	var req RevertRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	wc, err := h.engine.Revert(r.Context(), id, req.TargetVersionID, versioncontrol.RevertOptions{
		PreserveWorkingCopy: req.PreserveWorkingCopy,
		CreateBackup:        req.CreateBackup,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, wc)
}

// Branch creates a working copy from an arbitrary version without touching
// the document
// POST /api/documents/{id}/branch
func (h *VersionHandler) Branch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	var req BranchRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	wc, err := h.engine.CreateWorkingCopyFromVersion(r.Context(), id, req.VersionID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, wc)
}
