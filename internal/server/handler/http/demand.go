package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chaabi-dev/demandhub/internal/middleware"
	"github.com/chaabi-dev/demandhub/internal/models"
)

// maxUploadBytes bounds multipart parsing for demand submissions.
const maxUploadBytes = 32 << 20

// DemandService defines the demand operations required by the HTTP handlers.
type DemandService interface {
	Create(ctx context.Context, identity models.Identity, req models.CreateDemandRequest, fileName, fileURL string) (models.Demand, error)
	List(ctx context.Context, filters models.DemandFilters) ([]models.Demand, error)
	Get(ctx context.Context, id int64) (*models.Demand, error)
	Update(ctx context.Context, identity models.Identity, id int64, req models.CreateDemandRequest, fileName, fileURL string) (models.Demand, error)
	UpdateStatus(ctx context.Context, identity models.Identity, id int64, status models.Status, comment string) (*models.Demand, error)
	Delete(ctx context.Context, identity models.Identity, id int64) error
}

// DemandHandler handles HTTP requests for demand CRUD and status transitions.
type DemandHandler struct {
	// Service performs the underlying demand operations.
	Service DemandService
	// UploadDir is where attachments are stored under generated names.
	UploadDir string
	// Log records handler failures for operators.
	Log *zap.Logger
}

// List handles GET /api/v1/demands with optional status, search,
// page, and limit query parameters.
func (h *DemandHandler) List(w http.ResponseWriter, r *http.Request) {
	var filters models.DemandFilters
	q := r.URL.Query()
	if raw := q.Get("status"); raw != "" {
		status, ok := models.ParseStatus(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown status filter")
			return
		}
		filters.Status = status
	}
	filters.Search = q.Get("search")
	filters.Page, _ = strconv.Atoi(q.Get("page"))
	filters.Limit, _ = strconv.Atoi(q.Get("limit"))

	demands, err := h.Service.List(r.Context(), filters)
	if err != nil {
		h.Log.Error("list demands failed", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	if demands == nil {
		demands = []models.Demand{}
	}
	writeJSON(w, http.StatusOK, demands)
}

// Get handles GET /api/v1/demands/{id}.
func (h *DemandHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := demandID(w, r)
	if !ok {
		return
	}
	demand, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, demand)
}

// Create handles POST /api/v1/demands. The body is a multipart form
// with title, description, an "articles" field holding a JSON array,
// and an optional "file" part.
func (h *DemandHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authorization required")
		return
	}
	req, fileName, fileURL, ok := h.parseDemandForm(w, r)
	if !ok {
		return
	}

	demand, err := h.Service.Create(r.Context(), identity, req, fileName, fileURL)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, demand)
}

// Update handles PUT /api/v1/demands/{id} with the same form shape as Create.
func (h *DemandHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authorization required")
		return
	}
	id, ok := demandID(w, r)
	if !ok {
		return
	}
	req, fileName, fileURL, ok := h.parseDemandForm(w, r)
	if !ok {
		return
	}

	demand, err := h.Service.Update(r.Context(), identity, id, req, fileName, fileURL)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, demand)
}

// statusUpdateRequest is the JSON payload of a status transition.
type statusUpdateRequest struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
}

// UpdateStatus handles PATCH /api/v1/demands/{id}/status.
func (h *DemandHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authorization required")
		return
	}
	id, ok := demandID(w, r)
	if !ok {
		return
	}

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	status, ok := models.ParseStatus(req.Status)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}

	demand, err := h.Service.UpdateStatus(r.Context(), identity, id, status, req.Comment)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, demand)
}

// Delete handles DELETE /api/v1/demands/{id}.
func (h *DemandHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authorization required")
		return
	}
	id, ok := demandID(w, r)
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), identity, id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeFile handles GET /api/v1/files/{name}, serving a stored attachment.
func (h *DemandHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(chi.URLParam(r, "name"))
	http.ServeFile(w, r, filepath.Join(h.UploadDir, name))
}

// demandID parses the {id} route parameter, writing a 400 on failure.
func demandID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid demand id")
		return 0, false
	}
	return id, true
}

// parseDemandForm decodes the multipart demand payload and stores an
// attached file, if any, under a generated name in UploadDir.
func (h *DemandHandler) parseDemandForm(w http.ResponseWriter, r *http.Request) (req models.CreateDemandRequest, fileName, fileURL string, ok bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return req, "", "", false
	}
	req.Title = r.FormValue("title")
	req.Description = r.FormValue("description")
	if raw := r.FormValue("articles"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Articles); err != nil {
			writeError(w, http.StatusBadRequest, "articles must be a JSON array")
			return req, "", "", false
		}
	}

	file, header, err := r.FormFile("file")
	if err == http.ErrMissingFile {
		return req, "", "", true
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file part")
		return req, "", "", false
	}
	defer file.Close()

	stored := uuid.NewString() + filepath.Ext(header.Filename)
	if err := h.saveUpload(file, stored); err != nil {
		h.Log.Error("failed to store attachment", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store attachment")
		return req, "", "", false
	}
	return req, header.Filename, "/api/v1/files/" + stored, true
}

func (h *DemandHandler) saveUpload(src io.Reader, stored string) error {
	if err := os.MkdirAll(h.UploadDir, 0o750); err != nil {
		return err
	}
	dst, err := os.Create(filepath.Join(h.UploadDir, stored))
	if err != nil {
		return err
	}
	defer dst.Close()
	_, err = io.Copy(dst, src)
	return err
}
