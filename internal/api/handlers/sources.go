package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	apiContext "leadrelay/internal/api/context"
	"leadrelay/internal/pkg/errors"
	"leadrelay/internal/platform/models"
	"leadrelay/internal/platform/repositories"
)

type SourceHandler struct {
	sources *repositories.SourceRepository
}

func NewSourceHandler(sources *repositories.SourceRepository) *SourceHandler {
	return &SourceHandler{sources: sources}
}

func (h *SourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Type    string `json:"type"`
		FeedURL string `json:"feedUrl"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Source name is required", nil)
		return
	}

	existing, err := h.sources.GetByName(req.Name)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}
	if existing != nil {
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "Source name already in use", nil)
		return
	}

	now := time.Now().Unix()
	source := &models.Source{
		ID:        "src_" + uuid.New().String(),
		Name:      req.Name,
		Type:      req.Type,
		FeedURL:   req.FeedURL,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.sources.Create(source); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(source)
}

func (h *SourceHandler) List(w http.ResponseWriter, r *http.Request) {
	sources, err := h.sources.List()
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}
	if sources == nil {
		sources = []*models.Source{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sources)
}

// UpdateFeedURL handles the one field a source may change after creation.
func (h *SourceHandler) UpdateFeedURL(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	id := params.ByName("source_id")

	var req struct {
		FeedURL string `json:"feedUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	source, err := h.sources.GetByID(id)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}
	if source == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Source not found", nil)
		return
	}

	if err := h.sources.UpdateFeedURL(id, req.FeedURL); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}

	source.FeedURL = req.FeedURL
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(source)
}
