package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "leadrelay/internal/api/context"
	"leadrelay/internal/engine/mapping"
	"leadrelay/internal/pkg/errors"
	"leadrelay/internal/platform/models"
	"leadrelay/internal/platform/repositories"
)

type MappingHandler struct {
	sources  *repositories.SourceRepository
	mappings *repositories.MappingRepository
}

func NewMappingHandler(sources *repositories.SourceRepository, mappings *repositories.MappingRepository) *MappingHandler {
	return &MappingHandler{sources: sources, mappings: mappings}
}

func (h *MappingHandler) ListBySource(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	sourceID := params.ByName("source_id")

	source, err := h.sources.GetByID(sourceID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}
	if source == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Source not found", nil)
		return
	}

	rules, err := h.mappings.ListBySource(sourceID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}
	if rules == nil {
		rules = []*models.FieldMappingRule{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rules)
}

// Replace swaps the full rule set for a source. There is no partial update;
// the repository performs the delete-all/insert-all in one transaction.
func (h *MappingHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SourceID string                     `json:"sourceId"`
		Mappings []*models.FieldMappingRule `json:"mappings"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.SourceID == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "sourceId is required", nil)
		return
	}

	source, err := h.sources.GetByID(req.SourceID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}
	if source == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Source not found", nil)
		return
	}

	for i, rule := range req.Mappings {
		if rule.SourceFieldPath == "" {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput,
				fmt.Sprintf("mappings[%d]: source_field_path is required", i), nil)
			return
		}
		if !mapping.TargetKind(rule.TargetKind).Valid() {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput,
				fmt.Sprintf("mappings[%d]: unknown target_kind %q", i, rule.TargetKind), nil)
			return
		}
	}

	if err := h.mappings.ReplaceAll(req.SourceID, req.Mappings); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}

	rules, err := h.mappings.ListBySource(req.SourceID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rules)
}
