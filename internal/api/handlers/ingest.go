package handlers

import (
	"context"
	"encoding/json"
	errs "errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	apiContext "leadrelay/internal/api/context"
	"leadrelay/internal/engine/mapping"
	"leadrelay/internal/engine/sinks"
	"leadrelay/internal/pkg/errors"
	"leadrelay/internal/platform/models"
	"leadrelay/internal/platform/repositories"
)

// LeadCreator is what the orchestrator needs from the CRM client.
type LeadCreator interface {
	CreateLead(ctx context.Context, payload *mapping.LeadPayload) (int64, error)
}

// IngestHandler drives one inbound submission end to end: resolve the
// source, open the audit row, map the payload, create the CRM lead, fan out
// to the best-effort sinks, close the audit row.
type IngestHandler struct {
	sources    *repositories.SourceRepository
	mappings   *repositories.MappingRepository
	logs       *repositories.RequestLogRepository
	mapper     *mapping.Mapper
	crm        LeadCreator
	dispatcher *sinks.Dispatcher
}

func NewIngestHandler(
	sources *repositories.SourceRepository,
	mappings *repositories.MappingRepository,
	logs *repositories.RequestLogRepository,
	mapper *mapping.Mapper,
	crm LeadCreator,
	dispatcher *sinks.Dispatcher,
) *IngestHandler {
	return &IngestHandler{
		sources:    sources,
		mappings:   mappings,
		logs:       logs,
		mapper:     mapper,
		crm:        crm,
		dispatcher: dispatcher,
	}
}

func (h *IngestHandler) Handle(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	sourceName := params.ByName("source_name")

	source, err := h.sources.GetByName(sourceName)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to resolve source", nil)
		return
	}
	if source == nil {
		// Nothing to attribute a log row to.
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Unknown source: "+sourceName, nil)
		return
	}

	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Failed to read request body", nil)
		return
	}

	var inbound map[string]interface{}
	if err := json.Unmarshal(rawBody, &inbound); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Request body must be a JSON object", nil)
		return
	}

	now := time.Now().Unix()
	entry := &models.RequestLog{
		ID:        "log_" + uuid.New().String(),
		SourceID:  source.ID,
		RawInput:  string(rawBody),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.logs.CreatePending(entry); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to record request", nil)
		return
	}

	rules, err := h.mappings.ListBySource(source.ID)
	if err != nil {
		h.fail(entry.ID, map[string]interface{}{"error": "failed to load mapping rules: " + err.Error()})
		errors.WriteErrorWithLog(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load mapping rules", entry.ID)
		return
	}
	if len(rules) == 0 {
		// A source with no rules is misconfigured, not a silent no-op.
		h.fail(entry.ID, map[string]interface{}{"error": "no mapping rules configured for source", "source": source.Name})
		errors.WriteErrorWithLog(w, http.StatusBadRequest, errors.ErrCodeNoMappingRules, "No mapping rules configured for source "+source.Name, entry.ID)
		return
	}

	payload := h.mapper.Build(source.Name, inbound, rules)

	leadID, err := h.crm.CreateLead(r.Context(), payload)
	if err != nil {
		h.fail(entry.ID, crmFailure(err))

		code := errors.ErrCodeUpstream
		if errs.Is(err, errors.ErrAuthFailed) {
			code = errors.ErrCodeAuthFailed
		}
		errors.WriteErrorWithLog(w, http.StatusInternalServerError, code, err.Error(), entry.ID)
		return
	}

	// Secondary sinks get the raw submission, not the CRM-shaped payload.
	h.dispatcher.Dispatch(source.Name, inbound)

	response, _ := json.Marshal(map[string]interface{}{"lead_id": leadID})
	if err := h.logs.MarkSuccess(entry.ID, string(response)); err != nil {
		log.Error().Err(err).Str("log_id", entry.ID).Msg("failed to mark request log success")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Lead received",
		"logId":   entry.ID,
		"leadId":  leadID,
	})
}

func (h *IngestHandler) fail(logID string, details map[string]interface{}) {
	payload, _ := json.Marshal(details)
	if err := h.logs.MarkFailure(logID, string(payload)); err != nil {
		log.Error().Err(err).Str("log_id", logID).Msg("failed to mark request log failure")
	}
}

// crmFailure keeps upstream rejections structured (status + verbatim body)
// in the audit record instead of flattening them into one string.
func crmFailure(err error) map[string]interface{} {
	var upstream *errors.UpstreamError
	if errs.As(err, &upstream) {
		return map[string]interface{}{
			"error":  "kommo rejected the lead",
			"status": upstream.Status,
			"body":   upstream.Body,
		}
	}
	return map[string]interface{}{"error": err.Error()}
}
