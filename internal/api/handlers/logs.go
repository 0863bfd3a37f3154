package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	apiContext "leadrelay/internal/api/context"
	"leadrelay/internal/pkg/errors"
	"leadrelay/internal/platform/models"
	"leadrelay/internal/platform/repositories"
)

type LogHandler struct {
	logs *repositories.RequestLogRepository
}

func NewLogHandler(logs *repositories.RequestLogRepository) *LogHandler {
	return &LogHandler{logs: logs}
}

func (h *LogHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	logs, total, err := h.logs.List(page, limit)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}
	if logs == nil {
		logs = []*models.RequestLog{}
	}

	response := struct {
		Logs  []*models.RequestLog `json:"logs"`
		Total int                  `json:"total"`
	}{
		Logs:  logs,
		Total: total,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (h *LogHandler) Get(w http.ResponseWriter, r *http.Request) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	id := params.ByName("log_id")

	entry, err := h.logs.GetByID(id)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}
	if entry == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Request log not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(entry)
}
