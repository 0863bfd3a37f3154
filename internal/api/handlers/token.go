package handlers

import (
	"encoding/json"
	"net/http"

	"leadrelay/internal/pkg/errors"
	"leadrelay/internal/platform/repositories"
)

// TokenHandler seeds or replaces the persisted Kommo refresh token. This is
// the manual recovery path when the rotation chain breaks.
type TokenHandler struct {
	config *repositories.ConfigRepository
}

func NewTokenHandler(config *repositories.ConfigRepository) *TokenHandler {
	return &TokenHandler{config: config}
}

func (h *TokenHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Token == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Token is required", nil)
		return
	}

	if err := h.config.Set(r.Context(), req.Token); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Refresh token saved"})
}
