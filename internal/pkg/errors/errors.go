package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	LogID   string      `json:"logId,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

const (
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeUnauthorized   = "UNAUTHORIZED"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeConflict       = "CONFLICT"
	ErrCodeNoMappingRules = "NO_MAPPING_RULES"
	ErrCodeAuthFailed     = "AUTH_FAILED"
	ErrCodeUpstream       = "UPSTREAM_ERROR"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// ErrAuthFailed marks a failed Kommo token refresh. The cache is left cold;
// the next request retries the exchange.
var ErrAuthFailed = errors.New("kommo authentication failed")

// ErrNoRefreshToken means the persisted refresh token row is missing and
// must be re-seeded through the admin token endpoint.
var ErrNoRefreshToken = errors.New("no refresh token configured")

// UpstreamError carries a remote API rejection verbatim so the audit log and
// the caller see exactly what the upstream returned.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned HTTP %d: %s", e.Status, e.Body)
}

func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
		Details: details,
	})
}

// WriteErrorWithLog is WriteError plus the request log id, so callers can
// correlate a failed submission with its audit record.
func WriteErrorWithLog(w http.ResponseWriter, status int, code, message, logID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
		LogID:   logID,
	})
}
