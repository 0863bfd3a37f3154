package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"leadrelay/internal/pkg/errors"
)

// AdminAuth guards the admin API with a single shared secret. It is an
// operator credential, not a per-client one; the comparison is constant-time
// but otherwise an exact string match.
type AdminAuth struct {
	secret string
}

func NewAdminAuth(secret string) *AdminAuth {
	return &AdminAuth{secret: secret}
}

func (m *AdminAuth) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Missing authorization header", nil)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid authorization header format", nil)
			return
		}

		if m.secret == "" || subtle.ConstantTimeCompare([]byte(parts[1]), []byte(m.secret)) != 1 {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid admin credentials", nil)
			return
		}

		next(w, r)
	}
}
