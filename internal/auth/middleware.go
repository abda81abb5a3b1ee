package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/noah-isme/backend-basket/internal/common"
)

// Middleware guards admin routes with a bearer token.
type Middleware struct {
	Verifier *Verifier
}

// RequireAdmin enforces that a valid admin token is present before executing the next handler.
func (m Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Verifier == nil {
			common.JSONError(w, http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "authentication not configured", nil)
			return
		}
		token := extractBearer(r)
		if token == "" {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
			return
		}
		subject, err := m.Verifier.Verify(token)
		if err != nil {
			var appErr *common.AppError
			if errors.As(err, &appErr) {
				common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
				return
			}
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(common.WithSubject(r.Context(), subject)))
	})
}

func extractBearer(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
