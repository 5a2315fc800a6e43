package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/ABCMilioli/api-control/internal/api/response"
)

// AdminAuth returns a middleware that validates the X-Admin-Token header
// against the configured management token using a constant-time compare.
func AdminAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get("X-Admin-Token")
			if presented == "" {
				response.WriteError(w, http.StatusUnauthorized, "missing admin token")
				return
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				response.WriteError(w, http.StatusUnauthorized, "invalid admin token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
