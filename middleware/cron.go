package middleware

import (
	"crypto/subtle"
	"net/http"
)

// CronAuth gates scheduled trigger endpoints behind "Authorization: Bearer <secret>".
// An empty secret locks the endpoints entirely.
func CronAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if secret == "" || token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				authRejections.WithLabelValues("cron_secret").Inc()
				respondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
