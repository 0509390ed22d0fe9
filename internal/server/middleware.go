package server

import (
	"crypto/subtle"
	"net/http"
)

// RequireSecret returns a handler that checks the named header against
// secret before calling next. An empty secret disables the check.
func RequireSecret(header, secret string, next http.Handler) http.Handler {
	if secret == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(header)
		if key == "" {
			http.Error(w, "missing "+header+" header", http.StatusUnauthorized)
			return
		}
		if subtle.ConstantTimeCompare([]byte(key), []byte(secret)) != 1 {
			http.Error(w, "invalid "+header, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
