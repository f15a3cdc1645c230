package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/integrator/internal/invoker"
)

// Credentials moves the caller's bearer token into the request context so
// backend calls made on its behalf forward it.
func Credentials(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := invoker.BearerToken(r.Header.Get("Authorization")); token != "" {
			r = r.WithContext(invoker.WithCredential(r.Context(), token))
		}
		next.ServeHTTP(w, r)
	})
}
