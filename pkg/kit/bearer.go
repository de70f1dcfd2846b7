package kit

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// RequireBearer guards a route group with a static bearer token.
// An empty configured token locks the group entirely.
func RequireBearer(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			got := strings.TrimPrefix(authz, "Bearer ")
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
