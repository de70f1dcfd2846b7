package shop

import (
	"context"
	"net/http"
	"strings"

	"cartkeeper/pkg/kit"
)

type ctxKey string

const usernameKey ctxKey = "username"

func UsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameKey).(string)
	return username, ok
}

// sessionToken pulls the session id out of the Authorization header,
// falling back to X-Session-Id.
func sessionToken(r *http.Request) string {
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimPrefix(authz, "Bearer ")
	}
	return r.Header.Get("X-Session-Id")
}

// RequireSession resolves the request's session id to a username and
// injects it into the context. Unknown or missing sessions get 401.
func (s *Server) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			kit.WriteError(w, r, http.StatusUnauthorized, "missing session", nil)
			return
		}

		username, err := s.Svc.ResolveSession(token)
		if err != nil {
			kit.WriteError(w, r, http.StatusUnauthorized, "invalid session", nil)
			return
		}

		ctx := context.WithValue(r.Context(), usernameKey, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
