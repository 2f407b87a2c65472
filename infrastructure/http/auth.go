package http

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	sessioncontext "loadsheet/frontend/shared/context"
	"loadsheet/infrastructure/identity"
)

const authRealm = `Basic realm="loadsheet", charset="UTF-8"`

// AuthenticateMiddleware resolves basic-auth credentials into an actor and
// applies the route RBAC table.
func (s *Server) AuthenticateMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || username == "" {
			w.Header().Set("WWW-Authenticate", authRealm)
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		actor, err := s.Users.Authenticate(r.Context(), username, password)
		if err != nil {
			if !errors.Is(err, identity.ErrInvalidCredentials) {
				s.Log.Error("authenticate failed", zap.String("username", username), zap.Error(err))
				http.Error(w, "authentication unavailable", http.StatusInternalServerError)
				return
			}
			s.Log.Warn("rejected credentials", zap.String("username", username), zap.String("path", r.URL.Path))
			w.Header().Set("WWW-Authenticate", authRealm)
			http.Error(w, "invalid username or password", http.StatusUnauthorized)
			return
		}

		if !s.Rbac.Allowed(actor.Role, r.URL.Path, r.Method) {
			s.Log.Warn("route denied",
				zap.String("actor", actor.Name),
				zap.String("role", string(actor.Role)),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path))
			s.Metrics.RequestError("403")
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		ctx := sessioncontext.NewContextWithActor(r.Context(), actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
