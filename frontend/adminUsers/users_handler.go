package adminusers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"loadsheet/frontend/shared/context"
	"loadsheet/infrastructure/identity"
	"loadsheet/models"
)

// UsersQueryHandler lists registered users.
func UsersQueryHandler(dir *identity.Directory, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := dir.Users(r.Context())
		if err != nil {
			log.Error("admin users: failed to load", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load users"})
			return
		}
		out := make([]UserView, 0, len(users))
		for _, u := range users {
			out = append(out, view(u))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// CreateUserCommandHandler creates a user or resets an existing one.
func CreateUserCommandHandler(dir *identity.Directory, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := context.GetActorFromContext(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			return
		}
		var req createUserRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if strings.TrimSpace(req.Username) == "" {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "username is required"})
			return
		}

		// Password policy and role errors are safe to return as-is.
		user, err := dir.AddUser(r.Context(), req.Username, req.DisplayName, req.Role, req.Password)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		log.Info("user saved",
			zap.String("username", user.Username),
			zap.String("role", user.Role),
			zap.String("actor", actor.Name))
		writeJSON(w, http.StatusCreated, view(user))
	}
}

func view(u models.User) UserView {
	return UserView{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
