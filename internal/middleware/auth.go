package middleware

import (
	"context"
	"net/http"

	"docbook-backend/internal/auth"
	"docbook-backend/internal/models"
	"docbook-backend/internal/transport"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const SessionCookie = "docbook_session"

type actorKey struct{}

// SessionAuth resolves the session cookie into an Actor and stores it in the
// request context. The token only carries the user id; capability flags are
// read from the user document on every request so that admin actions (doctor
// approval, block) take effect without re-login.
func SessionAuth(manager *auth.Manager, users *mongo.Collection) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				transport.WriteError(w, http.StatusServiceUnavailable, "session auth not configured", nil)
				return
			}

			cookie, err := r.Cookie(SessionCookie)
			if err != nil || cookie.Value == "" {
				transport.WriteError(w, http.StatusUnauthorized, "missing session token", nil)
				return
			}

			claims, err := manager.Parse(cookie.Value)
			if err != nil {
				transport.WriteError(w, http.StatusUnauthorized, "invalid session token", nil)
				return
			}

			var user models.User
			if err := users.FindOne(r.Context(), bson.M{"_id": claims.UserID}).Decode(&user); err != nil {
				transport.WriteError(w, http.StatusUnauthorized, "unknown user", nil)
				return
			}

			actor := auth.Actor{
				ID:       user.ID,
				Username: user.Username,
				Email:    user.Email,
				Image:    user.Image,
				IsAdmin:  user.IsAdmin,
				IsDoctor: user.IsDoctor,
			}
			ctx := context.WithValue(r.Context(), actorKey{}, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok || !actor.IsAdmin {
			transport.WriteError(w, http.StatusForbidden, "admin only", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func RequireDoctor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok || !actor.IsDoctor {
			transport.WriteError(w, http.StatusForbidden, "doctors only", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ActorFromContext(ctx context.Context) (auth.Actor, bool) {
	if v := ctx.Value(actorKey{}); v != nil {
		if a, ok := v.(auth.Actor); ok {
			return a, true
		}
	}
	return auth.Actor{}, false
}
