package middleware

import (
	"context"
	"errors"
	"net/http"

	"cvforge/internal/auth"
	"cvforge/internal/models"
	"cvforge/internal/repositories"
	"cvforge/internal/utils"
)

type contextKey string

const userKey contextKey = "currentUser"

// Auth verifies the access-token cookie on every request it wraps and loads
// the authenticated user into the request context.
type Auth struct {
	tokens *auth.TokenManager
	users  repositories.UserRepository
}

func NewAuth(tokens *auth.TokenManager, users repositories.UserRepository) *Auth {
	return &Auth{tokens: tokens, users: users}
}

func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(auth.CookieName)
		if err != nil {
			utils.Error(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		claims, err := a.tokens.Verify(cookie.Value)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				utils.Error(w, http.StatusUnauthorized, "Token expired")
				return
			}
			utils.Error(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		user, err := a.users.GetByUsername(r.Context(), claims.Username)
		if err != nil {
			utils.Error(w, http.StatusNotFound, "User not found!")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CurrentUser returns the authenticated user stored by the middleware.
func CurrentUser(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(userKey).(*models.User)
	return user, ok
}

// WithUser stores a user in the context the way Middleware does. Handler
// tests use it to skip the cookie round trip.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}
