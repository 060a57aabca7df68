package auth

import (
	"context"
	"net/http"

	"chain-calculator/internal/db"
	"chain-calculator/internal/logger"
	"chain-calculator/internal/respond"
)

type contextKey string

const UserContextKey contextKey = "user"

// NewMiddleware returns a middleware that resolves the bearer token to a
// stored user. Requests without one are rejected with 401; a token whose
// user no longer exists counts as invalid.
func NewMiddleware(users db.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := ExtractTokenFromHeader(r)
			if err != nil {
				respond.Error(w, http.StatusUnauthorized, "Unauthorized: "+err.Error())
				return
			}

			user, err := GetUserFromToken(r.Context(), users, tokenString)
			if err != nil {
				if IsAuthError(err) {
					respond.Error(w, http.StatusUnauthorized, "Unauthorized: "+err.Error())
					return
				}
				logger.LogERROR("Failed to resolve token user: " + err.Error())
				respond.Error(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			claims := &Claims{UserID: user.ID, Username: user.Username}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// WithClaims stores the caller's claims on ctx.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

// GetUserFromContext returns the claims stored by the middleware, if any.
func GetUserFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*Claims)
	return claims, ok
}

// RequireAuth returns the caller's user id, or ErrInvalidToken when the
// request did not pass through the auth middleware.
func RequireAuth(r *http.Request) (int64, error) {
	claims, ok := GetUserFromContext(r.Context())
	if !ok {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}
