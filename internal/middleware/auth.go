package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/valtervalik/InstaShare/internal/auth/token"
)

// unexported, collision-proof context keys
type principalIDContextKeyType struct{}
type roleContextKeyType struct{}

var (
	principalIDKey = principalIDContextKeyType{}
	roleKey        = roleContextKeyType{}
)

// PrincipalFromContext extracts the authenticated principal ID from context.
func PrincipalFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(principalIDKey).(string)
	return id, ok
}

// RoleFromContext extracts the authenticated principal's role from context.
func RoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(roleKey).(string)
	return role, ok
}

type AuthMiddleware struct {
	Issuer *token.Issuer
}

func NewAuthMiddleware(issuer *token.Issuer) *AuthMiddleware {
	return &AuthMiddleware{Issuer: issuer}
}

func (a *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Read bearer token
		raw := bearerToken(r)
		if raw == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// 2. Verify access token (signature, algorithm, expiry)
		claims, err := a.Issuer.VerifyAccessToken(raw)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// 3. Attach principal identity to context
		ctx := context.WithValue(r.Context(), principalIDKey, claims.Subject)
		ctx = context.WithValue(ctx, roleKey, claims.Role)

		// 4. Continue request
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
