package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"go-user-directory/internal/auth"
	"go-user-directory/internal/model"
	"go-user-directory/pkg/apierror"
)

type tokenValidator interface {
	ValidateAccessToken(token string) (*auth.Claims, error)
}

type contextKey string

const authClaimsContextKey contextKey = "auth_claims"

// AuthMiddleware gates protected routes on a valid access token. It never consults the
// user store: a user deleted after issuance stays authenticated until the token expires.
type AuthMiddleware struct {
	validator tokenValidator
}

func NewAuthMiddleware(validator tokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := ParseBearer(r.Header.Get("Authorization"))
		if !ok {
			writeUnauthorized(w, apierror.CodeMissingToken, "Authorization token required")
			return
		}

		claims, err := m.validator.ValidateAccessToken(token)
		if err != nil {
			slog.DebugContext(r.Context(), "token verification failed",
				"expired", errors.Is(err, auth.ErrTokenExpired),
				"error", err,
				"path", r.URL.Path,
			)
			writeUnauthorized(w, apierror.CodeInvalidToken, "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	})
}

func ContextWithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, authClaimsContextKey, claims)
}

func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(*auth.Claims)
	return claims, ok && claims != nil
}

func writeUnauthorized(w http.ResponseWriter, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	w.WriteHeader(http.StatusUnauthorized)

	_ = jsonEncode(w, model.ErrorResponse{
		Code:    code,
		Message: message,
	})
}
