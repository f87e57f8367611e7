package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"ms-booking/internal/apperr"
	"ms-booking/internal/logger"
	"ms-booking/internal/utils"
)

type contextKey string

const principalKey contextKey = "principal"

// Verifier turns a raw bearer token into a Principal.
type Verifier interface {
	VerifyToken(raw string) (*Principal, error)
}

// Middleware rejects requests without a valid bearer token and stores the
// caller's Principal in the request context.
func Middleware(verifier Verifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, err := ExtractTokenFromRequest(r)
			if err != nil {
				utils.WriteError(w, apperr.Unauthorized(apperr.CodeUnauthorized, "Not authorized, no token"))
				return
			}

			principal, err := verifier.VerifyToken(rawToken)
			if err != nil {
				log.LogSecurity("TOKEN", fmt.Sprintf("%s %s rejected: %v", r.Method, r.URL.Path, err))
				if errors.Is(err, ErrExpiredToken) {
					utils.WriteError(w, apperr.Unauthorized(apperr.CodeTokenExpired, "Token has expired"))
					return
				}
				utils.WriteError(w, apperr.Unauthorized(apperr.CodeUnauthorized, "Not authorized, token failed"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireAdmin must be mounted after Middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFrom(r.Context())
		if !ok {
			utils.WriteError(w, apperr.Unauthorized(apperr.CodeUnauthorized, "Not authorized, no token"))
			return
		}
		if !principal.IsAdmin {
			utils.WriteError(w, apperr.Forbidden("Not authorized as an admin"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom returns the authenticated caller stored by Middleware.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok && p != nil
}
