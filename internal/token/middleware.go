package token

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	acctentity "github.com/MyraLuetke/CISC498-Backend/internal/account/entity"
	"github.com/MyraLuetke/CISC498-Backend/internal/apperr"
	"github.com/MyraLuetke/CISC498-Backend/internal/response"
)

type ctxKey string

const ctxClaims ctxKey = "claims"

// WithClaims returns a context carrying c.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ctxClaims, c)
}

// ClaimsFrom returns the claims stored by RequireJWT.
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxClaims).(*Claims)
	return c, ok && c != nil
}

// RequireJWT rejects requests without a valid bearer access token.
func (s *Service) RequireJWT(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if len(authz) < len("bearer ") || !strings.EqualFold(authz[:len("bearer ")], "bearer ") {
				response.Error(w, r, logger, apperr.ErrUnauthorized)
				return
			}
			claims, err := s.Parse(strings.TrimSpace(authz[len("bearer "):]))
			if err != nil {
				response.Error(w, r, logger, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireOwner allows the request only when the {identity_id} URL parameter
// names the caller.
func RequireOwner(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFrom(r.Context())
			if !ok {
				response.Error(w, r, logger, apperr.ErrUnauthorized)
				return
			}
			id, err := strconv.ParseInt(chi.URLParam(r, "identity_id"), 10, 64)
			if err != nil || id != claims.IdentityID {
				response.Error(w, r, logger, apperr.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole allows the request only for callers holding role.
func RequireRole(role acctentity.Role, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFrom(r.Context())
			if !ok {
				response.Error(w, r, logger, apperr.ErrUnauthorized)
				return
			}
			if claims.Role() != role {
				response.Error(w, r, logger, apperr.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
