package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hugh/boardstack/internal/auth"
	"github.com/hugh/boardstack/internal/dal"
	"github.com/hugh/boardstack/internal/identity"
	"github.com/hugh/boardstack/internal/permissions"
	"github.com/hugh/boardstack/internal/tenancy"
	"gorm.io/gorm"
)

type contextKey string

const scopeKey contextKey = "request_scope"

// Scope is the per-request authorization scope: one memoizing tenant
// resolver and one permission cache, never shared across requests. It is
// the only way handlers obtain claims — handler code never receives user
// or organization ids as plain parameters.
type Scope struct {
	Tenant *tenancy.Resolver
	Perms  *permissions.Resolver

	db     *gorm.DB
	logger *slog.Logger
}

// DAL builds the isolating data access layer bound to a resolved context.
func (s *Scope) DAL(tc *tenancy.TenantContext) *dal.DAL {
	return dal.New(s.db, tc, s.Perms, s.logger)
}

// Auth validates the identity assertion and installs the request scope.
// Requests without a valid assertion are rejected before any handler
// runs.
func Auth(jwtService *auth.JWTService, db *gorm.DB, idp identity.Provider, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string

			authHeader := r.Header.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				token = strings.TrimPrefix(authHeader, "Bearer ")
			}
			if token == "" {
				if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
					token = cookie.Value
				}
			}

			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := jwtService.ValidateToken(token)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			scope := &Scope{
				Tenant: tenancy.NewResolver(db, idp, claims, logger),
				Perms:  permissions.NewResolver(db),
				db:     db,
				logger: logger,
			}

			ctx := context.WithValue(r.Context(), scopeKey, scope)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetScope returns the request scope installed by Auth, or nil outside an
// authenticated request.
func GetScope(ctx context.Context) *Scope {
	if scope, ok := ctx.Value(scopeKey).(*Scope); ok {
		return scope
	}
	return nil
}
