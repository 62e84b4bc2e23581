package tenant

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// Middleware resolves the tenant from the request host header and adds the
// record to the request context. Requests whose host carries no subdomain
// pass through without a tenant; protected routes reject those with
// RequireTenant. All other resolution failures are mapped to HTTP statuses
// by the configured error handler.
//
// The middleware resolves the record only. Handlers that need a database
// session draw one through Router.WithSession (or SessionFor), which
// guarantees the connection goes back to the pool on every exit path.
func Middleware(router *Router, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{
		errorHandler: defaultErrorHandler,
		hostSource:   func(r *http.Request) string { return r.Host },
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			t, err := router.ResolveTenant(r.Context(), cfg.hostSource(r))
			if err != nil {
				if errors.Is(err, ErrNoSubdomain) {
					// Base-domain traffic (marketing pages, health checks)
					// proceeds without tenant context.
					next.ServeHTTP(w, r)
					return
				}
				cfg.errorHandler(w, r, err)
				return
			}

			ctx := WithTenant(r.Context(), t)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireTenant ensures a tenant is present in the context. Protects routes
// that must never run without tenant scope.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, "Subdomain not detected", http.StatusBadRequest)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t, ok := FromContext(r.Context())
			if !ok || t == nil {
				errorHandler(w, r, ErrNoTenantInContext)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
