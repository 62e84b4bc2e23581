package tenant

import (
	"errors"
	"log/slog"
	"net/http"
)

// ErrorHandler handles errors that occur during tenant resolution.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// HostSource extracts the host the tenant is resolved from. The default
// reads r.Host.
type HostSource func(r *http.Request) string

// HeaderHostSource reads the host from the named header, falling back to
// r.Host when the header is absent. Use behind a trusted proxy that sets
// X-Forwarded-Host or X-Original-Host.
func HeaderHostSource(header string) HostSource {
	return func(r *http.Request) string {
		if h := r.Header.Get(header); h != "" {
			return h
		}
		return r.Host
	}
}

// middlewareConfig holds middleware configuration.
type middlewareConfig struct {
	errorHandler ErrorHandler
	skipPaths    []string
	hostSource   HostSource
	logger       *slog.Logger
}

// MiddlewareOption configures the middleware.
type MiddlewareOption func(*middlewareConfig)

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler ErrorHandler) MiddlewareOption {
	return func(c *middlewareConfig) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// WithSkipPaths sets paths that should skip tenant resolution.
func WithSkipPaths(paths []string) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.skipPaths = paths
	}
}

// WithHostSource overrides how the middleware extracts the host from the
// request.
func WithHostSource(source HostSource) MiddlewareOption {
	return func(c *middlewareConfig) {
		if source != nil {
			c.hostSource = source
		}
	}
}

// WithMiddlewareLogger sets a custom logger for the middleware.
func WithMiddlewareLogger(logger *slog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// defaultErrorHandler maps the resolution error taxonomy onto stable HTTP
// statuses so that clients can discriminate "tenant doesn't exist" from
// "tenant exists but is down".
func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNoSubdomain):
		http.Error(w, "Subdomain not detected", http.StatusBadRequest)
	case errors.Is(err, ErrTenantNotFound):
		http.Error(w, "Tenant not found", http.StatusNotFound)
	case errors.Is(err, ErrTenantInactive):
		http.Error(w, "Tenant is not active", http.StatusForbidden)
	case errors.Is(err, ErrDatabaseUnavailable):
		http.Error(w, "Tenant database unavailable", http.StatusServiceUnavailable)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
