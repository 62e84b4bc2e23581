// Package logger provides a slog factory and domain log attributes for the
// tenant routing core.
//
// New builds a *slog.Logger with json or text output and optional context
// extractors, so every log line emitted during a request automatically
// carries the resolved tenant:
//
//	log := logger.New(
//		logger.WithProduction("tenant-router"),
//		logger.WithContextExtractors(tenant.LoggerExtractor()),
//	)
//
// Attribute helpers (TenantID, Subdomain, Step, ...) keep log keys consistent
// across packages.
package logger
