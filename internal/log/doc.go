// Package log builds the slog loggers used across proxycheck.
//
// Candidate proxies often carry credentials (host:port:user:pass), and the
// same secrets reappear inside proxy URLs and transport errors. SecureHandler
// wraps any slog.Handler and masks them before a record is written:
//   - attributes with sensitive keys (password, authorization, ...) are
//     replaced by MaskValue
//   - Basic and Bearer authorization values are replaced by MaskValue
//   - passwords in URL userinfo and in candidate lines are replaced by
//     PasswordMask, keeping the host, port and username readable
//
// Usage:
//
//	logger := log.NewSecureLogger(os.Stderr, log.LevelFor(verbose, quiet))
//	logger.Warn("probe failed", "proxy", "1.2.3.4:8080:bob:hunter2")
//	// proxy=1.2.3.4:8080:bob:***
package log
