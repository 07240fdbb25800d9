package probe

import (
	"fmt"
	"log/slog"
	"strings"
)

// restyLogger routes the HTTP library's messages into slog.
// Retry failures are routine while probing, so everything goes to debug.
type restyLogger struct {
	logger *slog.Logger
}

func newRestyLogger(logger *slog.Logger) *restyLogger {
	return &restyLogger{logger: logger.With("component", "http")}
}

func (l *restyLogger) Errorf(format string, v ...any) {
	l.logger.Debug(message(format, v...), "origin_level", "error")
}

func (l *restyLogger) Warnf(format string, v ...any) {
	l.logger.Debug(message(format, v...), "origin_level", "warn")
}

func (l *restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug(message(format, v...))
}

func message(format string, v ...any) string {
	return strings.TrimSpace(fmt.Sprintf(format, v...))
}
