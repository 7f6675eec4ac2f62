package monitoring

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger provides structured logging helpers on top of slog
type Logger struct {
	*slog.Logger
}

// NewLogger creates a JSON logger on stdout at info level
func NewLogger() *Logger {
	return NewJSONLogger(os.Stdout, slog.LevelInfo)
}

// NewJSONLogger creates a JSON logger writing to w
func NewJSONLogger(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})

	return &Logger{Logger: slog.New(handler)}
}

// FromSlog wraps an existing slog logger
func FromSlog(l *slog.Logger) *Logger {
	if l == nil {
		l = slog.Default()
	}
	return &Logger{Logger: l}
}

// ParseLevel maps a config string to a slog level, defaulting to info
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(requestID, method, path, ip string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"request_id", requestID,
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// AnalysisLogger logs a finished profile analysis
func (l *Logger) AnalysisLogger(username, outcome string, overall float64, partial bool, duration time.Duration) {
	level := slog.LevelInfo
	if outcome != OutcomeSuccess && outcome != OutcomePartial {
		level = slog.LevelWarn
	}

	l.Log(context.Background(), level, "Analysis Completed",
		"username", username,
		"outcome", outcome,
		"overall", overall,
		"partial", partial,
		"duration_ms", duration.Milliseconds(),
	)
}

// ExternalAPILogger logs external API calls
func (l *Logger) ExternalAPILogger(apiName, endpoint, outcome string, duration time.Duration) {
	level := slog.LevelDebug
	if outcome != "ok" {
		level = slog.LevelWarn
	}

	l.Log(context.Background(), level, "External API Call",
		"api_name", apiName,
		"endpoint", endpoint,
		"outcome", outcome,
		"duration_ms", duration.Milliseconds(),
	)
}

// SecurityLogger logs security-related events
func (l *Logger) SecurityLogger(event, ip, userAgent string, details map[string]interface{}) {
	attrs := []any{
		"event", event,
		"ip", ip,
		"user_agent", userAgent,
	}

	for key, value := range details {
		attrs = append(attrs, key, value)
	}

	l.Warn("Security Event", attrs...)
}

// SystemLogger logs system-level events
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).Round(time.Second).String(),
	)
}

var startTime = time.Now()
