package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"mediasweep/internal/logging"
)

// LoggingConfig holds configuration for the logging middleware
type LoggingConfig struct {
	SkipPaths       []string
	LogHealthChecks bool
}

// DefaultLoggingConfig returns the default logging configuration
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{SkipPaths: []string{"/metrics"}}
}

// Logger logs one structured line per request. Server errors are logged
// at warn level.
func Logger(config LoggingConfig) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if shouldSkip(r.URL.Path, config) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			failed := wrapped.statusCode >= http.StatusInternalServerError
			if !failed && logging.GetLevel() > logging.LevelInfo {
				return
			}

			entry := logging.WithFields(logging.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      wrapped.statusCode,
				"bytes":       wrapped.bytesWritten,
				"duration_ms": time.Since(start).Milliseconds(),
				"client_ip":   getClientIP(r),
			})
			if ua := r.UserAgent(); ua != "" {
				entry = entry.WithField("user_agent", ua)
			}

			if failed {
				entry.Warn("request failed")
			} else {
				entry.Info("request")
			}
		})
	}
}

func shouldSkip(path string, config LoggingConfig) bool {
	for _, skip := range config.SkipPaths {
		if strings.HasPrefix(path, skip) {
			return true
		}
	}
	return !config.LogHealthChecks && path == "/health"
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
