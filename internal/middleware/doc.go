// Package middleware provides the HTTP middleware of the API server:
// Prometheus request metrics and structured access logging.
package middleware
