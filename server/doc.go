// Package server provides the unified HTTP server for the service, built on
// Gin with HTTP/2 cleartext support so additional http.Handler mounts can
// share the listener.
//
// # Middleware
//
// Built-in middleware (server/middleware):
//
//   - Recovery: Panic recovery with structured logging
//   - RequestLogger: Request/response logging with duration tracking
//   - CORS: Cross-origin resource sharing configuration
//   - RequestID: Request ID generation and propagation
//   - RateLimit: Sliding-window rate limiting
//   - BodySizeLimit: Request body size limits
//
// # Endpoints
//
// Built-in endpoints (server/endpoint):
//
//   - /health: Health check aggregation
//   - /alive: Kubernetes liveness probe
//   - /ready: Kubernetes readiness probe
//   - /info: Service information
//   - /version: Build version information
//   - /metrics: Runtime memory and goroutine metrics
package server
