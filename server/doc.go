// Package server exposes the employee service over HTTP with gin.
//
// Public routes: /, /hello, /health, /healthz, /readyz and, with the
// prometheus exporter, /metrics. Everything under /api requires an API key
// or a bearer token.
package server
