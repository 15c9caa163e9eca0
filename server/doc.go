// Package server is the daemon's HTTP surface: a Gin engine behind h2c with
// a net/http middleware chain.
//
// Middleware (server/middleware) covers panic recovery, request IDs, CORS,
// body size limits, request logging and a token bucket rate limit. Endpoints
// (server/endpoint) provide /health and /alive.
package server
