// Package middleware provides HTTP middleware for the progression read API.
//
// # Available Middleware
//
//   - RequestID: propagates or mints X-Request-ID and stores it in the context
//   - Logger: one structured slog line per request
//   - Metrics: Prometheus request counts and latency per route pattern
//   - Recovery: converts panics into a 500 Problem Details response
//   - Compress: gzip for clients that accept it
//
// # Composition
//
//	handler := middleware.Chain(mux,
//	    middleware.Recovery,
//	    middleware.RequestID,
//	    middleware.Logger(logger),
//	    middleware.Metrics,
//	    middleware.Compress,
//	)
//
// Middlewares run in the order given, so Recovery wraps everything else.
package middleware
