// Package handler provides the read-only HTTP API of the progression engine.
//
// Each handler struct wraps one service behind a small reader interface and
// registers its routes on a standard library ServeMux.
//
// # Routes
//
//	GET /health
//	GET /v1/progress/{userId}
//	GET /v1/leaderboards/{id}
//	GET /v1/leaderboards/{id}/rankings?limit=
//	GET /v1/leaderboards/{id}/users/{userId}
//
// Only public, active leaderboards are served; anything else answers 404.
// Ranking rows carry the anonymised handle and never the user ID.
//
// # Response Format
//
//   - WriteData: single resource with HATEOAS links
//   - WriteCollection: list of resources with its count
//   - WriteError: RFC 9457 Problem Details, built by MapServiceError
//
// # Example Usage
//
//	mux := http.NewServeMux()
//	handler.NewHealthHandler(db).RegisterRoutes(mux)
//	handler.NewProgressHandler(progressService).RegisterRoutes(mux)
//	handler.NewLeaderboardHandler(handler.LeaderboardHandlerConfig{
//	    Leaderboards: leaderboardService,
//	    HandleSalt:   cfg.Privacy.HandleSalt,
//	}).RegisterRoutes(mux)
package handler
