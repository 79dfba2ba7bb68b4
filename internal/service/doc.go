// Package service implements the progression and leaderboard scoring engine.
//
// The service package owns the domain logic: XP accrual and leveling,
// prestige, streaks, specializations, reward dispatch, activity ingestion
// and leaderboard recomputation. Storage is reached only through the
// repository interfaces declared next to each service.
//
// # Service Pattern
//
// All services follow a consistent pattern:
//
//   - Constructor function (NewXxxService) accepts a config struct with repository dependencies
//   - Methods implement business operations with proper validation
//   - Errors are returned as sentinel errors or wrapped errors for context
//   - Context is passed through for cancellation and request-scoped values
//
// # Progression
//
// ProgressionService serializes mutations of one user behind a striped lock
// and persists them with a compare-and-set on the row version. A conflicting
// writer in another process causes a reload and retry:
//
//	prog := NewProgressionService(ProgressionServiceConfig{
//	    Repo:    progressRepository,
//	    Rewards: rewardLedger,
//	    Events:  hub,
//	})
//	credited, err := prog.AwardXP(ctx, userID, 120, "post_created", model.AwardMetadata{})
//
// Rewards crossing a level are dispatched after the progress is stored.
// A failed grant is logged, counted and published as an event; it never
// rolls back the award.
//
// # Leaderboards
//
// LeaderboardService.Recompute builds a full snapshot in memory and swaps it
// in with one atomic write. Any failure before the swap leaves the previous
// snapshot untouched and returns a *RecomputeAbortedError:
//
//	res, err := boards.Recompute(ctx, leaderboardID)
//	if errors.Is(err, ErrRecomputeAborted) {
//	    // previous rankings are still served
//	}
//
// Score calculators are pure functions of a ScoreInput and run in parallel.
//
// # Error Handling
//
// Services return domain-specific errors defined in errors.go:
//
//	var (
//	    ErrLeaderboardNotFound = errors.New("leaderboard not found")
//	    ErrInvalidAward        = errors.New("invalid xp award")
//	)
package service
