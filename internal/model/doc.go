// Package model defines domain entities and data structures for the progression engine.
//
// The model package contains the struct definitions shared by every layer:
// user progression state, streaks, specializations, leaderboard configuration
// and snapshot entries, activity signals, rewards, and API error types.
//
// # Domain Entities
//
//   - UserProgress: one row per user holding level, XP counters, prestige,
//     streaks, specializations and multiplier sources
//   - Leaderboard: admin-owned configuration (category, timeframe, reset cadence)
//   - LeaderboardEntry: one ranked row of a leaderboard snapshot
//   - ActivityEvent / EarnedAchievement: raw signals consumed by score calculators
//   - Reward: closed set of grants handed to the reward ledger
//
// # JSON Serialization
//
// All models use snake_case json struct tags, which double as the stored
// field names in SurrealDB:
//
//	type Streak struct {
//	    Current      int       `json:"current"`
//	    FreezeTokens int       `json:"freeze_tokens"`
//	    LastUpdated  time.Time `json:"last_updated"`
//	}
//
// # Error Types
//
// RFC 9457 Problem Details errors are defined in errors.go.
package model
