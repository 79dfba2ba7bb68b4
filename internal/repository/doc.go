// Package repository implements the data access layer of the progression engine.
//
// The repository package contains all database operations using SurrealDB.
// Each repository struct backs one of the storage interfaces declared by the
// service package.
//
// # Repository Pattern
//
// All repositories follow a consistent pattern:
//
//   - Constructor function (NewXxxRepository) accepts a database connection
//   - Methods implement specific data operations (Get, Create, Update, ListActive, etc.)
//   - SurrealQL queries are used for all database interactions
//   - Results are normalized and decoded onto model structs through their JSON tags
//
// # Tables
//
//   - user_progress: one row per user at user_progress:<user_id>, compare-and-set on version
//   - leaderboard: definitions at leaderboard:<id>, with last_reset and next_reset
//   - leaderboard_entry: the published snapshot rows, replaced as a whole
//   - activity_event, earned_achievement: raw scoring signals
//   - user_directory: eligibility data owned by the accounts collaborator
//   - reward_grant: outbox of rewards awaiting settlement
//
// # Query Patterns
//
// Common query patterns used:
//
//   - Parameterized queries with $variable syntax for security
//   - type::record("table", $key) for deterministic record IDs
//   - UPDATE ... WHERE version = $version for optimistic concurrency
//   - database.AtomicBatch for the snapshot swap
//
// # Example Usage
//
//	repo := NewLeaderboardRepository(db)
//	lb, err := repo.GetByID(ctx, "weekly_xp")
//	if err != nil {
//	    return err
//	}
//	if lb == nil {
//	    // Handle not found
//	}
package repository
