// Package database provides the SurrealDB access layer of the progression engine.
//
// The Database interface has three query methods:
//   - Query: returns one {status, result} map per statement
//   - QueryOne: returns the first record of the first statement
//   - Execute: no return value (for CREATE/UPDATE/DELETE mutations)
//
// # Atomic Batches
//
// Batches are statement lists wrapped in BEGIN TRANSACTION / COMMIT TRANSACTION
// and sent as one request. Leaderboard snapshots are swapped this way: the old
// entries are deleted, the new ones created and the reset bookkeeping advanced
// in a single transaction, so readers see either the old or the new snapshot.
//
//	batch := database.NewAtomicBatch()
//	batch.Add("DELETE leaderboard_entry WHERE leaderboard_id = $lb", vars)
//	batch.Add("CREATE leaderboard_entry CONTENT $entry", entryVars)
//	err := batch.Execute(ctx, db)
//
// # Error Types
//
//   - ErrNotFound: record does not exist
//   - ErrDuplicate: record ID or unique index already taken
//   - ErrConflict: compare-and-set update lost
//   - ErrConnection: database connection failed
//   - ErrQuery: statement failed
//
//	if errors.Is(err, database.ErrDuplicate) {
//	    // another writer created the row first
//	}
package database
