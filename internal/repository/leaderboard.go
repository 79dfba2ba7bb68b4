package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/mewayz/progression/internal/database"
	"github.com/mewayz/progression/internal/model"
)

// LeaderboardRepository handles leaderboard definitions and their published snapshots.
// Definitions live at leaderboard:<id>; entries in leaderboard_entry keyed by entry id.
type LeaderboardRepository struct {
	db database.Database
}

// NewLeaderboardRepository creates a new leaderboard repository
func NewLeaderboardRepository(db database.Database) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

// Save creates or replaces a leaderboard definition
func (r *LeaderboardRepository) Save(ctx context.Context, lb *model.Leaderboard) error {
	if lb.ID == "" {
		return errors.New("leaderboard id is required")
	}
	doc, err := toDocument(lb)
	if err != nil {
		return fmt.Errorf("encode leaderboard: %w", err)
	}
	delete(doc, "id")

	query := `UPSERT type::record("leaderboard", $id) CONTENT $doc RETURN NONE`
	vars := map[string]interface{}{
		"id":  lb.ID,
		"doc": doc,
	}

	return r.db.Execute(ctx, query, vars)
}

// GetByID retrieves a leaderboard definition, nil when it does not exist
func (r *LeaderboardRepository) GetByID(ctx context.Context, id string) (*model.Leaderboard, error) {
	query := `SELECT * FROM type::record("leaderboard", $id)`
	vars := map[string]interface{}{"id": id}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	return r.parseLeaderboard(result)
}

// ListActive returns every active leaderboard ordered by id
func (r *LeaderboardRepository) ListActive(ctx context.Context) ([]*model.Leaderboard, error) {
	query := `SELECT * FROM leaderboard WHERE is_active = true ORDER BY id`

	results, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return nil, err
	}

	boards := make([]*model.Leaderboard, 0)
	for _, raw := range statementRecords(results, 0) {
		lb, err := r.parseLeaderboard(raw)
		if err != nil {
			return nil, err
		}
		boards = append(boards, lb)
	}
	return boards, nil
}

// GetEntries returns the published snapshot ordered by rank. A limit of 0 returns every entry.
func (r *LeaderboardRepository) GetEntries(ctx context.Context, leaderboardID string, limit int) ([]*model.LeaderboardEntry, error) {
	query := `SELECT * FROM leaderboard_entry WHERE leaderboard_id = $leaderboard_id ORDER BY rank ASC`
	vars := map[string]interface{}{"leaderboard_id": leaderboardID}
	if limit > 0 {
		query += ` LIMIT $limit`
		vars["limit"] = limit
	}

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	return r.parseEntries(statementRecords(results, 0))
}

// GetEntry returns one user's entry, nil when the user is not ranked
func (r *LeaderboardRepository) GetEntry(ctx context.Context, leaderboardID, userID string) (*model.LeaderboardEntry, error) {
	query := `
		SELECT * FROM leaderboard_entry
		WHERE leaderboard_id = $leaderboard_id AND user_id = $user_id
		LIMIT 1
	`
	vars := map[string]interface{}{
		"leaderboard_id": leaderboardID,
		"user_id":        userID,
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return r.parseEntry(result)
}

// CountEntries returns the size of the published snapshot
func (r *LeaderboardRepository) CountEntries(ctx context.Context, leaderboardID string) (int, error) {
	query := `SELECT count() AS count FROM leaderboard_entry WHERE leaderboard_id = $leaderboard_id GROUP ALL`
	vars := map[string]interface{}{"leaderboard_id": leaderboardID}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	return extractCount(result), nil
}

// ReplaceSnapshot swaps the entry set of a leaderboard and records the reset bookkeeping
// in one transaction. Readers see either the old snapshot or the new one.
func (r *LeaderboardRepository) ReplaceSnapshot(ctx context.Context, snap *model.Snapshot) error {
	batch := database.NewAtomicBatch()
	batch.Add(`DELETE leaderboard_entry WHERE leaderboard_id = $leaderboard_id`, map[string]interface{}{
		"leaderboard_id": snap.LeaderboardID,
	})

	for _, entries := range chunk(snap.Entries, maxBatchStatementRows) {
		docs := make([]map[string]interface{}, 0, len(entries))
		for _, e := range entries {
			doc, err := toDocument(e)
			if err != nil {
				return fmt.Errorf("encode entry: %w", err)
			}
			docs = append(docs, doc)
		}
		batch.Add(`INSERT INTO leaderboard_entry $entries RETURN NONE`, map[string]interface{}{
			"entries": docs,
		})
	}

	update := `UPDATE type::record("leaderboard", $id) SET last_reset = $last_reset RETURN NONE`
	vars := map[string]interface{}{
		"id":         snap.LeaderboardID,
		"last_reset": snap.ComputedOn,
	}
	if snap.NextReset != nil {
		update = `UPDATE type::record("leaderboard", $id) SET last_reset = $last_reset, next_reset = $next_reset RETURN NONE`
		vars["next_reset"] = *snap.NextReset
	}
	batch.Add(update, vars)

	if err := batch.Execute(ctx, r.db); err != nil {
		return fmt.Errorf("replace snapshot %s: %w", snap.LeaderboardID, err)
	}
	return nil
}

// Helper functions

func (r *LeaderboardRepository) parseLeaderboard(result interface{}) (*model.Leaderboard, error) {
	var lb model.Leaderboard
	if err := decodeRecord(result, &lb, "id"); err != nil {
		return nil, fmt.Errorf("decode leaderboard: %w", err)
	}
	return &lb, nil
}

func (r *LeaderboardRepository) parseEntry(result interface{}) (*model.LeaderboardEntry, error) {
	var e model.LeaderboardEntry
	if err := decodeRecord(result, &e, "id"); err != nil {
		return nil, fmt.Errorf("decode entry: %w", err)
	}
	return &e, nil
}

func (r *LeaderboardRepository) parseEntries(records []interface{}) ([]*model.LeaderboardEntry, error) {
	entries := make([]*model.LeaderboardEntry, 0, len(records))
	for _, raw := range records {
		e, err := r.parseEntry(raw)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
