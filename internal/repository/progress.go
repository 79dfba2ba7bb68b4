package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/mewayz/progression/internal/database"
	"github.com/mewayz/progression/internal/model"
)

// ProgressRepository handles user progress data access.
// Rows live at user_progress:<user_id> and are written with a compare-and-set on version.
type ProgressRepository struct {
	db database.Database
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db database.Database) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Get retrieves a user's progress, nil when the user has none yet
func (r *ProgressRepository) Get(ctx context.Context, userID string) (*model.UserProgress, error) {
	query := `SELECT * FROM type::record("user_progress", $user_id)`
	vars := map[string]interface{}{"user_id": userID}

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

	return r.parseProgress(result)
}

// Create stores a new progress row. It fails with database.ErrDuplicate when one exists.
func (r *ProgressRepository) Create(ctx context.Context, p *model.UserProgress) error {
	doc, err := toDocument(p)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}

	query := `CREATE type::record("user_progress", $user_id) CONTENT $doc RETURN NONE`
	vars := map[string]interface{}{
		"user_id": p.UserID,
		"doc":     doc,
	}

	return r.db.Execute(ctx, query, vars)
}

// Update replaces the row only while its stored version still equals p.Version.
// On success p.Version is bumped; a moved row yields database.ErrConflict.
func (r *ProgressRepository) Update(ctx context.Context, p *model.UserProgress) error {
	expected := p.Version
	next := *p
	next.Version = expected + 1

	doc, err := toDocument(&next)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}

	query := `
		UPDATE type::record("user_progress", $user_id)
		CONTENT $doc
		WHERE version = $version
		RETURN AFTER
	`
	vars := map[string]interface{}{
		"user_id": p.UserID,
		"doc":     doc,
		"version": expected,
	}

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}
	if len(statementRecords(results, 0)) == 0 {
		return database.ErrConflict
	}

	p.Version = next.Version
	return nil
}

// GetMany loads the rows of the given users. Users without a row are absent from the map.
func (r *ProgressRepository) GetMany(ctx context.Context, userIDs []string) (map[string]*model.UserProgress, error) {
	out := make(map[string]*model.UserProgress, len(userIDs))

	query := `SELECT * FROM user_progress WHERE user_id IN $user_ids`
	for _, ids := range chunk(userIDs, maxBatchStatementRows) {
		results, err := r.db.Query(ctx, query, map[string]interface{}{"user_ids": ids})
		if err != nil {
			return nil, err
		}
		for _, raw := range statementRecords(results, 0) {
			p, err := r.parseProgress(raw)
			if err != nil {
				return nil, err
			}
			out[p.UserID] = p
		}
	}

	return out, nil
}

// ResetWindow zeroes one windowed counter on every row and returns the number of rows.
// The version is bumped so in-flight awards retry against the reset value.
func (r *ProgressRepository) ResetWindow(ctx context.Context, window model.XPWindow) (int, error) {
	field, err := windowField(window)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`
		UPDATE user_progress SET %s = 0, version += 1 RETURN NONE;
		SELECT count() AS count FROM user_progress GROUP ALL;
	`, field)

	results, err := r.db.Query(ctx, query, nil)
	if err != nil {
		return 0, err
	}
	records := statementRecords(results, 1)
	if len(records) == 0 {
		return 0, nil
	}
	return extractCount(records[0]), nil
}

func windowField(window model.XPWindow) (string, error) {
	switch window {
	case model.XPWindowDaily:
		return "daily_xp", nil
	case model.XPWindowWeekly:
		return "weekly_xp", nil
	case model.XPWindowMonthly:
		return "monthly_xp", nil
	case model.XPWindowYearly:
		return "yearly_xp", nil
	}
	return "", fmt.Errorf("unknown xp window %q", window)
}

func (r *ProgressRepository) parseProgress(result interface{}) (*model.UserProgress, error) {
	var p model.UserProgress
	if err := decodeRecord(result, &p, ""); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	p.Normalize()
	return &p, nil
}
