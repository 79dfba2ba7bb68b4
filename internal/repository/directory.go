package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/mewayz/progression/internal/database"
	"github.com/mewayz/progression/internal/model"
)

// DirectoryRepository reads the user directory maintained by the accounts collaborator
type DirectoryRepository struct {
	db database.Database
}

// NewDirectoryRepository creates a new directory repository
func NewDirectoryRepository(db database.Database) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// Upsert creates or replaces a directory row
func (r *DirectoryRepository) Upsert(ctx context.Context, u model.EligibleUser) error {
	if u.UserID == "" {
		return errors.New("user id is required")
	}
	if u.WorkspaceIDs == nil {
		u.WorkspaceIDs = []string{}
	}
	doc, err := toDocument(u)
	if err != nil {
		return fmt.Errorf("encode directory user: %w", err)
	}

	query := `UPSERT type::record("user_directory", $user_id) CONTENT $doc RETURN NONE`
	vars := map[string]interface{}{
		"user_id": u.UserID,
		"doc":     doc,
	}

	return r.db.Execute(ctx, query, vars)
}

// ListEligible returns the users in scope of lb: members of its workspace,
// residents of its region, or everyone for the other leaderboard types.
func (r *DirectoryRepository) ListEligible(ctx context.Context, lb *model.Leaderboard) ([]model.EligibleUser, error) {
	query := `SELECT * FROM user_directory`
	vars := map[string]interface{}{}

	switch lb.Type {
	case model.LeaderboardWorkspace:
		query += ` WHERE $scope_id IN workspace_ids`
		vars["scope_id"] = lb.ScopeID
	case model.LeaderboardRegional:
		query += ` WHERE region = $scope_id`
		vars["scope_id"] = lb.ScopeID
	}
	query += ` ORDER BY user_id`

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}

	users := make([]model.EligibleUser, 0)
	for _, raw := range statementRecords(results, 0) {
		var u model.EligibleUser
		if err := decodeRecord(raw, &u, ""); err != nil {
			return nil, fmt.Errorf("decode directory user: %w", err)
		}
		users = append(users, u)
	}
	return users, nil
}
