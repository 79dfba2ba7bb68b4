package repository

import (
	"context"
	"strconv"

	"github.com/mewayz/progression/internal/database"
)

// Reward grant kinds stored in the outbox
const (
	grantCredits        = "credits"
	grantBadge          = "badge"
	grantPremiumTime    = "premium_time"
	grantSpecialization = "specialization_unlock"
)

// RewardRepository is the reward ledger outbox. Grants are recorded as pending rows
// in reward_grant and settled by the billing collaborator.
type RewardRepository struct {
	db database.Database
}

// NewRewardRepository creates a new reward repository
func NewRewardRepository(db database.Database) *RewardRepository {
	return &RewardRepository{db: db}
}

// GrantCredits records a credits grant
func (r *RewardRepository) GrantCredits(ctx context.Context, userID string, amount int64, reason string) error {
	return r.record(ctx, userID, grantCredits, reason, amount)
}

// GrantBadge records a badge grant
func (r *RewardRepository) GrantBadge(ctx context.Context, userID, badgeID string) error {
	return r.record(ctx, userID, grantBadge, badgeID, 0)
}

// ExtendPremium records a premium membership extension in days
func (r *RewardRepository) ExtendPremium(ctx context.Context, userID string, days int) error {
	return r.record(ctx, userID, grantPremiumTime, strconv.Itoa(days), int64(days))
}

// RecordSpecializationUnlock records a specialization unlock
func (r *RewardRepository) RecordSpecializationUnlock(ctx context.Context, userID, track string) error {
	return r.record(ctx, userID, grantSpecialization, track, 0)
}

// CountPending returns the number of grants not yet settled
func (r *RewardRepository) CountPending(ctx context.Context) (int, error) {
	query := `SELECT count() AS count FROM reward_grant WHERE status = "pending" GROUP ALL`

	result, err := r.db.QueryOne(ctx, query, nil)
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return extractCount(result), nil
}

func (r *RewardRepository) record(ctx context.Context, userID, kind, value string, amount int64) error {
	query := `
		CREATE reward_grant CONTENT {
			user_id: $user_id,
			kind: $kind,
			value: $value,
			amount: $amount,
			status: "pending",
			created_on: time::now()
		} RETURN NONE
	`
	vars := map[string]interface{}{
		"user_id": userID,
		"kind":    kind,
		"value":   value,
		"amount":  amount,
	}

	return r.db.Execute(ctx, query, vars)
}
