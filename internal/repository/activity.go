package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mewayz/progression/internal/database"
	"github.com/mewayz/progression/internal/model"
)

// ActivityRepository handles raw activity events and earned achievements
type ActivityRepository struct {
	db database.Database
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db database.Database) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// CreateEvent stores an activity event
func (r *ActivityRepository) CreateEvent(ctx context.Context, event *model.ActivityEvent) error {
	query := `
		CREATE activity_event CONTENT {
			user_id: $user_id,
			event_type: $event_type,
			event_category: $event_category,
			timestamp: $timestamp,
			revenue: $revenue,
			properties: $properties
		}
	`

	revenue := 0.0
	if event.Revenue != nil {
		revenue = *event.Revenue
	}
	properties := event.Properties
	if properties == nil {
		properties = map[string]string{}
	}

	vars := map[string]interface{}{
		"user_id":        event.UserID,
		"event_type":     event.EventType,
		"event_category": event.EventCategory,
		"timestamp":      event.Timestamp,
		"revenue":        revenue,
		"properties":     properties,
	}

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}

	id, err := createdID(results)
	if err != nil {
		return err
	}
	event.ID = id
	return nil
}

// CreateAchievement stores an earned achievement
func (r *ActivityRepository) CreateAchievement(ctx context.Context, a *model.EarnedAchievement) error {
	query := `
		CREATE earned_achievement CONTENT {
			user_id: $user_id,
			achievement_id: $achievement_id,
			name: $name,
			tier: $tier,
			xp_reward: $xp_reward,
			earned_at: $earned_at
		}
	`
	vars := map[string]interface{}{
		"user_id":        a.UserID,
		"achievement_id": a.AchievementID,
		"name":           a.Name,
		"tier":           string(a.Tier),
		"xp_reward":      a.XPReward,
		"earned_at":      a.EarnedAt,
	}

	results, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return err
	}

	id, err := createdID(results)
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

// LoadSignals aggregates, per user, the events and achievements inside window,
// the badges granted so far and the most recent activity.
func (r *ActivityRepository) LoadSignals(ctx context.Context, userIDs []string, window model.TimeWindow) (map[string]*model.ActivitySignals, error) {
	out := make(map[string]*model.ActivitySignals, len(userIDs))
	signalsFor := func(userID string) *model.ActivitySignals {
		s, ok := out[userID]
		if !ok {
			s = &model.ActivitySignals{EventCounts: make(map[string]int64)}
			out[userID] = s
		}
		return s
	}

	for _, ids := range chunk(userIDs, maxBatchStatementRows) {
		vars := map[string]interface{}{"user_ids": ids}
		eventWindow := windowConditions("timestamp", window, vars)
		achievementWindow := windowConditions("earned_at", window, vars)

		query := fmt.Sprintf(`
			SELECT user_id, event_type, count() AS count, math::sum(revenue) AS revenue
				FROM activity_event WHERE user_id IN $user_ids%s
				GROUP BY user_id, event_type;
			SELECT user_id, math::max(timestamp) AS last_active
				FROM activity_event WHERE user_id IN $user_ids
				GROUP BY user_id;
			SELECT * FROM earned_achievement WHERE user_id IN $user_ids%s ORDER BY earned_at ASC;
			SELECT user_id, value FROM reward_grant WHERE kind = "badge" AND user_id IN $user_ids ORDER BY created_on ASC;
		`, eventWindow, achievementWindow)

		results, err := r.db.Query(ctx, query, vars)
		if err != nil {
			return nil, err
		}

		for _, raw := range statementRecords(results, 0) {
			var row struct {
				UserID    string  `json:"user_id"`
				EventType string  `json:"event_type"`
				Count     int64   `json:"count"`
				Revenue   float64 `json:"revenue"`
			}
			if err := decodeRecord(raw, &row, ""); err != nil {
				return nil, fmt.Errorf("decode event counts: %w", err)
			}
			s := signalsFor(row.UserID)
			s.EventCounts[row.EventType] += row.Count
			s.Revenue += row.Revenue
		}

		for _, raw := range statementRecords(results, 1) {
			var row struct {
				UserID     string     `json:"user_id"`
				LastActive *time.Time `json:"last_active"`
			}
			if err := decodeRecord(raw, &row, ""); err != nil {
				return nil, fmt.Errorf("decode last active: %w", err)
			}
			if row.LastActive != nil {
				signalsFor(row.UserID).LastActive = row.LastActive
			}
		}

		for _, raw := range statementRecords(results, 2) {
			var a model.EarnedAchievement
			if err := decodeRecord(raw, &a, "id"); err != nil {
				return nil, fmt.Errorf("decode achievement: %w", err)
			}
			s := signalsFor(a.UserID)
			s.Achievements = append(s.Achievements, a)
		}

		for _, raw := range statementRecords(results, 3) {
			data, ok := normalizeValue(raw).(map[string]interface{})
			if !ok {
				continue
			}
			s := signalsFor(getString(data, "user_id"))
			s.Badges = append(s.Badges, getString(data, "value"))
		}
	}

	return out, nil
}
