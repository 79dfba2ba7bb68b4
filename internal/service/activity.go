package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mewayz/progression/internal/model"
)

// ActivityRepository defines the interface for activity signal storage
type ActivityRepository interface {
	CreateEvent(ctx context.Context, event *model.ActivityEvent) error
	CreateAchievement(ctx context.Context, achievement *model.EarnedAchievement) error
	// LoadSignals aggregates the activity of each user inside window
	LoadSignals(ctx context.Context, userIDs []string, window model.TimeWindow) (map[string]*model.ActivitySignals, error)
}

// XPAwarder is the subset of ProgressionService used to credit achievement XP
type XPAwarder interface {
	AwardXP(ctx context.Context, userID string, amount float64, source string, meta model.AwardMetadata) (int64, error)
}

// ActivityService ingests raw activity signals consumed by the score calculators
type ActivityService struct {
	repo   ActivityRepository
	xp     XPAwarder
	clock  Clock
	logger *slog.Logger
}

// ActivityServiceConfig holds configuration for the activity service
type ActivityServiceConfig struct {
	Repo   ActivityRepository
	XP     XPAwarder // optional; achievements with an XP reward are credited through it
	Clock  Clock
	Logger *slog.Logger
}

// NewActivityService creates a new activity service
func NewActivityService(cfg ActivityServiceConfig) *ActivityService {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &ActivityService{
		repo:   cfg.Repo,
		xp:     cfg.XP,
		clock:  cfg.Clock,
		logger: cfg.Logger,
	}
}

// RecordEvent validates and stores an activity event
func (s *ActivityService) RecordEvent(ctx context.Context, event *model.ActivityEvent) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidActivity, err)
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.Now()
	}
	return s.repo.CreateEvent(ctx, event)
}

// RecordAchievement stores an earned achievement and credits its XP reward, if any.
// The achievement stays recorded when the XP award fails.
func (s *ActivityService) RecordAchievement(ctx context.Context, a *model.EarnedAchievement) (int64, error) {
	if strings.TrimSpace(a.UserID) == "" || strings.TrimSpace(a.AchievementID) == "" {
		return 0, fmt.Errorf("%w: user_id and achievement_id are required", ErrInvalidAchievement)
	}
	if !a.Tier.IsValid() {
		return 0, fmt.Errorf("%w: unknown tier %q", ErrInvalidAchievement, a.Tier)
	}
	if a.XPReward < 0 {
		return 0, fmt.Errorf("%w: xp reward must be non-negative", ErrInvalidAchievement)
	}
	if a.EarnedAt.IsZero() {
		a.EarnedAt = s.clock.Now()
	}

	if err := s.repo.CreateAchievement(ctx, a); err != nil {
		return 0, err
	}

	if a.XPReward == 0 || s.xp == nil {
		return 0, nil
	}
	credited, err := s.xp.AwardXP(ctx, a.UserID, float64(a.XPReward), "achievement:"+a.AchievementID, model.AwardMetadata{})
	if err != nil {
		s.logger.Error("achievement xp award failed",
			slog.String("user_id", a.UserID),
			slog.String("achievement_id", a.AchievementID),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("award achievement xp: %w", err)
	}
	return credited, nil
}

// Signals returns the windowed activity of the given users
func (s *ActivityService) Signals(ctx context.Context, userIDs []string, window model.TimeWindow) (map[string]*model.ActivitySignals, error) {
	return s.repo.LoadSignals(ctx, userIDs, window)
}

// lastActive returns the most recent of two optional timestamps
func lastActive(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.After(*a):
		return b
	}
	return a
}
