package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/mewayz/progression/internal/database"
	"github.com/mewayz/progression/internal/metrics"
	"github.com/mewayz/progression/internal/model"
)

// ProgressRepository defines the interface for user progress storage
type ProgressRepository interface {
	// Get returns nil, nil when the user has no progress row
	Get(ctx context.Context, userID string) (*model.UserProgress, error)
	// Create stores a new row, database.ErrDuplicate if one exists
	Create(ctx context.Context, p *model.UserProgress) error
	// Update stores p if the stored version still equals p.Version and bumps it.
	// It returns database.ErrConflict when the row moved on.
	Update(ctx context.Context, p *model.UserProgress) error
	GetMany(ctx context.Context, userIDs []string) (map[string]*model.UserProgress, error)
	ResetWindow(ctx context.Context, window model.XPWindow) (int, error)
}

// DefaultAwardRetries bounds compare-and-set retries of one mutation
const DefaultAwardRetries = 3

const userLockStripes = 64

// ProgressionService owns XP accrual, leveling, prestige, streaks and specializations
type ProgressionService struct {
	repo       ProgressRepository
	rewards    *RewardDispatcher
	events     *EventHub
	clock      Clock
	location   *time.Location
	maxRetries int
	logger     *slog.Logger
	locks      [userLockStripes]sync.Mutex
}

// ProgressionServiceConfig holds configuration for the progression service
type ProgressionServiceConfig struct {
	Repo       ProgressRepository
	Rewards    RewardLedger
	Events     *EventHub
	Clock      Clock
	Location   *time.Location // calendar used for streak days, defaults to UTC
	MaxRetries int
	Logger     *slog.Logger
}

// NewProgressionService creates a new progression service
func NewProgressionService(cfg ProgressionServiceConfig) *ProgressionService {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultAwardRetries
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &ProgressionService{
		repo:       cfg.Repo,
		rewards:    NewRewardDispatcher(cfg.Rewards, cfg.Events, cfg.Logger, cfg.Clock),
		events:     cfg.Events,
		clock:      cfg.Clock,
		location:   cfg.Location,
		maxRetries: cfg.MaxRetries,
		logger:     cfg.Logger,
	}
}

// AwardResult describes a completed award
type AwardResult struct {
	Credited   int64               `json:"credited"`
	Multiplier float64             `json:"multiplier"`
	LeveledUp  bool                `json:"leveled_up"`
	Prestiged  bool                `json:"prestiged"`
	Progress   *model.UserProgress `json:"progress"`
	// RewardFailures lists grants the ledger rejected. The award itself stands.
	RewardFailures []*RewardDispatchError `json:"-"`
}

// AwardXP credits amount * multiplier to the user and returns the XP actually credited.
// Reward dispatch failures are reported through logs, metrics and events only.
func (s *ProgressionService) AwardXP(ctx context.Context, userID string, amount float64, source string, meta model.AwardMetadata) (int64, error) {
	res, err := s.Award(ctx, userID, amount, source, meta)
	if err != nil {
		return 0, err
	}
	return res.Credited, nil
}

// Award is AwardXP returning the full outcome
func (s *ProgressionService) Award(ctx context.Context, userID string, amount float64, source string, meta model.AwardMetadata) (*AwardResult, error) {
	if err := validateAward(userID, amount, meta); err != nil {
		metrics.XPAwards.WithLabelValues("rejected").Inc()
		return nil, err
	}

	var out awardOutcome
	now := s.clock.Now()
	p, err := s.mutate(ctx, userID, func(p *model.UserProgress) error {
		var err error
		out, err = applyAward(p, amount, meta.QualityScore, now)
		return err
	})
	if err != nil {
		metrics.XPAwards.WithLabelValues("failed").Inc()
		return nil, err
	}
	metrics.XPAwards.WithLabelValues("ok").Inc()
	metrics.XPCredited.Add(float64(out.Credited))

	s.logger.Debug("xp awarded",
		slog.String("user_id", userID),
		slog.String("source", source),
		slog.Int64("credited", out.Credited),
		slog.Float64("multiplier", out.Multiplier),
	)

	res := &AwardResult{
		Credited:   out.Credited,
		Multiplier: out.Multiplier,
		LeveledUp:  out.leveledUp(),
		Prestiged:  out.Prestiged,
		Progress:   p,
	}
	res.RewardFailures = s.afterAward(ctx, p, out, now)
	return res, nil
}

// afterAward runs the side effects of a committed award
func (s *ProgressionService) afterAward(ctx context.Context, p *model.UserProgress, out awardOutcome, now time.Time) []*RewardDispatchError {
	if out.leveledUp() {
		metrics.LevelUps.Inc()
		s.events.Publish(NewEvent(EventLevelUp, p.UserID, now, LevelUpData{
			FromLevel: out.FromLevel,
			ToLevel:   out.ToLevel,
			TotalXP:   p.TotalXP,
		}))
	}
	if out.Prestiged {
		metrics.Prestiges.Inc()
		s.logger.Info("user prestiged",
			slog.String("user_id", p.UserID),
			slog.Int("prestige", out.Prestige),
		)
		s.events.Publish(NewEvent(EventPrestige, p.UserID, now, PrestigeData{
			Prestige:       p.Prestige,
			PrestigePoints: p.PrestigePoints,
		}))
	}
	for _, track := range out.Unlocked {
		s.events.Publish(NewEvent(EventSpecializationUnlocked, p.UserID, now, SpecializationData{Track: track, Level: 1}))
	}
	if len(out.Rewards) == 0 {
		return nil
	}
	return s.rewards.Dispatch(ctx, p.UserID, out.Rewards)
}

func validateAward(userID string, amount float64, meta model.AwardMetadata) error {
	if strings.TrimSpace(userID) == "" {
		return ErrUserIDRequired
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return &InvalidAwardError{Amount: amount, Reason: "amount must be finite"}
	}
	if amount < 0 {
		return &InvalidAwardError{Amount: amount, Reason: "amount must be non-negative"}
	}
	if q := meta.QualityScore; q != nil && (math.IsNaN(*q) || *q < 0 || *q > 100) {
		return &InvalidAwardError{Amount: amount, Reason: "quality score must be within 0-100"}
	}
	return nil
}

// GetProgress returns the user's progress, creating the default row on first access
func (s *ProgressionService) GetProgress(ctx context.Context, userID string) (*model.UserProgress, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserIDRequired
	}
	return s.loadOrCreate(ctx, userID)
}

// UpdateStreak applies an explicit streak action for today. Unknown streak types start empty.
func (s *ProgressionService) UpdateStreak(ctx context.Context, userID, streakType string, action model.StreakAction) (*model.Streak, error) {
	if !action.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStreakAction, action)
	}
	if strings.TrimSpace(streakType) == "" {
		return nil, ErrInvalidStreakType
	}
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserIDRequired
	}

	now := s.clock.Now()
	today := StartOfDay(now, s.location)
	var before, after model.Streak
	_, err := s.mutate(ctx, userID, func(p *model.UserProgress) error {
		before = p.Streaks[streakType]
		after = ApplyStreakAction(before, action, today)
		p.Streaks[streakType] = after
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.StreakActions.WithLabelValues(string(action)).Inc()
	if freezeConsumed(before, after) {
		metrics.FreezeTokensConsumed.Inc()
	}
	if after != before {
		s.events.Publish(NewEvent(EventStreakUpdated, userID, now, StreakData{
			StreakType:   streakType,
			Action:       string(action),
			Current:      after.Current,
			Longest:      after.Longest,
			FreezeTokens: after.FreezeTokens,
		}))
	}
	return &after, nil
}

// GrantFreezeTokens adds freeze tokens to a streak
func (s *ProgressionService) GrantFreezeTokens(ctx context.Context, userID, streakType string, count int) (*model.Streak, error) {
	if count <= 0 {
		return nil, ErrInvalidFreezeGrant
	}
	if strings.TrimSpace(streakType) == "" {
		return nil, ErrInvalidStreakType
	}
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserIDRequired
	}

	var after model.Streak
	_, err := s.mutate(ctx, userID, func(p *model.UserProgress) error {
		after = p.Streaks[streakType]
		after.FreezeTokens += count
		p.Streaks[streakType] = after
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &after, nil
}

// UnlockSpecialization unlocks a track explicitly. Unlocking twice is a no-op.
func (s *ProgressionService) UnlockSpecialization(ctx context.Context, userID, track string) (*model.Specialization, error) {
	if !model.IsKnownTrack(track) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSpecialization, track)
	}
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserIDRequired
	}

	now := s.clock.Now()
	var unlocked bool
	p, err := s.mutate(ctx, userID, func(p *model.UserProgress) error {
		unlocked = unlockSpecialization(p, track, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	spec := p.Specializations[track]
	if unlocked {
		s.events.Publish(NewEvent(EventSpecializationUnlocked, userID, now, SpecializationData{Track: track, Level: spec.Level}))
	}
	return &spec, nil
}

// AwardSpecializationXP credits XP to an unlocked track. It never touches the main level.
func (s *ProgressionService) AwardSpecializationXP(ctx context.Context, userID, track string, amount int64) (*model.Specialization, error) {
	if !model.IsKnownTrack(track) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSpecialization, track)
	}
	if amount < 0 {
		return nil, &InvalidAwardError{Amount: float64(amount), Reason: "amount must be non-negative"}
	}
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserIDRequired
	}

	now := s.clock.Now()
	var before, after int
	p, err := s.mutate(ctx, userID, func(p *model.UserProgress) error {
		var err error
		before, after, err = addSpecializationXP(p, track, amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	spec := p.Specializations[track]
	if after > before {
		s.events.Publish(NewEvent(EventSpecializationLevelUp, userID, now, SpecializationData{Track: track, Level: after}))
	}
	return &spec, nil
}

// ResetWindowedXP zeroes one windowed XP counter for every user.
// It is called by an external scheduler; the engine never resets windows itself.
func (s *ProgressionService) ResetWindowedXP(ctx context.Context, window model.XPWindow) (int, error) {
	if !window.IsValid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidXPWindow, window)
	}
	n, err := s.repo.ResetWindow(ctx, window)
	if err != nil {
		return 0, fmt.Errorf("reset %s xp: %w", window, err)
	}
	s.logger.Info("windowed xp reset", slog.String("window", string(window)), slog.Int("users", n))
	return n, nil
}

// mutate runs fn against a private copy of the user's progress and saves it with
// compare-and-set, retrying on conflicts. Mutations of one user are serialized in-process.
func (s *ProgressionService) mutate(ctx context.Context, userID string, fn func(p *model.UserProgress) error) (*model.UserProgress, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	for attempt := 0; ; attempt++ {
		current, err := s.loadOrCreate(ctx, userID)
		if err != nil {
			return nil, err
		}

		next := current.Clone()
		if err := fn(next); err != nil {
			return nil, err
		}
		next.UpdatedOn = s.clock.Now()

		err = s.repo.Update(ctx, next)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, database.ErrConflict) {
			return nil, fmt.Errorf("save progress: %w", err)
		}

		metrics.VersionConflicts.Inc()
		if attempt >= s.maxRetries {
			return nil, fmt.Errorf("%w after %d attempts", ErrVersionConflict, attempt+1)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

// loadOrCreate returns the stored row or lazily creates the default one
func (s *ProgressionService) loadOrCreate(ctx context.Context, userID string) (*model.UserProgress, error) {
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	if p != nil {
		p.Normalize()
		return p, nil
	}

	p = model.NewUserProgress(userID, s.clock.Now())
	if err := s.repo.Create(ctx, p); err != nil {
		if !errors.Is(err, database.ErrDuplicate) {
			return nil, fmt.Errorf("create progress: %w", err)
		}
		// created concurrently by another process
		p, err = s.repo.Get(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("load progress: %w", err)
		}
		if p == nil {
			return nil, fmt.Errorf("load progress: %w", database.ErrNotFound)
		}
		p.Normalize()
	}
	return p, nil
}

func (s *ProgressionService) lockUser(userID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	mu := &s.locks[h.Sum32()%userLockStripes]
	mu.Lock()
	return mu.Unlock
}
