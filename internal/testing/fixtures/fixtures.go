package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/mewayz/progression/internal/database"
	"github.com/mewayz/progression/internal/model"
	"github.com/mewayz/progression/internal/repository"
)

// Factory creates test entities in the database through the repositories
type Factory struct {
	progress     *repository.ProgressRepository
	leaderboards *repository.LeaderboardRepository
	activity     *repository.ActivityRepository
	directory    *repository.DirectoryRepository
	rewards      *repository.RewardRepository
	now          time.Time
}

// New creates a new fixture factory
func New(db database.Database) *Factory {
	return &Factory{
		progress:     repository.NewProgressRepository(db),
		leaderboards: repository.NewLeaderboardRepository(db),
		activity:     repository.NewActivityRepository(db),
		directory:    repository.NewDirectoryRepository(db),
		rewards:      repository.NewRewardRepository(db),
		now:          time.Now().UTC().Truncate(time.Second),
	}
}

// Now is the reference time used for every timestamp the factory writes
func (f *Factory) Now() time.Time {
	return f.now
}

func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// ============================================================================
// Directory Fixtures
// ============================================================================

// UserOpts customizes directory user creation
type UserOpts struct {
	UserID       string
	WorkspaceIDs []string
	Region       string
	LastActive   *time.Time
}

// WithWorkspace adds a workspace membership
func WithWorkspace(id string) func(*UserOpts) {
	return func(o *UserOpts) { o.WorkspaceIDs = append(o.WorkspaceIDs, id) }
}

// WithRegion sets the region code
func WithRegion(region string) func(*UserOpts) {
	return func(o *UserOpts) { o.Region = region }
}

// WithUserID fixes the user ID instead of generating one
func WithUserID(id string) func(*UserOpts) {
	return func(o *UserOpts) { o.UserID = id }
}

// CreateUser adds a user to the directory
func (f *Factory) CreateUser(t *testing.T, opts ...func(*UserOpts)) model.EligibleUser {
	t.Helper()

	o := &UserOpts{
		UserID: "user_" + randomID(),
		Region: "eu",
	}
	for _, fn := range opts {
		fn(o)
	}

	u := model.EligibleUser{
		UserID:       o.UserID,
		WorkspaceIDs: o.WorkspaceIDs,
		Region:       o.Region,
		LastActive:   o.LastActive,
	}
	if err := f.directory.Upsert(testCtx(t), u); err != nil {
		t.Fatalf("fixtures: failed to create directory user: %v", err)
	}
	return u
}

// ============================================================================
// Progress Fixtures
// ============================================================================

// ProgressOpts customizes progress creation
type ProgressOpts struct {
	Level      int
	CurrentXP  int64
	LifetimeXP int64
	Prestige   int
	WeeklyXP   int64
	Streaks    map[string]model.Streak
}

// WithLevel sets the current level and cumulative XP
func WithLevel(level int, xp int64) func(*ProgressOpts) {
	return func(o *ProgressOpts) {
		o.Level = level
		o.CurrentXP = xp
	}
}

// WithLifetimeXP sets the lifetime XP
func WithLifetimeXP(xp int64) func(*ProgressOpts) {
	return func(o *ProgressOpts) { o.LifetimeXP = xp }
}

// WithStreak sets one streak
func WithStreak(kind string, current int) func(*ProgressOpts) {
	return func(o *ProgressOpts) {
		if o.Streaks == nil {
			o.Streaks = make(map[string]model.Streak)
		}
		o.Streaks[kind] = model.Streak{Current: current, Longest: current}
	}
}

// CreateProgress stores a progress row for userID
func (f *Factory) CreateProgress(t *testing.T, userID string, opts ...func(*ProgressOpts)) *model.UserProgress {
	t.Helper()

	o := &ProgressOpts{Level: model.MinLevel}
	for _, fn := range opts {
		fn(o)
	}

	p := model.NewUserProgress(userID, f.now)
	p.CurrentLevel = o.Level
	p.CurrentXP = o.CurrentXP
	p.TotalXP = o.CurrentXP
	p.LifetimeXP = o.LifetimeXP
	if p.LifetimeXP < p.CurrentXP {
		p.LifetimeXP = p.CurrentXP
	}
	p.Prestige = o.Prestige
	p.WeeklyXP = o.WeeklyXP
	for kind, s := range o.Streaks {
		p.Streaks[kind] = s
	}

	if err := f.progress.Create(testCtx(t), p); err != nil {
		t.Fatalf("fixtures: failed to create progress: %v", err)
	}
	return p
}

// ============================================================================
// Leaderboard Fixtures
// ============================================================================

// WithCategory sets the leaderboard category
func WithCategory(c model.LeaderboardCategory) func(*model.Leaderboard) {
	return func(lb *model.Leaderboard) { lb.Category = c }
}

// WithTimeframe sets the leaderboard timeframe
func WithTimeframe(tf model.Timeframe) func(*model.Leaderboard) {
	return func(lb *model.Leaderboard) { lb.Timeframe = tf }
}

// WithScope makes the leaderboard workspace or regional scoped
func WithScope(typ model.LeaderboardType, scopeID string) func(*model.Leaderboard) {
	return func(lb *model.Leaderboard) {
		lb.Type = typ
		lb.ScopeID = scopeID
	}
}

// WithEntryBounds sets min_entries and max_entries
func WithEntryBounds(minEntries, maxEntries int) func(*model.Leaderboard) {
	return func(lb *model.Leaderboard) {
		lb.MinEntries = minEntries
		lb.MaxEntries = maxEntries
	}
}

// Private hides the leaderboard from the public API
func Private() func(*model.Leaderboard) {
	return func(lb *model.Leaderboard) { lb.IsPublic = false }
}

// CreateLeaderboard stores an active, public, all-time global XP leaderboard unless overridden
func (f *Factory) CreateLeaderboard(t *testing.T, opts ...func(*model.Leaderboard)) *model.Leaderboard {
	t.Helper()

	id := randomID()
	lb := &model.Leaderboard{
		ID:             "lb_" + id,
		Name:           fmt.Sprintf("Leaderboard %s", id),
		Category:       model.CategoryXP,
		Timeframe:      model.TimeframeAllTime,
		Type:           model.LeaderboardGlobal,
		ResetFrequency: model.ResetNever,
		IsActive:       true,
		IsPublic:       true,
	}
	for _, fn := range opts {
		fn(lb)
	}

	if err := f.leaderboards.Save(testCtx(t), lb); err != nil {
		t.Fatalf("fixtures: failed to create leaderboard: %v", err)
	}
	return lb
}

// ============================================================================
// Activity Fixtures
// ============================================================================

// RecordEvent stores one activity event for userID, offset from the reference time
func (f *Factory) RecordEvent(t *testing.T, userID, eventType string, ago time.Duration) *model.ActivityEvent {
	t.Helper()

	e := &model.ActivityEvent{
		UserID:    userID,
		EventType: eventType,
		Timestamp: f.now.Add(-ago),
	}
	if err := f.activity.CreateEvent(testCtx(t), e); err != nil {
		t.Fatalf("fixtures: failed to record event: %v", err)
	}
	return e
}

// RecordSale stores a completed sale carrying revenue
func (f *Factory) RecordSale(t *testing.T, userID string, revenue float64, ago time.Duration) *model.ActivityEvent {
	t.Helper()

	e := &model.ActivityEvent{
		UserID:        userID,
		EventType:     model.ActivitySaleCompleted,
		EventCategory: "ecommerce",
		Timestamp:     f.now.Add(-ago),
		Revenue:       &revenue,
	}
	if err := f.activity.CreateEvent(testCtx(t), e); err != nil {
		t.Fatalf("fixtures: failed to record sale: %v", err)
	}
	return e
}

// CreateAchievement stores an earned achievement of the given tier
func (f *Factory) CreateAchievement(t *testing.T, userID string, tier model.AchievementTier) *model.EarnedAchievement {
	t.Helper()

	id := randomID()
	a := &model.EarnedAchievement{
		UserID:        userID,
		AchievementID: "ach_" + id,
		Name:          "Achievement " + id,
		Tier:          tier,
		EarnedAt:      f.now,
	}
	if err := f.activity.CreateAchievement(testCtx(t), a); err != nil {
		t.Fatalf("fixtures: failed to create achievement: %v", err)
	}
	return a
}

// GrantBadge records a badge grant in the reward outbox
func (f *Factory) GrantBadge(t *testing.T, userID, badgeID string) {
	t.Helper()

	if err := f.rewards.GrantBadge(testCtx(t), userID, badgeID); err != nil {
		t.Fatalf("fixtures: failed to grant badge: %v", err)
	}
}
