package repository_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mewayz/progression/internal/database"
	"github.com/mewayz/progression/internal/model"
	"github.com/mewayz/progression/internal/repository"
	"github.com/mewayz/progression/internal/testing/fixtures"
	"github.com/mewayz/progression/internal/testing/testdb"
)

func TestIntegration_ProgressCompareAndSet(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)
	repo := repository.NewProgressRepository(tdb.DB)

	created := f.CreateProgress(t, "u-1", fixtures.WithLevel(3, 2000))

	loaded, err := repo.Get(tdb.Ctx(), "u-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 3, loaded.CurrentLevel)
	assert.Equal(t, int64(2000), loaded.CurrentXP)
	assert.Equal(t, int64(0), loaded.Version)

	stale := loaded.Clone()

	loaded.CurrentXP += 500
	require.NoError(t, repo.Update(tdb.Ctx(), loaded))
	assert.Equal(t, int64(1), loaded.Version)

	stale.CurrentXP += 100
	err = repo.Update(tdb.Ctx(), stale)
	assert.ErrorIs(t, err, database.ErrConflict)

	err = repo.Create(tdb.Ctx(), created)
	assert.ErrorIs(t, err, database.ErrDuplicate)

	missing, err := repo.Get(tdb.Ctx(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestIntegration_ResetWindow(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)
	repo := repository.NewProgressRepository(tdb.DB)

	f.CreateProgress(t, "u-1", func(o *fixtures.ProgressOpts) { o.WeeklyXP = 120 })
	f.CreateProgress(t, "u-2", func(o *fixtures.ProgressOpts) { o.WeeklyXP = 80 })

	n, err := repo.ResetWindow(tdb.Ctx(), model.XPWindowWeekly)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := repo.GetMany(tdb.Ctx(), []string{"u-1", "u-2"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, p := range rows {
		assert.Zero(t, p.WeeklyXP)
		assert.Equal(t, int64(1), p.Version)
	}
}

func TestIntegration_ReplaceSnapshot(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)
	repo := repository.NewLeaderboardRepository(tdb.DB)

	lb := f.CreateLeaderboard(t)
	now := f.Now()

	entry := func(userID string, rank int, score float64) *model.LeaderboardEntry {
		return &model.LeaderboardEntry{
			LeaderboardID:   lb.ID,
			UserID:          userID,
			Handle:          "player-" + userID,
			Rank:            rank,
			Score:           score,
			Achievements:    []model.AchievementSummary{},
			Badges:          []string{},
			Specializations: map[string]int{},
			StreakSummary:   map[string]int{},
			SocialMetrics:   map[string]int64{},
			ComputedOn:      now,
		}
	}

	next := now.Add(24 * time.Hour)
	require.NoError(t, repo.ReplaceSnapshot(tdb.Ctx(), &model.Snapshot{
		LeaderboardID: lb.ID,
		Entries:       []*model.LeaderboardEntry{entry("b", 1, 900), entry("a", 2, 400)},
		ComputedOn:    now,
		NextReset:     &next,
	}))

	entries, err := repo.GetEntries(tdb.Ctx(), lb.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "b", entries[0].UserID)
	assert.Equal(t, "a", entries[1].UserID)

	got, err := repo.GetEntry(tdb.Ctx(), lb.ID, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Rank)

	require.NoError(t, repo.ReplaceSnapshot(tdb.Ctx(), &model.Snapshot{
		LeaderboardID: lb.ID,
		Entries:       []*model.LeaderboardEntry{entry("a", 1, 1000)},
		ComputedOn:    now.Add(time.Minute),
	}))

	count, err := repo.CountEntries(tdb.Ctx(), lb.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	gone, err := repo.GetEntry(tdb.Ctx(), lb.ID, "b")
	require.NoError(t, err)
	assert.Nil(t, gone)

	stored, err := repo.GetByID(tdb.Ctx(), lb.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastReset)
	require.NotNil(t, stored.NextReset)
	assert.WithinDuration(t, now.Add(time.Minute), *stored.LastReset, time.Second)
	assert.WithinDuration(t, next, *stored.NextReset, time.Second)
}

func TestIntegration_LoadSignals(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)
	repo := repository.NewActivityRepository(tdb.DB)

	f.RecordEvent(t, "u-1", model.ActivityPostCreated, time.Hour)
	f.RecordEvent(t, "u-1", model.ActivityPostCreated, 2*time.Hour)
	f.RecordEvent(t, "u-1", model.ActivityPostCreated, 30*24*time.Hour)
	f.RecordSale(t, "u-1", 49.5, time.Hour)
	f.CreateAchievement(t, "u-1", model.TierGold)
	f.GrantBadge(t, "u-1", "early-adopter")

	from := f.Now().Add(-7 * 24 * time.Hour)
	signals, err := repo.LoadSignals(tdb.Ctx(), []string{"u-1", "u-2"}, model.TimeWindow{From: &from})
	require.NoError(t, err)

	s := signals["u-1"]
	require.NotNil(t, s)
	assert.Equal(t, int64(2), s.Count(model.ActivityPostCreated))
	assert.Equal(t, int64(1), s.Count(model.ActivitySaleCompleted))
	assert.InDelta(t, 49.5, s.Revenue, 0.001)
	require.Len(t, s.Achievements, 1)
	assert.Equal(t, model.TierGold, s.Achievements[0].Tier)
	assert.Equal(t, []string{"early-adopter"}, s.Badges)
	require.NotNil(t, s.LastActive)
	assert.WithinDuration(t, f.Now().Add(-time.Hour), *s.LastActive, time.Second)

	assert.Equal(t, int64(0), signals["u-2"].Count(model.ActivityPostCreated))
}

func TestIntegration_ListEligibleScopes(t *testing.T) {
	tdb := testdb.New(t)
	f := fixtures.New(tdb.DB)
	repo := repository.NewDirectoryRepository(tdb.DB)

	f.CreateUser(t, fixtures.WithUserID("u-1"), fixtures.WithWorkspace("ws-1"), fixtures.WithRegion("eu"))
	f.CreateUser(t, fixtures.WithUserID("u-2"), fixtures.WithWorkspace("ws-2"), fixtures.WithRegion("us"))
	f.CreateUser(t, fixtures.WithUserID("u-3"), fixtures.WithWorkspace("ws-1"), fixtures.WithRegion("us"))

	ids := func(users []model.EligibleUser) []string {
		out := make([]string, len(users))
		for i, u := range users {
			out[i] = u.UserID
		}
		return out
	}

	workspace, err := repo.ListEligible(tdb.Ctx(), &model.Leaderboard{Type: model.LeaderboardWorkspace, ScopeID: "ws-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"u-1", "u-3"}, ids(workspace))

	regional, err := repo.ListEligible(tdb.Ctx(), &model.Leaderboard{Type: model.LeaderboardRegional, ScopeID: "us"})
	require.NoError(t, err)
	assert.Equal(t, []string{"u-2", "u-3"}, ids(regional))

	global, err := repo.ListEligible(tdb.Ctx(), &model.Leaderboard{Type: model.LeaderboardGlobal})
	require.NoError(t, err)
	assert.Equal(t, []string{"u-1", "u-2", "u-3"}, ids(global))
}
