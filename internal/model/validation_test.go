package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var refNow = time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

func TestUserProgress_NewDefaults(t *testing.T) {
	t.Parallel()

	p := NewUserProgress("user_1", refNow)

	assert.Equal(t, MinLevel, p.CurrentLevel)
	assert.Zero(t, p.TotalXP)
	assert.NotNil(t, p.Specializations)
	assert.NotNil(t, p.Streaks)
	assert.NoError(t, p.Validate())
}

func TestUserProgress_Clone_IsDeep(t *testing.T) {
	t.Parallel()

	p := NewUserProgress("user_1", refNow)
	p.Streaks[StreakDailyLogin] = Streak{Current: 3}
	p.XPMultipliers = append(p.XPMultipliers, XPMultiplier{Value: 2, Active: true, ExpiresAt: refNow.Add(time.Hour)})
	p.SeasonalBonus = &Bonus{Active: true, Multiplier: 1.5}

	c := p.Clone()
	c.Streaks[StreakDailyLogin] = Streak{Current: 9}
	c.XPMultipliers[0].Value = 5
	c.SeasonalBonus.Multiplier = 3

	assert.Equal(t, 3, p.Streaks[StreakDailyLogin].Current)
	assert.Equal(t, 2.0, p.XPMultipliers[0].Value)
	assert.Equal(t, 1.5, p.SeasonalBonus.Multiplier)
}

func TestUserProgress_Normalize_FillsNilCollections(t *testing.T) {
	t.Parallel()

	p := &UserProgress{UserID: "user_1"}
	p.Normalize()

	assert.Equal(t, MinLevel, p.CurrentLevel)
	assert.NotNil(t, p.Specializations)
	assert.NotNil(t, p.Streaks)
	assert.NotNil(t, p.LevelHistory)
	assert.NotNil(t, p.XPMultipliers)
}

func TestUserProgress_Validate_CollectsAllFailures(t *testing.T) {
	t.Parallel()

	p := NewUserProgress("user_1", refNow)
	p.CurrentXP = -1
	p.Streaks[StreakSales] = Streak{FreezeTokens: -2}
	p.XPMultipliers = []XPMultiplier{{Value: 0, Active: true, Source: "event"}}
	p.MentorshipBonus = &Bonus{Active: true, Multiplier: math.NaN()}

	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xp counters")
	assert.Contains(t, err.Error(), "freeze_tokens")
	assert.Contains(t, err.Error(), "multiplier event")
	assert.Contains(t, err.Error(), "bonus multiplier")
}

func TestXPMultiplier_AppliesAt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		m    XPMultiplier
		want bool
	}{
		{"active and unexpired", XPMultiplier{Value: 2, Active: true, ExpiresAt: refNow.Add(time.Minute)}, true},
		{"inactive", XPMultiplier{Value: 2, Active: false, ExpiresAt: refNow.Add(time.Minute)}, false},
		{"expired", XPMultiplier{Value: 2, Active: true, ExpiresAt: refNow.Add(-time.Minute)}, false},
		{"expires exactly now", XPMultiplier{Value: 2, Active: true, ExpiresAt: refNow}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.AppliesAt(refNow))
		})
	}
}

func TestLeaderboardEntry_Movement(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		previous int
		rank     int
		want     RankChange
		isNew    bool
	}{
		{"climbed", 5, 2, RankUp, false},
		{"dropped", 2, 5, RankDown, false},
		{"held", 3, 3, RankSame, false},
		{"first appearance", UnrankedRank, 1, RankUp, true},
		{"unset previous rank", 0, 7, RankUp, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := LeaderboardEntry{PreviousRank: tt.previous, Rank: tt.rank}
			assert.Equal(t, tt.want, e.Movement())
			assert.Equal(t, tt.isNew, e.IsNew())
		})
	}
}

func TestLeaderboardEntry_ScoreChangePercentage(t *testing.T) {
	t.Parallel()

	e := LeaderboardEntry{Score: 150, PreviousScore: 100}
	assert.InDelta(t, 50.0, e.ScoreChangePercentage(), 1e-9)

	first := LeaderboardEntry{Score: 150, PreviousScore: 0}
	assert.Zero(t, first.ScoreChangePercentage())

	ranked := NewRankedEntry(LeaderboardEntry{Rank: 1, PreviousRank: UnrankedRank, Score: 10})
	assert.Equal(t, RankUp, ranked.Change)
	assert.True(t, ranked.New)
	assert.Zero(t, ranked.ChangePercentage)
}

func TestAchievementTier_Multiplier(t *testing.T) {
	t.Parallel()

	want := map[AchievementTier]int{
		TierStarter: 1, TierBronze: 2, TierSilver: 3, TierGold: 5,
		TierPlatinum: 8, TierDiamond: 13, TierLegendary: 21, TierMythical: 34,
	}
	for tier, m := range want {
		assert.Equal(t, m, tier.Multiplier(), string(tier))
		assert.True(t, tier.IsValid())
	}
	assert.Zero(t, AchievementTier("wooden").Multiplier())
}

func TestActivityEvent_Validate(t *testing.T) {
	t.Parallel()

	negative := -5.0
	e := &ActivityEvent{Revenue: &negative}

	err := e.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user_id")
	assert.Contains(t, err.Error(), "event_type")
	assert.Contains(t, err.Error(), "revenue")

	ok := &ActivityEvent{UserID: "user_1", EventType: ActivitySaleCompleted}
	assert.NoError(t, ok.Validate())
}

func TestRewardKind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "credits", RewardKind(CreditsReward{Amount: 10}))
	assert.Equal(t, "badge", RewardKind(BadgeReward{BadgeID: "level_10"}))
	assert.Equal(t, "premium_time", RewardKind(PremiumTimeReward{Days: 7}))
	assert.Equal(t, "specialization_unlock", RewardKind(SpecializationUnlockReward{Track: TrackMentor}))
	assert.Equal(t, "premium_time(7d)", PremiumTimeReward{Days: 7}.String())
}
