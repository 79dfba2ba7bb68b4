package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mewayz/progression/internal/model"
)

func TestXPRequiredForLevel(t *testing.T) {
	tests := []struct {
		level int
		want  int64
	}{
		{0, 0},
		{-3, 0},
		{1, 100},
		{2, 565},
		{3, 1558},
		{4, 3200},
		{10, 31622},
		{20, 178885},
		{25, 312500},
		{99, 9751871},
		{100, 10000000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, XPRequiredForLevel(tt.level), "level %d", tt.level)
	}
}

func TestXPRequiredForLevel_Monotonic(t *testing.T) {
	for l := 1; l < 500; l++ {
		require.Less(t, XPRequiredForLevel(l), XPRequiredForLevel(l+1), "level %d", l)
	}
}

func TestLevelFromXP_CurveConsistency(t *testing.T) {
	for l := 1; l <= 300; l++ {
		xp := XPRequiredForLevel(l)
		require.Equal(t, l, LevelFromXP(xp), "exact threshold of level %d", l)
		require.Less(t, LevelFromXP(xp-1), l, "one below level %d", l)
	}
}

func TestLevelFromXP_BelowFirstLevel(t *testing.T) {
	assert.Equal(t, 0, LevelFromXP(0))
	assert.Equal(t, 0, LevelFromXP(99))
	assert.Equal(t, 1, effectiveLevel(0))
	assert.Equal(t, 1, effectiveLevel(564))
	assert.Equal(t, 2, effectiveLevel(565))
}

func TestLevelRewards(t *testing.T) {
	tests := []struct {
		name  string
		level int
		want  []model.Reward
	}{
		{"plain level", 3, nil},
		{"fifth level", 5, []model.Reward{
			model.CreditsReward{Amount: 500, Reason: "level_5"},
		}},
		{"tenth level", 10, []model.Reward{
			model.CreditsReward{Amount: 1000, Reason: "level_10"},
			model.BadgeReward{BadgeID: "level_10"},
		}},
		{"specialization level", 20, []model.Reward{
			model.CreditsReward{Amount: 2000, Reason: "level_20"},
			model.BadgeReward{BadgeID: "level_20"},
			model.SpecializationUnlockReward{Track: model.TrackContentCreator},
		}},
		{"quarter level", 25, []model.Reward{
			model.CreditsReward{Amount: 2500, Reason: "level_25"},
			model.PremiumTimeReward{Days: LevelPremiumDays},
		}},
		{"fiftieth level", 50, []model.Reward{
			model.CreditsReward{Amount: 5000, Reason: "level_50"},
			model.BadgeReward{BadgeID: "level_50"},
			model.PremiumTimeReward{Days: LevelPremiumDays},
			model.SpecializationUnlockReward{Track: model.TrackInnovator},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LevelRewards(tt.level))
		})
	}
}

func TestApplyAward_CreditsBelowNextLevel(t *testing.T) {
	p := model.NewUserProgress("u1", testNow)

	out, err := applyAward(p, 250, nil, testNow)
	require.NoError(t, err)

	assert.Equal(t, int64(250), out.Credited)
	assert.Equal(t, 1.0, out.Multiplier)
	assert.False(t, out.leveledUp())
	assert.Equal(t, 1, p.CurrentLevel)
	assert.Equal(t, int64(250), p.CurrentXP)
	for _, counter := range []int64{p.TotalXP, p.LifetimeXP, p.DailyXP, p.WeeklyXP, p.MonthlyXP, p.YearlyXP} {
		assert.Equal(t, int64(250), counter)
	}
	assert.Empty(t, p.LevelHistory)
	assert.Empty(t, out.Rewards)
}

func TestApplyAward_CrossesLevelWithoutReward(t *testing.T) {
	p := model.NewUserProgress("u1", testNow)
	p.CurrentXP, p.TotalXP, p.LifetimeXP = 560, 560, 560

	out, err := applyAward(p, 10, nil, testNow)
	require.NoError(t, err)

	assert.True(t, out.leveledUp())
	assert.Equal(t, 2, p.CurrentLevel)
	require.Len(t, p.LevelHistory, 1)
	h := p.LevelHistory[0]
	assert.Equal(t, 1, h.FromLevel)
	assert.Equal(t, 2, h.ToLevel)
	assert.Equal(t, int64(570), h.XPAtLevelUp)
	assert.Equal(t, testNow, h.OccurredOn)
	assert.NotEmpty(t, h.ID)
	assert.Empty(t, out.Rewards)
}

func TestApplyAward_MultiLevelJumpCollectsEveryReward(t *testing.T) {
	p := model.NewUserProgress("u1", testNow)

	out, err := applyAward(p, float64(XPRequiredForLevel(10)), nil, testNow)
	require.NoError(t, err)

	assert.Equal(t, 10, p.CurrentLevel)
	assert.Len(t, p.LevelHistory, 1)
	assert.Equal(t, []model.Reward{
		model.CreditsReward{Amount: 500, Reason: "level_5"},
		model.CreditsReward{Amount: 1000, Reason: "level_10"},
		model.BadgeReward{BadgeID: "level_10"},
	}, out.Rewards)
}

func TestApplyAward_Prestige(t *testing.T) {
	start := XPRequiredForLevel(99)
	p := model.NewUserProgress("u1", testNow)
	p.CurrentLevel = 99
	p.CurrentXP, p.TotalXP, p.LifetimeXP = start, start, start

	out, err := applyAward(p, 300000, nil, testNow)
	require.NoError(t, err)

	assert.True(t, out.Prestiged)
	assert.Equal(t, 100, out.ToLevel)
	assert.Equal(t, 1, p.CurrentLevel)
	assert.Equal(t, int64(0), p.CurrentXP)
	assert.Equal(t, 1, p.Prestige)
	assert.Equal(t, int64(100), p.PrestigePoints)
	assert.Equal(t, start+300000, p.TotalXP)
	assert.Equal(t, start+300000, p.LifetimeXP)

	require.Len(t, p.XPMultipliers, 1)
	m := p.XPMultipliers[0]
	assert.Equal(t, PrestigeMultiplier, m.Value)
	assert.True(t, m.Active)
	assert.Equal(t, testNow.AddDate(0, 0, PrestigeMultiplierDays), m.ExpiresAt)

	require.Len(t, p.LevelHistory, 2)
	assert.Equal(t, 99, p.LevelHistory[0].FromLevel)
	assert.Equal(t, 100, p.LevelHistory[0].ToLevel)
	assert.True(t, p.LevelHistory[1].Prestige)
	assert.Equal(t, 100, p.LevelHistory[1].FromLevel)
	assert.Equal(t, 1, p.LevelHistory[1].ToLevel)

	assert.Equal(t, []model.Reward{
		model.CreditsReward{Amount: 10000, Reason: "level_100"},
		model.BadgeReward{BadgeID: "level_100"},
		model.PremiumTimeReward{Days: LevelPremiumDays},
		model.CreditsReward{Amount: PrestigeCredits, Reason: "prestige_1"},
		model.BadgeReward{BadgeID: "prestige_1"},
		model.PremiumTimeReward{Days: PrestigePremiumDays},
	}, out.Rewards)
}

func TestApplyAward_PrestigeOvershootCapsAtPrestigeLevel(t *testing.T) {
	start := XPRequiredForLevel(99)
	p := model.NewUserProgress("u1", testNow)
	p.CurrentLevel = 99
	p.CurrentXP, p.TotalXP, p.LifetimeXP = start, start, start

	// enough XP to land far past level 150 on the curve
	out, err := applyAward(p, float64(XPRequiredForLevel(150)), nil, testNow)
	require.NoError(t, err)

	assert.True(t, out.Prestiged)
	assert.Equal(t, model.PrestigeLevel, out.ToLevel)
	assert.Equal(t, int64(model.PrestigeLevel), p.PrestigePoints)
	assert.Equal(t, 1, p.CurrentLevel)
	assert.Equal(t, int64(0), p.CurrentXP)

	require.Len(t, p.LevelHistory, 2)
	assert.Equal(t, model.PrestigeLevel, p.LevelHistory[0].ToLevel)
	assert.Equal(t, model.PrestigeLevel, p.LevelHistory[1].FromLevel)

	var credits int
	for _, r := range out.Rewards {
		if _, ok := r.(model.CreditsReward); ok {
			credits++
		}
	}
	// the level 100 grant plus the prestige grant
	assert.Equal(t, 2, credits)
}

func TestApplyAward_PrestigeMultiplierAppliesToNextAward(t *testing.T) {
	start := XPRequiredForLevel(99)
	p := model.NewUserProgress("u1", testNow)
	p.CurrentLevel = 99
	p.CurrentXP, p.TotalXP, p.LifetimeXP = start, start, start

	_, err := applyAward(p, 300000, nil, testNow)
	require.NoError(t, err)

	// prestige factor 1.1 times the prestige multiplier 1.1
	out, err := applyAward(p, 100, nil, testNow.Add(1))
	require.NoError(t, err)
	assert.Equal(t, int64(121), out.Credited)
}

func TestApplyAward_UnlocksSpecialization(t *testing.T) {
	start := XPRequiredForLevel(19)
	p := model.NewUserProgress("u1", testNow)
	p.CurrentLevel = 19
	p.CurrentXP, p.TotalXP, p.LifetimeXP = start, start, start

	out, err := applyAward(p, float64(XPRequiredForLevel(20)-start), nil, testNow)
	require.NoError(t, err)

	assert.Equal(t, 20, p.CurrentLevel)
	assert.Equal(t, []string{model.TrackContentCreator}, out.Unlocked)
	spec, ok := p.Specializations[model.TrackContentCreator]
	require.True(t, ok)
	assert.True(t, spec.IsActive)
	assert.Equal(t, 1, spec.Level)
	assert.Equal(t, testNow, spec.UnlockedAt)
}

func TestApplyAward_CorruptMultiplierLeavesStateUntouched(t *testing.T) {
	p := model.NewUserProgress("u1", testNow)
	p.XPMultipliers = []model.XPMultiplier{{Value: 0, Active: true, ExpiresAt: testNow.Add(1e12), Source: "broken"}}
	before := p.Clone()

	_, err := applyAward(p, 100, nil, testNow)
	require.ErrorIs(t, err, ErrCorruptMultiplier)
	assert.Equal(t, before, p)
}
