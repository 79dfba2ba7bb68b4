package service

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/mewayz/progression/internal/model"
)

// Level-up and prestige reward amounts
const (
	CreditsPerLevel        = 100   // every 5th level grants level * CreditsPerLevel
	LevelPremiumDays       = 7     // every 25th level
	PrestigeCredits        = 10000 // fixed prestige grant
	PrestigePremiumDays    = 30
	PrestigeMultiplier     = 1.1
	PrestigeMultiplierDays = 365
)

// specializationUnlocks maps the levels that unlock a specialization track
var specializationUnlocks = map[int]string{
	20: model.TrackContentCreator,
	30: model.TrackCommunityLeader,
	40: model.TrackCommerceExpert,
	50: model.TrackInnovator,
	60: model.TrackMentor,
	70: model.TrackMasterCollaborator,
}

// XPRequiredForLevel returns floor(100 * L^2.5), the cumulative XP needed to reach level L.
// Levels below 1 require nothing.
func XPRequiredForLevel(level int) int64 {
	if level <= 0 {
		return 0
	}
	l := float64(level)
	// L^2.5 as L^2 * sqrt(L) keeps perfect squares exact
	return int64(math.Floor(100 * l * l * math.Sqrt(l)))
}

// LevelFromXP returns the largest L with XPRequiredForLevel(L) <= xp, or 0 below level 1.
func LevelFromXP(xp int64) int {
	if xp < XPRequiredForLevel(1) {
		return 0
	}
	level := int(math.Pow(float64(xp)/100, 0.4))
	if level < 1 {
		level = 1
	}
	for XPRequiredForLevel(level+1) <= xp {
		level++
	}
	for level > 1 && XPRequiredForLevel(level) > xp {
		level--
	}
	return level
}

// effectiveLevel clamps the curve to the minimum stored level
func effectiveLevel(xp int64) int {
	if l := LevelFromXP(xp); l > model.MinLevel {
		return l
	}
	return model.MinLevel
}

// LevelRewards returns the grants earned on reaching level
func LevelRewards(level int) []model.Reward {
	var rewards []model.Reward
	if level%5 == 0 {
		rewards = append(rewards, model.CreditsReward{
			Amount: int64(level) * CreditsPerLevel,
			Reason: fmt.Sprintf("level_%d", level),
		})
	}
	if level%10 == 0 {
		rewards = append(rewards, model.BadgeReward{BadgeID: fmt.Sprintf("level_%d", level)})
	}
	if level%25 == 0 {
		rewards = append(rewards, model.PremiumTimeReward{Days: LevelPremiumDays})
	}
	if track, ok := specializationUnlocks[level]; ok {
		rewards = append(rewards, model.SpecializationUnlockReward{Track: track})
	}
	return rewards
}

// PrestigeRewards returns the fixed grants for reaching the given prestige
func PrestigeRewards(prestige int) []model.Reward {
	return []model.Reward{
		model.CreditsReward{Amount: PrestigeCredits, Reason: fmt.Sprintf("prestige_%d", prestige)},
		model.BadgeReward{BadgeID: fmt.Sprintf("prestige_%d", prestige)},
		model.PremiumTimeReward{Days: PrestigePremiumDays},
	}
}

// awardOutcome describes what a single award did to a progress row
type awardOutcome struct {
	Credited   int64
	Multiplier float64
	FromLevel  int
	ToLevel    int // level reached before any prestige reset, at most the prestige level
	Prestiged  bool
	Prestige   int
	Rewards    []model.Reward
	Unlocked   []string
}

func (o awardOutcome) leveledUp() bool { return o.ToLevel > o.FromLevel }

// applyAward credits amount to p in place. p must be a private copy.
func applyAward(p *model.UserProgress, amount float64, quality *float64, now time.Time) (awardOutcome, error) {
	multiplier, err := ResolveMultiplier(p, quality, now)
	if err != nil {
		return awardOutcome{}, err
	}

	// epsilon absorbs float artifacts such as 100*1.1 landing below 110
	credited := int64(math.Floor(amount*multiplier + 1e-9))
	out := awardOutcome{Credited: credited, Multiplier: multiplier, FromLevel: p.CurrentLevel}

	p.CurrentXP += credited
	p.TotalXP += credited
	p.LifetimeXP += credited
	p.DailyXP += credited
	p.WeeklyXP += credited
	p.MonthlyXP += credited
	p.YearlyXP += credited

	// The run soft-caps at the prestige level; XP past it is dropped at the reset.
	out.ToLevel = effectiveLevel(p.CurrentXP)
	if out.ToLevel > model.PrestigeLevel {
		out.ToLevel = model.PrestigeLevel
	}
	if out.ToLevel <= out.FromLevel {
		out.ToLevel = out.FromLevel
		return out, nil
	}

	p.CurrentLevel = out.ToLevel
	p.LevelHistory = append(p.LevelHistory, model.LevelHistoryEntry{
		ID:          uuid.New().String(),
		FromLevel:   out.FromLevel,
		ToLevel:     out.ToLevel,
		XPAtLevelUp: p.CurrentXP,
		OccurredOn:  now,
	})

	for level := out.FromLevel + 1; level <= out.ToLevel; level++ {
		out.Rewards = append(out.Rewards, LevelRewards(level)...)
	}

	if out.ToLevel >= model.PrestigeLevel {
		prestige(p, out.ToLevel, now)
		out.Prestiged = true
		out.Prestige = p.Prestige
		out.Rewards = append(out.Rewards, PrestigeRewards(p.Prestige)...)
	}

	for _, r := range out.Rewards {
		if u, ok := r.(model.SpecializationUnlockReward); ok && unlockSpecialization(p, u.Track, now) {
			out.Unlocked = append(out.Unlocked, u.Track)
		}
	}
	return out, nil
}

// prestige resets the level run. total_xp and lifetime_xp are kept.
func prestige(p *model.UserProgress, reached int, now time.Time) {
	p.Prestige++
	p.PrestigePoints += int64(reached)
	p.CurrentLevel = model.MinLevel
	p.CurrentXP = 0
	p.XPMultipliers = append(p.XPMultipliers, model.XPMultiplier{
		Value:     PrestigeMultiplier,
		Active:    true,
		ExpiresAt: now.AddDate(0, 0, PrestigeMultiplierDays),
		Source:    fmt.Sprintf("prestige_%d", p.Prestige),
	})
	p.LevelHistory = append(p.LevelHistory, model.LevelHistoryEntry{
		ID:          uuid.New().String(),
		FromLevel:   reached,
		ToLevel:     model.MinLevel,
		XPAtLevelUp: p.TotalXP,
		Prestige:    true,
		OccurredOn:  now,
	})
}
