package service

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mewayz/progression/internal/model"
)

// PrestigeFactorStep is the permanent XP factor gained per prestige
const PrestigeFactorStep = 0.1

// ResolveMultiplier combines every active multiplier source of p into one factor.
// Factors multiply. Inactive or expired entries are skipped, never zeroed.
// An active factor that is not a positive finite number fails with ErrCorruptMultiplier.
func ResolveMultiplier(p *model.UserProgress, quality *float64, now time.Time) (float64, error) {
	m := 1.0

	for _, x := range p.XPMultipliers {
		if !x.AppliesAt(now) {
			continue
		}
		if !positiveFinite(x.Value) {
			return 0, fmt.Errorf("%w: multiplier %q has value %v", ErrCorruptMultiplier, x.Source, x.Value)
		}
		m *= x.Value
	}

	m *= 1 + float64(p.Prestige)*PrestigeFactorStep

	// sorted so the float product is reproducible
	kinds := make([]string, 0, len(p.Streaks))
	for kind := range p.Streaks {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		m *= StreakFactor(p.Streaks[kind].Current)
	}

	bonuses := []struct {
		name  string
		bonus *model.Bonus
	}{
		{"seasonal", p.SeasonalBonus},
		{"mentorship", p.MentorshipBonus},
	}
	for _, b := range bonuses {
		if b.bonus == nil || !b.bonus.Active {
			continue
		}
		if !positiveFinite(b.bonus.Multiplier) {
			return 0, fmt.Errorf("%w: %s bonus has value %v", ErrCorruptMultiplier, b.name, b.bonus.Multiplier)
		}
		m *= b.bonus.Multiplier
	}

	if quality != nil {
		m *= 1 + *quality/100
	}

	if !positiveFinite(m) {
		return 0, fmt.Errorf("%w: combined multiplier %v", ErrCorruptMultiplier, m)
	}
	return m, nil
}

// StreakFactor returns 1 + min(current * 1%, 50%) for an active streak, 1 otherwise
func StreakFactor(current int) float64 {
	if current <= 0 {
		return 1
	}
	return 1 + math.Min(float64(current)*model.StreakBonusPerDay, model.StreakBonusCap)
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
