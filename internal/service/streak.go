package service

import (
	"time"

	"github.com/mewayz/progression/internal/model"
)

// ApplyStreakAction applies action to s for the calendar day starting at today.
// today must already be truncated to midnight in the engine's location.
func ApplyStreakAction(s model.Streak, action model.StreakAction, today time.Time) model.Streak {
	switch action {
	case model.StreakIncrement:
		if !s.LastUpdated.IsZero() && s.LastUpdated.Equal(today) {
			return s
		}
		s.Current++
		s.Total++
		if s.Current > s.Longest {
			s.Longest = s.Current
		}
		s.LastUpdated = today
	case model.StreakBreak:
		if s.FreezeTokens > 0 {
			s.FreezeTokens--
		} else {
			s.Current = 0
		}
		s.LastUpdated = today
	case model.StreakMaintain:
		if s.LastUpdated.IsZero() {
			return s
		}
		if daysBetween(s.LastUpdated.In(today.Location()), today) > 1 {
			return ApplyStreakAction(s, model.StreakBreak, today)
		}
	}
	return s
}

// freezeConsumed reports whether an action spent a freeze token
func freezeConsumed(before, after model.Streak) bool {
	return after.FreezeTokens < before.FreezeTokens
}
