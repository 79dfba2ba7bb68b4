package service

import (
	"time"

	"github.com/mewayz/progression/internal/model"
)

// ShouldReset reports whether a periodic reset of lb is due at now.
// A periodic leaderboard that has never been scheduled is due immediately.
func ShouldReset(lb *model.Leaderboard, now time.Time) bool {
	switch lb.ResetFrequency {
	case model.ResetDaily, model.ResetWeekly, model.ResetMonthly, model.ResetYearly:
	default:
		return false
	}
	if lb.NextReset == nil {
		return true
	}
	return !lb.NextReset.After(now)
}

// NextReset returns the start of the period following now, aligned to the period boundary in loc.
// It returns nil for ResetNever and unknown frequencies.
func NextReset(freq model.ResetFrequency, now time.Time, loc *time.Location) *time.Time {
	var next time.Time
	switch freq {
	case model.ResetDaily:
		next = StartOfDay(now, loc).AddDate(0, 0, 1)
	case model.ResetWeekly:
		next = StartOfWeek(now, loc).AddDate(0, 0, 7)
	case model.ResetMonthly:
		next = StartOfMonth(now, loc).AddDate(0, 1, 0)
	case model.ResetYearly:
		next = StartOfYear(now, loc).AddDate(1, 0, 0)
	default:
		return nil
	}
	return &next
}
