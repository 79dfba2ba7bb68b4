package model

import "time"

// Streak types tracked by default. Any other string is accepted and auto-initialized.
const (
	StreakDailyLogin = "daily_login"
	StreakContent    = "content_creation"
	StreakLearning   = "learning"
	StreakSales      = "sales"
	StreakCommunity  = "community"
)

// StreakAction is the explicit operation applied to a streak
type StreakAction string

const (
	StreakIncrement StreakAction = "increment"
	StreakBreak     StreakAction = "break"
	StreakMaintain  StreakAction = "maintain"
)

// IsValid returns true if the action is known
func (a StreakAction) IsValid() bool {
	switch a {
	case StreakIncrement, StreakBreak, StreakMaintain:
		return true
	}
	return false
}

// Streak is the per (user, streak type) counter with daily granularity
type Streak struct {
	Current      int       `json:"current"`
	Longest      int       `json:"longest"`
	Total        int       `json:"total"`
	LastUpdated  time.Time `json:"last_updated"` // midnight of the calendar day, zero if never touched
	FreezeTokens int       `json:"freeze_tokens"`
}

// XP bonus per consecutive streak day and its per-streak cap (+50%)
const (
	StreakBonusPerDay = 0.01
	StreakBonusCap    = 0.5
)
