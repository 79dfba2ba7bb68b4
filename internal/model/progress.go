package model

import (
	"errors"
	"math"
	"time"
)

// Level bounds for the main progression curve
const (
	MinLevel      = 1
	PrestigeLevel = 100 // soft cap, reaching it forces a prestige
)

// UserProgress is the progression state owned by one user.
// It is mutated only by the progression service (leveling, streaks, specializations).
type UserProgress struct {
	UserID       string `json:"user_id"`
	CurrentLevel int    `json:"current_level"`
	CurrentXP    int64  `json:"current_xp"` // cumulative within the current prestige run
	TotalXP      int64  `json:"total_xp"`
	LifetimeXP   int64  `json:"lifetime_xp"` // survives prestige

	Prestige       int   `json:"prestige"`
	PrestigePoints int64 `json:"prestige_points"`

	Specializations map[string]Specialization `json:"specializations"`
	LevelHistory    []LevelHistoryEntry       `json:"level_history"`
	XPMultipliers   []XPMultiplier            `json:"xp_multipliers"`
	Streaks         map[string]Streak         `json:"streaks"`

	SeasonalBonus   *Bonus `json:"seasonal_bonus,omitempty"`
	MentorshipBonus *Bonus `json:"mentorship_bonus,omitempty"`

	DailyXP   int64 `json:"daily_xp"`
	WeeklyXP  int64 `json:"weekly_xp"`
	MonthlyXP int64 `json:"monthly_xp"`
	YearlyXP  int64 `json:"yearly_xp"`

	// Version is bumped on every successful save and used for compare-and-set updates
	Version   int64     `json:"version"`
	CreatedOn time.Time `json:"created_on"`
	UpdatedOn time.Time `json:"updated_on"`
}

// NewUserProgress returns the default row created lazily for a user without progress.
func NewUserProgress(userID string, now time.Time) *UserProgress {
	return &UserProgress{
		UserID:          userID,
		CurrentLevel:    MinLevel,
		Specializations: make(map[string]Specialization),
		LevelHistory:    []LevelHistoryEntry{},
		XPMultipliers:   []XPMultiplier{},
		Streaks:         make(map[string]Streak),
		CreatedOn:       now,
		UpdatedOn:       now,
	}
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (p *UserProgress) Clone() *UserProgress {
	if p == nil {
		return nil
	}
	c := *p
	c.Specializations = make(map[string]Specialization, len(p.Specializations))
	for k, v := range p.Specializations {
		c.Specializations[k] = v
	}
	c.Streaks = make(map[string]Streak, len(p.Streaks))
	for k, v := range p.Streaks {
		c.Streaks[k] = v
	}
	c.LevelHistory = make([]LevelHistoryEntry, len(p.LevelHistory))
	copy(c.LevelHistory, p.LevelHistory)
	c.XPMultipliers = make([]XPMultiplier, len(p.XPMultipliers))
	copy(c.XPMultipliers, p.XPMultipliers)
	if p.SeasonalBonus != nil {
		b := *p.SeasonalBonus
		c.SeasonalBonus = &b
	}
	if p.MentorshipBonus != nil {
		b := *p.MentorshipBonus
		c.MentorshipBonus = &b
	}
	return &c
}

// Normalize fills nil maps/slices after decoding a stored row.
func (p *UserProgress) Normalize() {
	if p.Specializations == nil {
		p.Specializations = make(map[string]Specialization)
	}
	if p.Streaks == nil {
		p.Streaks = make(map[string]Streak)
	}
	if p.LevelHistory == nil {
		p.LevelHistory = []LevelHistoryEntry{}
	}
	if p.XPMultipliers == nil {
		p.XPMultipliers = []XPMultiplier{}
	}
	if p.CurrentLevel < MinLevel {
		p.CurrentLevel = MinLevel
	}
}

// Validate checks the invariants the type system cannot express.
func (p *UserProgress) Validate() error {
	var errs []error
	if p.CurrentLevel < MinLevel {
		errs = append(errs, errors.New("current_level must be >= 1"))
	}
	if p.CurrentXP < 0 || p.TotalXP < 0 || p.LifetimeXP < 0 {
		errs = append(errs, errors.New("xp counters must be non-negative"))
	}
	if p.Prestige < 0 || p.PrestigePoints < 0 {
		errs = append(errs, errors.New("prestige counters must be non-negative"))
	}
	for kind, s := range p.Streaks {
		if s.FreezeTokens < 0 {
			errs = append(errs, errors.New("streak "+kind+": freeze_tokens must be non-negative"))
		}
	}
	for _, m := range p.XPMultipliers {
		if err := m.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, b := range []*Bonus{p.SeasonalBonus, p.MentorshipBonus} {
		if b != nil && b.Active && !validFactor(b.Multiplier) {
			errs = append(errs, errors.New("bonus multiplier must be a positive finite number"))
		}
	}
	return errors.Join(errs...)
}

// LevelHistoryEntry is one append-only record of a level transition
type LevelHistoryEntry struct {
	ID          string    `json:"id"`
	FromLevel   int       `json:"from_level"`
	ToLevel     int       `json:"to_level"`
	XPAtLevelUp int64     `json:"xp_at_levelup"`
	Prestige    bool      `json:"prestige,omitempty"`
	OccurredOn  time.Time `json:"occurred_on"`
}

// XPMultiplier is a time-boxed bonus factor applied to XP awards
type XPMultiplier struct {
	Value     float64   `json:"value"`
	Active    bool      `json:"active"`
	ExpiresAt time.Time `json:"expires_at"`
	Source    string    `json:"source"`
}

// Validate rejects zero, negative and non-finite factors
func (m XPMultiplier) Validate() error {
	if !validFactor(m.Value) {
		return errors.New("multiplier " + m.Source + ": value must be a positive finite number")
	}
	return nil
}

// AppliesAt reports whether the multiplier contributes to an award made at now.
func (m XPMultiplier) AppliesAt(now time.Time) bool {
	return m.Active && m.ExpiresAt.After(now)
}

// Bonus is an optional seasonal or mentorship factor
type Bonus struct {
	Active     bool    `json:"active"`
	Multiplier float64 `json:"multiplier"`
}

func validFactor(v float64) bool {
	return v > 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// AwardMetadata carries optional per-award context from the awarding event
type AwardMetadata struct {
	// QualityScore is 0-100 when the award comes from rated content
	QualityScore *float64          `json:"quality_score,omitempty"`
	Attributes   map[string]string `json:"attributes,omitempty"`
}

// XPWindow names a windowed XP counter
type XPWindow string

const (
	XPWindowDaily   XPWindow = "daily"
	XPWindowWeekly  XPWindow = "weekly"
	XPWindowMonthly XPWindow = "monthly"
	XPWindowYearly  XPWindow = "yearly"
)

// IsValid returns true if the window is known
func (w XPWindow) IsValid() bool {
	switch w {
	case XPWindowDaily, XPWindowWeekly, XPWindowMonthly, XPWindowYearly:
		return true
	}
	return false
}
