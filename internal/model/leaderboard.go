package model

import "time"

// LeaderboardCategory selects the score calculator for a leaderboard
type LeaderboardCategory string

const (
	CategoryXP               LeaderboardCategory = "xp"
	CategoryLevel            LeaderboardCategory = "level"
	CategoryAchievements     LeaderboardCategory = "achievements"
	CategorySocialInfluence  LeaderboardCategory = "social_influence"
	CategoryContentCreation  LeaderboardCategory = "content_creation"
	CategoryEcommerceSuccess LeaderboardCategory = "ecommerce_success"
	CategoryCommunity        LeaderboardCategory = "community_building"
	CategoryLearning         LeaderboardCategory = "learning_progress"
	CategoryCollaboration    LeaderboardCategory = "collaboration"
	CategoryInnovation       LeaderboardCategory = "innovation"
)

// Timeframe selects the activity window a score is computed over
type Timeframe string

const (
	TimeframeDaily   Timeframe = "daily"
	TimeframeWeekly  Timeframe = "weekly"
	TimeframeMonthly Timeframe = "monthly"
	TimeframeYearly  Timeframe = "yearly"
	TimeframeAllTime Timeframe = "alltime"
	TimeframeCustom  Timeframe = "custom"
)

// IsValid returns true if the timeframe is known
func (t Timeframe) IsValid() bool {
	switch t {
	case TimeframeDaily, TimeframeWeekly, TimeframeMonthly, TimeframeYearly, TimeframeAllTime, TimeframeCustom:
		return true
	}
	return false
}

// LeaderboardType scopes which users are eligible
type LeaderboardType string

const (
	LeaderboardGlobal        LeaderboardType = "global"
	LeaderboardRegional      LeaderboardType = "regional"
	LeaderboardWorkspace     LeaderboardType = "workspace"
	LeaderboardCategoryScope LeaderboardType = "category"
	LeaderboardSeasonal      LeaderboardType = "seasonal"
	LeaderboardRealtime      LeaderboardType = "realtime"
	LeaderboardHistorical    LeaderboardType = "historical"
	LeaderboardPredictive    LeaderboardType = "predictive"
)

// ResetFrequency controls periodic leaderboard resets
type ResetFrequency string

const (
	ResetNever   ResetFrequency = "never"
	ResetDaily   ResetFrequency = "daily"
	ResetWeekly  ResetFrequency = "weekly"
	ResetMonthly ResetFrequency = "monthly"
	ResetYearly  ResetFrequency = "yearly"
)

// Leaderboard is the configuration entity owned by the admin collaborator.
// The scoring engine only reads it, apart from last_reset / next_reset.
type Leaderboard struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Category       LeaderboardCategory `json:"category"`
	Timeframe      Timeframe           `json:"timeframe"`
	Type           LeaderboardType     `json:"type"`
	ScopeID        string              `json:"scope_id,omitempty"` // workspace id or region code
	ResetFrequency ResetFrequency      `json:"reset_frequency"`
	LastReset      *time.Time          `json:"last_reset,omitempty"`
	NextReset      *time.Time          `json:"next_reset,omitempty"`
	StartsAt       *time.Time          `json:"starts_at,omitempty"` // custom timeframe only
	EndsAt         *time.Time          `json:"ends_at,omitempty"`
	MinEntries     int                 `json:"min_entries"`
	MaxEntries     int                 `json:"max_entries"` // 0 = unlimited
	IsActive       bool                `json:"is_active"`
	IsPublic       bool                `json:"is_public"`
}

// UnrankedRank is the previous-rank sentinel for users with no prior entry
const UnrankedRank = 999999

// LeaderboardEntry is one row of a leaderboard snapshot.
// The whole entry set of a leaderboard is replaced on each recomputation.
type LeaderboardEntry struct {
	ID            string  `json:"id"`
	LeaderboardID string  `json:"leaderboard_id"`
	UserID        string  `json:"user_id"`
	Handle        string  `json:"handle"` // anonymized display name
	Rank          int     `json:"rank"`
	PreviousRank  int     `json:"previous_rank"`
	Score         float64 `json:"score"`
	PreviousScore float64 `json:"previous_score"`
	LifetimeXP    int64   `json:"lifetime_xp"`

	Achievements    []AchievementSummary `json:"achievements"`
	Badges          []string             `json:"badges"`
	Specializations map[string]int       `json:"specializations"`
	StreakSummary   map[string]int       `json:"streak_summary"`
	SocialMetrics   map[string]int64     `json:"social_metrics"`

	LastActive *time.Time `json:"last_active,omitempty"`
	ComputedOn time.Time  `json:"computed_on"`
}

// RankChange is derived from previous_rank and rank, never stored
type RankChange string

const (
	RankUp   RankChange = "up"
	RankDown RankChange = "down"
	RankSame RankChange = "same"
)

func (e *LeaderboardEntry) previousRank() int {
	if e.PreviousRank == 0 {
		return UnrankedRank
	}
	return e.PreviousRank
}

// Movement reports the direction of movement since the previous snapshot.
// A first appearance climbs from the unranked sentinel, so it reads as up.
func (e *LeaderboardEntry) Movement() RankChange {
	prev := e.previousRank()
	switch {
	case prev > e.Rank:
		return RankUp
	case prev < e.Rank:
		return RankDown
	default:
		return RankSame
	}
}

// IsNew reports whether the user was absent from the previous snapshot
func (e *LeaderboardEntry) IsNew() bool {
	return e.previousRank() == UnrankedRank
}

// ScoreChangePercentage returns the relative score change.
// It is 0 when there was no previous score, even on a first appearance.
func (e *LeaderboardEntry) ScoreChangePercentage() float64 {
	if e.PreviousScore == 0 {
		return 0
	}
	return (e.Score - e.PreviousScore) / e.PreviousScore * 100
}

// RankedEntry is the read model returned to dashboards
type RankedEntry struct {
	LeaderboardEntry
	Change           RankChange `json:"rank_change"`
	New              bool       `json:"is_new"`
	ChangePercentage float64    `json:"change_percentage"`
}

// NewRankedEntry decorates an entry with its derived deltas
func NewRankedEntry(e LeaderboardEntry) RankedEntry {
	return RankedEntry{
		LeaderboardEntry: e,
		Change:           e.Movement(),
		New:              e.IsNew(),
		ChangePercentage: e.ScoreChangePercentage(),
	}
}

// Position is a single user's standing on one leaderboard
type Position struct {
	LeaderboardID    string     `json:"leaderboard_id"`
	UserID           string     `json:"user_id"`
	Ranked           bool       `json:"ranked"`
	Rank             int        `json:"rank"`
	Score            float64    `json:"score"`
	PreviousRank     int        `json:"previous_rank"`
	PreviousScore    float64    `json:"previous_score"`
	Change           RankChange `json:"rank_change,omitempty"`
	New              bool       `json:"is_new,omitempty"`
	ChangePercentage float64    `json:"change_percentage"`
	TotalEntries     int        `json:"total_entries"`
}

// Snapshot is a complete replacement entry set for one leaderboard
type Snapshot struct {
	LeaderboardID string
	Entries       []*LeaderboardEntry
	ComputedOn    time.Time  // persisted as last_reset
	NextReset     *time.Time // nil leaves next_reset unchanged
}
