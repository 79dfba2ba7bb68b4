package model

import (
	"errors"
	"strings"
	"time"
)

// Activity event types that feed the category score calculators
const (
	// Social influence
	ActivityFollowerGained = "follower_gained"
	ActivityPostShared     = "post_shared"
	ActivityPostLiked      = "post_liked"
	ActivityReferral       = "referral_converted"

	// Content creation
	ActivityPostCreated      = "post_created"
	ActivityArticlePublished = "article_published"
	ActivityVideoPublished   = "video_published"
	ActivityCoursePublished  = "course_published"

	// Commerce
	ActivitySaleCompleted = "sale_completed"

	// Community
	ActivityForumPost      = "forum_post"
	ActivityHelpfulAnswer  = "helpful_answer"
	ActivityMentorshipDone = "mentorship_completed"

	// Learning
	ActivityLessonCompleted = "lesson_completed"
	ActivityCourseCompleted = "course_completed"
	ActivityQuizPassed      = "quiz_passed"
	ActivityCertification   = "certification_earned"

	// Collaboration
	ActivityTeamTaskCompleted = "team_task_completed"
	ActivityProjectShipped    = "project_shipped"
	ActivityReviewGiven       = "review_given"

	// Innovation
	ActivityIdeaSubmitted   = "idea_submitted"
	ActivityIdeaImplemented = "idea_implemented"
	ActivityFeatureAdopted  = "feature_adopted"
	ActivityChallengeWon    = "challenge_won"
)

// ActivityEvent is one raw signal recorded by an analytics collaborator
type ActivityEvent struct {
	ID            string            `json:"id"`
	UserID        string            `json:"user_id"`
	EventType     string            `json:"event_type"`
	EventCategory string            `json:"event_category"`
	Timestamp     time.Time         `json:"timestamp"`
	Revenue       *float64          `json:"revenue,omitempty"`
	Properties    map[string]string `json:"properties,omitempty"`
}

// Validate checks the event before it is stored
func (e *ActivityEvent) Validate() error {
	var errs []error
	if strings.TrimSpace(e.UserID) == "" {
		errs = append(errs, errors.New("user_id is required"))
	}
	if strings.TrimSpace(e.EventType) == "" {
		errs = append(errs, errors.New("event_type is required"))
	}
	if e.Revenue != nil && !(*e.Revenue >= 0) {
		errs = append(errs, errors.New("revenue must be a non-negative number"))
	}
	return errors.Join(errs...)
}

// AchievementTier ranks earned achievements
type AchievementTier string

const (
	TierStarter   AchievementTier = "starter"
	TierBronze    AchievementTier = "bronze"
	TierSilver    AchievementTier = "silver"
	TierGold      AchievementTier = "gold"
	TierPlatinum  AchievementTier = "platinum"
	TierDiamond   AchievementTier = "diamond"
	TierLegendary AchievementTier = "legendary"
	TierMythical  AchievementTier = "mythical"
)

// tierMultipliers escalate roughly along the Fibonacci sequence
var tierMultipliers = map[AchievementTier]int{
	TierStarter:   1,
	TierBronze:    2,
	TierSilver:    3,
	TierGold:      5,
	TierPlatinum:  8,
	TierDiamond:   13,
	TierLegendary: 21,
	TierMythical:  34,
}

// Multiplier returns the score multiplier for the tier, 0 for unknown tiers
func (t AchievementTier) Multiplier() int {
	return tierMultipliers[t]
}

// IsValid returns true if the tier is known
func (t AchievementTier) IsValid() bool {
	_, ok := tierMultipliers[t]
	return ok
}

// EarnedAchievement records one achievement or challenge completion
type EarnedAchievement struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	AchievementID string          `json:"achievement_id"`
	Name          string          `json:"name"`
	Tier          AchievementTier `json:"tier"`
	XPReward      int64           `json:"xp_reward,omitempty"`
	EarnedAt      time.Time       `json:"earned_at"`
}

// AchievementSummary is the denormalized form stored on leaderboard entries
type AchievementSummary struct {
	AchievementID string          `json:"achievement_id"`
	Name          string          `json:"name"`
	Tier          AchievementTier `json:"tier"`
}

// EligibleUser is a row from the user directory collaborator
type EligibleUser struct {
	UserID       string     `json:"user_id"`
	WorkspaceIDs []string   `json:"workspace_ids"`
	Region       string     `json:"region"`
	LastActive   *time.Time `json:"last_active,omitempty"`
}

// TimeWindow bounds an activity query. A nil bound is open.
type TimeWindow struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// Contains reports whether t falls in [From, To)
func (w TimeWindow) Contains(t time.Time) bool {
	if w.From != nil && t.Before(*w.From) {
		return false
	}
	if w.To != nil && !t.Before(*w.To) {
		return false
	}
	return true
}

// ActivitySignals is the windowed activity of one user, input to score calculators
type ActivitySignals struct {
	EventCounts  map[string]int64    `json:"event_counts"`
	Revenue      float64             `json:"revenue"`
	Achievements []EarnedAchievement `json:"achievements"`
	Badges       []string            `json:"badges"`
	LastActive   *time.Time          `json:"last_active,omitempty"`
}

// Count returns the number of events of the given type
func (s *ActivitySignals) Count(eventType string) int64 {
	if s == nil {
		return 0
	}
	return s.EventCounts[eventType]
}
