package service

import (
	"fmt"
	"time"

	"github.com/mewayz/progression/internal/model"
)

// ScoreInput is everything a calculator may read about one user.
// Both fields may be nil for a user with no progress row or no activity.
type ScoreInput struct {
	Progress *model.UserProgress
	Signals  *model.ActivitySignals
}

// ScoreCalculator is a pure scoring function for one leaderboard category
type ScoreCalculator func(in ScoreInput, timeframe model.Timeframe) (float64, error)

// Per-unit weights of the weighted-sum categories
var (
	SocialWeights = map[string]float64{
		model.ActivityFollowerGained: 5,
		model.ActivityPostShared:     3,
		model.ActivityPostLiked:      1,
		model.ActivityReferral:       50,
	}
	ContentWeights = map[string]float64{
		model.ActivityPostCreated:      10,
		model.ActivityArticlePublished: 25,
		model.ActivityVideoPublished:   40,
		model.ActivityCoursePublished:  100,
	}
	CommunityWeights = map[string]float64{
		model.ActivityForumPost:      5,
		model.ActivityHelpfulAnswer:  20,
		model.ActivityMentorshipDone: 100,
	}
	LearningWeights = map[string]float64{
		model.ActivityLessonCompleted: 10,
		model.ActivityQuizPassed:      15,
		model.ActivityCourseCompleted: 100,
		model.ActivityCertification:   250,
	}
	CollaborationWeights = map[string]float64{
		model.ActivityTeamTaskCompleted: 10,
		model.ActivityReviewGiven:       15,
		model.ActivityProjectShipped:    150,
	}
	InnovationWeights = map[string]float64{
		model.ActivityIdeaSubmitted:   20,
		model.ActivityFeatureAdopted:  75,
		model.ActivityIdeaImplemented: 200,
		model.ActivityChallengeWon:    300,
	}
)

// AchievementPointsPerTier is multiplied by the tier multiplier
const AchievementPointsPerTier = 100

// LevelScoreWeight makes level dominate XP in the level category
const LevelScoreWeight = 1000

var calculators = map[model.LeaderboardCategory]ScoreCalculator{
	model.CategoryXP:               XPScore,
	model.CategoryLevel:            LevelScore,
	model.CategoryAchievements:     AchievementScore,
	model.CategorySocialInfluence:  weighted(SocialWeights),
	model.CategoryContentCreation:  weighted(ContentWeights),
	model.CategoryEcommerceSuccess: CommerceScore,
	model.CategoryCommunity:        weighted(CommunityWeights),
	model.CategoryLearning:         weighted(LearningWeights),
	model.CategoryCollaboration:    weighted(CollaborationWeights),
	model.CategoryInnovation:       weighted(InnovationWeights),
}

// CalculatorFor returns the calculator of a category
func CalculatorFor(category model.LeaderboardCategory) (ScoreCalculator, error) {
	calc, ok := calculators[category]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return calc, nil
}

// ScoreFor computes the score of one user for a category and timeframe
func ScoreFor(category model.LeaderboardCategory, in ScoreInput, timeframe model.Timeframe) (float64, error) {
	calc, err := CalculatorFor(category)
	if err != nil {
		return 0, err
	}
	return calc(in, timeframe)
}

// XPScore reads the windowed XP counter selected by the timeframe.
// alltime and custom read total_xp.
func XPScore(in ScoreInput, timeframe model.Timeframe) (float64, error) {
	p := in.Progress
	if p == nil {
		return 0, validTimeframe(timeframe)
	}
	switch timeframe {
	case model.TimeframeDaily:
		return float64(p.DailyXP), nil
	case model.TimeframeWeekly:
		return float64(p.WeeklyXP), nil
	case model.TimeframeMonthly:
		return float64(p.MonthlyXP), nil
	case model.TimeframeYearly:
		return float64(p.YearlyXP), nil
	case model.TimeframeAllTime, model.TimeframeCustom:
		return float64(p.TotalXP), nil
	}
	return 0, validTimeframe(timeframe)
}

// LevelScore is current_level * 1000 + current_xp
func LevelScore(in ScoreInput, _ model.Timeframe) (float64, error) {
	if in.Progress == nil {
		return 0, nil
	}
	return float64(in.Progress.CurrentLevel*LevelScoreWeight) + float64(in.Progress.CurrentXP), nil
}

// AchievementScore sums 100 * tier multiplier over earned achievements
func AchievementScore(in ScoreInput, _ model.Timeframe) (float64, error) {
	if in.Signals == nil {
		return 0, nil
	}
	var total float64
	for _, a := range in.Signals.Achievements {
		total += float64(AchievementPointsPerTier * a.Tier.Multiplier())
	}
	return total, nil
}

// CommerceScore is the recorded revenue in the window
func CommerceScore(in ScoreInput, _ model.Timeframe) (float64, error) {
	if in.Signals == nil {
		return 0, nil
	}
	return in.Signals.Revenue, nil
}

// weighted builds a calculator summing count * weight over event types
func weighted(weights map[string]float64) ScoreCalculator {
	return func(in ScoreInput, _ model.Timeframe) (float64, error) {
		var total float64
		for eventType, w := range weights {
			total += float64(in.Signals.Count(eventType)) * w
		}
		return total, nil
	}
}

func validTimeframe(tf model.Timeframe) error {
	if tf.IsValid() {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownTimeframe, tf)
}

// ScoreWindow returns the activity window a leaderboard scores over at now.
// Calendar windows start at the current period boundary in loc and are open-ended.
func ScoreWindow(lb *model.Leaderboard, now time.Time, loc *time.Location) (model.TimeWindow, error) {
	var from time.Time
	switch lb.Timeframe {
	case model.TimeframeDaily:
		from = StartOfDay(now, loc)
	case model.TimeframeWeekly:
		from = StartOfWeek(now, loc)
	case model.TimeframeMonthly:
		from = StartOfMonth(now, loc)
	case model.TimeframeYearly:
		from = StartOfYear(now, loc)
	case model.TimeframeAllTime:
		return model.TimeWindow{}, nil
	case model.TimeframeCustom:
		if lb.StartsAt != nil && lb.EndsAt != nil && !lb.EndsAt.After(*lb.StartsAt) {
			return model.TimeWindow{}, fmt.Errorf("%w: custom window ends before it starts", ErrUnknownTimeframe)
		}
		return model.TimeWindow{From: lb.StartsAt, To: lb.EndsAt}, nil
	default:
		return model.TimeWindow{}, validTimeframe(lb.Timeframe)
	}
	return model.TimeWindow{From: &from}, nil
}
