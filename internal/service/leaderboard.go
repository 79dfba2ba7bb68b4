package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mewayz/progression/internal/metrics"
	"github.com/mewayz/progression/internal/model"
)

// LeaderboardRepository defines the interface for leaderboard and snapshot storage
type LeaderboardRepository interface {
	// GetByID returns nil, nil when the leaderboard does not exist
	GetByID(ctx context.Context, id string) (*model.Leaderboard, error)
	ListActive(ctx context.Context) ([]*model.Leaderboard, error)
	// GetEntries returns the snapshot ordered by rank; limit 0 returns every entry
	GetEntries(ctx context.Context, leaderboardID string, limit int) ([]*model.LeaderboardEntry, error)
	GetEntry(ctx context.Context, leaderboardID, userID string) (*model.LeaderboardEntry, error)
	CountEntries(ctx context.Context, leaderboardID string) (int, error)
	// ReplaceSnapshot swaps the whole entry set atomically
	ReplaceSnapshot(ctx context.Context, snap *model.Snapshot) error
}

// DirectoryRepository is the read-only user directory collaborator
type DirectoryRepository interface {
	// ListEligible returns the users in scope of lb (workspace, region or everyone)
	ListEligible(ctx context.Context, lb *model.Leaderboard) ([]model.EligibleUser, error)
}

// RankingCache is an optional read-through copy of published snapshots.
// The bool result reports a cache hit.
type RankingCache interface {
	Publish(ctx context.Context, leaderboardID string, entries []*model.LeaderboardEntry) error
	Top(ctx context.Context, leaderboardID string, limit int) ([]*model.LeaderboardEntry, bool, error)
	Entry(ctx context.Context, leaderboardID, userID string) (*model.LeaderboardEntry, bool, error)
	Count(ctx context.Context, leaderboardID string) (int, bool, error)
	Invalidate(ctx context.Context, leaderboardID string) error
}

// Leaderboard service defaults
const (
	DefaultRecomputeTimeout = 2 * time.Minute
	DefaultRankingsLimit    = 50
	MaxRankingsLimit        = 500

	cacheInvalidateTimeout = 5 * time.Second
)

// LeaderboardService recomputes leaderboard snapshots and serves rankings
type LeaderboardService struct {
	leaderboards LeaderboardRepository
	directory    DirectoryRepository
	progress     ProgressRepository
	activity     ActivityRepository
	cache        RankingCache
	clock        Clock
	location     *time.Location
	workers      int
	timeout      time.Duration
	handleSalt   string
	logger       *slog.Logger
}

// LeaderboardServiceConfig holds configuration for the leaderboard service
type LeaderboardServiceConfig struct {
	Leaderboards LeaderboardRepository
	Directory    DirectoryRepository
	Progress     ProgressRepository
	Activity     ActivityRepository
	Cache        RankingCache // optional
	Clock        Clock
	Location     *time.Location
	Workers      int           // scoring parallelism, defaults to GOMAXPROCS
	Timeout      time.Duration // per-leaderboard recomputation bound
	HandleSalt   string
	Logger       *slog.Logger
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(cfg LeaderboardServiceConfig) *LeaderboardService {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRecomputeTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &LeaderboardService{
		leaderboards: cfg.Leaderboards,
		directory:    cfg.Directory,
		progress:     cfg.Progress,
		activity:     cfg.Activity,
		cache:        cfg.Cache,
		clock:        cfg.Clock,
		location:     cfg.Location,
		workers:      cfg.Workers,
		timeout:      cfg.Timeout,
		handleSalt:   cfg.HandleSalt,
		logger:       cfg.Logger,
	}
}

// RecomputeResult summarizes one published snapshot
type RecomputeResult struct {
	LeaderboardID string        `json:"leaderboard_id"`
	Category      string        `json:"category"`
	Eligible      int           `json:"eligible"`
	Ranked        int           `json:"ranked"`
	Reset         bool          `json:"reset"`
	NextReset     *time.Time    `json:"next_reset,omitempty"`
	ComputedOn    time.Time     `json:"computed_on"`
	Duration      time.Duration `json:"duration"`
}

// CycleReport summarizes a RunCycle pass over every active leaderboard
type CycleReport struct {
	Recomputed []*RecomputeResult `json:"recomputed"`
	Failed     map[string]string  `json:"failed,omitempty"` // leaderboard id -> error
}

// GetLeaderboard returns a leaderboard definition
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, id string) (*model.Leaderboard, error) {
	lb, err := s.leaderboards.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lb == nil {
		return nil, ErrLeaderboardNotFound
	}
	return lb, nil
}

// Recompute rebuilds and atomically publishes the snapshot of one active leaderboard.
// On any failure the previous snapshot stays intact and a *RecomputeAbortedError is returned.
func (s *LeaderboardService) Recompute(ctx context.Context, leaderboardID string) (*RecomputeResult, error) {
	lb, err := s.GetLeaderboard(ctx, leaderboardID)
	if err != nil {
		return nil, err
	}
	if !lb.IsActive {
		return nil, ErrLeaderboardInactive
	}
	return s.recompute(ctx, lb)
}

// RunCycle recomputes every active leaderboard in turn, advancing due resets.
// A failed leaderboard does not stop the cycle; failures are joined into the returned error.
func (s *LeaderboardService) RunCycle(ctx context.Context) (CycleReport, error) {
	report := CycleReport{Failed: make(map[string]string)}

	boards, err := s.leaderboards.ListActive(ctx)
	if err != nil {
		return report, fmt.Errorf("list active leaderboards: %w", err)
	}

	var errs []error
	for _, lb := range boards {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := s.recompute(ctx, lb)
		if err != nil {
			report.Failed[lb.ID] = err.Error()
			errs = append(errs, err)
			continue
		}
		report.Recomputed = append(report.Recomputed, res)
	}
	return report, errors.Join(errs...)
}

type scoredUser struct {
	user     model.EligibleUser
	score    float64
	progress *model.UserProgress
	signals  *model.ActivitySignals
}

func (s *LeaderboardService) recompute(ctx context.Context, lb *model.Leaderboard) (*RecomputeResult, error) {
	started := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.buildAndPublish(ctx, lb)
	metrics.RecomputeDuration.WithLabelValues(string(lb.Category)).Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.Recomputes.WithLabelValues("aborted").Inc()
		s.logger.Warn("leaderboard recompute aborted",
			slog.String("leaderboard_id", lb.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	res.Duration = time.Since(started)
	metrics.Recomputes.WithLabelValues("ok").Inc()
	metrics.SnapshotEntries.WithLabelValues(lb.ID).Set(float64(res.Ranked))
	s.logger.Info("leaderboard recomputed",
		slog.String("leaderboard_id", lb.ID),
		slog.String("category", string(lb.Category)),
		slog.Int("eligible", res.Eligible),
		slog.Int("ranked", res.Ranked),
		slog.Bool("reset", res.Reset),
		slog.Duration("duration", res.Duration),
	)
	return res, nil
}

func (s *LeaderboardService) buildAndPublish(ctx context.Context, lb *model.Leaderboard) (*RecomputeResult, error) {
	abort := func(stage string, err error) error {
		return &RecomputeAbortedError{LeaderboardID: lb.ID, Stage: stage, Err: err}
	}

	now := s.clock.Now()
	calc, err := CalculatorFor(lb.Category)
	if err != nil {
		return nil, abort("configure", err)
	}
	window, err := ScoreWindow(lb, now, s.location)
	if err != nil {
		return nil, abort("configure", err)
	}

	users, err := s.directory.ListEligible(ctx, lb)
	if err != nil {
		return nil, abort("eligibility", err)
	}
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.UserID
	}

	progress, err := s.progress.GetMany(ctx, ids)
	if err != nil {
		return nil, abort("load progress", err)
	}
	signals, err := s.activity.LoadSignals(ctx, ids, window)
	if err != nil {
		return nil, abort("load activity", err)
	}

	// calculators are pure, so users score independently
	scored := make([]scoredUser, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, u := range users {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			in := ScoreInput{Progress: progress[u.UserID], Signals: signals[u.UserID]}
			score, err := calc(in, lb.Timeframe)
			if err != nil {
				return fmt.Errorf("score user %s: %w", u.UserID, err)
			}
			scored[i] = scoredUser{user: u, score: score, progress: in.Progress, signals: in.Signals}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, abort("score", err)
	}

	ranked := rankUsers(scored)
	if lb.MaxEntries > 0 && len(ranked) > lb.MaxEntries {
		ranked = ranked[:lb.MaxEntries]
	}

	previous, err := s.leaderboards.GetEntries(ctx, lb.ID, 0)
	if err != nil {
		return nil, abort("load previous", err)
	}
	prevByUser := make(map[string]*model.LeaderboardEntry, len(previous))
	for _, e := range previous {
		prevByUser[e.UserID] = e
	}

	entries := make([]*model.LeaderboardEntry, len(ranked))
	for i, su := range ranked {
		entries[i] = s.buildEntry(lb.ID, i+1, su, prevByUser[su.user.UserID], now)
	}

	snap := &model.Snapshot{
		LeaderboardID: lb.ID,
		Entries:       entries,
		ComputedOn:    now,
	}
	reset := ShouldReset(lb, now)
	if reset {
		snap.NextReset = NextReset(lb.ResetFrequency, now, s.location)
	}

	if err := ctx.Err(); err != nil {
		return nil, abort("deadline", err)
	}
	if err := s.leaderboards.ReplaceSnapshot(ctx, snap); err != nil {
		return nil, abort("persist", err)
	}

	if reset {
		metrics.Resets.WithLabelValues(string(lb.ResetFrequency)).Inc()
		lb.LastReset = &now
		lb.NextReset = snap.NextReset
	}
	s.publishCache(ctx, lb.ID, entries)

	return &RecomputeResult{
		LeaderboardID: lb.ID,
		Category:      string(lb.Category),
		Eligible:      len(users),
		Ranked:        len(entries),
		Reset:         reset,
		NextReset:     snap.NextReset,
		ComputedOn:    now,
	}, nil
}

// rankUsers drops non-positive scores and orders the rest best first.
// Ties fall back to lifetime XP, then user ID, so snapshots are reproducible.
func rankUsers(scored []scoredUser) []scoredUser {
	ranked := make([]scoredUser, 0, len(scored))
	for _, su := range scored {
		if su.score > 0 {
			ranked = append(ranked, su)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if la, lb := lifetimeXP(a.progress), lifetimeXP(b.progress); la != lb {
			return la > lb
		}
		return a.user.UserID < b.user.UserID
	})
	return ranked
}

func lifetimeXP(p *model.UserProgress) int64 {
	if p == nil {
		return 0
	}
	return p.LifetimeXP
}

func (s *LeaderboardService) buildEntry(leaderboardID string, rank int, su scoredUser, prev *model.LeaderboardEntry, now time.Time) *model.LeaderboardEntry {
	e := &model.LeaderboardEntry{
		ID:              uuid.New().String(),
		LeaderboardID:   leaderboardID,
		UserID:          su.user.UserID,
		Handle:          HandleFor(s.handleSalt, su.user.UserID),
		Rank:            rank,
		PreviousRank:    model.UnrankedRank,
		Score:           su.score,
		LifetimeXP:      lifetimeXP(su.progress),
		Achievements:    []model.AchievementSummary{},
		Badges:          []string{},
		Specializations: map[string]int{},
		StreakSummary:   map[string]int{},
		SocialMetrics:   map[string]int64{},
		LastActive:      su.user.LastActive,
		ComputedOn:      now,
	}
	if prev != nil {
		e.PreviousRank = prev.Rank
		e.PreviousScore = prev.Score
	}

	if p := su.progress; p != nil {
		for track, spec := range p.Specializations {
			if spec.IsActive {
				e.Specializations[track] = spec.Level
			}
		}
		for kind, st := range p.Streaks {
			e.StreakSummary[kind] = st.Current
		}
	}
	if sig := su.signals; sig != nil {
		for _, a := range sig.Achievements {
			e.Achievements = append(e.Achievements, model.AchievementSummary{
				AchievementID: a.AchievementID,
				Name:          a.Name,
				Tier:          a.Tier,
			})
		}
		e.Badges = append(e.Badges, sig.Badges...)
		for eventType := range SocialWeights {
			if n := sig.Count(eventType); n > 0 {
				e.SocialMetrics[eventType] = n
			}
		}
		e.LastActive = lastActive(e.LastActive, sig.LastActive)
	}
	return e
}

func (s *LeaderboardService) publishCache(ctx context.Context, leaderboardID string, entries []*model.LeaderboardEntry) {
	if s.cache == nil {
		return
	}
	err := s.cache.Publish(ctx, leaderboardID, entries)
	if err == nil {
		return
	}
	metrics.CachePublishFailures.Inc()
	s.logger.Warn("ranking cache publish failed",
		slog.String("leaderboard_id", leaderboardID),
		slog.String("error", err.Error()),
	)

	// The previous snapshot must not outlive the committed one, so drop it and
	// let reads fall back to the store.
	ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheInvalidateTimeout)
	defer cancel()
	if err := s.cache.Invalidate(ictx, leaderboardID); err != nil {
		s.logger.Error("ranking cache invalidate failed",
			slog.String("leaderboard_id", leaderboardID),
			slog.String("error", err.Error()),
		)
	}
}

// GetCurrentRankings returns the top entries of the published snapshot.
// A snapshot smaller than min_entries is not shown.
func (s *LeaderboardService) GetCurrentRankings(ctx context.Context, leaderboardID string, limit int) ([]model.RankedEntry, error) {
	lb, err := s.GetLeaderboard(ctx, leaderboardID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultRankingsLimit
	}
	if limit > MaxRankingsLimit {
		limit = MaxRankingsLimit
	}

	total, err := s.countEntries(ctx, lb.ID)
	if err != nil {
		return nil, err
	}
	if total == 0 || total < lb.MinEntries {
		return []model.RankedEntry{}, nil
	}

	entries, err := s.topEntries(ctx, lb.ID, limit)
	if err != nil {
		return nil, err
	}
	ranked := make([]model.RankedEntry, len(entries))
	for i, e := range entries {
		ranked[i] = model.NewRankedEntry(*e)
	}
	return ranked, nil
}

// GetUserPosition returns one user's standing. Unranked users report the rank sentinel.
func (s *LeaderboardService) GetUserPosition(ctx context.Context, leaderboardID, userID string) (*model.Position, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserIDRequired
	}
	lb, err := s.GetLeaderboard(ctx, leaderboardID)
	if err != nil {
		return nil, err
	}

	total, err := s.countEntries(ctx, lb.ID)
	if err != nil {
		return nil, err
	}
	pos := &model.Position{
		LeaderboardID: lb.ID,
		UserID:        userID,
		Rank:          model.UnrankedRank,
		PreviousRank:  model.UnrankedRank,
		TotalEntries:  total,
	}
	if total == 0 || total < lb.MinEntries {
		return pos, nil
	}

	e, err := s.userEntry(ctx, lb.ID, userID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return pos, nil
	}

	pos.Ranked = true
	pos.Rank = e.Rank
	pos.Score = e.Score
	pos.PreviousRank = e.PreviousRank
	pos.PreviousScore = e.PreviousScore
	pos.Change = e.Movement()
	pos.New = e.IsNew()
	pos.ChangePercentage = e.ScoreChangePercentage()
	return pos, nil
}

func (s *LeaderboardService) countEntries(ctx context.Context, leaderboardID string) (int, error) {
	if s.cache != nil {
		if n, ok, err := s.cache.Count(ctx, leaderboardID); err == nil && ok {
			return n, nil
		}
	}
	return s.leaderboards.CountEntries(ctx, leaderboardID)
}

func (s *LeaderboardService) topEntries(ctx context.Context, leaderboardID string, limit int) ([]*model.LeaderboardEntry, error) {
	if s.cache != nil {
		if entries, ok, err := s.cache.Top(ctx, leaderboardID, limit); err == nil && ok {
			return entries, nil
		}
	}
	return s.leaderboards.GetEntries(ctx, leaderboardID, limit)
}

func (s *LeaderboardService) userEntry(ctx context.Context, leaderboardID, userID string) (*model.LeaderboardEntry, error) {
	if s.cache != nil {
		if e, ok, err := s.cache.Entry(ctx, leaderboardID, userID); err == nil && ok {
			return e, nil
		}
	}
	return s.leaderboards.GetEntry(ctx, leaderboardID, userID)
}
