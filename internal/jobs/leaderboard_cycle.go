package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mewayz/progression/internal/service"
)

// CycleRunner recomputes every active leaderboard once
type CycleRunner interface {
	RunCycle(ctx context.Context) (service.CycleReport, error)
}

// LeaderboardCycleJob runs scheduled leaderboard recomputation
// - Rebuilds the snapshot of each active leaderboard
// - Advances periodic resets that are due in the same swap
type LeaderboardCycleJob struct {
	runner     CycleRunner
	interval   time.Duration
	startDelay time.Duration
	logger     *slog.Logger
	stopCh     chan struct{}
	wg         sync.WaitGroup
	running    bool
	mu         sync.Mutex
}

// LeaderboardCycleJobConfig holds configuration for the cycle job
type LeaderboardCycleJobConfig struct {
	Runner     CycleRunner
	Interval   time.Duration
	StartDelay time.Duration // wait before the first cycle
	Logger     *slog.Logger
}

// NewLeaderboardCycleJob creates a new leaderboard cycle job
func NewLeaderboardCycleJob(cfg LeaderboardCycleJobConfig) *LeaderboardCycleJob {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &LeaderboardCycleJob{
		runner:     cfg.Runner,
		interval:   cfg.Interval,
		startDelay: cfg.StartDelay,
		logger:     cfg.Logger,
		stopCh:     make(chan struct{}),
	}
}

// Start begins the cycle job
func (j *LeaderboardCycleJob) Start() {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.mu.Unlock()

	j.wg.Add(1)
	go j.run()
	j.logger.Info("leaderboard cycle job started", "interval", j.interval)
}

// Stop gracefully stops the cycle job and waits for an in-flight cycle
func (j *LeaderboardCycleJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	j.mu.Unlock()

	close(j.stopCh)
	j.wg.Wait()
	j.logger.Info("leaderboard cycle job stopped")
}

// run is the main loop
func (j *LeaderboardCycleJob) run() {
	defer j.wg.Done()

	if j.startDelay > 0 {
		select {
		case <-time.After(j.startDelay):
		case <-j.stopCh:
			return
		}
	}
	j.cycle()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.cycle()
		case <-j.stopCh:
			return
		}
	}
}

// cycle runs one pass bounded by the interval, cancelled early on Stop
func (j *LeaderboardCycleJob) cycle() {
	ctx, cancel := context.WithTimeout(context.Background(), j.interval)
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-j.stopCh:
			cancel()
		case <-done:
		}
	}()

	report, err := j.runner.RunCycle(ctx)
	if err != nil {
		j.logger.Error("leaderboard cycle failed",
			"recomputed", len(report.Recomputed),
			"failed", len(report.Failed),
			"error", err)
		return
	}
	j.logger.Debug("leaderboard cycle complete", "recomputed", len(report.Recomputed))
}

// RunOnce runs one cycle (for testing or manual trigger)
func (j *LeaderboardCycleJob) RunOnce(ctx context.Context) (service.CycleReport, error) {
	return j.runner.RunCycle(ctx)
}

// IsRunning returns whether the job is running
func (j *LeaderboardCycleJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}
