// Package jobs implements background job processing for the progression engine.
//
// The jobs package contains scheduled tasks that run independently of
// HTTP request handling.
//
// # Job Types
//
//   - LeaderboardCycleJob: periodic snapshot recomputation of every active leaderboard
//
// # Lifecycle
//
// Jobs follow a Start / Stop / RunOnce / IsRunning shape:
//
//	job := jobs.NewLeaderboardCycleJob(jobs.LeaderboardCycleJobConfig{
//	    Runner:   leaderboardService,
//	    Interval: cfg.Leaderboard.RecomputeInterval,
//	})
//	job.Start()
//	defer job.Stop()
//
// # Error Handling
//
// Jobs log errors but don't crash the application. A failed leaderboard keeps
// its previous snapshot and is retried on the next tick.
package jobs
