// Command progressionctl runs operator tasks against the progression store:
// manual leaderboard recomputes, position lookups, XP grants and window resets.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/mewayz/progression/internal/cache"
	"github.com/mewayz/progression/internal/config"
	"github.com/mewayz/progression/internal/database"
	"github.com/mewayz/progression/internal/jobs"
	"github.com/mewayz/progression/internal/repository"
	"github.com/mewayz/progression/internal/service"
)

// app holds the wiring shared by every subcommand, built once in PersistentPreRunE
type app struct {
	cfg          *config.Config
	db           *database.SurrealDB
	redis        *redis.Client
	cache        *cache.RedisRankingCache
	rewards      *repository.RewardRepository
	progression  *service.ProgressionService
	activity     *service.ActivityService
	leaderboards *service.LeaderboardService
	cycle        *jobs.LeaderboardCycleJob
}

var (
	current    *app
	configDir  string
	verbose    bool
	cmdTimeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "progressionctl",
	Short: "Operate the progression and leaderboard engine",
	Long: `progressionctl connects to the progression store with the same
configuration as the server (environment plus an optional progression.env)
and runs one operator task: recompute a leaderboard, run a full cycle, inspect
a position, grant XP, reset a windowed counter or flush the ranking cache.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "Directory searched for progression.env")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
	rootCmd.PersistentFlags().DurationVar(&cmdTimeout, "timeout", 5*time.Minute, "Overall command timeout")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, _ []string) error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})
	if err := db.Connect(cmd.Context()); err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	a := &app{cfg: cfg, db: db}

	var rankingCache service.RankingCache
	if cfg.Redis.Enabled {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.redis.Ping(cmd.Context()).Err(); err != nil {
			logger.Warn("redis unreachable, cache disabled",
				slog.String("addr", cfg.Redis.Addr),
				slog.String("error", err.Error()),
			)
		} else {
			a.cache = cache.NewRedisRankingCache(a.redis, cfg.Database.Namespace, 0)
			rankingCache = a.cache
		}
	}

	progressRepo := repository.NewProgressRepository(db)
	a.rewards = repository.NewRewardRepository(db)

	a.progression = service.NewProgressionService(service.ProgressionServiceConfig{
		Repo:       progressRepo,
		Rewards:    a.rewards,
		Events:     service.NewEventHub(cfg.Progression.EventBuffer),
		Location:   loc,
		MaxRetries: cfg.Progression.AwardRetries,
		Logger:     logger,
	})
	a.activity = service.NewActivityService(service.ActivityServiceConfig{
		Repo:   repository.NewActivityRepository(db),
		XP:     a.progression,
		Logger: logger,
	})
	a.leaderboards = service.NewLeaderboardService(service.LeaderboardServiceConfig{
		Leaderboards: repository.NewLeaderboardRepository(db),
		Directory:    repository.NewDirectoryRepository(db),
		Progress:     progressRepo,
		Activity:     repository.NewActivityRepository(db),
		Cache:        rankingCache,
		Location:     loc,
		Workers:      cfg.Leaderboard.Workers,
		Timeout:      cfg.Leaderboard.RecomputeTimeout,
		HandleSalt:   cfg.Privacy.HandleSalt,
		Logger:       logger,
	})
	a.cycle = jobs.NewLeaderboardCycleJob(jobs.LeaderboardCycleJobConfig{
		Runner:   a.leaderboards,
		Interval: cfg.Leaderboard.RecomputeInterval,
		Logger:   logger,
	})

	ctx, cancel := context.WithTimeout(cmd.Context(), cmdTimeout)
	cobra.OnFinalize(cancel)
	cmd.SetContext(ctx)

	current = a
	return nil
}

func teardown(*cobra.Command, []string) {
	if current == nil {
		return
	}
	if current.redis != nil {
		_ = current.redis.Close()
	}
	_ = current.db.Close()
}

// printJSON writes v to stdout as indented JSON
func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
