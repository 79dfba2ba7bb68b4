package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/mewayz/progression/internal/cache"
	"github.com/mewayz/progression/internal/config"
	"github.com/mewayz/progression/internal/database"
	"github.com/mewayz/progression/internal/handler"
	"github.com/mewayz/progression/internal/jobs"
	"github.com/mewayz/progression/internal/middleware"
	"github.com/mewayz/progression/internal/repository"
	"github.com/mewayz/progression/internal/service"
)

func main() {
	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		slog.Error("invalid timezone", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})

	ctx := context.Background()
	if err := db.Connect(ctx); err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	// Optional ranking cache. An unreachable Redis degrades to store-only reads.
	var rankingCache service.RankingCache
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = client.Close() }()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			slog.Warn("redis unreachable, serving rankings from the database",
				slog.String("addr", cfg.Redis.Addr),
				slog.String("error", err.Error()),
			)
		} else {
			rankingCache = cache.NewRedisRankingCache(client, cfg.Database.Namespace, 0)
			slog.Info("connected to redis", slog.String("addr", cfg.Redis.Addr))
		}
	}

	// Initialize repositories
	progressRepo := repository.NewProgressRepository(db)
	leaderboardRepo := repository.NewLeaderboardRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)
	rewardRepo := repository.NewRewardRepository(db)

	// Initialize services
	events := service.NewEventHub(cfg.Progression.EventBuffer)
	defer events.Close()
	go logEvents(logger, events.Subscribe("server-log"))

	progressionService := service.NewProgressionService(service.ProgressionServiceConfig{
		Repo:       progressRepo,
		Rewards:    rewardRepo,
		Events:     events,
		Location:   loc,
		MaxRetries: cfg.Progression.AwardRetries,
		Logger:     logger,
	})

	leaderboardService := service.NewLeaderboardService(service.LeaderboardServiceConfig{
		Leaderboards: leaderboardRepo,
		Directory:    directoryRepo,
		Progress:     progressRepo,
		Activity:     activityRepo,
		Cache:        rankingCache,
		Location:     loc,
		Workers:      cfg.Leaderboard.Workers,
		Timeout:      cfg.Leaderboard.RecomputeTimeout,
		HandleSalt:   cfg.Privacy.HandleSalt,
		Logger:       logger,
	})

	// Start background jobs
	cycleJob := jobs.NewLeaderboardCycleJob(jobs.LeaderboardCycleJobConfig{
		Runner:   leaderboardService,
		Interval: cfg.Leaderboard.RecomputeInterval,
		Logger:   logger,
	})
	cycleJob.Start()
	defer cycleJob.Stop()

	// Setup router
	mux := http.NewServeMux()
	handler.NewHealthHandler(db).RegisterRoutes(mux)
	handler.NewProgressHandler(progressionService).RegisterRoutes(mux)
	handler.NewLeaderboardHandler(handler.LeaderboardHandlerConfig{
		Leaderboards: leaderboardService,
		HandleSalt:   cfg.Privacy.HandleSalt,
	}).RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Apply global middleware
	wrapped := middleware.Chain(
		mux,
		middleware.Recovery,
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Metrics,
		middleware.Compress,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}

// logEvents writes every published domain event to the log until the hub closes.
func logEvents(logger *slog.Logger, sub *service.Subscriber) {
	for {
		select {
		case e, ok := <-sub.Events:
			if !ok {
				return
			}
			logger.Info("domain event",
				slog.String("type", string(e.Type)),
				slog.String("user_id", e.UserID),
				slog.String("event_id", e.ID),
			)
		case <-sub.Done:
			return
		}
	}
}
