// Package config manages application configuration for the progression engine.
//
// The config package loads and validates configuration through viper.
// All configuration is centralized here to provide a single source of truth.
//
// # Configuration Loading
//
// Values resolve from environment variables first, then from an optional
// progression.env file in the search paths, then from built-in defaults:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//
// # Configuration Groups
//
//   - ServerConfig: HTTP server settings (port, timeouts)
//   - DatabaseConfig: SurrealDB connection settings
//   - RedisConfig: optional ranking cache
//   - ProgressionConfig: streak calendar timezone, award retries, event buffers
//   - LeaderboardConfig: recompute interval, timeout and worker count
//   - PrivacyConfig: salt for anonymised leaderboard handles
//
// # Environment Variables
//
//	SERVER_PORT                    - HTTP server port (default: 8080)
//	SERVER_ENV                     - development, production or test
//	DB_HOST, DB_PORT               - SurrealDB address
//	DB_NAMESPACE, DB_DATABASE      - SurrealDB namespace and database
//	REDIS_ENABLED, REDIS_ADDR      - ranking cache toggle and address
//	PROGRESSION_TIMEZONE           - IANA zone for streak days and resets (default: UTC)
//	LEADERBOARD_RECOMPUTE_INTERVAL - cycle period (default: 5m)
//	LEADERBOARD_WORKERS            - parallel score calculators (default: 4)
//	PRIVACY_HANDLE_SALT            - required in production
package config
