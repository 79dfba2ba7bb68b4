package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Progression ProgressionConfig
	Leaderboard LeaderboardConfig
	Privacy     PrivacyConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds SurrealDB connection settings
type DatabaseConfig struct {
	Host      string
	Port      string
	Namespace string
	Database  string
	User      string
	Password  string
}

// RedisConfig holds the optional ranking cache connection
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// ProgressionConfig holds XP engine settings
type ProgressionConfig struct {
	Timezone     string
	AwardRetries int
	EventBuffer  int
}

// LeaderboardConfig holds recomputation settings
type LeaderboardConfig struct {
	RecomputeInterval time.Duration
	RecomputeTimeout  time.Duration
	Workers           int
}

// PrivacyConfig holds public display settings
type PrivacyConfig struct {
	HandleSalt string
}

// ConfigName is the optional dotenv file read from the search paths
const ConfigName = "progression"

var defaults = map[string]interface{}{
	"SERVER_PORT":                    "8080",
	"SERVER_ENV":                     "development",
	"SERVER_READ_TIMEOUT":            15 * time.Second,
	"SERVER_WRITE_TIMEOUT":           15 * time.Second,
	"DB_HOST":                        "localhost",
	"DB_PORT":                        "8000",
	"DB_NAMESPACE":                   "progression",
	"DB_DATABASE":                    "main",
	"DB_USER":                        "root",
	"DB_PASSWORD":                    "root",
	"REDIS_ENABLED":                  false,
	"REDIS_ADDR":                     "localhost:6379",
	"REDIS_PASSWORD":                 "",
	"REDIS_DB":                       0,
	"PROGRESSION_TIMEZONE":           "UTC",
	"PROGRESSION_AWARD_RETRIES":      3,
	"PROGRESSION_EVENT_BUFFER":       64,
	"LEADERBOARD_RECOMPUTE_INTERVAL": 5 * time.Minute,
	"LEADERBOARD_RECOMPUTE_TIMEOUT":  2 * time.Minute,
	"LEADERBOARD_WORKERS":            4,
	"PRIVACY_HANDLE_SALT":            "",
}

// Load reads configuration from environment variables, falling back to an
// optional progression.env file in paths (default ".") and then to defaults.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName(ConfigName)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Env:          v.GetString("SERVER_ENV"),
			ReadTimeout:  v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("SERVER_WRITE_TIMEOUT"),
		},
		Database: DatabaseConfig{
			Host:      v.GetString("DB_HOST"),
			Port:      v.GetString("DB_PORT"),
			Namespace: v.GetString("DB_NAMESPACE"),
			Database:  v.GetString("DB_DATABASE"),
			User:      v.GetString("DB_USER"),
			Password:  v.GetString("DB_PASSWORD"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Progression: ProgressionConfig{
			Timezone:     v.GetString("PROGRESSION_TIMEZONE"),
			AwardRetries: v.GetInt("PROGRESSION_AWARD_RETRIES"),
			EventBuffer:  v.GetInt("PROGRESSION_EVENT_BUFFER"),
		},
		Leaderboard: LeaderboardConfig{
			RecomputeInterval: v.GetDuration("LEADERBOARD_RECOMPUTE_INTERVAL"),
			RecomputeTimeout:  v.GetDuration("LEADERBOARD_RECOMPUTE_TIMEOUT"),
			Workers:           v.GetInt("LEADERBOARD_WORKERS"),
		},
		Privacy: PrivacyConfig{
			HandleSalt: v.GetString("PRIVACY_HANDLE_SALT"),
		},
	}, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Location resolves PROGRESSION_TIMEZONE
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Progression.Timezone)
}

// Validate checks that all required configuration values are present and valid.
// It returns an error describing all validation failures, or nil if valid.
func (c *Config) Validate() error {
	var errs []error

	// Server validation
	if c.Server.Port == "" {
		errs = append(errs, errors.New("SERVER_PORT is required"))
	}
	if c.Server.Env != "development" && c.Server.Env != "production" && c.Server.Env != "test" {
		errs = append(errs, fmt.Errorf("SERVER_ENV must be 'development', 'production', or 'test', got '%s'", c.Server.Env))
	}

	// Database validation
	if c.Database.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.Database.Port == "" {
		errs = append(errs, errors.New("DB_PORT is required"))
	}
	if c.Database.Namespace == "" {
		errs = append(errs, errors.New("DB_NAMESPACE is required"))
	}
	if c.Database.Database == "" {
		errs = append(errs, errors.New("DB_DATABASE is required"))
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("REDIS_ADDR is required when REDIS_ENABLED is true"))
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("PROGRESSION_TIMEZONE is invalid: %w", err))
	}
	if c.Progression.AwardRetries <= 0 {
		errs = append(errs, errors.New("PROGRESSION_AWARD_RETRIES must be positive"))
	}
	if c.Progression.EventBuffer <= 0 {
		errs = append(errs, errors.New("PROGRESSION_EVENT_BUFFER must be positive"))
	}

	if c.Leaderboard.RecomputeInterval <= 0 {
		errs = append(errs, errors.New("LEADERBOARD_RECOMPUTE_INTERVAL must be positive"))
	}
	if c.Leaderboard.RecomputeTimeout <= 0 {
		errs = append(errs, errors.New("LEADERBOARD_RECOMPUTE_TIMEOUT must be positive"))
	}
	if c.Leaderboard.Workers <= 0 {
		errs = append(errs, errors.New("LEADERBOARD_WORKERS must be positive"))
	}

	// Public handles are guessable without a salt
	if c.IsProduction() && c.Privacy.HandleSalt == "" {
		errs = append(errs, errors.New("PRIVACY_HANDLE_SALT is required in production"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
