package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/mauv0809/scorekeeper/internal/database"
	"github.com/mauv0809/scorekeeper/internal/leaderboard"
)

// Load reads configuration from environment variables and .env file.
func Load() (Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Info("No .env file found, reading from environment variables")
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, applying defaults for optional keys.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	getEnv := func(key, fallback string) string {
		if value, ok := lookup(key); ok && value != "" {
			return value
		}
		return fallback
	}

	cfg := Config{
		Port:      getEnv("PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		BackupDir: getEnv("BACKUP_DIR", "./backups"),
		ProjectID: getEnv("GCP_PROJECT", ""),
		DB: DBConfig{
			URL:       getEnv("DB_URL", ""),
			AuthToken: getEnv("DB_AUTH_TOKEN", ""),
		},
		Slack: SlackConfig{
			Token:     getEnv("SLACK_BOT_TOKEN", ""),
			ChannelID: getEnv("SLACK_CHANNEL_ID", ""),
		},
	}
	if cfg.DB.URL == "" {
		return Config{}, fmt.Errorf("required environment variable DB_URL is not set")
	}

	poolSize, err := strconv.Atoi(getEnv("DB_POOL_SIZE", strconv.Itoa(database.DefaultMaxConns)))
	if err != nil || poolSize <= 0 {
		return Config{}, fmt.Errorf("DB_POOL_SIZE must be a positive integer, got %q", getEnv("DB_POOL_SIZE", ""))
	}
	cfg.DB.PoolSize = poolSize

	timeout, err := time.ParseDuration(getEnv("DB_ACQUIRE_TIMEOUT", database.DefaultAcquireTimeout.String()))
	if err != nil || timeout <= 0 {
		return Config{}, fmt.Errorf("DB_ACQUIRE_TIMEOUT must be a positive duration, got %q", getEnv("DB_ACQUIRE_TIMEOUT", ""))
	}
	cfg.DB.AcquireTimeout = timeout

	if _, err := log.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	if cfg.Leaderboard.Normalization, err = leaderboard.ParseNormalization(getEnv("LEADERBOARD_NORMALIZATION", "")); err != nil {
		return Config{}, err
	}
	if cfg.Leaderboard.Ranking, err = leaderboard.ParseRanking(getEnv("LEADERBOARD_RANKING", "")); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
