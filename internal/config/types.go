package config

import (
	"time"

	"github.com/mauv0809/scorekeeper/internal/database"
	"github.com/mauv0809/scorekeeper/internal/leaderboard"
)

// Config holds all configuration for the application.
type Config struct {
	Port        string
	LogLevel    string
	BackupDir   string
	ProjectID   string
	DB          DBConfig
	Slack       SlackConfig
	Leaderboard leaderboard.Policy
}

type DBConfig struct {
	URL            string
	AuthToken      string
	PoolSize       int
	AcquireTimeout time.Duration
}

type SlackConfig struct {
	Token     string
	ChannelID string
}

// Enabled reports whether both Slack credentials are set.
func (s SlackConfig) Enabled() bool {
	return s.Token != "" && s.ChannelID != ""
}

// PoolOptions converts the database section into pool options.
func (c Config) PoolOptions() database.Options {
	return database.Options{
		URL:            c.DB.URL,
		AuthToken:      c.DB.AuthToken,
		MaxConns:       c.DB.PoolSize,
		AcquireTimeout: c.DB.AcquireTimeout,
	}
}
