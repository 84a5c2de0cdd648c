package notifier

import (
	"github.com/charmbracelet/log"
	"github.com/mauv0809/scorekeeper/internal/highscore"
	"github.com/mauv0809/scorekeeper/internal/leaderboard"
	"github.com/mauv0809/scorekeeper/internal/scores"
)

// Notifier defines a high-level interface for sending notifications about business events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// After a submitted score became a personal best
	SendPersonalBest(outcome highscore.Outcome, dryRun bool) error
	// On demand announcements
	SendLeaderboard(board leaderboard.Board, dryRun bool) error
	SendHighScores(game string, list []scores.ScoreRecord, dryRun bool) error
	SendGameDeleted(game string, dryRun bool) error
}

// Disabled is used when no chat integration is configured.
type Disabled struct{}

var _ Notifier = Disabled{}

func (Disabled) SendPersonalBest(outcome highscore.Outcome, _ bool) error {
	log.Debug("Notifications disabled", "event", "personal-best", "player", outcome.Record.PlayerID)
	return nil
}

func (Disabled) SendLeaderboard(board leaderboard.Board, _ bool) error {
	log.Debug("Notifications disabled", "event", "leaderboard", "players", len(board))
	return nil
}

func (Disabled) SendHighScores(game string, _ []scores.ScoreRecord, _ bool) error {
	log.Debug("Notifications disabled", "event", "high-scores", "game", game)
	return nil
}

func (Disabled) SendGameDeleted(game string, _ bool) error {
	log.Debug("Notifications disabled", "event", "game-deleted", "game", game)
	return nil
}
