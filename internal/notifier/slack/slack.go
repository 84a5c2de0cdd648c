package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/scorekeeper/internal/highscore"
	"github.com/mauv0809/scorekeeper/internal/leaderboard"
	"github.com/mauv0809/scorekeeper/internal/metrics"
	"github.com/mauv0809/scorekeeper/internal/notifier"
	"github.com/mauv0809/scorekeeper/internal/scores"
	"github.com/slack-go/slack"
)

// Announcements list at most this many rows.
const maxRows = 10

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier handles sending notifications to Slack.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, metrics metrics.Metrics) *Notifier {
	api := slack.New(token)
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
	}
}

func (s *Notifier) sendMessage(message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)

	if err != nil {
		s.metrics.IncSlackNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", s.channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncSlackNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

// Implement the Notifier interface
func (s *Notifier) SendPersonalBest(outcome highscore.Outcome, dryRun bool) error {
	_, _, err := s.sendMessage(s.formatPersonalBest(outcome), dryRun)
	return err
}

func (s *Notifier) SendLeaderboard(board leaderboard.Board, dryRun bool) error {
	_, _, err := s.sendMessage(s.formatLeaderboard(board), dryRun)
	return err
}

func (s *Notifier) SendHighScores(game string, list []scores.ScoreRecord, dryRun bool) error {
	_, _, err := s.sendMessage(s.formatHighScores(game, list), dryRun)
	return err
}

func (s *Notifier) SendGameDeleted(game string, dryRun bool) error {
	text := fmt.Sprintf(":wastebasket: *%s* was removed together with all of its scores.", game)
	msg := slack.NewBlockMessage(
		slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", text, false, false), nil, nil),
	)
	_, _, err := s.sendMessage(msg, dryRun)
	return err
}

func medal(rank int) string {
	switch rank {
	case 1:
		return ":first_place_medal:"
	case 2:
		return ":second_place_medal:"
	case 3:
		return ":third_place_medal:"
	}
	return ""
}

// formatPersonalBest creates the Slack message for a new personal best using Block Kit.
func (s *Notifier) formatPersonalBest(outcome highscore.Outcome) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", ":tada: New personal best! :tada:", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	rec := outcome.Record
	detailsText := fmt.Sprintf("*%s* scored *%d* in *%s*", rec.PlayerID, rec.Score, rec.GameName)
	if outcome.Previous != nil {
		detailsText += fmt.Sprintf("\n> Previous best: %d", outcome.Previous.Score)
	} else {
		detailsText += "\n> First recorded score"
	}
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", detailsText, false, false), nil, nil))

	return slack.NewBlockMessage(blocks...)
}

// formatLeaderboard creates a Slack message to display the global leaderboard.
func (s *Notifier) formatLeaderboard(board leaderboard.Board) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", ":trophy: Global Leaderboard :trophy:", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	if len(board) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", "No scores recorded yet. Go play some games!", true, false), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	for i, standing := range board {
		if i == maxRows {
			break
		}
		playerText := fmt.Sprintf("%d. %s %s\n> Average rank: %.2f over %d games",
			standing.Rank,
			medal(standing.Rank),
			standing.PlayerID,
			standing.Aggregate,
			standing.GamesPlayed,
		)
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", playerText, true, false), nil, nil))
	}

	return slack.NewBlockMessage(blocks...)
}

// formatHighScores creates a Slack message listing a game's best scores.
func (s *Notifier) formatHighScores(game string, list []scores.ScoreRecord) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", fmt.Sprintf(":video_game: High scores for %s", game), true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	if len(list) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", "No scores recorded yet.", true, false), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	if len(list) > maxRows {
		list = list[:maxRows]
	}
	lines := strings.Split(strings.TrimSuffix(highscore.FormatHighScores(list), "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(medal(i+1) + " " + line)
	}
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", strings.Join(lines, "\n"), false, false), nil, nil))

	return slack.NewBlockMessage(blocks...)
}
