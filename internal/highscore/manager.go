package highscore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/scorekeeper/internal/metrics"
	"github.com/mauv0809/scorekeeper/internal/scores"
)

// Registration describes what RegisterGame did.
type Registration int

const (
	Unchanged Registration = iota
	Created
	Updated
)

func (r Registration) String() string {
	switch r {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "unchanged"
	}
}

// Outcome is the result of RecordScore. Record is the stored personal best
// after the call, Previous the one seen before it (nil on a first score).
type Outcome struct {
	Record   scores.ScoreRecord  `json:"record"`
	Previous *scores.ScoreRecord `json:"previous,omitempty"`
	Created  bool                `json:"created"`
	Improved bool                `json:"improved"`
}

// Written reports whether the submitted score was stored.
func (o Outcome) Written() bool {
	return o.Created || o.Improved
}

// Manager owns the rule that only a strictly better score replaces a
// player's personal best.
type Manager struct {
	games   *scores.GameTable
	scores  *scores.ScoreTable
	metrics metrics.Metrics
}

func NewManager(tables *scores.Tables, m metrics.Metrics) *Manager {
	if m == nil {
		m = metrics.Noop{}
	}
	return &Manager{games: tables.Games, scores: tables.Scores, metrics: m}
}

// RegisterGame creates the game, or updates its direction when it differs
// from the stored one.
func (m *Manager) RegisterGame(ctx context.Context, name string, isLowerBetter bool) (Registration, error) {
	existing, err := m.games.Get(ctx, name)
	if err != nil {
		return Unchanged, err
	}

	rec := scores.GameRecord{GameName: name, IsLowerBetter: isLowerBetter}
	switch {
	case existing == nil:
		if err := m.games.Create(ctx, rec); err != nil {
			return Unchanged, err
		}
		log.Info("Registered game", "game", name, "is_lower_better", isLowerBetter)
		return Created, nil
	case existing.IsLowerBetter != isLowerBetter:
		if err := m.games.Update(ctx, rec); err != nil {
			return Unchanged, err
		}
		log.Info("Changed game direction", "game", name, "is_lower_better", isLowerBetter)
		return Updated, nil
	default:
		log.Debug("Game already registered", "game", name)
		return Unchanged, nil
	}
}

func (m *Manager) IsGameRegistered(ctx context.Context, name string) (bool, error) {
	game, err := m.games.Get(ctx, name)
	if err != nil {
		return false, err
	}
	return game != nil, nil
}

// Game returns the registered game or a DomainError.
func (m *Manager) Game(ctx context.Context, name string) (*scores.GameRecord, error) {
	return m.requireGame(ctx, "get game", name)
}

func (m *Manager) requireGame(ctx context.Context, op, name string) (*scores.GameRecord, error) {
	game, err := m.games.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, &DomainError{Op: op, Game: name, Err: ErrGameNotRegistered}
	}
	return game, nil
}

// RecordScore stores score as the player's personal best when there is none
// yet or when it is strictly better under the game's direction. The
// comparison and write happen in one statement.
func (m *Manager) RecordScore(ctx context.Context, playerID, gameName string, score int) (Outcome, error) {
	game, err := m.requireGame(ctx, "record score", gameName)
	if err != nil {
		return Outcome{}, err
	}
	m.metrics.IncScoresRecorded()

	previous, err := m.scores.Get(ctx, playerID, gameName)
	if err != nil {
		return Outcome{}, err
	}

	rec := scores.ScoreRecord{PlayerID: playerID, GameName: gameName, Score: score}
	written, err := m.scores.UpsertIfBetter(ctx, rec, game.IsLowerBetter)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{Record: rec, Previous: previous}
	if written {
		out.Created = previous == nil
		out.Improved = previous != nil
		m.metrics.IncPersonalBests()
		log.Info("Stored personal best", "player", playerID, "game", gameName, "score", score, "created", out.Created)
		return out, nil
	}

	current, err := m.scores.Get(ctx, playerID, gameName)
	if err != nil {
		return Outcome{}, err
	}
	if current != nil {
		out.Record = *current
	}
	log.Debug("Score did not beat personal best", "player", playerID, "game", gameName, "score", score, "best", out.Record.Score)
	return out, nil
}

// GetPersonalBest returns the stored score, or nil when the player has none.
func (m *Manager) GetPersonalBest(ctx context.Context, playerID, gameName string) (*scores.ScoreRecord, error) {
	return m.scores.Get(ctx, playerID, gameName)
}

// GetHighScores returns the game's scores with the best first. Equal scores
// keep their stored relative order.
func (m *Manager) GetHighScores(ctx context.Context, gameName string) ([]scores.ScoreRecord, error) {
	game, err := m.requireGame(ctx, "get high scores", gameName)
	if err != nil {
		return nil, err
	}
	list, err := m.scores.ForGame(ctx, gameName)
	if err != nil {
		return nil, err
	}
	SortBest(list, game.IsLowerBetter)
	return list, nil
}

// SortBest orders list so that index 0 is the best score for the direction.
// Equal scores keep their incoming order in both directions.
func SortBest(list []scores.ScoreRecord, isLowerBetter bool) {
	sort.SliceStable(list, func(i, j int) bool {
		if isLowerBetter {
			return list[i].Score < list[j].Score
		}
		return list[i].Score > list[j].Score
	})
}

// GetHighScoresToString renders the high scores one per line as
// "<ordinal> <player> <score>".
func (m *Manager) GetHighScoresToString(ctx context.Context, gameName string) (string, error) {
	list, err := m.GetHighScores(ctx, gameName)
	if err != nil {
		return "", err
	}
	return FormatHighScores(list), nil
}

func FormatHighScores(list []scores.ScoreRecord) string {
	var b strings.Builder
	for i, rec := range list {
		fmt.Fprintf(&b, "%s %s %d\n", Ordinal(i+1), rec.PlayerID, rec.Score)
	}
	return b.String()
}

func (m *Manager) DeleteScore(ctx context.Context, playerID, gameName string) error {
	if err := m.scores.Delete(ctx, scores.ScoreRecord{PlayerID: playerID, GameName: gameName}); err != nil {
		return err
	}
	log.Info("Deleted score", "player", playerID, "game", gameName)
	return nil
}

// DeleteGame removes the game together with all of its scores.
func (m *Manager) DeleteGame(ctx context.Context, gameName string) error {
	if err := m.games.Delete(ctx, scores.GameRecord{GameName: gameName}); err != nil {
		return err
	}
	log.Info("Deleted game", "game", gameName)
	return nil
}

// ListGames returns every registered game ordered by name.
func (m *Manager) ListGames(ctx context.Context) ([]scores.GameRecord, error) {
	return m.games.RetrieveAll(ctx)
}
