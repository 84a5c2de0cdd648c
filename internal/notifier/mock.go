package notifier

import (
	"sync"

	"github.com/mauv0809/scorekeeper/internal/highscore"
	"github.com/mauv0809/scorekeeper/internal/leaderboard"
	"github.com/mauv0809/scorekeeper/internal/scores"
)

// HighScoresCall holds the arguments for a call to SendHighScores.
type HighScoresCall struct {
	Game   string
	List   []scores.ScoreRecord
	DryRun bool
}

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies
	SendPersonalBestFunc func(outcome highscore.Outcome, dryRun bool) error
	SendLeaderboardFunc  func(board leaderboard.Board, dryRun bool) error

	// Call records
	SendPersonalBestCalls []highscore.Outcome
	SendLeaderboardCalls  []leaderboard.Board
	SendHighScoresCalls   []HighScoresCall
	SendGameDeletedCalls  []string
	DryRuns               int
}

var _ Notifier = (*Mock)(nil)

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendPersonalBestCalls = nil
	m.SendLeaderboardCalls = nil
	m.SendHighScoresCalls = nil
	m.SendGameDeletedCalls = nil
	m.DryRuns = 0
}

func (m *Mock) countDryRun(dryRun bool) {
	if dryRun {
		m.DryRuns++
	}
}

func (m *Mock) SendPersonalBest(outcome highscore.Outcome, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countDryRun(dryRun)
	m.SendPersonalBestCalls = append(m.SendPersonalBestCalls, outcome)
	if m.SendPersonalBestFunc != nil {
		return m.SendPersonalBestFunc(outcome, dryRun)
	}
	return nil
}

func (m *Mock) SendLeaderboard(board leaderboard.Board, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countDryRun(dryRun)
	m.SendLeaderboardCalls = append(m.SendLeaderboardCalls, board)
	if m.SendLeaderboardFunc != nil {
		return m.SendLeaderboardFunc(board, dryRun)
	}
	return nil
}

func (m *Mock) SendHighScores(game string, list []scores.ScoreRecord, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countDryRun(dryRun)
	m.SendHighScoresCalls = append(m.SendHighScoresCalls, HighScoresCall{Game: game, List: list, DryRun: dryRun})
	return nil
}

func (m *Mock) SendGameDeleted(game string, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countDryRun(dryRun)
	m.SendGameDeletedCalls = append(m.SendGameDeletedCalls, game)
	return nil
}

// PersonalBests returns a copy of the recorded SendPersonalBest calls.
func (m *Mock) PersonalBests() []highscore.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]highscore.Outcome, len(m.SendPersonalBestCalls))
	copy(out, m.SendPersonalBestCalls)
	return out
}
