package leaderboard

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/scorekeeper/internal/highscore"
	"github.com/mauv0809/scorekeeper/internal/metrics"
	"github.com/mauv0809/scorekeeper/internal/scores"
)

// Standing is one player's row in the global leaderboard.
type Standing struct {
	PlayerID    string  `json:"player_id"`
	Aggregate   float64 `json:"aggregate"`
	GamesPlayed int     `json:"games_played"`
	Rank        int     `json:"rank"`
}

// Board lists standings best first.
type Board []Standing

// Ranks returns the playerId to global rank mapping.
func (b Board) Ranks() map[string]int {
	out := make(map[string]int, len(b))
	for _, s := range b {
		out[s.PlayerID] = s.Rank
	}
	return out
}

func (b Board) String() string {
	var sb strings.Builder
	for _, s := range b {
		fmt.Fprintf(&sb, "%s %s (%g over %d games)\n", highscore.Ordinal(s.Rank), s.PlayerID, s.Aggregate, s.GamesPlayed)
	}
	return sb.String()
}

// Leaderboard recomputes global standings from the stored scores on every
// call. It keeps no state of its own.
type Leaderboard struct {
	tables  *scores.Tables
	policy  Policy
	metrics metrics.Metrics
}

func New(tables *scores.Tables, policy Policy, m metrics.Metrics) *Leaderboard {
	if m == nil {
		m = metrics.Noop{}
	}
	return &Leaderboard{tables: tables, policy: policy, metrics: m}
}

func (l *Leaderboard) Policy() Policy {
	return l.policy
}

// ComputeGlobalScores reads every game and score and ranks all players.
func (l *Leaderboard) ComputeGlobalScores(ctx context.Context) (Board, error) {
	games, err := l.tables.Games.RetrieveAll(ctx)
	if err != nil {
		return nil, err
	}
	records, err := l.tables.Scores.RetrieveAll(ctx)
	if err != nil {
		return nil, err
	}
	l.metrics.IncLeaderboardComputations()

	board := Compute(games, records, l.policy)
	log.Debug("Computed global leaderboard", "players", len(board), "games", len(games), "normalization", l.policy.Normalization, "ranking", l.policy.Ranking)
	return board, nil
}

// Compute ranks players across games. Within a game a player's rank is their
// 1-based position after sorting best first, ties taking sequential
// positions. A player's aggregate is the sum of those ranks, normalised by
// policy; lower is better.
func Compute(games []scores.GameRecord, records []scores.ScoreRecord, policy Policy) Board {
	direction := make(map[string]bool, len(games))
	for _, g := range games {
		direction[g.GameName] = g.IsLowerBetter
	}

	byGame := make(map[string][]scores.ScoreRecord)
	for _, rec := range records {
		byGame[rec.GameName] = append(byGame[rec.GameName], rec)
	}
	names := make([]string, 0, len(byGame))
	for name := range byGame {
		names = append(names, name)
	}
	sort.Strings(names)

	sums := make(map[string]int)
	played := make(map[string]int)
	for _, name := range names {
		isLowerBetter, ok := direction[name]
		if !ok {
			log.Warn("Skipping scores of unregistered game", "game", name, "scores", len(byGame[name]))
			continue
		}
		list := byGame[name]
		highscore.SortBest(list, isLowerBetter)
		for i, rec := range list {
			sums[rec.PlayerID] += i + 1
			played[rec.PlayerID]++
		}
	}

	board := make(Board, 0, len(sums))
	for player, sum := range sums {
		aggregate := float64(sum)
		if policy.Normalization != RawSum {
			aggregate /= float64(played[player])
		}
		board = append(board, Standing{PlayerID: player, Aggregate: aggregate, GamesPlayed: played[player]})
	}
	sort.Slice(board, func(i, j int) bool {
		if board[i].Aggregate != board[j].Aggregate {
			return board[i].Aggregate < board[j].Aggregate
		}
		return board[i].PlayerID < board[j].PlayerID
	})

	assignRanks(board, policy.Ranking)
	return board
}

func assignRanks(board Board, ranking Ranking) {
	rank := 0
	for i := range board {
		switch {
		case i > 0 && board[i].Aggregate == board[i-1].Aggregate:
			// tied with the previous player
		case ranking == Competition:
			rank = i + 1
		default:
			rank++
		}
		board[i].Rank = rank
	}
}
