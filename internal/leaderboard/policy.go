package leaderboard

import "fmt"

// Normalization selects how a player's summed per-game ranks become their
// aggregate.
type Normalization string

const (
	// GamesPlayed divides the rank sum by the number of games the player
	// appears in, so playing fewer games is not penalised.
	GamesPlayed Normalization = "games_played"
	// RawSum uses the rank sum as is.
	RawSum Normalization = "raw_sum"
)

// Ranking selects how equal aggregates advance the global rank counter.
type Ranking string

const (
	// Dense gives tied players one rank and the next aggregate the next
	// integer: 1, 1, 2, 3.
	Dense Ranking = "dense"
	// Competition skips the ranks consumed by a tie: 1, 1, 3, 4.
	Competition Ranking = "competition"
)

type Policy struct {
	Normalization Normalization
	Ranking       Ranking
}

func DefaultPolicy() Policy {
	return Policy{Normalization: GamesPlayed, Ranking: Dense}
}

func ParseNormalization(s string) (Normalization, error) {
	switch n := Normalization(s); n {
	case GamesPlayed, RawSum:
		return n, nil
	case "":
		return GamesPlayed, nil
	default:
		return "", fmt.Errorf("unknown leaderboard normalization %q", s)
	}
}

func ParseRanking(s string) (Ranking, error) {
	switch r := Ranking(s); r {
	case Dense, Competition:
		return r, nil
	case "":
		return Dense, nil
	default:
		return "", fmt.Errorf("unknown leaderboard ranking %q", s)
	}
}
