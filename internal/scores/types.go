package scores

// GameRecord holds per-game metadata. GameName is unique.
type GameRecord struct {
	GameName      string `json:"game_name" msgpack:"game_name"`
	IsLowerBetter bool   `json:"is_lower_better" msgpack:"is_lower_better"`
}

// ScoreRecord is a player's personal best in one game. There is at most one
// per (PlayerID, GameName).
type ScoreRecord struct {
	PlayerID string `json:"player_id" msgpack:"player_id"`
	GameName string `json:"game_name" msgpack:"game_name"`
	Score    int    `json:"score" msgpack:"score"`
}

// Beats reports whether candidate is strictly better than current for a game
// with the given direction. Ties never win.
func Beats(candidate, current int, isLowerBetter bool) bool {
	if isLowerBetter {
		return candidate < current
	}
	return candidate > current
}
