package pubsub

import (
	"time"

	"github.com/google/uuid"
)

func NewPersonalBestEvent(playerID, game string, score int, previous *int) PersonalBestEvent {
	return PersonalBestEvent{
		ID:       uuid.NewString(),
		PlayerID: playerID,
		Game:     game,
		Score:    score,
		Previous: previous,
		At:       time.Now().UTC(),
	}
}

// NewGameEvent describes a game change; change is "created", "updated" or "deleted".
func NewGameEvent(game string, isLowerBetter bool, change string) GameEvent {
	return GameEvent{
		ID:            uuid.NewString(),
		Game:          game,
		IsLowerBetter: isLowerBetter,
		Change:        change,
		At:            time.Now().UTC(),
	}
}

func NewScoreDeletedEvent(playerID, game string) ScoreDeletedEvent {
	return ScoreDeletedEvent{
		ID:       uuid.NewString(),
		PlayerID: playerID,
		Game:     game,
		At:       time.Now().UTC(),
	}
}
