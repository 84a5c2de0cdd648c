package pubsub

import (
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/mauv0809/scorekeeper/internal/metrics"
)

type client struct {
	client   *pubsub.Client
	metrics  metrics.Metrics
	teardown func()
}

// EventType represents the type of event/message sent via pubsub. It doubles
// as the topic name.
type EventType string

const (
	EventPersonalBest   EventType = "personal-best"
	EventGameRegistered EventType = "game-registered"
	EventGameDeleted    EventType = "game-deleted"
	EventScoreDeleted   EventType = "score-deleted"
)

// PersonalBestEvent is published when a submitted score becomes a stored
// personal best. Previous is nil for a player's first score in the game.
type PersonalBestEvent struct {
	ID       string    `msgpack:"id"`
	PlayerID string    `msgpack:"player_id"`
	Game     string    `msgpack:"game"`
	Score    int       `msgpack:"score"`
	Previous *int      `msgpack:"previous,omitempty"`
	At       time.Time `msgpack:"at"`
}

type GameEvent struct {
	ID            string    `msgpack:"id"`
	Game          string    `msgpack:"game"`
	IsLowerBetter bool      `msgpack:"is_lower_better"`
	Change        string    `msgpack:"change"`
	At            time.Time `msgpack:"at"`
}

type ScoreDeletedEvent struct {
	ID       string    `msgpack:"id"`
	PlayerID string    `msgpack:"player_id"`
	Game     string    `msgpack:"game"`
	At       time.Time `msgpack:"at"`
}
