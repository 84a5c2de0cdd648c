package http

import (
	"net/http"

	"github.com/mauv0809/scorekeeper/internal/config"
	"github.com/mauv0809/scorekeeper/internal/highscore"
	"github.com/mauv0809/scorekeeper/internal/leaderboard"
	"github.com/mauv0809/scorekeeper/internal/metrics"
	"github.com/mauv0809/scorekeeper/internal/notifier"
	"github.com/mauv0809/scorekeeper/internal/pubsub"
	"github.com/mauv0809/scorekeeper/internal/table"
)

type Server struct {
	Manager        *highscore.Manager
	Leaderboard    *leaderboard.Leaderboard
	Registry       *table.Registry
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Cfg            config.Config
	Notifier       notifier.Notifier
	Router         *http.ServeMux
	pubsub         pubsub.PubSubClient
}

type registerGameRequest struct {
	Name          string `json:"name"`
	IsLowerBetter bool   `json:"is_lower_better"`
}

type registerGameResponse struct {
	Name          string `json:"name"`
	IsLowerBetter bool   `json:"is_lower_better"`
	Registration  string `json:"registration"`
}

type recordScoreRequest struct {
	PlayerID string `json:"player_id"`
	Game     string `json:"game"`
	Score    *int   `json:"score"`
}

type leaderboardResponse struct {
	Normalization leaderboard.Normalization `json:"normalization"`
	Ranking       leaderboard.Ranking       `json:"ranking"`
	Standings     leaderboard.Board         `json:"standings"`
}

type snapshotResponse struct {
	Dir    string   `json:"dir"`
	Tables []string `json:"tables"`
}

type errorResponse struct {
	Error string `json:"error"`
}
