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

func NewServer(manager *highscore.Manager, board *leaderboard.Leaderboard, registry *table.Registry, metricsSvc metrics.Metrics, metricsHandler http.Handler, cfg config.Config, notifier notifier.Notifier, pubsub pubsub.PubSubClient) *Server {
	server := &Server{
		Manager:        manager,
		Leaderboard:    board,
		Registry:       registry,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Notifier:       notifier,
		Router:         http.NewServeMux(),
		pubsub:         pubsub,
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	// e.g. Chain(s.MyHandler(), recoverMiddleware, paramsMiddleware, authMiddleware)
	s.Router.Handle("GET /metrics", s.MetricsHandler)
	s.Router.Handle("GET /health", Chain(s.HealthCheckHandler(), recoverMiddleware, paramsMiddleware))

	s.Router.Handle("GET /games", Chain(s.ListGamesHandler(), recoverMiddleware, paramsMiddleware))
	s.Router.Handle("POST /games", Chain(s.RegisterGameHandler(), recoverMiddleware, paramsMiddleware))
	s.Router.Handle("GET /games/{name}", Chain(s.GetGameHandler(), recoverMiddleware, paramsMiddleware))
	s.Router.Handle("DELETE /games/{name}", Chain(s.DeleteGameHandler(), recoverMiddleware, paramsMiddleware))

	s.Router.Handle("POST /scores", Chain(s.RecordScoreHandler(), recoverMiddleware, paramsMiddleware))
	s.Router.Handle("GET /scores/{game}/{player}", Chain(s.PersonalBestHandler(), recoverMiddleware, paramsMiddleware))
	s.Router.Handle("DELETE /scores/{game}/{player}", Chain(s.DeleteScoreHandler(), recoverMiddleware, paramsMiddleware))
	s.Router.Handle("GET /highscores/{game}", Chain(s.HighScoresHandler(), recoverMiddleware, paramsMiddleware))

	s.Router.Handle("GET /leaderboard", Chain(s.LeaderboardHandler(), recoverMiddleware, paramsMiddleware))
	s.Router.Handle("POST /leaderboard/announce", Chain(s.AnnounceLeaderboardHandler(), recoverMiddleware, paramsMiddleware))

	s.Router.Handle("POST /admin/backup", Chain(s.BackupHandler(), recoverMiddleware, paramsMiddleware))
	s.Router.Handle("POST /admin/restore", Chain(s.RestoreHandler(), recoverMiddleware, paramsMiddleware))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
