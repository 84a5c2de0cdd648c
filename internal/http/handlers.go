package http

import (
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/scorekeeper/internal/highscore"
	"github.com/mauv0809/scorekeeper/internal/pubsub"
)

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

func (s *Server) ListGamesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		games, err := s.Manager.ListGames(r.Context())
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, games)
	}
}

func (s *Server) RegisterGameHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerGameRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, r, err)
			return
		}
		if req.Name == "" {
			respondError(w, r, fmt.Errorf("%w: name is required", errBadRequest))
			return
		}

		reg, err := s.Manager.RegisterGame(r.Context(), req.Name, req.IsLowerBetter)
		if err != nil {
			respondError(w, r, err)
			return
		}
		if reg != highscore.Unchanged {
			s.publish(r, pubsub.EventGameRegistered, pubsub.NewGameEvent(req.Name, req.IsLowerBetter, reg.String()))
		}

		status := http.StatusOK
		if reg == highscore.Created {
			status = http.StatusCreated
		}
		respondJSON(w, status, registerGameResponse{Name: req.Name, IsLowerBetter: req.IsLowerBetter, Registration: reg.String()})
	}
}

func (s *Server) GetGameHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		game, err := s.Manager.Game(r.Context(), r.PathValue("name"))
		if err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, game)
	}
}

func (s *Server) DeleteGameHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		game, err := s.Manager.Game(r.Context(), name)
		if err != nil {
			respondError(w, r, err)
			return
		}
		if err := s.Manager.DeleteGame(r.Context(), name); err != nil {
			respondError(w, r, err)
			return
		}

		s.publish(r, pubsub.EventGameDeleted, pubsub.NewGameEvent(name, game.IsLowerBetter, "deleted"))
		if err := s.Notifier.SendGameDeleted(name, isDryRunFromContext(r)); err != nil {
			log.Error("Failed to announce deleted game", "game", name, "error", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) RecordScoreHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req recordScoreRequest
		if err := decodeJSON(r, &req); err != nil {
			respondError(w, r, err)
			return
		}
		if req.PlayerID == "" || req.Game == "" || req.Score == nil {
			respondError(w, r, fmt.Errorf("%w: player_id, game and score are required", errBadRequest))
			return
		}

		outcome, err := s.Manager.RecordScore(r.Context(), req.PlayerID, req.Game, *req.Score)
		if err != nil {
			respondError(w, r, err)
			return
		}

		if outcome.Written() {
			var previous *int
			if outcome.Previous != nil {
				previous = &outcome.Previous.Score
			}
			s.publish(r, pubsub.EventPersonalBest, pubsub.NewPersonalBestEvent(req.PlayerID, req.Game, *req.Score, previous))
			if err := s.Notifier.SendPersonalBest(outcome, isDryRunFromContext(r)); err != nil {
				log.Error("Failed to announce personal best", "player", req.PlayerID, "game", req.Game, "error", err)
			}
		}
		respondJSON(w, http.StatusOK, outcome)
	}
}

func (s *Server) PersonalBestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		game, player := r.PathValue("game"), r.PathValue("player")
		best, err := s.Manager.GetPersonalBest(r.Context(), player, game)
		if err != nil {
			respondError(w, r, err)
			return
		}
		if best == nil {
			respondJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("no score for %s in %s", player, game)})
			return
		}
		respondJSON(w, http.StatusOK, best)
	}
}

func (s *Server) DeleteScoreHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		game, player := r.PathValue("game"), r.PathValue("player")
		if err := s.Manager.DeleteScore(r.Context(), player, game); err != nil {
			respondError(w, r, err)
			return
		}
		s.publish(r, pubsub.EventScoreDeleted, pubsub.NewScoreDeletedEvent(player, game))
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) HighScoresHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		game := r.PathValue("game")
		list, err := s.Manager.GetHighScores(r.Context(), game)
		if err != nil {
			respondError(w, r, err)
			return
		}

		if r.URL.Query().Get("announce") == "true" {
			if err := s.Notifier.SendHighScores(game, list, isDryRunFromContext(r)); err != nil {
				log.Error("Failed to announce high scores", "game", game, "error", err)
			}
		}

		if r.URL.Query().Get("format") == "text" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			fmt.Fprint(w, highscore.FormatHighScores(list))
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

func (s *Server) LeaderboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		board, err := s.Leaderboard.ComputeGlobalScores(r.Context())
		if err != nil {
			respondError(w, r, err)
			return
		}
		policy := s.Leaderboard.Policy()
		respondJSON(w, http.StatusOK, leaderboardResponse{Normalization: policy.Normalization, Ranking: policy.Ranking, Standings: board})
	}
}

func (s *Server) AnnounceLeaderboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		board, err := s.Leaderboard.ComputeGlobalScores(r.Context())
		if err != nil {
			respondError(w, r, err)
			return
		}
		if err := s.Notifier.SendLeaderboard(board, isDryRunFromContext(r)); err != nil {
			respondError(w, r, err)
			return
		}
		policy := s.Leaderboard.Policy()
		respondJSON(w, http.StatusOK, leaderboardResponse{Normalization: policy.Normalization, Ranking: policy.Ranking, Standings: board})
	}
}

func (s *Server) BackupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dir := s.Cfg.BackupDir
		if isDryRunFromContext(r) {
			log.Info("[Dry Run] Would back up tables", "dir", dir, "tables", s.Registry.Names())
		} else if err := s.Registry.BackupAll(r.Context(), dir); err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, snapshotResponse{Dir: dir, Tables: s.Registry.Names()})
	}
}

func (s *Server) RestoreHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dir := s.Cfg.BackupDir
		if isDryRunFromContext(r) {
			log.Info("[Dry Run] Would restore tables", "dir", dir, "tables", s.Registry.Names())
		} else if err := s.Registry.RestoreAll(r.Context(), dir); err != nil {
			respondError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, snapshotResponse{Dir: dir, Tables: s.Registry.Names()})
	}
}

// publish sends an event unless the request is a dry run. Failures are
// logged; the stored state is already committed.
func (s *Server) publish(r *http.Request, topic pubsub.EventType, event any) {
	if isDryRunFromContext(r) {
		log.Info("[Dry Run] Would publish event", "topic", topic)
		return
	}
	if err := s.pubsub.SendMessage(topic, event); err != nil {
		log.Error("Failed to publish event", "topic", topic, "error", err)
	}
}
