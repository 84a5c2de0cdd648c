package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mauv0809/scorekeeper/internal/config"
	"github.com/mauv0809/scorekeeper/internal/database"
	"github.com/mauv0809/scorekeeper/internal/highscore"
	"github.com/mauv0809/scorekeeper/internal/leaderboard"
	"github.com/mauv0809/scorekeeper/internal/metrics"
	"github.com/mauv0809/scorekeeper/internal/notifier"
	"github.com/mauv0809/scorekeeper/internal/pubsub"
	"github.com/mauv0809/scorekeeper/internal/scores"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	server   *Server
	notifier *notifier.Mock
	pubsub   *pubsub.MockPubSubClient
	metrics  *metrics.Service
	pool     *database.Pool
}

// setupTestServer initializes a new server over a temporary SQLite file and mock clients.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	reg := prometheus.NewRegistry()
	metricsSvc := metrics.NewService(reg)
	metricsHandler := metrics.NewMetricsHandler(reg)

	pool, err := database.Open(context.Background(), database.Options{
		URL:            filepath.Join(t.TempDir(), "http.db"),
		MaxConns:       2,
		AcquireTimeout: 2 * time.Second,
		Metrics:        metricsSvc,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Shutdown(context.Background()) })

	tables := scores.NewTables(pool)
	require.NoError(t, tables.EnsureExists(context.Background()))

	cfg := config.Config{BackupDir: t.TempDir(), Leaderboard: leaderboard.DefaultPolicy()}
	notifierMock := notifier.NewMock()
	pubsubMock := pubsub.NewMock()
	server := NewServer(
		highscore.NewManager(tables, metricsSvc),
		leaderboard.New(tables, cfg.Leaderboard, metricsSvc),
		tables.Registry,
		metricsSvc,
		metricsHandler,
		cfg,
		notifierMock,
		pubsubMock,
	)
	return &testEnv{server: server, notifier: notifierMock, pubsub: pubsubMock, metrics: metricsSvc, pool: pool}
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	e.server.Router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) registerGame(t *testing.T, name string, isLowerBetter bool) {
	t.Helper()
	rr := e.do(t, "POST", "/games", map[string]any{"name": name, "is_lower_better": isLowerBetter})
	require.Contains(t, []int{http.StatusCreated, http.StatusOK}, rr.Code, rr.Body.String())
}

func (e *testEnv) recordScore(t *testing.T, player, game string, score int) highscore.Outcome {
	t.Helper()
	rr := e.do(t, "POST", "/scores", map[string]any{"player_id": player, "game": game, "score": score})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var out highscore.Outcome
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestHealthCheckHandler(t *testing.T) {
	env := setupTestServer(t)

	rr := env.do(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code, "handler returned wrong status code")
	assert.Equal(t, "OK!", rr.Body.String(), "handler returned unexpected body")
}

func TestMetricsHandler(t *testing.T) {
	env := setupTestServer(t)
	env.registerGame(t, "Golf", true)

	rr := env.do(t, "GET", "/metrics", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "scorekeeper_storage_operations_total")
}

func TestRegisterGameHandler(t *testing.T) {
	env := setupTestServer(t)

	rr := env.do(t, "POST", "/games", map[string]any{"name": "Golf", "is_lower_better": true})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"name":"Golf","is_lower_better":true,"registration":"created"}`, rr.Body.String())

	rr = env.do(t, "POST", "/games", map[string]any{"name": "Golf", "is_lower_better": true})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"registration":"unchanged"`)

	rr = env.do(t, "POST", "/games", map[string]any{"name": "Golf", "is_lower_better": false})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"registration":"updated"`)

	assert.Len(t, env.pubsub.Calls(pubsub.EventGameRegistered), 2, "unchanged registrations publish nothing")

	t.Run("invalid bodies", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, env.do(t, "POST", "/games", map[string]any{"name": ""}).Code)
		assert.Equal(t, http.StatusBadRequest, env.do(t, "POST", "/games", map[string]any{"title": "Golf"}).Code)

		req, err := http.NewRequest("POST", "/games", strings.NewReader("{"))
		require.NoError(t, err)
		rr := httptest.NewRecorder()
		env.server.Router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestGetAndListGames(t *testing.T) {
	env := setupTestServer(t)
	env.registerGame(t, "Golf", true)
	env.registerGame(t, "Darts", false)

	rr := env.do(t, "GET", "/games/Golf", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"game_name":"Golf","is_lower_better":true}`, rr.Body.String())

	rr = env.do(t, "GET", "/games/Chess", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, "GET", "/games", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var games []scores.GameRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &games))
	assert.Equal(t, []scores.GameRecord{{GameName: "Darts"}, {GameName: "Golf", IsLowerBetter: true}}, games)
}

func TestRecordScoreHandler(t *testing.T) {
	env := setupTestServer(t)
	env.registerGame(t, "Golf", true)

	out := env.recordScore(t, "Ana", "Golf", 72)
	assert.True(t, out.Created)

	out = env.recordScore(t, "Ana", "Golf", 75)
	assert.False(t, out.Written())
	assert.Equal(t, 72, out.Record.Score)

	out = env.recordScore(t, "Ana", "Golf", 68)
	assert.True(t, out.Improved)
	require.NotNil(t, out.Previous)
	assert.Equal(t, 72, out.Previous.Score)

	events := env.pubsub.Calls(pubsub.EventPersonalBest)
	require.Len(t, events, 2)
	last := events[1].Data.(pubsub.PersonalBestEvent)
	assert.Equal(t, 68, last.Score)
	require.NotNil(t, last.Previous)
	assert.Equal(t, 72, *last.Previous)
	assert.Len(t, env.notifier.PersonalBests(), 2)

	assert.Equal(t, 3.0, testutil.ToFloat64(env.metrics.ScoresRecorded))
	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.PersonalBests))

	t.Run("unregistered game", func(t *testing.T) {
		rr := env.do(t, "POST", "/scores", map[string]any{"player_id": "Ana", "game": "Chess", "score": 1})
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, rr.Body.String(), "game not registered")
	})

	t.Run("missing score", func(t *testing.T) {
		rr := env.do(t, "POST", "/scores", map[string]any{"player_id": "Ana", "game": "Golf"})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestRecordScoreHandler_DryRun(t *testing.T) {
	env := setupTestServer(t)
	env.registerGame(t, "Darts", false)

	rr := env.do(t, "POST", "/scores?dry_run=true", map[string]any{"player_id": "Bo", "game": "Darts", "score": 140})
	require.Equal(t, http.StatusOK, rr.Code)

	assert.Empty(t, env.pubsub.Calls(pubsub.EventPersonalBest))
	assert.Len(t, env.notifier.PersonalBests(), 1)
	assert.Equal(t, 1, env.notifier.DryRuns)
}

func TestPersonalBestAndDeleteScore(t *testing.T) {
	env := setupTestServer(t)
	env.registerGame(t, "Golf", true)
	env.recordScore(t, "Ana", "Golf", 72)

	rr := env.do(t, "GET", "/scores/Golf/Ana", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"player_id":"Ana","game_name":"Golf","score":72}`, rr.Body.String())

	rr = env.do(t, "DELETE", "/scores/Golf/Ana", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Len(t, env.pubsub.Calls(pubsub.EventScoreDeleted), 1)

	rr = env.do(t, "GET", "/scores/Golf/Ana", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHighScoresHandler(t *testing.T) {
	env := setupTestServer(t)
	env.registerGame(t, "Golf", true)
	env.recordScore(t, "Ana", "Golf", 72)
	env.recordScore(t, "Bo", "Golf", 68)

	rr := env.do(t, "GET", "/highscores/Golf", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list []scores.ScoreRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Bo", list[0].PlayerID)

	rr = env.do(t, "GET", "/highscores/Golf?format=text&announce=true", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "1st Bo 68\n2nd Ana 72\n", rr.Body.String())
	require.Len(t, env.notifier.SendHighScoresCalls, 1)
	assert.Equal(t, "Golf", env.notifier.SendHighScoresCalls[0].Game)

	rr = env.do(t, "GET", "/highscores/Chess", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLeaderboardHandlers(t *testing.T) {
	env := setupTestServer(t)
	env.registerGame(t, "Golf", true)
	env.registerGame(t, "Darts", false)
	env.recordScore(t, "Ana", "Golf", 68)
	env.recordScore(t, "Bo", "Golf", 72)
	env.recordScore(t, "Ana", "Darts", 90)
	env.recordScore(t, "Bo", "Darts", 140)

	rr := env.do(t, "GET", "/leaderboard", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp leaderboardResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, leaderboard.GamesPlayed, resp.Normalization)
	assert.Equal(t, map[string]int{"Ana": 1, "Bo": 1}, resp.Standings.Ranks())

	rr = env.do(t, "POST", "/leaderboard/announce?dry_run=true", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, env.notifier.SendLeaderboardCalls, 1)
	assert.Len(t, env.notifier.SendLeaderboardCalls[0], 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(env.metrics.LeaderboardComputations))
}

func TestDeleteGameHandler(t *testing.T) {
	env := setupTestServer(t)
	env.registerGame(t, "Golf", true)
	env.recordScore(t, "Ana", "Golf", 72)

	rr := env.do(t, "DELETE", "/games/Golf", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, []string{"Golf"}, env.notifier.SendGameDeletedCalls)
	assert.Len(t, env.pubsub.Calls(pubsub.EventGameDeleted), 1)

	assert.Equal(t, http.StatusNotFound, env.do(t, "GET", "/scores/Golf/Ana", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, "DELETE", "/games/Golf", nil).Code)
}

func TestBackupRestoreHandlers(t *testing.T) {
	env := setupTestServer(t)

	rr := env.do(t, "POST", "/admin/restore", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code, "restore without snapshots")

	env.registerGame(t, "Darts", false)
	env.recordScore(t, "playerA", "Darts", 10)
	env.recordScore(t, "playerB", "Darts", 20)

	rr = env.do(t, "POST", "/admin/backup", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"tables":["game_metadata","scores"]`)

	require.Equal(t, http.StatusNoContent, env.do(t, "DELETE", "/scores/Darts/playerA", nil).Code)
	env.recordScore(t, "playerB", "Darts", 88)

	rr = env.do(t, "POST", "/admin/restore", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, "GET", "/highscores/Darts", nil)
	var list []scores.ScoreRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Equal(t, []scores.ScoreRecord{
		{PlayerID: "playerB", GameName: "Darts", Score: 20},
		{PlayerID: "playerA", GameName: "Darts", Score: 10},
	}, list)
}

func TestPoolClosedIsUnavailable(t *testing.T) {
	env := setupTestServer(t)
	require.NoError(t, env.pool.Disconnect())

	rr := env.do(t, "GET", "/leaderboard", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
}
