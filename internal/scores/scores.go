package scores

import (
	"context"

	"github.com/mauv0809/scorekeeper/internal/database"
	"github.com/mauv0809/scorekeeper/internal/table"
)

const ScoreTableName = "scores"

const (
	upsertLowerIsBetter = `
	INSERT INTO scores (player_id, game_name, score) VALUES (?, ?, ?)
	ON CONFLICT (player_id, game_name) DO UPDATE SET score = excluded.score
	WHERE excluded.score < scores.score`

	upsertHigherIsBetter = `
	INSERT INTO scores (player_id, game_name, score) VALUES (?, ?, ?)
	ON CONFLICT (player_id, game_name) DO UPDATE SET score = excluded.score
	WHERE excluded.score > scores.score`
)

type scoreDefinition struct{}

func (scoreDefinition) Name() string { return ScoreTableName }

func (scoreDefinition) CreateSQL() string {
	return `
	CREATE TABLE scores (
		player_id TEXT NOT NULL,
		game_name TEXT NOT NULL REFERENCES game_metadata(game_name) ON DELETE CASCADE,
		score INTEGER NOT NULL,
		PRIMARY KEY (player_id, game_name)
	)`
}

func (scoreDefinition) InsertSQL() string {
	return `INSERT INTO scores (player_id, game_name, score) VALUES (?, ?, ?)`
}

func (scoreDefinition) UpdateSQL() string {
	return `UPDATE scores SET score = ? WHERE player_id = ? AND game_name = ?`
}

func (scoreDefinition) SelectOneSQL() string {
	return `SELECT player_id, game_name, score FROM scores WHERE player_id = ? AND game_name = ?`
}

func (scoreDefinition) SelectManySQL() string {
	return `SELECT player_id, game_name, score FROM scores WHERE game_name = ? ORDER BY player_id`
}

func (scoreDefinition) SelectAllSQL() string {
	return `SELECT player_id, game_name, score FROM scores ORDER BY game_name, player_id`
}

func (scoreDefinition) DeleteSQL() string {
	return `DELETE FROM scores WHERE player_id = ? AND game_name = ?`
}

func (scoreDefinition) InsertArgs(s ScoreRecord) []any { return []any{s.PlayerID, s.GameName, s.Score} }
func (scoreDefinition) UpdateArgs(s ScoreRecord) []any { return []any{s.Score, s.PlayerID, s.GameName} }
func (scoreDefinition) KeyArgs(s ScoreRecord) []any    { return []any{s.PlayerID, s.GameName} }

func (scoreDefinition) Scan(row table.Scanner) (ScoreRecord, error) {
	var s ScoreRecord
	err := row.Scan(&s.PlayerID, &s.GameName, &s.Score)
	return s, err
}

// ScoreTable stores one personal best per player and game. Rows require an
// existing game and disappear with it.
type ScoreTable struct {
	*table.Table[ScoreRecord]
}

func NewScoreTable(pool *database.Pool, registry *table.Registry) *ScoreTable {
	return &ScoreTable{Table: table.New[ScoreRecord](pool, scoreDefinition{}, registry)}
}

// Get returns the stored score of playerID in gameName, or nil.
func (s *ScoreTable) Get(ctx context.Context, playerID, gameName string) (*ScoreRecord, error) {
	return s.RetrieveOne(ctx, ScoreRecord{PlayerID: playerID, GameName: gameName})
}

// ForGame returns every score recorded for gameName.
func (s *ScoreTable) ForGame(ctx context.Context, gameName string) ([]ScoreRecord, error) {
	return s.RetrieveMany(ctx, gameName)
}

// UpsertIfBetter inserts rec, or overwrites the stored score only when rec is
// strictly better under the game's direction, in a single statement. It
// reports whether a row was written.
func (s *ScoreTable) UpsertIfBetter(ctx context.Context, rec ScoreRecord, isLowerBetter bool) (bool, error) {
	query := upsertHigherIsBetter
	if isLowerBetter {
		query = upsertLowerIsBetter
	}
	n, err := s.Exec(ctx, "upsert_if_better", query, rec.PlayerID, rec.GameName, rec.Score)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Tables bundles the game and score tables over one pool, registered in
// dependency order.
type Tables struct {
	Registry *table.Registry
	Games    *GameTable
	Scores   *ScoreTable
}

func NewTables(pool *database.Pool) *Tables {
	registry := table.NewRegistry()
	return &Tables{
		Registry: registry,
		Games:    NewGameTable(pool, registry),
		Scores:   NewScoreTable(pool, registry),
	}
}

// EnsureExists creates both tables if they are missing.
func (t *Tables) EnsureExists(ctx context.Context) error {
	return t.Registry.EnsureAll(ctx)
}
