package scores

import (
	"context"

	"github.com/mauv0809/scorekeeper/internal/database"
	"github.com/mauv0809/scorekeeper/internal/table"
)

const GameTableName = "game_metadata"

type gameDefinition struct{}

func (gameDefinition) Name() string { return GameTableName }

func (gameDefinition) CreateSQL() string {
	return `
	CREATE TABLE game_metadata (
		game_name TEXT NOT NULL PRIMARY KEY,
		is_lower_better BOOLEAN NOT NULL
	)`
}

func (gameDefinition) InsertSQL() string {
	return `INSERT INTO game_metadata (game_name, is_lower_better) VALUES (?, ?)`
}

func (gameDefinition) UpdateSQL() string {
	return `UPDATE game_metadata SET is_lower_better = ? WHERE game_name = ?`
}

func (gameDefinition) SelectOneSQL() string {
	return `SELECT game_name, is_lower_better FROM game_metadata WHERE game_name = ?`
}

// Filtered retrieval by non-key criteria is not offered for games.
func (gameDefinition) SelectManySQL() string { return "" }

func (gameDefinition) SelectAllSQL() string {
	return `SELECT game_name, is_lower_better FROM game_metadata ORDER BY game_name`
}

func (gameDefinition) DeleteSQL() string {
	return `DELETE FROM game_metadata WHERE game_name = ?`
}

func (gameDefinition) InsertArgs(g GameRecord) []any { return []any{g.GameName, g.IsLowerBetter} }
func (gameDefinition) UpdateArgs(g GameRecord) []any { return []any{g.IsLowerBetter, g.GameName} }
func (gameDefinition) KeyArgs(g GameRecord) []any    { return []any{g.GameName} }

func (gameDefinition) Scan(row table.Scanner) (GameRecord, error) {
	var g GameRecord
	err := row.Scan(&g.GameName, &g.IsLowerBetter)
	return g, err
}

// GameTable stores GameRecords.
type GameTable struct {
	*table.Table[GameRecord]
}

func NewGameTable(pool *database.Pool, registry *table.Registry) *GameTable {
	return &GameTable{Table: table.New[GameRecord](pool, gameDefinition{}, registry)}
}

// Get returns the game named name, or nil if it is not registered.
func (g *GameTable) Get(ctx context.Context, name string) (*GameRecord, error) {
	return g.RetrieveOne(ctx, GameRecord{GameName: name})
}
