package main

import (
	"context"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/scorekeeper/internal/config"
	"github.com/mauv0809/scorekeeper/internal/database"
	"github.com/mauv0809/scorekeeper/internal/highscore"
	"github.com/mauv0809/scorekeeper/internal/leaderboard"
	"github.com/mauv0809/scorekeeper/internal/scores"
)

type demoGame struct {
	name          string
	isLowerBetter bool
	min, max      int
}

var demoGames = []demoGame{
	{name: "Golf", isLowerBetter: true, min: 60, max: 110},
	{name: "Darts", isLowerBetter: false, min: 20, max: 180},
	{name: "Bowling", isLowerBetter: false, min: 50, max: 300},
	{name: "Minesweeper", isLowerBetter: true, min: 30, max: 600},
}

func main() {
	log.Info("Starting database seeder...")
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %s", err)
	}

	ctx := context.Background()
	pool, err := database.Open(ctx, cfg.PoolOptions())
	if err != nil {
		log.Fatalf("Failed to open database: %s", err)
	}
	defer func() {
		if err := pool.Shutdown(context.Background()); err != nil {
			log.Error("Failed to shut down database pool", "error", err)
		}
	}()

	tables := scores.NewTables(pool)
	if err := tables.EnsureExists(ctx); err != nil {
		log.Fatalf("Failed to create tables: %s", err)
	}
	manager := highscore.NewManager(tables, nil)

	for _, g := range demoGames {
		if _, err := manager.RegisterGame(ctx, g.name, g.isLowerBetter); err != nil {
			log.Fatalf("Failed to register game %s: %s", g.name, err)
		}
	}
	log.Info("Ensured demo games exist.", "count", len(demoGames))

	const numPlayers = 50
	const roundsPerPlayer = 5

	players := make([]string, numPlayers)
	for i := range players {
		players[i] = uuid.NewString()
	}

	log.Info("Recording random scores...", "players", numPlayers, "rounds", roundsPerPlayer)
	startTime := time.Now()
	recorded, improved := 0, 0
	for _, player := range players {
		for _, g := range demoGames {
			// Not every player tries every game.
			if rand.Intn(4) == 0 {
				continue
			}
			for round := 0; round < roundsPerPlayer; round++ {
				score := g.min + rand.Intn(g.max-g.min+1)
				outcome, err := manager.RecordScore(ctx, player, g.name, score)
				if err != nil {
					log.Fatalf("Failed to record score for %s in %s: %s", player, g.name, err)
				}
				recorded++
				if outcome.Written() {
					improved++
				}
			}
		}
	}
	log.Info("Finished recording scores", "recorded", recorded, "personal_bests", improved, "duration", time.Since(startTime))

	board, err := leaderboard.New(tables, cfg.Leaderboard, nil).ComputeGlobalScores(ctx)
	if err != nil {
		log.Fatalf("Failed to compute leaderboard: %s", err)
	}
	for i, standing := range board {
		if i == 5 {
			break
		}
		log.Info("Leaderboard", "rank", standing.Rank, "player", standing.PlayerID, "aggregate", standing.Aggregate, "games", standing.GamesPlayed)
	}

	if err := tables.Registry.BackupAll(ctx, cfg.BackupDir); err != nil {
		log.Fatalf("Failed to back up seeded tables: %s", err)
	}
	log.Info("Seeding complete. Snapshot written.", "dir", cfg.BackupDir)
}
