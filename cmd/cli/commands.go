package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	lowerIsBetter bool
	asText        bool
	announce      bool
)

func init() {
	registerCmd.Flags().BoolVar(&lowerIsBetter, "lower-is-better", false, "Smaller scores rank better in this game")
	highScoresCmd.Flags().BoolVar(&asText, "text", false, "Print the ordinal text form")
	highScoresCmd.Flags().BoolVar(&announce, "announce", false, "Also post the list to Slack")
	leaderboardCmd.Flags().BoolVar(&announce, "announce", false, "Post the leaderboard to Slack")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(gamesCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(bestCmd)
	rootCmd.AddCommand(highScoresCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(deleteScoreCmd)
	rootCmd.AddCommand(deleteGameCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/health", nil, nil)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/metrics", nil, nil)
	},
}

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "List registered games",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/games", nil, nil)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <game>",
	Short: "Register a game or change its score direction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		body := map[string]any{"name": args[0], "is_lower_better": lowerIsBetter}
		return performRequest(http.MethodPost, "/games", nil, body)
	},
}

var recordCmd = &cobra.Command{
	Use:   "record <player> <game> <score>",
	Short: "Submit a score; it is kept only if it beats the player's best",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		score, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("score must be an integer: %w", err)
		}
		body := map[string]any{"player_id": args[0], "game": args[1], "score": score}
		return performRequest(http.MethodPost, "/scores", nil, body)
	},
}

var bestCmd = &cobra.Command{
	Use:   "best <player> <game>",
	Short: "Show a player's personal best in a game",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, scorePath(args[0], args[1]), nil, nil)
	},
}

var highScoresCmd = &cobra.Command{
	Use:   "highscores <game>",
	Short: "List a game's scores, best first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := url.Values{}
		if asText {
			query.Set("format", "text")
		}
		if announce {
			query.Set("announce", "true")
		}
		return performRequest(http.MethodGet, "/highscores/"+url.PathEscape(args[0]), query, nil)
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the global leaderboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		if announce {
			return performRequest(http.MethodPost, "/leaderboard/announce", nil, nil)
		}
		return performRequest(http.MethodGet, "/leaderboard", nil, nil)
	},
}

var deleteScoreCmd = &cobra.Command{
	Use:   "delete-score <player> <game>",
	Short: "Delete a player's score in a game",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodDelete, scorePath(args[0], args[1]), nil, nil)
	},
}

var deleteGameCmd = &cobra.Command{
	Use:   "delete-game <game>",
	Short: "Delete a game and all of its scores",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodDelete, "/games/"+url.PathEscape(args[0]), nil, nil)
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot every table into the server's backup directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/admin/backup", nil, nil)
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Replace every table with its snapshot from the server's backup directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/admin/restore", nil, nil)
	},
}

func scorePath(player, game string) string {
	return "/scores/" + url.PathEscape(game) + "/" + url.PathEscape(player)
}

func performRequest(method, endpoint string, query url.Values, body any) error {
	if query == nil {
		query = url.Values{}
	}
	if dryRun {
		query.Set("dry_run", "true")
	}
	if verbose {
		query.Set("verbose", "true")
	}
	target := host + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	fmt.Printf("Making %s request to %s\n", method, target)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(respBody))

	return nil
}
