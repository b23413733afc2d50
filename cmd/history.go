package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"memcard/internal/model"
	"net/http"

	"github.com/spf13/cobra"
)

var (
	historyN     int
	historyGame  string
	historyStats bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View sync history",
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyStats {
			return printHistoryStats()
		}

		url := fmt.Sprintf("%s?n=%d", daemonURL("/history"), historyN)
		if historyGame != "" {
			url += "&game_id=" + historyGame
		}

		resp, err := http.Get(url)
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		var entries []model.SyncLog
		if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("no history yet")
			return nil
		}

		for _, e := range entries {
			status := "✓"
			if !e.Success {
				status = "✗"
			}

			line := fmt.Sprintf("%s [%s] %-18s %-20s %d file(s)",
				status,
				e.SyncedAt.Format("2006-01-02 15:04:05"),
				e.Operation,
				e.GameName,
				e.FilesSynced,
			)
			if e.Conflicts > 0 {
				line += fmt.Sprintf(", %d conflict(s)", e.Conflicts)
			}
			if e.ErrMsg != "" {
				line += ": " + e.ErrMsg
			}
			fmt.Println(line)
		}

		return nil
	},
}

func printHistoryStats() error {
	resp, err := http.Get(daemonURL("/history/stats"))
	if err != nil {
		return fmt.Errorf("daemon not running: %w", err)
	}

	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	var stats map[string]int64
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return err
	}

	fmt.Printf("total: %d, success: %d, failed: %d\n",
		stats["total"], stats["success"], stats["failed"])
	return nil
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete sync history entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		url := daemonURL("/history")
		if historyGame != "" {
			url += "?game_id=" + historyGame
		}

		req, err := http.NewRequest(http.MethodDelete, url, nil)
		if err != nil {
			return err
		}

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		var result map[string]int64
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return err
		}

		fmt.Printf("%d history entries deleted\n", result["cleared"])
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyN, "n", 20, "number of history entries to show")
	historyCmd.Flags().BoolVar(&historyStats, "stats", false, "show aggregate run counts instead of entries")
	historyCmd.PersistentFlags().StringVar(&historyGame, "game-id", "", "filter by game id")
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}
