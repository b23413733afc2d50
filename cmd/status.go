package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"memcard/internal/daemon"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "View daemon status",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Get(daemonURL("/status"))
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		var result struct {
			Games []daemon.GameSnapshot `json:"games"`
		}

		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("failed to decode status response: %w", err)
		}

		if len(result.Games) == 0 {
			fmt.Println("no active games")
			return nil
		}

		fmt.Printf("%-4s %-20s %-8s %-10s %-8s %-8s %s\n",
			"ID", "NAME", "STATUS", "PHASE", "SYNCED", "FAILED", "LAST SYNC")

		for _, snap := range result.Games {
			lastSync := "-"
			if snap.LastSync != nil {
				lastSync = snap.LastSync.Format("2006-01-02 15:04:05")
			}

			uptime := time.Since(snap.StartedAt).Round(time.Second)
			fmt.Printf("%-4d %-20s %-8s %-10s %-8d %-8d %s\n",
				snap.GameID, snap.Name, snap.Status, snap.Phase, snap.Synced, snap.Failed, lastSync)
			fmt.Printf("     uptime: %s\n", uptime)

			for _, c := range snap.Conflicts {
				fmt.Printf("     conflict: %s (local %d bytes / mirror %d bytes)\n",
					c.RelPath, c.LocalSize, c.MirrorSize)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
