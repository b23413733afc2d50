package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

var gameAddPolicy string

var gameCmd = &cobra.Command{
	Use:   "game",
	Short: "Manage the game library",
}

var gameListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all games",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Get(daemonURL("/games"))
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		var result struct {
			Games []struct {
				ID         uint   `json:"ID"`
				Name       string `json:"name"`
				LocalPath  string `json:"local_path"`
				MirrorPath string `json:"mirror_path"`
				Policy     string `json:"policy"`
				Status     string `json:"status"`
			} `json:"games"`
			Running map[string]struct {
				Synced    int `json:"synced"`
				Failed    int `json:"failed"`
				Conflicts []struct {
					RelPath string `json:"relative_path"`
				} `json:"conflicts"`
			} `json:"running"`
		}

		_ = json.NewDecoder(resp.Body).Decode(&result)

		if len(result.Games) == 0 {
			fmt.Println("no games configured")
			return nil
		}

		fmt.Printf("%-4s %-20s %-8s %-14s %-30s %s\n",
			"ID", "NAME", "STATUS", "POLICY", "LOCAL", "SYNCED/FAILED")
		for _, g := range result.Games {
			synced, failed, conflicts := 0, 0, 0
			if r, ok := result.Running[fmt.Sprint(g.ID)]; ok {
				synced = r.Synced
				failed = r.Failed
				conflicts = len(r.Conflicts)
			}

			fmt.Printf("%-4d %-20s %-8s %-14s %-30s %d/%d\n",
				g.ID, g.Name, g.Status, g.Policy, g.LocalPath, synced, failed)
			if conflicts > 0 {
				fmt.Printf("     %d conflict(s) pending\n", conflicts)
			}
		}

		return nil
	},
}

var gameAddCmd = &cobra.Command{
	Use:   "add [name] [local] [mirror]",
	Short: "Add a game to the library",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, _ := json.Marshal(map[string]string{
			"name":        args[0],
			"local_path":  args[1],
			"mirror_path": args[2],
			"policy":      gameAddPolicy,
		})

		resp, err := http.Post(
			daemonURL("/games"),
			"application/json",
			strings.NewReader(string(payload)))

		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		var result map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&result)

		if resp.StatusCode != http.StatusCreated {
			return fmt.Errorf("failed to add game: %v", result["error"])
		}

		fmt.Printf("game added: id=%v name=%s\n", result["ID"], args[0])
		return nil
	},
}

var gameRemoveCmd = &cobra.Command{
	Use:   "remove [id]",
	Short: "Remove a game",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, _ := http.NewRequest(http.MethodDelete, daemonURL("/games/"+args[0]), nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		fmt.Printf("game %s removed\n", args[0])
		return nil
	},
}

var gamePauseCmd = &cobra.Command{
	Use:   "pause [id]",
	Short: "Pause syncing for a game",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Post(daemonURL("/games/"+args[0]+"/pause"), "application/json", nil)
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		fmt.Printf("game %s paused\n", args[0])
		return nil
	},
}

var gameResumeCmd = &cobra.Command{
	Use:   "resume [id]",
	Short: "Resume syncing for a game",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Post(daemonURL("/games/"+args[0]+"/resume"), "application/json", nil)
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		fmt.Printf("game %s resumed\n", args[0])
		return nil
	},
}

var gameSyncCmd = &cobra.Command{
	Use:   "sync [id]",
	Short: "Trigger a sync for a game now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Post(daemonURL("/games/"+args[0]+"/sync"), "application/json", nil)
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		fmt.Printf("sync requested for game %s\n", args[0])
		return nil
	},
}

func init() {
	gameAddCmd.Flags().StringVar(&gameAddPolicy, "policy", "",
		"conflict policy: MANUAL, PREFER_LOCAL, PREFER_MIRROR or PREFER_NEWER")
	gameCmd.AddCommand(gameListCmd, gameAddCmd, gameRemoveCmd, gamePauseCmd, gameResumeCmd, gameSyncCmd)
	rootCmd.AddCommand(gameCmd)
}
