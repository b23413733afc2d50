package cmd

import (
	"fmt"
	"memcard/internal/logger"
	"memcard/internal/repository"
	"memcard/internal/syncer"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	syncPolicy string
	syncGame   string
)

var syncCmd = &cobra.Command{
	Use:   "sync [local] [mirror]",
	Short: "Reconcile a save folder with its mirror once",
	Long: `Reconcile a local save folder with its cloud-synced mirror folder.
Either pass the two paths directly, or --game to sync a library entry.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		local, mirror, gameID, gameName, err := syncTarget(args)
		if err != nil {
			return err
		}

		policy, ok := syncer.ParsePolicy(syncPolicy)
		if !ok {
			return fmt.Errorf("unknown policy: %s", syncPolicy)
		}

		orch := syncer.NewOrchestrator(syncer.Options{
			Tolerance:  cfg.Tolerance(),
			Parallel:   cfg.ParallelCopies,
			IgnoreList: cfg.IgnoreList,
			Recorder:   repository.NewRunRecorder(gameID, gameName),
		})

		logger.Log.Info("starting sync",
			zap.String("local", local),
			zap.String("mirror", mirror),
			zap.String("policy", string(policy)))

		result, err := orch.Run(cmd.Context(), syncer.Request{
			LocalPath:  local,
			MirrorPath: mirror,
			Policy:     policy,
		})
		if err != nil {
			return err
		}

		fmt.Printf("done: %d file(s) synced", result.FilesSynced)
		if len(result.SoftErrors) > 0 {
			fmt.Printf(", %d failed", len(result.SoftErrors))
		}
		fmt.Println()

		if len(result.Conflicts) > 0 {
			fmt.Printf("\n%d conflict(s) need a decision:\n", len(result.Conflicts))
			for _, c := range result.Conflicts {
				fmt.Printf("  %s\n", c.RelPath)
				fmt.Printf("    local:  %d bytes, modified %s\n",
					c.LocalSize, c.LocalModified.Format("2006-01-02 15:04:05"))
				fmt.Printf("    mirror: %d bytes, modified %s\n",
					c.MirrorSize, c.MirrorModified.Format("2006-01-02 15:04:05"))
			}
			fmt.Println("\nresolve each with: memcard resolve <local> <mirror> --use-local|--use-mirror")
		}

		return nil
	},
}

func syncTarget(args []string) (local, mirror string, gameID uint, gameName string, err error) {
	if syncGame != "" {
		if len(args) != 0 {
			return "", "", 0, "", fmt.Errorf("pass either --game or two paths, not both")
		}

		game, err := repository.NewGameRepository().GetByName(syncGame)
		if err != nil {
			return "", "", 0, "", fmt.Errorf("game %q not found: %w", syncGame, err)
		}

		if syncPolicy == "" {
			syncPolicy = game.Policy
		}

		return game.LocalPath, game.MirrorPath, game.ID, game.Name, nil
	}

	if len(args) != 2 {
		return "", "", 0, "", fmt.Errorf("expected [local] [mirror] paths or --game")
	}

	return args[0], args[1], 0, "", nil
}

func init() {
	syncCmd.Flags().StringVar(&syncPolicy, "policy", "",
		"conflict policy: MANUAL, PREFER_LOCAL, PREFER_MIRROR or PREFER_NEWER")
	syncCmd.Flags().StringVar(&syncGame, "game", "", "sync a game from the library by name")
	rootCmd.AddCommand(syncCmd)
}
