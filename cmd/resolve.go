package cmd

import (
	"fmt"
	"memcard/internal/logger"
	"memcard/internal/model"
	"memcard/internal/repository"
	"memcard/internal/syncer"
	"time"

	"github.com/spf13/cobra"
)

var (
	resolveUseLocal  bool
	resolveUseMirror bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [local] [mirror]",
	Short: "Resolve one conflict by picking a side",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		if resolveUseLocal == resolveUseMirror {
			return fmt.Errorf("pass exactly one of --use-local or --use-mirror")
		}

		orch := syncer.NewOrchestrator(syncer.Options{})
		if err := orch.ResolveConflict(args[0], args[1], resolveUseLocal); err != nil {
			return err
		}

		entry := model.SyncLog{
			Operation:   model.OpResolve,
			FilesSynced: 1,
			Success:     true,
			SyncedAt:    time.Now(),
		}
		if err := repository.NewSyncLogRepository().Save(entry); err != nil {
			return err
		}

		winner := "local"
		if resolveUseMirror {
			winner = "mirror"
		}
		fmt.Printf("resolved: %s version kept\n", winner)
		return nil
	},
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveUseLocal, "use-local", false, "keep the local version")
	resolveCmd.Flags().BoolVar(&resolveUseMirror, "use-mirror", false, "keep the mirror version")
	rootCmd.AddCommand(resolveCmd)
}
