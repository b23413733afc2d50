package cmd

import (
	"fmt"
	"memcard/internal/config"
	"memcard/internal/db"
	"memcard/internal/logger"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg   *config.Config
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "memcard",
	Short: "Keep game save folders in sync with a cloud-synced mirror folder",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		logger.Init(debug, cfg.LogFile)

		// Client commands talk to the daemon over HTTP and never touch the db.
		clientCmds := map[string]bool{
			"status": true, "stop": true, "history": true,
			"game": true, "locate": true, "install": true, "uninstall": true,
		}
		if !clientCmds[cmd.Name()] && !clientCmds[cmd.Parent().Name()] {
			if err := db.Init(cfg.DBPath); err != nil {
				return err
			}
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func daemonURL(path string) string {
	return fmt.Sprintf("http://localhost:%d%s", cfg.DaemonPort, path)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug mode")
}
