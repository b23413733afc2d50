package cmd

import (
	"context"
	"memcard/internal/daemon"
	"memcard/internal/logger"
	"memcard/internal/repository"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Start the daemon watching all library games",
	RunE:  runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	defer logger.Sync()

	gameRepo := repository.NewGameRepository()
	games, err := gameRepo.GetAll()
	if err != nil {
		return err
	}

	manager := daemon.NewManager(cfg)

	for _, game := range games {
		if err := manager.StartGame(game); err != nil {
			logger.Log.Warn("failed to start game",
				zap.Uint("id", game.ID),
				zap.String("name", game.Name),
				zap.Error(err))
		}
	}

	if len(games) == 0 {
		logger.Log.Info("no games configured, use 'memcard game add <name> <local> <mirror>' to add one")
	}

	srv := daemon.NewServer(manager, cfg.DaemonPort)
	srv.Start()

	logger.Log.Info("memcard daemon started",
		zap.Int("games", len(games)),
		zap.Int("port", cfg.DaemonPort))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Log.Info("shutting down",
			zap.String("signal", sig.String()))
	case <-srv.StopCh():
		logger.Log.Info("stop requested via API")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
