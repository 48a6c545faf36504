package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"coin-heist/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	zapLogger := logger.NewLogger()
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(zapLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(zapLogger).ExecuteContext(ctx); err != nil {
		zapLogger.Error("Command failed", zap.Error(err))
		stop()
		_ = zapLogger.Sync()
		os.Exit(1)
	}
}

func newRootCommand(log *zap.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "coin-heist",
		Short:         "Coin economy server for chat games",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	serve := newServeCommand(log)
	cmd.RunE = serve.RunE
	cmd.AddCommand(serve, newMigrateCommand(log), newTokenCommand(log))
	return cmd
}
