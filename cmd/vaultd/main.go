// cmd/vaultd/main.go
package main

import (
	"context"
	"flag"
	"os"

	"go.uber.org/zap"

	"github.com/settlabs/govault/internal/daemon"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()
	logger.Info("Starting vault daemon")

	runner := daemon.NewRunner(logger)
	if err := runner.Initialize(*configPath); err != nil {
		logger.Fatal("Failed to initialize daemon", zap.Error(err))
		os.Exit(1)
	}

	if err := runner.Run(ctx); err != nil {
		logger.Fatal("Daemon execution error", zap.Error(err))
		os.Exit(1)
	}

	runner.WaitForShutdown()
}
