package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Evgen-Mutagen/wager-custody/internal/app"
	"github.com/Evgen-Mutagen/wager-custody/internal/util/logger"
	"go.uber.org/zap"
)

func main() {
	cfg := app.NewConfigFromFlags()

	if err := logger.Init(cfg.LogLevel); err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer logger.Sync()

	application, err := app.New(cfg)
	if err != nil {
		logger.Log.Fatal("Application initialization failed", zap.Error(err))
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		application.Logger.Error("Server shutdown error", zap.Error(err))
	}
	application.Logger.Info("Server stopped")
}
