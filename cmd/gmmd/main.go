package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/denchenko/gmm/internal/adapters"
	httpadapter "github.com/denchenko/gmm/internal/adapters/primary/http"
	"github.com/denchenko/gmm/internal/config"
	"github.com/denchenko/gmm/internal/core"
	"github.com/denchenko/gmm/internal/log"
	do "github.com/samber/do/v2"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	injector := do.New(
		config.Package,
		log.Package,
		core.Package,
		adapters.SecondaryPackage,
		adapters.PrimaryPackage,
	)

	logger, err := do.Invoke[*zap.Logger](injector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	server, err := do.Invoke[*httpadapter.Server](injector)
	if err != nil {
		logger.Fatal("failed to create HTTP server", zap.Error(err))
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutting down server", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			logger.Error("server stopped", zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	// Closes the roster database.
	_ = injector.Shutdown()

	_ = logger.Sync()
}
