package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aletheia-lab/aletheia/internal/config"
	"github.com/aletheia-lab/aletheia/internal/prover"
	"github.com/aletheia-lab/aletheia/internal/worker"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	if err := config.Load(); err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	searcher, err := prover.NewProver(config.ProverProvider(), config.ProverCommand())
	if err != nil {
		logger.Fatal("failed to build prover", zap.Error(err))
	}

	server := worker.NewServer(searcher, config.WorkerParallelism(), logger)

	addr := config.WorkerAddr()
	srv := &http.Server{
		Addr:    addr,
		Handler: server.Router,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("worker starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("worker failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down worker")

	// In-flight proof searches can run for a long time; give them a generous
	// window before forcing the listener closed.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("worker forced to shutdown", zap.Error(err))
	}

	logger.Info("worker stopped")
}
