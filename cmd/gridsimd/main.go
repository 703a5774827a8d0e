// Command gridsimd serves the scenario catalogue and streams simulation runs
// over websockets. Configuration comes from the environment (and an optional
// .env file): HOST, PORT, GIN_MODE, LOG_LEVEL, TICK_MS, MAX_STEPS and
// SCENARIO_DIR.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/RudyMontoo/10-AITASK/internal/config"
	"github.com/RudyMontoo/10-AITASK/internal/scenario"
	"github.com/RudyMontoo/10-AITASK/internal/server"
	"github.com/RudyMontoo/10-AITASK/internal/sim"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("gridsimd: %v", err)
	}
	logger, err := config.NewLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		log.Fatalf("gridsimd: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	catalogue, err := scenario.Default(cfg.ScenarioDir)
	if err != nil {
		logger.Error("loading scenarios", "dir", cfg.ScenarioDir, "error", err)
		os.Exit(1)
	}
	logger.Info("scenarios loaded", "count", len(catalogue.All()), "dir", cfg.ScenarioDir)

	srv := server.New(server.Config{
		Catalogue: catalogue,
		Runner:    sim.Config{Tick: cfg.Tick, MaxSteps: cfg.MaxSteps},
		Logger:    logger,
	})
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr())
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}
