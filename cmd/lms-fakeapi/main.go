// Command lms-fakeapi serves an in-memory library backend for local runs of
// lmsctl. State is lost on exit.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ntuclms/lms-client/internal/api"
	"github.com/ntuclms/lms-client/internal/api/store"
	"github.com/ntuclms/lms-client/internal/infrastructure/config"
	"github.com/ntuclms/lms-client/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		l := logger.New(logger.Options{})
		l.Fatal().Err(err).Msg("failed to load config")
	}

	log := logger.Init(logger.Options{
		Level:     cfg.LogLevel,
		Pretty:    cfg.LogPretty,
		Component: "lms-fakeapi",
	})

	lib := store.New()
	if err := lib.Seed(); err != nil {
		log.Fatal().Err(err).Msg("failed to seed library")
	}

	e := api.NewRouter(lib, cfg.Fake.JWTSecret, log)

	go func() {
		addr := ":" + cfg.Fake.Port
		log.Info().
			Str("addr", addr).
			Str("admin", store.AdminUsername).
			Msg("fake backend listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		os.Exit(1)
	}
}
