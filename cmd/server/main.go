package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/HelpWave/internal/adapters/http"
	"github.com/dkeye/HelpWave/internal/app"
	"github.com/dkeye/HelpWave/internal/app/orch"
	"github.com/dkeye/HelpWave/internal/config"
	"github.com/dkeye/HelpWave/internal/logging"
	"github.com/dkeye/HelpWave/internal/metrics"
	"github.com/dkeye/HelpWave/internal/service"
	"github.com/dkeye/HelpWave/internal/storage/sqlite"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Logger first so config.Load can use it; the level is reapplied below.
	logging.Setup("info")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Setup(cfg.LogLevel)

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db", cfg.DBPath).Msg("failed to open store")
	}

	m := metrics.New()
	orch := &orch.Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewRoomManager(),
		Policy:   app.NewStrikePolicy(cfg.KickAfter),
		Metrics:  m,
	}
	rooms := service.NewRoomService(store, orch)
	flagger := service.NewFlagger(rooms, cfg.FlagInterval, cfg.FlagAfter, m)

	r := router.SetupRouter(ctx, cfg, router.Deps{Orch: orch, Rooms: rooms, Metrics: m})
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("HelpWave server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return flagger.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if cerr := store.Close(); cerr != nil {
		log.Error().Err(cerr).Msg("failed to close store")
	}
	if err != nil {
		log.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
	log.Info().Msg("Server exited gracefully")
}
