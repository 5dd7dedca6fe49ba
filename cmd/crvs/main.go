package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/crvs/internal/app"
	"github.com/gosuda/crvs/internal/config"
	"github.com/gosuda/crvs/internal/server"
	"github.com/gosuda/crvs/internal/store/memory"
	"github.com/gosuda/crvs/internal/store/postgres"
	redisstore "github.com/gosuda/crvs/internal/store/redis"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	zerolog.SetGlobalLevel(cfg.Log.Level)
	if cfg.Log.Format == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	checks := make(map[string]server.Pinger)

	var store app.Stores
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		log.Warn().Msg("using in-memory store; records are lost on restart")
		store = memory.New()
	default:
		if cfg.Database.MaxConns > math.MaxInt32 {
			return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
		}

		pg, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
		if err != nil {
			return err
		}
		defer pg.Close()

		if err := pg.Migrate(ctx); err != nil {
			return err
		}
		checks["postgres"] = pg
		store = pg
	}

	// Redis backs the search index and the live feed. Without it indexing is
	// a no-op and /ws is not mounted.
	opts := app.Options{Checks: checks, Registry: registry}
	if cfg.Redis.Addr != "" {
		pubsub, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer pubsub.Close()

		pubsub.SetDocumentTTL(cfg.Redis.DocumentTTL)
		opts.Index = pubsub
		opts.Feed = pubsub
		checks["redis"] = pubsub
	} else {
		log.Warn().Msg("CRVS_REDIS_ADDR not set; search indexing and live feed disabled")
	}

	deps, err := app.Deps(cfg, store, opts)
	if err != nil {
		return err
	}

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, deps)

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("store", cfg.Store.Driver).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
			cancel()
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
