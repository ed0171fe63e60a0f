package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"delivery-route-optimizer/internal/adapters/repositories"
	"delivery-route-optimizer/internal/api"
	"delivery-route-optimizer/internal/bootstrap"
	"delivery-route-optimizer/internal/config"
	"delivery-route-optimizer/internal/platform/db"
	"delivery-route-optimizer/internal/platform/obs"
	"delivery-route-optimizer/internal/services"

	"github.com/rs/zerolog/log"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, ORS, caches) behind ports and starts the HTTP server.
func main() {
	foundEnv := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	obs.SetupLogger(cfg.LogLevel, os.Getenv("LOG_PRETTY") != "")
	if !foundEnv {
		log.Info().Msg("no .env file found (using environment variables)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Orders and plans need Postgres; inline routing works without it.
	var conn *sql.DB
	deps := api.Deps{Options: services.Options{MaxExactOrders: cfg.MaxExactOrders, ExactOrderLimit: cfg.ExactOrderLimit}}
	if cfg.DatabaseURL != "" {
		conn, err = db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("open database")
		}
		defer conn.Close()

		if err := repositories.InitSchema(ctx, conn); err != nil {
			log.Fatal().Err(err).Msg("init schema")
		}

		repo := repositories.NewPostgresOrderRepository(conn)
		deps.Orders = repo
		deps.Plans = repo
	} else {
		log.Warn().Msg("DATABASE_URL not set; /orders and /plans are disabled")
	}

	source, closeSource, err := bootstrap.DistanceSource(ctx, cfg, conn)
	if err != nil {
		log.Fatal().Err(err).Msg("distance source")
	}
	defer closeSource()
	deps.Source = source

	// Timeouts are tuned for cold-cache route planning (external API latency).
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("addr", srv.Addr).Msg("server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("serve")
	}
	log.Info().Msg("server stopped")
}
