package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/config"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/export"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/ledger"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/repository"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/services"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/pg"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := config.Load(config.EnvPathFromArgs(os.Args)); err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	cfg := config.Get()
	if cfg.LogEnv == "production" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	policy, err := ledger.ParseDivisorPolicy(cfg.InterestDivisorPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid interest divisor policy")
	}

	// the feed only reads, so it never opens the write pool
	readDB, err := pg.Create(cfg.PostgresRead(), false)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed connecting to pg")
	}
	db := pg.New(readDB, readDB)
	defer db.Close()

	summaryService := services.NewSummaryService(
		repository.NewTransactionRepository(db),
		repository.NewMemberRepository(db),
		policy,
	)
	handler := export.NewHandler(summaryService, services.NewHealthService(db, nil), cfg.DefaultViewingUserID)
	router := export.SetupRouter(handler)

	srv := &http.Server{
		Addr:         cfg.ReporterListenAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Export feed started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down export feed...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
}
