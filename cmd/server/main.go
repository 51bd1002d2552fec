package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gestorpos/internal/config"
	"gestorpos/internal/infra"
	"gestorpos/internal/repository"
	"gestorpos/internal/router"
	"gestorpos/internal/service"
	"gestorpos/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: console in development, JSON in production
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	if len(cfg.JWTSecret) < 32 {
		log.Fatal().Msg("JWT_SECRET must be at least 32 characters")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Background workers apply store-credit charges left pending by sales.
	// They are wired here (composition root) with their own service instance.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cargoRepo := repository.NewCargoCuentaRepository(db)
	cuentaSvc := service.NewCuentaService(
		repository.NewCuentaRepository(db),
		repository.NewClienteRepository(db),
		cargoRepo,
		repository.NewVentaRepository(db),
	)
	retryBase := time.Duration(cfg.CargoRetrySegundos) * time.Second
	cargoWorker := worker.NewCargoWorker(cuentaSvc, cargoRepo, rdb, cfg.CargoMaxIntentos, retryBase)

	worker.StartWorkerPool(ctx, rdb, worker.WorkerHandlers{worker.JobCargoCuenta: cargoWorker}, cfg.WorkerPoolSize)
	worker.StartRetryCron(ctx, worker.RetryCronConfig{
		CargoRepo: cargoRepo,
		Worker:    cargoWorker,
		Interval:  retryBase,
	})

	r := router.New(cfg, db, rdb, worker.NewDispatcher(rdb))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Str("negocio", cfg.BusinessName).Msgf("gestorpos backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	if err := rdb.Close(); err != nil {
		log.Warn().Err(err).Msg("redis close")
	}
	log.Info().Msg("server exited")
}
