package worker

// retry_cron.go
// Background goroutine that periodically re-attempts store-credit charges
// stuck in estado='pendiente' whose proximo_intento is in the past (or unset,
// when the post-sale attempt failed before any retry was scheduled).

import (
	"context"
	"time"

	"gestorpos/internal/repository"

	"github.com/rs/zerolog/log"
)

const retryBatchSize = 20

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	CargoRepo repository.CargoCuentaRepository
	Worker    *CargoWorker
	Interval  time.Duration
}

// StartRetryCron launches a background goroutine that ticks every Interval,
// queries due charges, and re-applies them through the CargoWorker.
// It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg, time.Now())
			}
		}
	}()
}

// processRetries returns how many charges were applied.
func processRetries(ctx context.Context, cfg RetryCronConfig, now time.Time) int {
	cargos, err := cfg.CargoRepo.ListVencidos(ctx, now, retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending charges")
		return 0
	}
	if len(cargos) == 0 {
		return 0
	}

	log.Info().Int("count", len(cargos)).Msg("retry_cron: processing pending charges")

	aplicados := 0
	for _, c := range cargos {
		if ctx.Err() != nil {
			return aplicados
		}
		if cfg.Worker.Aplicar(ctx, c.ID) {
			aplicados++
		}
	}
	return aplicados
}
