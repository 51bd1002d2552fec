package worker

// cargo_worker.go
// Applies store-credit charges written to the cargos_cuenta outbox by sales.
// A failed attempt is recorded on the row with exponential backoff; after
// maxIntentos the charge moves to estado "error" and to the DLQ.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gestorpos/internal/apierror"
	"gestorpos/internal/model"
	"gestorpos/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CargoJobPayload is the job envelope sent to QueueCuentaCorriente.
type CargoJobPayload struct {
	CargoID string `json:"cargo_id"`
}

// CargoApplier applies one outbox charge. Satisfied by service.CuentaService.
type CargoApplier interface {
	AplicarCargoPendiente(ctx context.Context, id uuid.UUID) error
}

// CargoWorker processes cargo_cuenta jobs and is also driven by the retry cron.
type CargoWorker struct {
	applier     CargoApplier
	repo        repository.CargoCuentaRepository
	rdb         *redis.Client
	maxIntentos int
	espera      time.Duration
	now         func() time.Time
}

// NewCargoWorker wires the charge applier. espera is the base backoff delay.
func NewCargoWorker(applier CargoApplier, repo repository.CargoCuentaRepository, rdb *redis.Client, maxIntentos int, espera time.Duration) *CargoWorker {
	if maxIntentos < 1 {
		maxIntentos = 1
	}
	return &CargoWorker{
		applier:     applier,
		repo:        repo,
		rdb:         rdb,
		maxIntentos: maxIntentos,
		espera:      espera,
		now:         time.Now,
	}
}

// Process handles a job popped from QueueCuentaCorriente.
func (w *CargoWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload CargoJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("cargo_worker: invalid payload")
		return
	}
	id, err := uuid.Parse(payload.CargoID)
	if err != nil {
		log.Error().Str("cargo_id", payload.CargoID).Msg("cargo_worker: invalid cargo_id")
		return
	}
	w.Aplicar(ctx, id)
}

// Aplicar attempts one charge and records the outcome. It returns true on success.
func (w *CargoWorker) Aplicar(ctx context.Context, id uuid.UUID) bool {
	err := w.applier.AplicarCargoPendiente(ctx, id)
	if err == nil {
		log.Debug().Str("cargo_id", id.String()).Msg("cargo_worker: cargo aplicado")
		return true
	}
	if apierror.IsRule(err, apierror.RuleNoEncontrado) {
		log.Warn().Str("cargo_id", id.String()).Msg("cargo_worker: cargo inexistente, descartando job")
		return false
	}
	if ferr := w.registrarFallo(ctx, id, err); ferr != nil {
		log.Error().Err(ferr).Str("cargo_id", id.String()).Msg("cargo_worker: no se pudo registrar el fallo")
	}
	return false
}

func (w *CargoWorker) registrarFallo(ctx context.Context, id uuid.UUID, cause error) error {
	return runTx(ctx, w.repo.DB(), func(tx *gorm.DB) error {
		cargo, err := w.repo.LockByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if cargo.Estado != model.CargoPendiente {
			return nil
		}

		cargo.Intentos++
		msg := cause.Error()
		cargo.UltimoError = &msg

		if cargo.Intentos >= w.maxIntentos {
			cargo.Estado = model.CargoError
			cargo.ProximoIntento = nil
			log.Error().
				Str("cargo_id", cargo.ID.String()).
				Str("venta_id", cargo.VentaID.String()).
				Int("intentos", cargo.Intentos).
				Msg("cargo_worker: max retries exceeded, moving to error/DLQ")

			sendCargoToDLQ(ctx, w.rdb, cargo, fmt.Sprintf("max retries (%d) exceeded: %s", w.maxIntentos, msg))
		} else {
			next := w.now().Add(computeRetryBackoff(w.espera, cargo.Intentos))
			cargo.ProximoIntento = &next
			log.Warn().
				Str("cargo_id", cargo.ID.String()).
				Int("intentos", cargo.Intentos).
				Time("proximo_intento", next).
				Msg("cargo_worker: apply failed, scheduled next attempt")
		}
		return w.repo.Save(ctx, tx, cargo)
	})
}

// computeRetryBackoff doubles the base delay per attempt, capped at 64x.
func computeRetryBackoff(base time.Duration, intentos int) time.Duration {
	if intentos < 1 {
		intentos = 1
	}
	if intentos > 7 {
		intentos = 7
	}
	return base * time.Duration(1<<(intentos-1))
}

func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}
