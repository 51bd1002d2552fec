package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueCuentaCorriente = "jobs:cuenta_corriente"

	JobCargoCuenta = "cargo_cuenta"
)

var errSinRedis = errors.New("redis no configurado")

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// JobHandler processes the payload of one job type.
type JobHandler interface {
	Process(ctx context.Context, raw json.RawMessage)
}

// WorkerHandlers maps job types to their handlers. It is built in the
// composition root so handlers get full access to services and repositories.
type WorkerHandlers map[string]JobHandler

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueCargoCuenta asks the pool to apply a pending store-credit charge.
func (d *Dispatcher) EnqueueCargoCuenta(ctx context.Context, payload CargoJobPayload) error {
	return d.enqueue(ctx, QueueCuentaCorriente, JobCargoCuenta, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	if d == nil || d.rdb == nil {
		return errSinRedis
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming the job queues.
// Each goroutine blocks on BRPOP while idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers WorkerHandlers, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

const (
	popBackoffMin = 100 * time.Millisecond
	popBackoffMax = 5 * time.Second
)

// nextPopBackoff doubles the wait after a failed BRPOP, capped at popBackoffMax.
func nextPopBackoff(prev time.Duration) time.Duration {
	if prev <= 0 {
		return popBackoffMin
	}
	if next := prev * 2; next < popBackoffMax {
		return next
	}
	return popBackoffMax
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers WorkerHandlers, id int) {
	queues := []string{QueueCuentaCorriente}
	var espera time.Duration
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
		}

		// Blocking pop, waits up to 5s then loops to check ctx
		result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			// Redis unreachable: BRPOP fails at once, so wait before the next try.
			espera = nextPopBackoff(espera)
			log.Warn().Err(err).Int("worker", id).Dur("espera", espera).Msg("BRPOP failed")
			select {
			case <-ctx.Done():
			case <-time.After(espera):
			}
			continue
		}
		espera = 0
		if len(result) < 2 {
			continue
		}
		processJob(ctx, handlers, result[0], result[1])
	}
}

func processJob(ctx context.Context, handlers WorkerHandlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	h, ok := handlers[job.Type]
	if !ok {
		log.Warn().Str("type", job.Type).Str("queue", queue).Msg("no handler for job type")
		return
	}
	log.Debug().Str("type", job.Type).Str("queue", queue).Msg("processing job")
	h.Process(ctx, job.Payload)
}
