package worker

import (
	"context"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestNextPopBackoff(t *testing.T) {
	assert.Equal(t, popBackoffMin, nextPopBackoff(0))
	assert.Equal(t, 2*popBackoffMin, nextPopBackoff(popBackoffMin))
	assert.Equal(t, popBackoffMax, nextPopBackoff(4*time.Second))
	assert.Equal(t, popBackoffMax, nextPopBackoff(popBackoffMax))
}

// contadorHook counts commands sent through the client.
type contadorHook struct{ n atomic.Int64 }

func (h *contadorHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *contadorHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		h.n.Add(1)
		return next(ctx, cmd)
	}
}

func (h *contadorHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRunWorker_RedisCaidoEsperaEntreIntentos(t *testing.T) {
	// Grab a free port and close it so every dial is refused.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("no tcp listener: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	rdb := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
	defer rdb.Close()
	hook := &contadorHook{}
	rdb.AddHook(hook)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		runWorker(ctx, rdb, WorkerHandlers{}, 0)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
	// Backoff of 100ms, 200ms, 400ms allows about four attempts in 500ms.
	assert.LessOrEqual(t, hook.n.Load(), int64(6))
	assert.GreaterOrEqual(t, hook.n.Load(), int64(1))
}
