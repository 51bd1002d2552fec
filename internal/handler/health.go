package handler

import (
	"context"
	"net/http"
	"time"

	"gestorpos/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type dependencia struct {
	Estado     string `json:"estado"`
	LatenciaMs int64  `json:"latencia_ms"`
}

func chequear(ping func() error) dependencia {
	start := time.Now()
	d := dependencia{Estado: "ok"}
	if err := ping(); err != nil {
		d.Estado = "caido"
	}
	d.LatenciaMs = time.Since(start).Milliseconds()
	return d
}

// Health pings Postgres and Redis. Any failing dependency turns the answer
// into a 503 so load balancers take the instance out of rotation.
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		postgres := chequear(func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		})
		cache := chequear(func() error { return rdb.Ping(ctx).Err() })

		// Charges that exhausted their retries need a supervisor.
		var pendientesDLQ int64
		if cache.Estado == "ok" {
			pendientesDLQ, _ = worker.DLQLength(ctx, rdb)
		}

		ok := postgres.Estado == "ok" && cache.Estado == "ok"
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"ok":         ok,
			"db":         postgres,
			"redis":      cache,
			"cargos_dlq": pendientesDLQ,
		})
	}
}
