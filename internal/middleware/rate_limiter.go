package middleware

import (
	"net/http"
	"strconv"
	"time"

	"gestorpos/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// LoginRateLimiter allows at most limit login attempts per client IP within
// window. Counters live in Redis (fixed window per key) so every server
// instance shares them. Without Redis, or when Redis fails, requests pass.
func LoginRateLimiter(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := "ratelimit:login:" + c.ClientIP()

		pipe := rdb.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		if _, err := pipe.Exec(ctx); err != nil {
			log.Warn().Err(err).Msg("rate limiter: redis no disponible, se omite el limite")
			c.Next()
			return
		}

		if incr.Val() > int64(limit) {
			retry := window
			if ttl, err := rdb.TTL(ctx, key).Result(); err == nil && ttl > 0 {
				retry = ttl
			}
			c.Header("Retry-After", strconv.Itoa(int(retry.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				apierror.New("Demasiados intentos de inicio de sesion. Intente nuevamente en un minuto"))
			return
		}
		c.Next()
	}
}
