package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"gestorpos/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var errInterno = apierror.New("Error interno del servidor")

// requestLogger returns a logger carrying the request id and, once JWTAuth
// ran, the authenticated user and store.
func requestLogger(c *gin.Context) zerolog.Logger {
	lc := log.With().Str("request_id", c.GetString(RequestIDKey))
	if claims := GetClaims(c); claims != nil {
		lc = lc.Str("usuario_id", claims.UserID).Str("tienda_id", claims.TiendaID)
	}
	return lc.Logger()
}

// ErrorHandler logs the last error a handler attached with c.Error. Handlers
// that attach an error without writing get a generic 500; the cause stays in
// the log.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil {
			return
		}

		l := requestLogger(c)
		ev := l.Error().Err(last.Err).
			Str("method", c.Request.Method).
			Str("route", c.FullPath())
		var se *apierror.SystemError
		if errors.As(last.Err, &se) {
			ev = ev.Str("op", se.Op)
		}
		ev.Msg("request failed")

		if !c.Writer.Written() {
			c.AbortWithStatusJSON(http.StatusInternalServerError, errInterno)
		}
	}
}

// Recovery turns a panic into a 500 and logs the stack.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			l := requestLogger(c)
			l.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")
			c.AbortWithStatusJSON(http.StatusInternalServerError, errInterno)
		}()
		c.Next()
	}
}

// Logger writes one access-log line per request. Server errors log at warn.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := zerolog.InfoLevel
		if status >= http.StatusInternalServerError {
			level = zerolog.WarnLevel
		}
		l := requestLogger(c)
		l.WithLevel(level).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
