package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gestorpos/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test_jwt_secret_32_chars_minimum!"

type fakeSesiones struct {
	activas map[string]string
}

func (f *fakeSesiones) Guardar(_ context.Context, usuarioID, sesionID string, _ time.Duration) error {
	f.activas[usuarioID] = sesionID
	return nil
}

func (f *fakeSesiones) Activa(_ context.Context, usuarioID string) (string, error) {
	return f.activas[usuarioID], nil
}

func (f *fakeSesiones) Cerrar(_ context.Context, usuarioID string) error {
	delete(f.activas, usuarioID)
	return nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, tipo, sid, rol string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id":   "u1",
		"username":  "cajero1",
		"rol":       rol,
		"tienda_id": "t1",
		"sid":       sid,
		"typ":       tipo,
		"exp":       time.Now().Add(time.Hour).Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func protectedRouter(sesiones *fakeSesiones, roles ...string) *gin.Engine {
	r := gin.New()
	var chain []gin.HandlerFunc
	if sesiones != nil {
		chain = append(chain, middleware.JWTAuth(secret, sesiones))
	} else {
		chain = append(chain, middleware.JWTAuth(secret, nil))
	}
	if len(roles) > 0 {
		chain = append(chain, middleware.RequireRole(roles...))
	}
	chain = append(chain, func(c *gin.Context) {
		c.String(http.StatusOK, middleware.GetClaims(c).TiendaID)
	})
	r.GET("/p", chain...)
	return r
}

func doGet(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	sesiones := &fakeSesiones{activas: map[string]string{"u1": "s1"}}
	r := protectedRouter(sesiones)

	w := doGet(r, signToken(t, "access", "s1", "cajero"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "t1", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, doGet(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "basura").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, signToken(t, "refresh", "s1", "cajero")).Code)

	// A newer login replaced the session.
	assert.Equal(t, http.StatusUnauthorized, doGet(r, signToken(t, "access", "s0", "cajero")).Code)

	require.NoError(t, sesiones.Cerrar(context.Background(), "u1"))
	assert.Equal(t, http.StatusUnauthorized, doGet(r, signToken(t, "access", "s1", "cajero")).Code)
}

func TestJWTAuth_SinStoreDeSesiones(t *testing.T) {
	r := protectedRouter(nil)
	assert.Equal(t, http.StatusOK, doGet(r, signToken(t, "access", "cualquiera", "cajero")).Code)
}

func TestRequireRole(t *testing.T) {
	sesiones := &fakeSesiones{activas: map[string]string{"u1": "s1"}}
	r := protectedRouter(sesiones, "administrador")

	assert.Equal(t, http.StatusForbidden, doGet(r, signToken(t, "access", "s1", "cajero")).Code)
	assert.Equal(t, http.StatusOK, doGet(r, signToken(t, "access", "s1", "administrador")).Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(middleware.RequestIDKey)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.NotEmpty(t, w.Body.String())
	assert.Equal(t, w.Body.String(), w.Header().Get(middleware.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
}

func TestErrorHandler_EscribeSoloSiNadieRespondio(t *testing.T) {
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.GET("/silencio", func(c *gin.Context) { _ = c.Error(assert.AnError) })
	r.GET("/escrito", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
		c.JSON(http.StatusConflict, gin.H{"detail": "conflicto"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/silencio", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/escrito", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(middleware.Recovery())
	r.GET("/panic", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestLoginRateLimiter_SinRedisDejaPasar(t *testing.T) {
	r := gin.New()
	r.POST("/login", middleware.LoginRateLimiter(nil, 1, time.Minute), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
}

func TestCORS_OrigenPermitido(t *testing.T) {
	r := gin.New()
	r.Use(middleware.CORS([]string{"http://localhost:5173"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
