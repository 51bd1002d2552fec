package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gestorpos/internal/apierror"
	"gestorpos/internal/dto"
	"gestorpos/internal/handler"
	"gestorpos/internal/middleware"
	"gestorpos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	testTienda  = uuid.New()
	testUsuario = uuid.New()
)

// fakeVentas implements only the methods each test exercises; calling any
// other method panics on the nil embedded interface.
type fakeVentas struct {
	service.VentaService
	crear       func(tiendaID, usuarioID uuid.UUID, req dto.CrearVentaRequest) (*dto.VentaResponse, error)
	comprobante func(tiendaID, id uuid.UUID) ([]byte, int64, error)
	anular      func(id uuid.UUID, motivo string) (*dto.VentaResponse, error)
}

func (f *fakeVentas) AnularVenta(_ context.Context, _, _, id uuid.UUID, motivo string) (*dto.VentaResponse, error) {
	return f.anular(id, motivo)
}

func (f *fakeVentas) CrearVenta(_ context.Context, tiendaID, usuarioID uuid.UUID, req dto.CrearVentaRequest) (*dto.VentaResponse, error) {
	return f.crear(tiendaID, usuarioID, req)
}

func (f *fakeVentas) ComprobantePDF(_ context.Context, tiendaID, id uuid.UUID) ([]byte, int64, error) {
	return f.comprobante(tiendaID, id)
}

type fakeInventario struct {
	service.InventarioService
	ultimo service.MovimientoInput
}

func (f *fakeInventario) AplicarMovimiento(_ context.Context, in service.MovimientoInput) (*dto.MovimientoStockResponse, error) {
	f.ultimo = in
	if in.Tipo == "salida" {
		return nil, apierror.StockInsuficiente(2)
	}
	return &dto.MovimientoStockResponse{ProductoID: in.ProductoID.String(), Tipo: in.Tipo, Cantidad: in.Cantidad}, nil
}

func withClaims(c *gin.Context) {
	c.Set(middleware.ClaimsKey, &middleware.JWTClaims{
		UserID:   testUsuario.String(),
		TiendaID: testTienda.String(),
		Rol:      "cajero",
	})
	c.Next()
}

func newEngine(auth bool) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	if auth {
		r.Use(withClaims)
	}
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestCrearVenta_PasaTiendaYUsuarioDelToken(t *testing.T) {
	svc := &fakeVentas{crear: func(tiendaID, usuarioID uuid.UUID, req dto.CrearVentaRequest) (*dto.VentaResponse, error) {
		assert.Equal(t, testTienda, tiendaID)
		assert.Equal(t, testUsuario, usuarioID)
		assert.True(t, req.Descuento.Equal(decimal.NewFromInt(5)))
		return &dto.VentaResponse{Numero: 1, Estado: "completada"}, nil
	}}
	r := newEngine(true)
	r.POST("/v1/ventas", handler.NewVentasHandler(svc).CrearVenta)

	w := do(r, http.MethodPost, "/v1/ventas",
		`{"items":[{"producto_id":"`+uuid.NewString()+`","cantidad":2}],"descuento":"5","metodo_pago":"efectivo"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["numero"])
}

func TestCrearVenta_Validacion(t *testing.T) {
	r := newEngine(true)
	r.POST("/v1/ventas", handler.NewVentasHandler(&fakeVentas{}).CrearVenta)

	w := do(r, http.MethodPost, "/v1/ventas", `{"items":[],"metodo_pago":"cheque"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	fields := decode(t, w)["fields"].(map[string]any)
	assert.Equal(t, "min", fields["items"])
	assert.Equal(t, "oneof", fields["metodo_pago"])

	w = do(r, http.MethodPost, "/v1/ventas", `{"items":[{"producto_id":"x","cantidad":0}],"metodo_pago":"pix"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	fields = decode(t, w)["fields"].(map[string]any)
	assert.Equal(t, "required", fields["items[0].cantidad"])

	w = do(r, http.MethodPost, "/v1/ventas", `{"items":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCrearVenta_ErroresPorItem(t *testing.T) {
	svc := &fakeVentas{crear: func(uuid.UUID, uuid.UUID, dto.CrearVentaRequest) (*dto.VentaResponse, error) {
		return nil, &apierror.ItemsError{Lines: map[int]error{
			0: apierror.StockInsuficiente(17),
			1: apierror.NotFound("producto"),
		}}
	}}
	r := newEngine(true)
	r.POST("/v1/ventas", handler.NewVentasHandler(svc).CrearVenta)

	w := do(r, http.MethodPost, "/v1/ventas",
		`{"items":[{"producto_id":"a","cantidad":20},{"producto_id":"b","cantidad":1}],"metodo_pago":"pix"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	items := decode(t, w)["items"].(map[string]any)
	linea0 := items["0"].(map[string]any)
	assert.Equal(t, "stock_insuficiente", linea0["rule"])
	assert.Equal(t, float64(17), linea0["disponible"])
	assert.Equal(t, "no_encontrado", items["1"].(map[string]any)["rule"])
}

func TestCrearVenta_ErroresDeDominio(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apierror.Ownership("cliente"), http.StatusForbidden},
		{apierror.Business(apierror.RuleVentaAnulada, "venta ya anulada"), http.StatusConflict},
		{apierror.NotFound("venta"), http.StatusNotFound},
		{apierror.Field("descuento", "supera el subtotal"), http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		svc := &fakeVentas{crear: func(uuid.UUID, uuid.UUID, dto.CrearVentaRequest) (*dto.VentaResponse, error) {
			return nil, tc.err
		}}
		r := newEngine(true)
		r.POST("/v1/ventas", handler.NewVentasHandler(svc).CrearVenta)
		w := do(r, http.MethodPost, "/v1/ventas", `{"items":[{"producto_id":"a","cantidad":1}],"metodo_pago":"pix"}`)
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
	}
}

func TestCrearVenta_ErrorInternoNoSeFiltra(t *testing.T) {
	svc := &fakeVentas{crear: func(uuid.UUID, uuid.UUID, dto.CrearVentaRequest) (*dto.VentaResponse, error) {
		return nil, apierror.Internal("crear venta", errors.New("pq: connection refused"))
	}}
	r := newEngine(true)
	r.POST("/v1/ventas", handler.NewVentasHandler(svc).CrearVenta)

	w := do(r, http.MethodPost, "/v1/ventas", `{"items":[{"producto_id":"a","cantidad":1}],"metodo_pago":"pix"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestCrearVenta_SinClaims(t *testing.T) {
	r := newEngine(false)
	r.POST("/v1/ventas", handler.NewVentasHandler(&fakeVentas{}).CrearVenta)

	w := do(r, http.MethodPost, "/v1/ventas", `{}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestComprobante(t *testing.T) {
	ventaID := uuid.New()
	svc := &fakeVentas{comprobante: func(tiendaID, id uuid.UUID) ([]byte, int64, error) {
		assert.Equal(t, ventaID, id)
		return []byte("%PDF-1.3"), 42, nil
	}}
	r := newEngine(true)
	r.GET("/v1/ventas/:id/comprobante", handler.NewVentasHandler(svc).Comprobante)

	w := do(r, http.MethodGet, "/v1/ventas/"+ventaID.String()+"/comprobante", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="venta-000042.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.3", w.Body.String())

	w = do(r, http.MethodGet, "/v1/ventas/no-es-uuid/comprobante", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInventario_TipoPorRuta(t *testing.T) {
	svc := &fakeInventario{}
	h := handler.NewInventarioHandler(svc)
	r := newEngine(true)
	r.POST("/v1/inventario/entrada", h.Entrada)
	r.POST("/v1/inventario/salida", h.Salida)
	r.POST("/v1/inventario/ajuste", h.Ajuste)
	producto := uuid.New()
	body := `{"producto_id":"` + producto.String() + `","cantidad":7}`

	w := do(r, http.MethodPost, "/v1/inventario/ajuste", body)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "ajuste", svc.ultimo.Tipo)
	assert.Equal(t, producto, svc.ultimo.ProductoID)
	assert.Equal(t, testTienda, svc.ultimo.TiendaID)
	assert.Equal(t, testUsuario, svc.ultimo.UsuarioID)

	w = do(r, http.MethodPost, "/v1/inventario/salida", body)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["disponible"])

	w = do(r, http.MethodPost, "/v1/inventario/entrada", `{"producto_id":"x","cantidad":-1}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	fields := decode(t, w)["fields"].(map[string]any)
	assert.Equal(t, "uuid", fields["producto_id"])
	assert.Equal(t, "min", fields["cantidad"])
}

func TestAnularVenta_MotivoOpcional(t *testing.T) {
	var recibido []string
	svc := &fakeVentas{anular: func(id uuid.UUID, motivo string) (*dto.VentaResponse, error) {
		recibido = append(recibido, motivo)
		return &dto.VentaResponse{ID: id.String(), Estado: "anulada"}, nil
	}}
	r := newEngine(true)
	r.POST("/v1/ventas/:id/anular", handler.NewVentasHandler(svc).AnularVenta)
	path := "/v1/ventas/" + uuid.NewString() + "/anular"

	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, path, "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, path, `{}`).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, path, `{"motivo":"devolucion"}`).Code)
	assert.Equal(t, []string{"", "", "devolucion"}, recibido)

	w := do(r, http.MethodPost, path, `{"motivo":"`+strings.Repeat("x", 256)+`"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
