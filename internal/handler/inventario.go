package handler

import (
	"net/http"

	"gestorpos/internal/dto"
	"gestorpos/internal/model"
	"gestorpos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InventarioHandler struct{ svc service.InventarioService }

func NewInventarioHandler(svc service.InventarioService) *InventarioHandler {
	return &InventarioHandler{svc: svc}
}

// Entrada godoc
// @Summary      Registrar entrada de stock
// @Tags         inventario
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.MovimientoStockRequest true "Cantidad a ingresar"
// @Success      201  {object} dto.MovimientoStockResponse
// @Failure      403  {object} apierror.APIError
// @Failure      404  {object} apierror.BusinessRuleError
// @Router       /v1/inventario/entrada [post]
func (h *InventarioHandler) Entrada(c *gin.Context) { h.registrar(c, model.MovimientoEntrada) }

// Salida godoc
// @Summary      Registrar salida de stock
// @Description  Rechaza la salida si el stock resultante seria negativo (409 saldo_negativo con disponible).
// @Tags         inventario
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.MovimientoStockRequest true "Cantidad a retirar"
// @Success      201  {object} dto.MovimientoStockResponse
// @Failure      409  {object} apierror.BusinessRuleError
// @Router       /v1/inventario/salida [post]
func (h *InventarioHandler) Salida(c *gin.Context) { h.registrar(c, model.MovimientoSalida) }

// Ajuste godoc
// @Summary      Ajustar stock a un valor absoluto
// @Description  cantidad es el nuevo saldo; el movimiento registra la diferencia con el saldo actual.
// @Tags         inventario
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.MovimientoStockRequest true "Nuevo saldo"
// @Success      201  {object} dto.MovimientoStockResponse
// @Router       /v1/inventario/ajuste [post]
func (h *InventarioHandler) Ajuste(c *gin.Context) { h.registrar(c, model.MovimientoAjuste) }

func (h *InventarioHandler) registrar(c *gin.Context, tipo string) {
	tiendaID, usuarioID, ok := actor(c)
	if !ok {
		return
	}
	var req dto.MovimientoStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AplicarMovimiento(c.Request.Context(), service.MovimientoInput{
		TiendaID:   tiendaID,
		UsuarioID:  usuarioID,
		ProductoID: uuid.MustParse(req.ProductoID),
		Tipo:       tipo,
		Cantidad:   req.Cantidad,
		Motivo:     req.Motivo,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListarMovimientos GET /v1/inventario/movimientos
func (h *InventarioHandler) ListarMovimientos(c *gin.Context) {
	tiendaID, ok := tienda(c)
	if !ok {
		return
	}
	var filter dto.MovimientoStockFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListarMovimientos(c.Request.Context(), tiendaID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ObtenerAlertas GET /v1/inventario/alertas
func (h *InventarioHandler) ObtenerAlertas(c *gin.Context) {
	tiendaID, ok := tienda(c)
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerAlertas(c.Request.Context(), tiendaID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// StockProducto godoc
// @Summary      Stock de un producto
// @Description  Devuelve el saldo guardado junto a la suma de todos sus movimientos.
// @Tags         inventario
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del producto"
// @Success      200  {object} dto.StockProductoResponse
// @Router       /v1/inventario/productos/{id} [get]
func (h *InventarioHandler) StockProducto(c *gin.Context) {
	tiendaID, ok := tienda(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Conciliar(c.Request.Context(), tiendaID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
