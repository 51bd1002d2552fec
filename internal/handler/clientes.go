package handler

import (
	"net/http"

	"gestorpos/internal/dto"
	"gestorpos/internal/service"

	"github.com/gin-gonic/gin"
)

type ClientesHandler struct {
	svc     service.ClienteService
	cuentas service.CuentaService
}

func NewClientesHandler(svc service.ClienteService, cuentas service.CuentaService) *ClientesHandler {
	return &ClientesHandler{svc: svc, cuentas: cuentas}
}

// Crear POST /v1/clientes
func (h *ClientesHandler) Crear(c *gin.Context) {
	tiendaID, ok := tienda(c)
	if !ok {
		return
	}
	var req dto.CrearClienteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), tiendaID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar GET /v1/clientes
func (h *ClientesHandler) Listar(c *gin.Context) {
	tiendaID, ok := tienda(c)
	if !ok {
		return
	}
	var filter dto.ClienteFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), tiendaID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ObtenerPorID GET /v1/clientes/:id
func (h *ClientesHandler) ObtenerPorID(c *gin.Context) {
	tiendaID, ok := tienda(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), tiendaID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Actualizar PUT /v1/clientes/:id
func (h *ClientesHandler) Actualizar(c *gin.Context) {
	tiendaID, ok := tienda(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarClienteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), tiendaID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Eliminar DELETE /v1/clientes/:id
func (h *ClientesHandler) Eliminar(c *gin.Context) {
	tiendaID, ok := tienda(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), tiendaID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Cuenta godoc
// @Summary      Cuenta corriente del cliente
// @Tags         clientes
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del cliente"
// @Success      200  {object} dto.CuentaResponse
// @Failure      409  {object} apierror.BusinessRuleError "cuenta_inexistente"
// @Router       /v1/clientes/{id}/cuenta [get]
func (h *ClientesHandler) Cuenta(c *gin.Context) {
	tiendaID, ok := tienda(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.cuentas.ObtenerCuenta(c.Request.Context(), tiendaID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Movimientos godoc
// @Summary      Historial de la cuenta corriente
// @Tags         clientes
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string true  "UUID del cliente"
// @Param        page  query int    false "Pagina (default 1)"
// @Param        limit query int    false "Registros por pagina (default 50)"
// @Success      200  {object} dto.MovimientoCuentaListResponse
// @Router       /v1/clientes/{id}/cuenta/movimientos [get]
func (h *ClientesHandler) Movimientos(c *gin.Context) {
	tiendaID, ok := tienda(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var pag dto.PaginaFilter
	if !bindQuery(c, &pag) {
		return
	}
	movs, total, err := h.cuentas.ListarMovimientos(c.Request.Context(), tiendaID, id, pag.Page, pag.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MovimientoCuentaListResponse{Data: movs, Total: total, Page: pag.Page, Limit: pag.Limit})
}

// Saldar godoc
// @Summary      Saldar cuenta corriente
// @Description  Lleva el saldo a cero y completa las ventas a cuenta pendientes del cliente.
// @Tags         clientes
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del cliente"
// @Success      200  {object} dto.SaldarCuentaResponse
// @Failure      409  {object} apierror.BusinessRuleError "cuenta_inexistente"
// @Router       /v1/clientes/{id}/cuenta/saldar [post]
func (h *ClientesHandler) Saldar(c *gin.Context) {
	tiendaID, usuarioID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.cuentas.Saldar(c.Request.Context(), tiendaID, usuarioID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
