package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"gestorpos/internal/dto"
	"gestorpos/internal/service"

	"github.com/gin-gonic/gin"
)

type VentasHandler struct{ svc service.VentaService }

func NewVentasHandler(svc service.VentaService) *VentasHandler { return &VentasHandler{svc: svc} }

// CrearVenta godoc
// @Summary      Registrar una nueva venta
// @Description  Valida stock de todos los items, descuenta stock y registra la venta en una transaccion.
// @Description  Las ventas a cuenta corriente quedan pendiente_cuenta y cargan el total en la cuenta del cliente.
// @Tags         ventas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearVentaRequest true "Detalle de la venta"
// @Success      201  {object} dto.VentaResponse
// @Failure      403  {object} apierror.APIError "cliente de otra tienda"
// @Failure      422  {object} apierror.ValidationError "items invalidos o stock insuficiente por item"
// @Router       /v1/ventas [post]
func (h *VentasHandler) CrearVenta(c *gin.Context) {
	tiendaID, usuarioID, ok := actor(c)
	if !ok {
		return
	}
	var req dto.CrearVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.CrearVenta(c.Request.Context(), tiendaID, usuarioID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// AnularVenta godoc
// @Summary      Anular venta
// @Description  Devuelve el stock de cada item y revierte el cargo en cuenta corriente, si lo hubo.
// @Tags         ventas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string                 true "UUID de la venta"
// @Param        body body     dto.AnularVentaRequest false "Motivo de anulacion (opcional)"
// @Success      200  {object} dto.VentaResponse
// @Failure      409  {object} apierror.BusinessRuleError "venta_anulada"
// @Router       /v1/ventas/{id}/anular [post]
func (h *VentasHandler) AnularVenta(c *gin.Context) {
	tiendaID, usuarioID, ok := actor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.AnularVentaRequest
	if c.Request.ContentLength != 0 && !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AnularVenta(c.Request.Context(), tiendaID, usuarioID, id, req.Motivo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ObtenerVenta GET /v1/ventas/:id
func (h *VentasHandler) ObtenerVenta(c *gin.Context) {
	tiendaID, ok := tienda(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerVenta(c.Request.Context(), tiendaID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListarVentas godoc
// @Summary      Listar ventas
// @Description  Retorna lista paginada de ventas filtrada por rango de fechas, estado y cliente.
// @Tags         ventas
// @Produce      json
// @Security     BearerAuth
// @Param        desde      query string false "Fecha YYYY-MM-DD (default: hoy)"
// @Param        hasta      query string false "Fecha YYYY-MM-DD inclusive (default: desde)"
// @Param        estado     query string false "completada | pendiente_cuenta | anulada | all"
// @Param        cliente_id query string false "UUID del cliente"
// @Param        page       query int    false "Pagina (default 1)"
// @Param        limit      query int    false "Registros por pagina (default 50)"
// @Success      200    {object} dto.VentaListResponse
// @Failure      422    {object} apierror.ValidationError
// @Router       /v1/ventas [get]
func (h *VentasHandler) ListarVentas(c *gin.Context) {
	tiendaID, ok := tienda(c)
	if !ok {
		return
	}
	var filter dto.VentaFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListarVentas(c.Request.Context(), tiendaID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Comprobante godoc
// @Summary      Descargar comprobante PDF
// @Tags         ventas
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id path string true "UUID de la venta"
// @Success      200  {file} binary
// @Router       /v1/ventas/{id}/comprobante [get]
func (h *VentasHandler) Comprobante(c *gin.Context) {
	tiendaID, ok := tienda(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	pdf, numero, err := h.svc.ComprobantePDF(c.Request.Context(), tiendaID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.DataFromReader(http.StatusOK, int64(len(pdf)), "application/pdf", bytes.NewReader(pdf), map[string]string{
		"Content-Disposition": fmt.Sprintf(`attachment; filename="venta-%06d.pdf"`, numero),
	})
}

// ResumenVentas godoc
// @Summary      Resumen de ventas por periodo
// @Description  Cantidad y total por metodo de pago (sin anuladas), cantidad de anuladas y total pendiente en cuenta corriente.
// @Tags         reportes
// @Produce      json
// @Security     BearerAuth
// @Param        desde query string false "Fecha YYYY-MM-DD (default: hoy)"
// @Param        hasta query string false "Fecha YYYY-MM-DD inclusive (default: desde)"
// @Success      200  {object} dto.ResumenVentasResponse
// @Router       /v1/reportes/ventas [get]
func (h *VentasHandler) ResumenVentas(c *gin.Context) {
	tiendaID, ok := tienda(c)
	if !ok {
		return
	}
	var filter dto.ReporteFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Resumen(c.Request.Context(), tiendaID, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
