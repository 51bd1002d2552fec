package handler

import (
	"net/http"

	"gestorpos/internal/apierror"
	"gestorpos/internal/dto"
	"gestorpos/internal/service"
	"gestorpos/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// CuentasHandler exposes the outbox of store-credit charges so a supervisor
// can inspect charges that failed and push them back into the retry cycle.
type CuentasHandler struct {
	svc service.CuentaService
	rdb *redis.Client
}

func NewCuentasHandler(svc service.CuentaService, rdb *redis.Client) *CuentasHandler {
	return &CuentasHandler{svc: svc, rdb: rdb}
}

// ListarCargos godoc
// @Summary      Listar cargos a cuenta corriente
// @Tags         cuentas
// @Produce      json
// @Security     BearerAuth
// @Param        estado query string false "pendiente | aplicado | descartado | error"
// @Success      200  {array} dto.CargoCuentaResponse
// @Router       /v1/cuentas/cargos [get]
func (h *CuentasHandler) ListarCargos(c *gin.Context) {
	tiendaID, ok := tienda(c)
	if !ok {
		return
	}
	var filter dto.CargoFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListarCargos(c.Request.Context(), tiendaID, filter.Estado)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ReintentarCargo godoc
// @Summary      Reintentar cargo en error
// @Tags         cuentas
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "UUID del cargo"
// @Success      200  {object} dto.CargoCuentaResponse
// @Failure      409  {object} apierror.BusinessRuleError "cargo_no_reintentable"
// @Router       /v1/cuentas/cargos/{id}/reintentar [post]
func (h *CuentasHandler) ReintentarCargo(c *gin.Context) {
	tiendaID, ok := tienda(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ReintentarCargo(c.Request.Context(), tiendaID, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DLQ godoc
// @Summary      Cargos en la dead letter queue
// @Description  Ultimas 100 entradas de la tienda; los cargos siguen en estado error hasta reintentarlos.
// @Tags         cuentas
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array} worker.DLQEntry
// @Router       /v1/cuentas/cargos/dlq [get]
func (h *CuentasHandler) DLQ(c *gin.Context) {
	tiendaID, ok := tienda(c)
	if !ok {
		return
	}
	if h.rdb == nil {
		c.JSON(http.StatusServiceUnavailable, apierror.New("Redis no disponible"))
		return
	}
	entries, err := worker.ReadDLQ(c.Request.Context(), h.rdb, 100)
	if err != nil {
		respondError(c, apierror.Internal("leer dlq", err))
		return
	}
	out := make([]worker.DLQEntry, 0, len(entries))
	for _, e := range entries {
		if e.TiendaID == tiendaID.String() {
			out = append(out, e)
		}
	}
	c.JSON(http.StatusOK, out)
}
