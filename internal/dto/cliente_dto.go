package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearClienteRequest struct {
	Nombre   string  `json:"nombre"   validate:"required,min=2,max=120"`
	Email    string  `json:"email"    validate:"required,email"`
	Telefono *string `json:"telefono" validate:"omitempty,max=30"`
}

type ActualizarClienteRequest struct {
	Nombre   *string `json:"nombre"   validate:"omitempty,min=2,max=120"`
	Email    *string `json:"email"    validate:"omitempty,email"`
	Telefono *string `json:"telefono" validate:"omitempty,max=30"`
}

type ClienteFilter struct {
	Busqueda string `form:"q"`
	Page     int    `form:"page,default=1"`
	Limit    int    `form:"limit,default=50"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ClienteResponse struct {
	ID       string           `json:"id"`
	Nombre   string           `json:"nombre"`
	Email    string           `json:"email"`
	Telefono *string          `json:"telefono"`
	Saldo    *decimal.Decimal `json:"saldo,omitempty"`
}

type ClienteListResponse struct {
	Data  []ClienteResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

type CuentaResponse struct {
	ID          string          `json:"id"`
	ClienteID   string          `json:"cliente_id"`
	Saldo       decimal.Decimal `json:"saldo"`
	Descripcion string          `json:"descripcion"`
	Estado      string          `json:"estado"`
	UpdatedAt   string          `json:"updated_at"`
}

// SaldarCuentaResponse adds how many pending sales the settlement closed out.
type SaldarCuentaResponse struct {
	Cuenta            CuentaResponse  `json:"cuenta"`
	MontoSaldado      decimal.Decimal `json:"monto_saldado"`
	VentasCompletadas int64           `json:"ventas_completadas"`
}

type MovimientoCuentaResponse struct {
	ID            string          `json:"id"`
	Tipo          string          `json:"tipo"`
	Monto         decimal.Decimal `json:"monto"`
	SaldoAnterior decimal.Decimal `json:"saldo_anterior"`
	SaldoNuevo    decimal.Decimal `json:"saldo_nuevo"`
	Descripcion   string          `json:"descripcion"`
	VentaID       *string         `json:"venta_id"`
	CreatedAt     string          `json:"created_at"`
}

type CargoCuentaResponse struct {
	ID             string          `json:"id"`
	VentaID        string          `json:"venta_id"`
	ClienteID      string          `json:"cliente_id"`
	Monto          decimal.Decimal `json:"monto"`
	Estado         string          `json:"estado"`
	Intentos       int             `json:"intentos"`
	ProximoIntento *string         `json:"proximo_intento"`
	UltimoError    *string         `json:"ultimo_error"`
}

type MovimientoCuentaListResponse struct {
	Data  []MovimientoCuentaResponse `json:"data"`
	Total int64                      `json:"total"`
	Page  int                        `json:"page"`
	Limit int                        `json:"limit"`
}

// PaginaFilter is the plain page/limit query of list endpoints without other filters.
type PaginaFilter struct {
	Page  int `form:"page,default=1"   validate:"min=1"`
	Limit int `form:"limit,default=50" validate:"min=1,max=200"`
}

// CargoFilter is bound from query string of GET /v1/cuentas/cargos.
type CargoFilter struct {
	Estado string `form:"estado" validate:"omitempty,oneof=pendiente aplicado descartado error"`
}
