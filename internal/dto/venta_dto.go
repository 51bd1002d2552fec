package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// VentaFilter is bound from query string of GET /v1/ventas.
type VentaFilter struct {
	Desde     string `form:"desde"`  // YYYY-MM-DD; empty = today
	Hasta     string `form:"hasta"`  // YYYY-MM-DD inclusive; empty = Desde
	Estado    string `form:"estado"` // completada | pendiente_cuenta | anulada | all
	ClienteID string `form:"cliente_id"`
	Page      int    `form:"page,default=1"`
	Limit     int    `form:"limit,default=50"`
}

type VentaListResponse struct {
	Data  []VentaResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemVentaRequest struct {
	ProductoID string `json:"producto_id" validate:"required"`
	Cantidad   int    `json:"cantidad"    validate:"required,min=1"`
}

type CrearVentaRequest struct {
	ClienteID     *string            `json:"cliente_id"     validate:"omitempty,uuid"`
	Items         []ItemVentaRequest `json:"items"          validate:"required,min=1,dive"`
	Descuento     decimal.Decimal    `json:"descuento"      validate:"min=0"`
	MetodoPago    string             `json:"metodo_pago"    validate:"required,oneof=efectivo pix debito credito cuenta_corriente"`
	MontoRecibido *decimal.Decimal   `json:"monto_recibido"`
	Notas         *string            `json:"notas"          validate:"omitempty,max=1000"`
}

// AnularVentaRequest is optional; an empty body cancels without a reason.
type AnularVentaRequest struct {
	Motivo string `json:"motivo" validate:"omitempty,max=255"`
}

// ReporteFilter is bound from query string of GET /v1/reportes/ventas.
type ReporteFilter struct {
	Desde string `form:"desde"`
	Hasta string `form:"hasta"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemVentaResponse struct {
	ProductoID     string          `json:"producto_id"`
	Producto       string          `json:"producto"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type VentaResponse struct {
	ID              string              `json:"id"`
	Numero          int64               `json:"numero"`
	ClienteID       *string             `json:"cliente_id"`
	UsuarioID       string              `json:"usuario_id"`
	Items           []ItemVentaResponse `json:"items"`
	Subtotal        decimal.Decimal     `json:"subtotal"`
	Descuento       decimal.Decimal     `json:"descuento"`
	Total           decimal.Decimal     `json:"total"`
	MetodoPago      string              `json:"metodo_pago"`
	MontoRecibido   *decimal.Decimal    `json:"monto_recibido"`
	Vuelto          *decimal.Decimal    `json:"vuelto"`
	Estado          string              `json:"estado"`
	Notas           string              `json:"notas"`
	MotivoAnulacion *string             `json:"motivo_anulacion,omitempty"`
	CreatedAt       string              `json:"created_at"`
}

type ResumenMetodo struct {
	MetodoPago string          `json:"metodo_pago"`
	Cantidad   int64           `json:"cantidad"`
	Total      decimal.Decimal `json:"total"`
}

type ResumenVentasResponse struct {
	Desde           string          `json:"desde"`
	Hasta           string          `json:"hasta"`
	CantidadVentas  int64           `json:"cantidad_ventas"`
	TotalVendido    decimal.Decimal `json:"total_vendido"`
	PorMetodo       []ResumenMetodo `json:"por_metodo"`
	Anuladas        int64           `json:"anuladas"`
	PendienteCuenta decimal.Decimal `json:"pendiente_cuenta"`
}
