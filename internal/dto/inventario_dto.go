package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

// MovimientoStockRequest is the body of POST /v1/inventario/{entrada,salida,ajuste}.
// For entrada/salida Cantidad is the magnitude; for ajuste it is the new balance.
type MovimientoStockRequest struct {
	ProductoID string  `json:"producto_id" validate:"required,uuid"`
	Cantidad   int     `json:"cantidad"    validate:"min=0"`
	Motivo     *string `json:"motivo"      validate:"omitempty,max=255"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type MovimientoStockFilter struct {
	ProductoID string `form:"producto_id"`
	Tipo       string `form:"tipo"`
	Page       int    `form:"page,default=1"`
	Limit      int    `form:"limit,default=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type MovimientoStockResponse struct {
	ID            string  `json:"id"`
	ProductoID    string  `json:"producto_id"`
	Producto      string  `json:"producto,omitempty"`
	UsuarioID     string  `json:"usuario_id"`
	VentaID       *string `json:"venta_id"`
	Tipo          string  `json:"tipo"`
	StockAnterior int     `json:"stock_anterior"`
	Cantidad      int     `json:"cantidad"`
	StockNuevo    int     `json:"stock_nuevo"`
	Motivo        *string `json:"motivo"`
	CreatedAt     string  `json:"created_at"`
}

type MovimientoStockListResponse struct {
	Data  []MovimientoStockResponse `json:"data"`
	Total int64                     `json:"total"`
	Page  int                       `json:"page"`
	Limit int                       `json:"limit"`
}

type AlertaStockResponse struct {
	ProductoID  string `json:"producto_id"`
	Nombre      string `json:"nombre"`
	StockActual int    `json:"stock_actual"`
	StockMinimo int    `json:"stock_minimo"`
}

// StockProductoResponse reports the stored level next to the sum of all recorded
// deltas; Consistente is false when they diverge.
type StockProductoResponse struct {
	ProductoID      string `json:"producto_id"`
	StockActual     int    `json:"stock_actual"`
	SumaMovimientos int    `json:"suma_movimientos"`
	Consistente     bool   `json:"consistente"`
}
