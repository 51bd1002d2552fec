package model

import (
	"time"

	"github.com/google/uuid"
)

// Tipos de movimiento de stock.
const (
	MovimientoEntrada = "entrada"
	MovimientoSalida  = "salida"
	MovimientoAjuste  = "ajuste"
)

// NivelStock is the quantity on hand of one product in one store.
// Created lazily on the first movement; only the stock ledger mutates it.
type NivelStock struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductoID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_nivel_producto_tienda"`
	TiendaID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_nivel_producto_tienda"`
	Cantidad   int       `gorm:"not null;default:0;check:cantidad >= 0"`
	UpdatedAt  time.Time
}

// TableName overrides GORM's default pluralization (nivel_stocks → niveles_stock).
func (NivelStock) TableName() string { return "niveles_stock" }

// MovimientoStock registra cada cambio de stock en un producto.
// Los registros son inmutables: nunca se modifican ni eliminan.
type MovimientoStock struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductoID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	TiendaID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	UsuarioID     uuid.UUID  `gorm:"type:uuid;not null"`
	VentaID       *uuid.UUID `gorm:"type:uuid;index"`
	Tipo          string     `gorm:"type:varchar(20);not null"` // entrada | salida | ajuste
	StockAnterior int        `gorm:"not null"`
	Cantidad      int        `gorm:"not null"` // signed delta: positive = entrada
	StockNuevo    int        `gorm:"not null"`
	Motivo        *string
	CreatedAt     time.Time

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

// TableName overrides GORM's default pluralization (movimiento_stocks → movimientos_stock).
func (MovimientoStock) TableName() string { return "movimientos_stock" }
