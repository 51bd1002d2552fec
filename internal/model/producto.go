package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto is a sellable item of one store.
// Activo=false keeps the product visible but blocks new sales; Eliminado is the
// soft delete: the row stays for history and is ignored by the name uniqueness
// check (partial index uq_productos_tienda_nombre_vigente).
type Producto struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TiendaID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	CategoriaID *uuid.UUID `gorm:"type:uuid;index"`
	Nombre      string     `gorm:"not null"`
	Descripcion *string
	PrecioVenta decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	StockMinimo int             `gorm:"not null;default:0"`
	Activo      bool            `gorm:"not null;default:true"`
	Eliminado   bool            `gorm:"not null;default:false"`
	EliminadoEn *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Categoria *Categoria `gorm:"foreignKey:CategoriaID"`
}
