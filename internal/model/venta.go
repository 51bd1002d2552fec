package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Metodos de pago.
const (
	PagoEfectivo        = "efectivo"
	PagoPix             = "pix"
	PagoDebito          = "debito"
	PagoCredito         = "credito"
	PagoCuentaCorriente = "cuenta_corriente"
)

// Estados de venta. anulada is terminal.
const (
	VentaCompletada      = "completada"
	VentaPendienteCuenta = "pendiente_cuenta"
	VentaAnulada         = "anulada"
)

// Venta is a committed sale. Items are immutable once created.
type Venta struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Numero          int64            `gorm:"not null;uniqueIndex"`
	TiendaID        uuid.UUID        `gorm:"type:uuid;not null;index"`
	UsuarioID       uuid.UUID        `gorm:"type:uuid;not null"`
	ClienteID       *uuid.UUID       `gorm:"type:uuid;index"`
	Subtotal        decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	Descuento       decimal.Decimal  `gorm:"type:decimal(12,2);not null;default:0"`
	Total           decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	MetodoPago      string           `gorm:"type:varchar(20);not null"`
	MontoRecibido   *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Vuelto          *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Estado          string           `gorm:"type:varchar(20);not null;index"`
	Notas           string           `gorm:"type:text;not null;default:''"`
	MotivoAnulacion *string
	AnuladaEn       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Items   []VentaItem `gorm:"foreignKey:VentaID"`
	Cliente *Cliente    `gorm:"foreignKey:ClienteID"`
	Usuario *Usuario    `gorm:"foreignKey:UsuarioID"`
}

// VentaItem is one line of a sale, priced at the time of sale.
type VentaItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}
