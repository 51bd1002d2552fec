package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estados de un cargo pendiente.
const (
	CargoPendiente  = "pendiente"
	CargoAplicado   = "aplicado"
	CargoDescartado = "descartado"
	CargoError      = "error"
)

// CargoCuenta is the outbox row written together with a store-credit sale.
// It is applied to the customer's CuentaCorriente after the sale commits and
// retried by the worker pool until it succeeds or runs out of attempts.
type CargoCuenta struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	TiendaID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ClienteID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Monto          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Descripcion    string          `gorm:"type:text;not null"`
	Estado         string          `gorm:"type:varchar(20);not null;default:'pendiente'"`
	Intentos       int             `gorm:"not null;default:0"`
	ProximoIntento *time.Time
	UltimoError    *string
	AplicadoEn     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName overrides GORM's default pluralization.
func (CargoCuenta) TableName() string { return "cargos_cuenta" }
