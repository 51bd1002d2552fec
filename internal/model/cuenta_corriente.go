package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estados de la cuenta corriente.
const (
	CuentaAbierta = "abierta"
	CuentaSaldada = "saldada"
)

// CuentaCorriente is the store-credit tab of a customer (one per Cliente).
// Descripcion is overwritten on every mutation; the full history lives in
// MovimientoCuenta.
type CuentaCorriente struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClienteID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	TiendaID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Saldo       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Descripcion string          `gorm:"type:text;not null;default:''"`
	Estado      string          `gorm:"type:varchar(20);not null;default:'abierta'"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName overrides GORM's default pluralization.
func (CuentaCorriente) TableName() string { return "cuentas_corrientes" }

// Tipos de movimiento de cuenta corriente.
const (
	CuentaIncremento  = "incremento"
	CuentaDecremento  = "decremento"
	CuentaLiquidacion = "liquidacion"
)

// MovimientoCuenta is an immutable entry of a customer's credit history.
type MovimientoCuenta struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CuentaID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	VentaID       *uuid.UUID      `gorm:"type:uuid"`
	UsuarioID     *uuid.UUID      `gorm:"type:uuid"`
	Tipo          string          `gorm:"type:varchar(20);not null"`
	Monto         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SaldoAnterior decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SaldoNuevo    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Descripcion   string          `gorm:"type:text;not null"`
	CreatedAt     time.Time
}

// TableName overrides GORM's default pluralization.
func (MovimientoCuenta) TableName() string { return "movimientos_cuenta" }
