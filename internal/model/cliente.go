package model

import (
	"time"

	"github.com/google/uuid"
)

// Cliente is a customer of one store. Email is unique per store.
type Cliente struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TiendaID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Nombre    string    `gorm:"not null"`
	Email     string    `gorm:"not null"`
	Telefono  *string
	CreatedAt time.Time
	UpdatedAt time.Time

	Cuenta *CuentaCorriente `gorm:"foreignKey:ClienteID"`
}
