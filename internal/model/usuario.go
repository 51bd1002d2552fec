package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	RolCajero        = "cajero"
	RolSupervisor    = "supervisor"
	RolAdministrador = "administrador"
)

// Usuario is an operator of one store. Username is globally unique because
// login happens before the store is known.
type Usuario struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TiendaID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	Username     string     `gorm:"type:varchar(60);not null"`
	Nombre       string     `gorm:"type:varchar(120);not null"`
	Email        *string    `gorm:"type:varchar(255)"`
	PasswordHash string     `gorm:"not null"`
	Rol          string     `gorm:"type:varchar(20);not null"`
	Activo       bool       `gorm:"not null;default:true"`
	UltimoLogin  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
