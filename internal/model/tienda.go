package model

import (
	"time"

	"github.com/google/uuid"
)

// Tienda is the tenant boundary: every product, customer and sale belongs to one.
type Tienda struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre    string    `gorm:"not null"`
	Activo    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
