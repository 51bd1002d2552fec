package model

import (
	"time"

	"github.com/google/uuid"
)

// Categoria groups products of one store. Name uniqueness is case-insensitive
// and enforced by the uq_categorias_tienda_nombre expression index.
type Categoria struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TiendaID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Nombre      string    `gorm:"type:varchar(100);not null"`
	Descripcion *string   `gorm:"type:varchar(255)"`
	Activo      bool      `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Categoria) TableName() string { return "categorias" }
