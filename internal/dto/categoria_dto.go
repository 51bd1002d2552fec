package dto

import "github.com/google/uuid"

type CrearCategoriaRequest struct {
	Nombre      string  `json:"nombre"      validate:"required,min=2,max=100"`
	Descripcion *string `json:"descripcion" validate:"omitempty,max=255"`
}

// ActualizarCategoriaRequest is a partial update; nil fields are left as they are.
type ActualizarCategoriaRequest struct {
	Nombre      *string `json:"nombre"      validate:"omitempty,min=2,max=100"`
	Descripcion *string `json:"descripcion" validate:"omitempty,max=255"`
	Activo      *bool   `json:"activo"`
}

// CategoriaFilter is bound from query string of GET /v1/categorias.
type CategoriaFilter struct {
	SoloActivas bool `form:"activas"`
}

type CategoriaResponse struct {
	ID          uuid.UUID `json:"id"`
	Nombre      string    `json:"nombre"`
	Descripcion *string   `json:"descripcion,omitempty"`
	Activo      bool      `json:"activo"`
	CreatedAt   string    `json:"created_at"`
}
