package repository

import (
	"context"

	"gestorpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TiendaRepository interface {
	Create(ctx context.Context, t *model.Tienda) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Tienda, error)
	FindByNombre(ctx context.Context, nombre string) (*model.Tienda, error)
}

type tiendaRepo struct{ db *gorm.DB }

func NewTiendaRepository(db *gorm.DB) TiendaRepository { return &tiendaRepo{db: db} }

func (r *tiendaRepo) Create(ctx context.Context, t *model.Tienda) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *tiendaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Tienda, error) {
	var t model.Tienda
	err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error
	return &t, err
}

func (r *tiendaRepo) FindByNombre(ctx context.Context, nombre string) (*model.Tienda, error) {
	var t model.Tienda
	err := r.db.WithContext(ctx).Where("lower(nombre) = lower(?)", nombre).First(&t).Error
	return &t, err
}
