package repository

import (
	"context"

	"gestorpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategoriaRepository persists product categories. Names are unique per store,
// compared case-insensitively (uq_categorias_tienda_nombre).
type CategoriaRepository interface {
	Create(ctx context.Context, c *model.Categoria) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Categoria, error)
	FindByNombre(ctx context.Context, tiendaID uuid.UUID, nombre string) (*model.Categoria, error)
	List(ctx context.Context, tiendaID uuid.UUID, soloActivas bool) ([]model.Categoria, error)
	Update(ctx context.Context, c *model.Categoria) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type categoriaRepo struct{ db *gorm.DB }

func NewCategoriaRepository(db *gorm.DB) CategoriaRepository { return &categoriaRepo{db: db} }

func (r *categoriaRepo) Create(ctx context.Context, c *model.Categoria) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *categoriaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Categoria, error) {
	var c model.Categoria
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoriaRepo) FindByNombre(ctx context.Context, tiendaID uuid.UUID, nombre string) (*model.Categoria, error) {
	var c model.Categoria
	err := r.db.WithContext(ctx).
		Where("tienda_id = ? AND lower(nombre) = lower(?)", tiendaID, nombre).
		Take(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoriaRepo) List(ctx context.Context, tiendaID uuid.UUID, soloActivas bool) ([]model.Categoria, error) {
	q := r.db.WithContext(ctx).Where("tienda_id = ?", tiendaID)
	if soloActivas {
		q = q.Where("activo")
	}
	var list []model.Categoria
	err := q.Order("lower(nombre)").Find(&list).Error
	return list, err
}

func (r *categoriaRepo) Update(ctx context.Context, c *model.Categoria) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// Deactivate hides the category from pickers; products keep their reference.
func (r *categoriaRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Categoria{}).
		Where("id = ?", id).
		Update("activo", false).Error
}
