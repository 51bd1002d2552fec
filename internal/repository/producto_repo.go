package repository

import (
	"context"
	"time"

	"gestorpos/internal/dto"
	"gestorpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductoRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via in-memory fakes.
type ProductoRepository interface {
	Create(ctx context.Context, tx *gorm.DB, p *model.Producto) error
	// FindByID returns gorm.ErrRecordNotFound for unknown ids. Soft-deleted
	// products are returned; callers check Eliminado.
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Producto, error)
	// FindVigenteByNombre matches case-insensitively among non-deleted products of a store.
	FindVigenteByNombre(ctx context.Context, tiendaID uuid.UUID, nombre string) (*model.Producto, error)
	List(ctx context.Context, tiendaID uuid.UUID, filter dto.ProductoFilter) ([]model.Producto, int64, error)
	Update(ctx context.Context, p *model.Producto) error
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
	HardDelete(ctx context.Context, id uuid.UUID) error
	// TieneHistorial reports whether any stock movement or sale line references the product.
	TieneHistorial(ctx context.Context, id uuid.UUID) (bool, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) DB() *gorm.DB { return r.db }

func (r *productoRepo) Create(ctx context.Context, tx *gorm.DB, p *model.Producto) error {
	return conn(r.db, tx).WithContext(ctx).Create(p).Error
}

func (r *productoRepo) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := conn(r.db, tx).WithContext(ctx).Preload("Categoria").First(&p, "id = ?", id).Error
	return &p, err
}

func (r *productoRepo) FindVigenteByNombre(ctx context.Context, tiendaID uuid.UUID, nombre string) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).
		Where("tienda_id = ? AND lower(nombre) = lower(?) AND eliminado = false", tiendaID, nombre).
		First(&p).Error
	return &p, err
}

func (r *productoRepo) List(ctx context.Context, tiendaID uuid.UUID, filter dto.ProductoFilter) ([]model.Producto, int64, error) {
	var productos []model.Producto
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Producto{}).
		Where("tienda_id = ? AND eliminado = false", tiendaID)

	// Activo filter: "false" = inactivos, "all" = todos, anything else = activos (default)
	switch filter.Activo {
	case "false":
		q = q.Where("activo = false")
	case "all":
		// no filter
	default:
		q = q.Where("activo = true")
	}

	if filter.Nombre != "" {
		q = q.Where("nombre ILIKE ?", "%"+filter.Nombre+"%")
	}
	if filter.CategoriaID != "" {
		q = q.Where("categoria_id = ?", filter.CategoriaID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Categoria").Order("nombre ASC").Limit(filter.Limit).Offset(offset).Find(&productos).Error
	return productos, total, err
}

func (r *productoRepo) Update(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Omit("Categoria").Save(p).Error
}

func (r *productoRepo) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Producto{}).Where("id = ?", id).
		Updates(map[string]interface{}{"eliminado": true, "activo": false, "eliminado_en": at}).Error
}

func (r *productoRepo) HardDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("producto_id = ?", id).Delete(&model.NivelStock{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Producto{}, "id = ?", id).Error
	})
}

func (r *productoRepo) TieneHistorial(ctx context.Context, id uuid.UUID) (bool, error) {
	var existe bool
	err := r.db.WithContext(ctx).Raw(`
		SELECT EXISTS (SELECT 1 FROM movimientos_stock WHERE producto_id = ?)
		    OR EXISTS (SELECT 1 FROM venta_items WHERE producto_id = ?)`, id, id).
		Scan(&existe).Error
	return existe, err
}
