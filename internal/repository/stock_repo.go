package repository

import (
	"context"

	"gestorpos/internal/dto"
	"gestorpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AlertaStock is a product whose on-hand quantity is at or below its minimum.
type AlertaStock struct {
	ProductoID  uuid.UUID
	Nombre      string
	Cantidad    int
	StockMinimo int
}

// StockRepository owns the stock ledger: one NivelStock per (producto, tienda)
// plus the append-only MovimientoStock history.
type StockRepository interface {
	// LockNivel returns the level row for (producto, tienda) locked FOR UPDATE,
	// creating it at zero first when it does not exist yet.
	LockNivel(ctx context.Context, tx *gorm.DB, productoID, tiendaID uuid.UUID) (*model.NivelStock, error)
	SaveNivel(ctx context.Context, tx *gorm.DB, n *model.NivelStock) error
	CreateMovimiento(ctx context.Context, tx *gorm.DB, m *model.MovimientoStock) error

	// Cantidad returns the stored level; an absent row reads as zero.
	Cantidad(ctx context.Context, tx *gorm.DB, productoID, tiendaID uuid.UUID) (int, error)
	Cantidades(ctx context.Context, tiendaID uuid.UUID, productoIDs []uuid.UUID) (map[uuid.UUID]int, error)
	SumaMovimientos(ctx context.Context, productoID, tiendaID uuid.UUID) (int, error)
	ListMovimientos(ctx context.Context, tiendaID uuid.UUID, filter dto.MovimientoStockFilter) ([]model.MovimientoStock, int64, error)
	Alertas(ctx context.Context, tiendaID uuid.UUID) ([]AlertaStock, error)

	DB() *gorm.DB
}

type stockRepo struct{ db *gorm.DB }

func NewStockRepository(db *gorm.DB) StockRepository { return &stockRepo{db: db} }

func (r *stockRepo) DB() *gorm.DB { return r.db }

func (r *stockRepo) LockNivel(ctx context.Context, tx *gorm.DB, productoID, tiendaID uuid.UUID) (*model.NivelStock, error) {
	db := conn(r.db, tx).WithContext(ctx)
	// Concurrent first movements race on the insert; the unique index lets only one win.
	seed := &model.NivelStock{ProductoID: productoID, TiendaID: tiendaID}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "producto_id"}, {Name: "tienda_id"}},
		DoNothing: true,
	}).Create(seed).Error; err != nil {
		return nil, err
	}

	var n model.NivelStock
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("producto_id = ? AND tienda_id = ?", productoID, tiendaID).
		First(&n).Error
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *stockRepo) SaveNivel(ctx context.Context, tx *gorm.DB, n *model.NivelStock) error {
	return conn(r.db, tx).WithContext(ctx).Model(n).Update("cantidad", n.Cantidad).Error
}

func (r *stockRepo) CreateMovimiento(ctx context.Context, tx *gorm.DB, m *model.MovimientoStock) error {
	return conn(r.db, tx).WithContext(ctx).Omit("Producto").Create(m).Error
}

func (r *stockRepo) Cantidad(ctx context.Context, tx *gorm.DB, productoID, tiendaID uuid.UUID) (int, error) {
	var cantidad int
	err := conn(r.db, tx).WithContext(ctx).Model(&model.NivelStock{}).
		Select("COALESCE(MAX(cantidad), 0)").
		Where("producto_id = ? AND tienda_id = ?", productoID, tiendaID).
		Scan(&cantidad).Error
	return cantidad, err
}

func (r *stockRepo) Cantidades(ctx context.Context, tiendaID uuid.UUID, productoIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(productoIDs))
	if len(productoIDs) == 0 {
		return out, nil
	}
	var niveles []model.NivelStock
	err := r.db.WithContext(ctx).
		Where("tienda_id = ? AND producto_id IN ?", tiendaID, productoIDs).
		Find(&niveles).Error
	if err != nil {
		return nil, err
	}
	for _, n := range niveles {
		out[n.ProductoID] = n.Cantidad
	}
	return out, nil
}

func (r *stockRepo) SumaMovimientos(ctx context.Context, productoID, tiendaID uuid.UUID) (int, error) {
	var suma int
	err := r.db.WithContext(ctx).Model(&model.MovimientoStock{}).
		Select("COALESCE(SUM(cantidad), 0)").
		Where("producto_id = ? AND tienda_id = ?", productoID, tiendaID).
		Scan(&suma).Error
	return suma, err
}

func (r *stockRepo) ListMovimientos(ctx context.Context, tiendaID uuid.UUID, filter dto.MovimientoStockFilter) ([]model.MovimientoStock, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.MovimientoStock{}).
		Where("tienda_id = ?", tiendaID)
	if filter.ProductoID != "" {
		q = q.Where("producto_id = ?", filter.ProductoID)
	}
	if filter.Tipo != "" {
		q = q.Where("tipo = ?", filter.Tipo)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	offset := (page - 1) * limit

	var movimientos []model.MovimientoStock
	err := q.Preload("Producto").Order("created_at DESC").Offset(offset).Limit(limit).Find(&movimientos).Error
	return movimientos, total, err
}

func (r *stockRepo) Alertas(ctx context.Context, tiendaID uuid.UUID) ([]AlertaStock, error) {
	var out []AlertaStock
	err := r.db.WithContext(ctx).Raw(`
		SELECT p.id AS producto_id, p.nombre, COALESCE(n.cantidad, 0) AS cantidad, p.stock_minimo
		FROM productos p
		LEFT JOIN niveles_stock n ON n.producto_id = p.id AND n.tienda_id = p.tienda_id
		WHERE p.tienda_id = ? AND p.activo = true AND p.eliminado = false
		  AND COALESCE(n.cantidad, 0) <= p.stock_minimo
		ORDER BY COALESCE(n.cantidad, 0) - p.stock_minimo ASC, p.nombre ASC`, tiendaID).
		Scan(&out).Error
	return out, err
}
