package repository

import (
	"context"
	"time"

	"gestorpos/internal/dto"
	"gestorpos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ResumenMetodoRow is one row of the per-payment-method sales summary.
type ResumenMetodoRow struct {
	MetodoPago string
	Cantidad   int64
	Total      decimal.Decimal
}

type VentaRepository interface {
	Create(ctx context.Context, tx *gorm.DB, v *model.Venta) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error)
	// LockByID locks the sale row FOR UPDATE and loads its items.
	LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Venta, error)
	Anular(ctx context.Context, tx *gorm.DB, id uuid.UUID, motivo *string, at time.Time) error
	// CompletarPendientes moves the customer's pendiente_cuenta sales to completada.
	CompletarPendientes(ctx context.Context, tx *gorm.DB, clienteID uuid.UUID) (int64, error)
	NextNumero(ctx context.Context, tx *gorm.DB) (int64, error)
	List(ctx context.Context, tiendaID uuid.UUID, desde, hasta time.Time, filter dto.VentaFilter) ([]model.Venta, int64, error)
	ResumenPorMetodo(ctx context.Context, tiendaID uuid.UUID, desde, hasta time.Time) ([]ResumenMetodoRow, error)
	ContarAnuladas(ctx context.Context, tiendaID uuid.UUID, desde, hasta time.Time) (int64, error)
	TotalPendienteCuenta(ctx context.Context, tiendaID uuid.UUID) (decimal.Decimal, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) DB() *gorm.DB { return r.db }

func (r *ventaRepo) Create(ctx context.Context, tx *gorm.DB, v *model.Venta) error {
	return conn(r.db, tx).WithContext(ctx).Omit("Cliente", "Usuario", "Items.Producto").Create(v).Error
}

func (r *ventaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).Preload("Items.Producto").Preload("Cliente").Preload("Usuario").
		First(&v, "id = ?", id).Error
	return &v, err
}

func (r *ventaRepo) LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Venta, error) {
	db := conn(r.db, tx).WithContext(ctx)
	var v model.Venta
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&v, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := db.Where("venta_id = ?", v.ID).Find(&v.Items).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *ventaRepo) Anular(ctx context.Context, tx *gorm.DB, id uuid.UUID, motivo *string, at time.Time) error {
	return conn(r.db, tx).WithContext(ctx).Model(&model.Venta{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"estado":           model.VentaAnulada,
			"motivo_anulacion": motivo,
			"anulada_en":       at,
		}).Error
}

func (r *ventaRepo) CompletarPendientes(ctx context.Context, tx *gorm.DB, clienteID uuid.UUID) (int64, error) {
	res := conn(r.db, tx).WithContext(ctx).Model(&model.Venta{}).
		Where("cliente_id = ? AND estado = ?", clienteID, model.VentaPendienteCuenta).
		Update("estado", model.VentaCompletada)
	return res.RowsAffected, res.Error
}

func (r *ventaRepo) NextNumero(ctx context.Context, tx *gorm.DB) (int64, error) {
	// Uses a PostgreSQL sequence for atomic sale number generation
	var num int64
	err := conn(r.db, tx).WithContext(ctx).Raw("SELECT nextval('ventas_numero_seq')").Scan(&num).Error
	return num, err
}

func (r *ventaRepo) List(ctx context.Context, tiendaID uuid.UUID, desde, hasta time.Time, filter dto.VentaFilter) ([]model.Venta, int64, error) {
	var ventas []model.Venta
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Venta{}).
		Where("tienda_id = ? AND created_at >= ? AND created_at < ?", tiendaID, desde, hasta)

	if filter.Estado != "" && filter.Estado != "all" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.ClienteID != "" {
		q = q.Where("cliente_id = ?", filter.ClienteID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}
	offset := (filter.Page - 1) * filter.Limit

	err := q.Preload("Items.Producto").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&ventas).Error
	return ventas, total, err
}

func (r *ventaRepo) ResumenPorMetodo(ctx context.Context, tiendaID uuid.UUID, desde, hasta time.Time) ([]ResumenMetodoRow, error) {
	var rows []ResumenMetodoRow
	err := r.db.WithContext(ctx).Model(&model.Venta{}).
		Select("metodo_pago, COUNT(*) AS cantidad, COALESCE(SUM(total), 0) AS total").
		Where("tienda_id = ? AND created_at >= ? AND created_at < ? AND estado <> ?",
			tiendaID, desde, hasta, model.VentaAnulada).
		Group("metodo_pago").
		Order("metodo_pago").
		Scan(&rows).Error
	return rows, err
}

func (r *ventaRepo) ContarAnuladas(ctx context.Context, tiendaID uuid.UUID, desde, hasta time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Venta{}).
		Where("tienda_id = ? AND created_at >= ? AND created_at < ? AND estado = ?",
			tiendaID, desde, hasta, model.VentaAnulada).
		Count(&n).Error
	return n, err
}

func (r *ventaRepo) TotalPendienteCuenta(ctx context.Context, tiendaID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&model.Venta{}).
		Select("COALESCE(SUM(total), 0)").
		Where("tienda_id = ? AND estado = ?", tiendaID, model.VentaPendienteCuenta).
		Scan(&total).Error
	return total, err
}
