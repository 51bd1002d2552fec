package repository

import (
	"context"
	"time"

	"gestorpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CargoCuentaRepository is the outbox of store-credit charges produced by sales.
type CargoCuentaRepository interface {
	Create(ctx context.Context, tx *gorm.DB, c *model.CargoCuenta) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CargoCuenta, error)
	LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.CargoCuenta, error)
	LockByVenta(ctx context.Context, tx *gorm.DB, ventaID uuid.UUID) (*model.CargoCuenta, error)
	// LockNoAplicadosCliente returns the customer's pendiente/error charges, oldest first.
	LockNoAplicadosCliente(ctx context.Context, tx *gorm.DB, clienteID uuid.UUID) ([]model.CargoCuenta, error)
	// ListVencidos returns pending charges whose next attempt is due.
	ListVencidos(ctx context.Context, now time.Time, limit int) ([]model.CargoCuenta, error)
	List(ctx context.Context, tiendaID uuid.UUID, estado string) ([]model.CargoCuenta, error)
	Save(ctx context.Context, tx *gorm.DB, c *model.CargoCuenta) error

	DB() *gorm.DB
}

type cargoCuentaRepo struct{ db *gorm.DB }

func NewCargoCuentaRepository(db *gorm.DB) CargoCuentaRepository { return &cargoCuentaRepo{db: db} }

func (r *cargoCuentaRepo) DB() *gorm.DB { return r.db }

func (r *cargoCuentaRepo) Create(ctx context.Context, tx *gorm.DB, c *model.CargoCuenta) error {
	return conn(r.db, tx).WithContext(ctx).Create(c).Error
}

func (r *cargoCuentaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CargoCuenta, error) {
	var c model.CargoCuenta
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *cargoCuentaRepo) LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.CargoCuenta, error) {
	var c model.CargoCuenta
	err := conn(r.db, tx).WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cargoCuentaRepo) LockByVenta(ctx context.Context, tx *gorm.DB, ventaID uuid.UUID) (*model.CargoCuenta, error) {
	var c model.CargoCuenta
	err := conn(r.db, tx).WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("venta_id = ?", ventaID).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cargoCuentaRepo) LockNoAplicadosCliente(ctx context.Context, tx *gorm.DB, clienteID uuid.UUID) ([]model.CargoCuenta, error) {
	var cargos []model.CargoCuenta
	err := conn(r.db, tx).WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("cliente_id = ? AND estado IN ?", clienteID, []string{model.CargoPendiente, model.CargoError}).
		Order("created_at ASC").
		Find(&cargos).Error
	return cargos, err
}

func (r *cargoCuentaRepo) ListVencidos(ctx context.Context, now time.Time, limit int) ([]model.CargoCuenta, error) {
	var cargos []model.CargoCuenta
	err := r.db.WithContext(ctx).
		Where("estado = ? AND (proximo_intento IS NULL OR proximo_intento <= ?)", model.CargoPendiente, now).
		Order("created_at ASC").
		Limit(limit).
		Find(&cargos).Error
	return cargos, err
}

func (r *cargoCuentaRepo) List(ctx context.Context, tiendaID uuid.UUID, estado string) ([]model.CargoCuenta, error) {
	q := r.db.WithContext(ctx).Where("tienda_id = ?", tiendaID)
	if estado != "" && estado != "all" {
		q = q.Where("estado = ?", estado)
	}
	var cargos []model.CargoCuenta
	err := q.Order("created_at DESC").Limit(500).Find(&cargos).Error
	return cargos, err
}

func (r *cargoCuentaRepo) Save(ctx context.Context, tx *gorm.DB, c *model.CargoCuenta) error {
	return conn(r.db, tx).WithContext(ctx).Save(c).Error
}
