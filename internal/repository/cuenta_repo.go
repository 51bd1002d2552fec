package repository

import (
	"context"

	"gestorpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CuentaRepository persists store-credit accounts and their movement history.
type CuentaRepository interface {
	// Ensure creates an empty open account for the customer if none exists.
	Ensure(ctx context.Context, tx *gorm.DB, clienteID, tiendaID uuid.UUID) error
	// LockByCliente returns the account locked FOR UPDATE, or gorm.ErrRecordNotFound.
	LockByCliente(ctx context.Context, tx *gorm.DB, clienteID uuid.UUID) (*model.CuentaCorriente, error)
	FindByCliente(ctx context.Context, clienteID uuid.UUID) (*model.CuentaCorriente, error)
	Save(ctx context.Context, tx *gorm.DB, c *model.CuentaCorriente) error
	CreateMovimiento(ctx context.Context, tx *gorm.DB, m *model.MovimientoCuenta) error
	ListMovimientos(ctx context.Context, cuentaID uuid.UUID, page, limit int) ([]model.MovimientoCuenta, int64, error)

	DB() *gorm.DB
}

type cuentaRepo struct{ db *gorm.DB }

func NewCuentaRepository(db *gorm.DB) CuentaRepository { return &cuentaRepo{db: db} }

func (r *cuentaRepo) DB() *gorm.DB { return r.db }

func (r *cuentaRepo) Ensure(ctx context.Context, tx *gorm.DB, clienteID, tiendaID uuid.UUID) error {
	c := &model.CuentaCorriente{ClienteID: clienteID, TiendaID: tiendaID, Estado: model.CuentaAbierta}
	return conn(r.db, tx).WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cliente_id"}},
		DoNothing: true,
	}).Create(c).Error
}

func (r *cuentaRepo) LockByCliente(ctx context.Context, tx *gorm.DB, clienteID uuid.UUID) (*model.CuentaCorriente, error) {
	var c model.CuentaCorriente
	err := conn(r.db, tx).WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("cliente_id = ?", clienteID).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cuentaRepo) FindByCliente(ctx context.Context, clienteID uuid.UUID) (*model.CuentaCorriente, error) {
	var c model.CuentaCorriente
	err := r.db.WithContext(ctx).Where("cliente_id = ?", clienteID).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *cuentaRepo) Save(ctx context.Context, tx *gorm.DB, c *model.CuentaCorriente) error {
	return conn(r.db, tx).WithContext(ctx).Save(c).Error
}

func (r *cuentaRepo) CreateMovimiento(ctx context.Context, tx *gorm.DB, m *model.MovimientoCuenta) error {
	return conn(r.db, tx).WithContext(ctx).Create(m).Error
}

func (r *cuentaRepo) ListMovimientos(ctx context.Context, cuentaID uuid.UUID, page, limit int) ([]model.MovimientoCuenta, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.MovimientoCuenta{}).Where("cuenta_id = ?", cuentaID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}

	var movs []model.MovimientoCuenta
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&movs).Error
	return movs, total, err
}
