package repository

import (
	"context"

	"gestorpos/internal/dto"
	"gestorpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClienteRepository interface {
	Create(ctx context.Context, c *model.Cliente) error
	FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Cliente, error)
	FindByEmail(ctx context.Context, tiendaID uuid.UUID, email string) (*model.Cliente, error)
	List(ctx context.Context, tiendaID uuid.UUID, filter dto.ClienteFilter) ([]model.Cliente, int64, error)
	Update(ctx context.Context, c *model.Cliente) error
	Delete(ctx context.Context, id uuid.UUID) error
	// TieneHistorial reports whether any sale or store-credit charge references the customer.
	TieneHistorial(ctx context.Context, id uuid.UUID) (bool, error)
}

type clienteRepo struct{ db *gorm.DB }

func NewClienteRepository(db *gorm.DB) ClienteRepository { return &clienteRepo{db: db} }

func (r *clienteRepo) Create(ctx context.Context, c *model.Cliente) error {
	return r.db.WithContext(ctx).Omit("Cuenta").Create(c).Error
}

func (r *clienteRepo) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Cliente, error) {
	var c model.Cliente
	err := conn(r.db, tx).WithContext(ctx).Preload("Cuenta").First(&c, "id = ?", id).Error
	return &c, err
}

func (r *clienteRepo) FindByEmail(ctx context.Context, tiendaID uuid.UUID, email string) (*model.Cliente, error) {
	var c model.Cliente
	err := r.db.WithContext(ctx).
		Where("tienda_id = ? AND lower(email) = lower(?)", tiendaID, email).
		First(&c).Error
	return &c, err
}

func (r *clienteRepo) List(ctx context.Context, tiendaID uuid.UUID, filter dto.ClienteFilter) ([]model.Cliente, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Cliente{}).Where("tienda_id = ?", tiendaID)
	if filter.Busqueda != "" {
		like := "%" + filter.Busqueda + "%"
		q = q.Where("nombre ILIKE ? OR email ILIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}

	var clientes []model.Cliente
	err := q.Preload("Cuenta").Order("nombre ASC").
		Offset((filter.Page - 1) * filter.Limit).Limit(filter.Limit).
		Find(&clientes).Error
	return clientes, total, err
}

func (r *clienteRepo) Update(ctx context.Context, c *model.Cliente) error {
	return r.db.WithContext(ctx).Omit("Cuenta").Save(c).Error
}

// Delete removes the customer together with its (zero-balance) account and history.
func (r *clienteRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM movimientos_cuenta WHERE cuenta_id IN
			(SELECT id FROM cuentas_corrientes WHERE cliente_id = ?)`, id).Error; err != nil {
			return err
		}
		if err := tx.Where("cliente_id = ?", id).Delete(&model.CuentaCorriente{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Cliente{}, "id = ?", id).Error
	})
}

func (r *clienteRepo) TieneHistorial(ctx context.Context, id uuid.UUID) (bool, error) {
	var existe bool
	err := r.db.WithContext(ctx).Raw(`
		SELECT EXISTS (SELECT 1 FROM ventas WHERE cliente_id = ?)
		    OR EXISTS (SELECT 1 FROM cargos_cuenta WHERE cliente_id = ?)`, id, id).
		Scan(&existe).Error
	return existe, err
}
