package service

import (
	"context"
	"fmt"
	"time"

	"gestorpos/internal/apierror"
	"gestorpos/internal/dto"
	"gestorpos/internal/model"
	"gestorpos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AjusteCuenta is one balance change on a customer's store-credit account.
type AjusteCuenta struct {
	TiendaID    uuid.UUID
	ClienteID   uuid.UUID
	UsuarioID   *uuid.UUID
	VentaID     *uuid.UUID
	Monto       decimal.Decimal
	Descripcion string
}

// CuentaService manages store-credit accounts (cuenta corriente) and the
// outbox of charges produced by store-credit sales.
type CuentaService interface {
	IncrementarSaldo(ctx context.Context, in AjusteCuenta) (*dto.CuentaResponse, error)
	IncrementarSaldoTx(ctx context.Context, tx *gorm.DB, in AjusteCuenta) (*model.CuentaCorriente, error)
	DecrementarSaldo(ctx context.Context, in AjusteCuenta) (*dto.CuentaResponse, error)
	DecrementarSaldoTx(ctx context.Context, tx *gorm.DB, in AjusteCuenta) (*model.CuentaCorriente, error)
	Saldar(ctx context.Context, tiendaID, usuarioID, clienteID uuid.UUID) (*dto.SaldarCuentaResponse, error)

	ObtenerCuenta(ctx context.Context, tiendaID, clienteID uuid.UUID) (*dto.CuentaResponse, error)
	ListarMovimientos(ctx context.Context, tiendaID, clienteID uuid.UUID, page, limit int) ([]dto.MovimientoCuentaResponse, int64, error)

	// AplicarCargoPendiente applies a pending outbox charge to its account.
	// It is idempotent: charges that are no longer pendiente are left untouched.
	AplicarCargoPendiente(ctx context.Context, id uuid.UUID) error
	ListarCargos(ctx context.Context, tiendaID uuid.UUID, estado string) ([]dto.CargoCuentaResponse, error)
	ReintentarCargo(ctx context.Context, tiendaID, id uuid.UUID) (*dto.CargoCuentaResponse, error)
}

type cuentaService struct {
	cuentaRepo  repository.CuentaRepository
	clienteRepo repository.ClienteRepository
	cargoRepo   repository.CargoCuentaRepository
	ventaRepo   repository.VentaRepository
	now         func() time.Time
}

func NewCuentaService(
	cuentaRepo repository.CuentaRepository,
	clienteRepo repository.ClienteRepository,
	cargoRepo repository.CargoCuentaRepository,
	ventaRepo repository.VentaRepository,
) CuentaService {
	return &cuentaService{
		cuentaRepo:  cuentaRepo,
		clienteRepo: clienteRepo,
		cargoRepo:   cargoRepo,
		ventaRepo:   ventaRepo,
		now:         time.Now,
	}
}

// ── Incremento / decremento ──────────────────────────────────────────────────

func (s *cuentaService) IncrementarSaldo(ctx context.Context, in AjusteCuenta) (*dto.CuentaResponse, error) {
	var cuenta *model.CuentaCorriente
	err := runTx(ctx, s.cuentaRepo.DB(), func(tx *gorm.DB) error {
		var err error
		cuenta, err = s.IncrementarSaldoTx(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cuentaToResponse(cuenta), nil
}

func (s *cuentaService) IncrementarSaldoTx(ctx context.Context, tx *gorm.DB, in AjusteCuenta) (*model.CuentaCorriente, error) {
	if in.Monto.IsNegative() {
		return nil, apierror.Field("monto", "no puede ser negativo")
	}
	if err := s.clienteDeTienda(ctx, tx, in.TiendaID, in.ClienteID); err != nil {
		return nil, err
	}

	// First use creates the account.
	if err := s.cuentaRepo.Ensure(ctx, tx, in.ClienteID, in.TiendaID); err != nil {
		return nil, apierror.Internal("crear cuenta corriente", err)
	}
	cuenta, err := s.cuentaRepo.LockByCliente(ctx, tx, in.ClienteID)
	if err != nil {
		return nil, apierror.Internal("bloquear cuenta corriente", err)
	}

	antes := cuenta.Saldo
	cuenta.Saldo = antes.Add(in.Monto)
	cuenta.Descripcion = in.Descripcion
	cuenta.Estado = model.CuentaAbierta
	if err := s.guardar(ctx, tx, cuenta, model.CuentaIncremento, in, antes); err != nil {
		return nil, err
	}
	return cuenta, nil
}

func (s *cuentaService) DecrementarSaldo(ctx context.Context, in AjusteCuenta) (*dto.CuentaResponse, error) {
	var cuenta *model.CuentaCorriente
	err := runTx(ctx, s.cuentaRepo.DB(), func(tx *gorm.DB) error {
		var err error
		cuenta, err = s.DecrementarSaldoTx(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cuentaToResponse(cuenta), nil
}

// DecrementarSaldoTx subtracts Monto, clamping the balance at zero.
func (s *cuentaService) DecrementarSaldoTx(ctx context.Context, tx *gorm.DB, in AjusteCuenta) (*model.CuentaCorriente, error) {
	if in.Monto.IsNegative() {
		return nil, apierror.Field("monto", "no puede ser negativo")
	}
	if err := s.clienteDeTienda(ctx, tx, in.TiendaID, in.ClienteID); err != nil {
		return nil, err
	}
	cuenta, err := s.lockCuenta(ctx, tx, in.ClienteID)
	if err != nil {
		return nil, err
	}

	antes := cuenta.Saldo
	nuevo := antes.Sub(in.Monto)
	if nuevo.IsNegative() {
		nuevo = decimal.Zero
	}
	cuenta.Saldo = nuevo
	cuenta.Descripcion = in.Descripcion
	in.Monto = antes.Sub(nuevo)
	if err := s.guardar(ctx, tx, cuenta, model.CuentaDecremento, in, antes); err != nil {
		return nil, err
	}
	return cuenta, nil
}

// ── Saldar ───────────────────────────────────────────────────────────────────

// Saldar zeroes the account, marks it saldada and completes every
// pendiente_cuenta sale of the customer. Charges still in the outbox are
// applied first so the settled amount covers them.
func (s *cuentaService) Saldar(ctx context.Context, tiendaID, usuarioID, clienteID uuid.UUID) (*dto.SaldarCuentaResponse, error) {
	var (
		cuenta      *model.CuentaCorriente
		saldado     decimal.Decimal
		completadas int64
	)
	err := runTx(ctx, s.cuentaRepo.DB(), func(tx *gorm.DB) error {
		if err := s.clienteDeTienda(ctx, tx, tiendaID, clienteID); err != nil {
			return err
		}

		cargos, err := s.cargoRepo.LockNoAplicadosCliente(ctx, tx, clienteID)
		if err != nil {
			return apierror.Internal("listar cargos pendientes", err)
		}
		for i := range cargos {
			if err := s.aplicarCargoTx(ctx, tx, &cargos[i]); err != nil {
				return err
			}
		}

		cuenta, err = s.lockCuenta(ctx, tx, clienteID)
		if err != nil {
			return err
		}

		ahora := s.now()
		saldado = cuenta.Saldo
		cuenta.Saldo = decimal.Zero
		cuenta.Estado = model.CuentaSaldada
		cuenta.Descripcion += fmt.Sprintf(" | Saldada el %s", ahora.Format("02/01/2006 15:04"))
		uid := usuarioID
		in := AjusteCuenta{
			TiendaID:    tiendaID,
			ClienteID:   clienteID,
			UsuarioID:   &uid,
			Monto:       saldado,
			Descripcion: fmt.Sprintf("Liquidacion de cuenta el %s", ahora.Format("02/01/2006 15:04")),
		}
		if err := s.guardar(ctx, tx, cuenta, model.CuentaLiquidacion, in, saldado); err != nil {
			return err
		}

		completadas, err = s.ventaRepo.CompletarPendientes(ctx, tx, clienteID)
		if err != nil {
			return apierror.Internal("completar ventas pendientes", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.SaldarCuentaResponse{
		Cuenta:            *cuentaToResponse(cuenta),
		MontoSaldado:      saldado,
		VentasCompletadas: completadas,
	}, nil
}

// ── Outbox de cargos ─────────────────────────────────────────────────────────

func (s *cuentaService) AplicarCargoPendiente(ctx context.Context, id uuid.UUID) error {
	return runTx(ctx, s.cargoRepo.DB(), func(tx *gorm.DB) error {
		cargo, err := s.cargoRepo.LockByID(ctx, tx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return apierror.NotFound("cargo")
			}
			return apierror.Internal("bloquear cargo", err)
		}
		if cargo.Estado != model.CargoPendiente {
			return nil
		}
		return s.aplicarCargoTx(ctx, tx, cargo)
	})
}

func (s *cuentaService) aplicarCargoTx(ctx context.Context, tx *gorm.DB, cargo *model.CargoCuenta) error {
	ventaID := cargo.VentaID
	_, err := s.IncrementarSaldoTx(ctx, tx, AjusteCuenta{
		TiendaID:    cargo.TiendaID,
		ClienteID:   cargo.ClienteID,
		VentaID:     &ventaID,
		Monto:       cargo.Monto,
		Descripcion: cargo.Descripcion,
	})
	if err != nil {
		return err
	}
	ahora := s.now()
	cargo.Estado = model.CargoAplicado
	cargo.AplicadoEn = &ahora
	cargo.ProximoIntento = nil
	cargo.UltimoError = nil
	if err := s.cargoRepo.Save(ctx, tx, cargo); err != nil {
		return apierror.Internal("marcar cargo aplicado", err)
	}
	return nil
}

func (s *cuentaService) ListarCargos(ctx context.Context, tiendaID uuid.UUID, estado string) ([]dto.CargoCuentaResponse, error) {
	cargos, err := s.cargoRepo.List(ctx, tiendaID, estado)
	if err != nil {
		return nil, apierror.Internal("listar cargos", err)
	}
	out := make([]dto.CargoCuentaResponse, 0, len(cargos))
	for i := range cargos {
		out = append(out, *cargoToResponse(&cargos[i]))
	}
	return out, nil
}

// ReintentarCargo puts a charge that exhausted its retries back in the outbox
// and attempts it immediately.
func (s *cuentaService) ReintentarCargo(ctx context.Context, tiendaID, id uuid.UUID) (*dto.CargoCuentaResponse, error) {
	err := runTx(ctx, s.cargoRepo.DB(), func(tx *gorm.DB) error {
		cargo, err := s.cargoRepo.LockByID(ctx, tx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return apierror.NotFound("cargo")
			}
			return apierror.Internal("bloquear cargo", err)
		}
		if cargo.TiendaID != tiendaID {
			return apierror.Ownership("cargo")
		}
		if cargo.Estado != model.CargoError && cargo.Estado != model.CargoPendiente {
			return apierror.Business(apierror.RuleCargoNoReintentable, "el cargo esta %s y no puede reintentarse", cargo.Estado)
		}
		cargo.Estado = model.CargoPendiente
		cargo.Intentos = 0
		cargo.ProximoIntento = nil
		if err := s.cargoRepo.Save(ctx, tx, cargo); err != nil {
			return apierror.Internal("reprogramar cargo", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// A failure here leaves the charge pendiente for the retry cron.
	if err := s.AplicarCargoPendiente(ctx, id); err != nil {
		log.Warn().
			Err(err).
			Str("cargo_id", id.String()).
			Msg("cuenta: reintento manual fallido, el cargo queda pendiente")
	}

	cargo, err := s.cargoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.Internal("leer cargo", err)
	}
	return cargoToResponse(cargo), nil
}

// ── Consultas ────────────────────────────────────────────────────────────────

func (s *cuentaService) ObtenerCuenta(ctx context.Context, tiendaID, clienteID uuid.UUID) (*dto.CuentaResponse, error) {
	if err := s.clienteDeTienda(ctx, nil, tiendaID, clienteID); err != nil {
		return nil, err
	}
	cuenta, err := s.cuentaRepo.FindByCliente(ctx, clienteID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, cuentaInexistente()
		}
		return nil, apierror.Internal("buscar cuenta", err)
	}
	return cuentaToResponse(cuenta), nil
}

func (s *cuentaService) ListarMovimientos(ctx context.Context, tiendaID, clienteID uuid.UUID, page, limit int) ([]dto.MovimientoCuentaResponse, int64, error) {
	if err := s.clienteDeTienda(ctx, nil, tiendaID, clienteID); err != nil {
		return nil, 0, err
	}
	cuenta, err := s.cuentaRepo.FindByCliente(ctx, clienteID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, 0, cuentaInexistente()
		}
		return nil, 0, apierror.Internal("buscar cuenta", err)
	}
	movs, total, err := s.cuentaRepo.ListMovimientos(ctx, cuenta.ID, page, limit)
	if err != nil {
		return nil, 0, apierror.Internal("listar movimientos de cuenta", err)
	}
	out := make([]dto.MovimientoCuentaResponse, 0, len(movs))
	for _, m := range movs {
		r := dto.MovimientoCuentaResponse{
			ID:            m.ID.String(),
			Tipo:          m.Tipo,
			Monto:         m.Monto,
			SaldoAnterior: m.SaldoAnterior,
			SaldoNuevo:    m.SaldoNuevo,
			Descripcion:   m.Descripcion,
			CreatedAt:     m.CreatedAt.Format(time.RFC3339),
		}
		if m.VentaID != nil {
			v := m.VentaID.String()
			r.VentaID = &v
		}
		out = append(out, r)
	}
	return out, total, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (s *cuentaService) clienteDeTienda(ctx context.Context, tx *gorm.DB, tiendaID, clienteID uuid.UUID) error {
	c, err := s.clienteRepo.FindByID(ctx, tx, clienteID)
	if err != nil {
		if repository.IsNotFound(err) {
			return apierror.NotFound("cliente")
		}
		return apierror.Internal("buscar cliente", err)
	}
	if c.TiendaID != tiendaID {
		return apierror.Ownership("cliente")
	}
	return nil
}

func (s *cuentaService) lockCuenta(ctx context.Context, tx *gorm.DB, clienteID uuid.UUID) (*model.CuentaCorriente, error) {
	cuenta, err := s.cuentaRepo.LockByCliente(ctx, tx, clienteID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, cuentaInexistente()
		}
		return nil, apierror.Internal("bloquear cuenta corriente", err)
	}
	return cuenta, nil
}

// guardar persists the account and appends its history entry.
func (s *cuentaService) guardar(ctx context.Context, tx *gorm.DB, cuenta *model.CuentaCorriente, tipo string, in AjusteCuenta, antes decimal.Decimal) error {
	if err := s.cuentaRepo.Save(ctx, tx, cuenta); err != nil {
		return apierror.Internal("guardar cuenta corriente", err)
	}
	mov := &model.MovimientoCuenta{
		CuentaID:      cuenta.ID,
		VentaID:       in.VentaID,
		UsuarioID:     in.UsuarioID,
		Tipo:          tipo,
		Monto:         in.Monto,
		SaldoAnterior: antes,
		SaldoNuevo:    cuenta.Saldo,
		Descripcion:   in.Descripcion,
	}
	if err := s.cuentaRepo.CreateMovimiento(ctx, tx, mov); err != nil {
		return apierror.Internal("registrar movimiento de cuenta", err)
	}
	return nil
}

func cuentaInexistente() error {
	return apierror.Business(apierror.RuleCuentaInexistente, "el cliente no tiene cuenta corriente")
}

func cuentaToResponse(c *model.CuentaCorriente) *dto.CuentaResponse {
	return &dto.CuentaResponse{
		ID:          c.ID.String(),
		ClienteID:   c.ClienteID.String(),
		Saldo:       c.Saldo,
		Descripcion: c.Descripcion,
		Estado:      c.Estado,
		UpdatedAt:   c.UpdatedAt.Format(time.RFC3339),
	}
}

func cargoToResponse(c *model.CargoCuenta) *dto.CargoCuentaResponse {
	r := &dto.CargoCuentaResponse{
		ID:          c.ID.String(),
		VentaID:     c.VentaID.String(),
		ClienteID:   c.ClienteID.String(),
		Monto:       c.Monto,
		Estado:      c.Estado,
		Intentos:    c.Intentos,
		UltimoError: c.UltimoError,
	}
	if c.ProximoIntento != nil {
		p := c.ProximoIntento.Format(time.RFC3339)
		r.ProximoIntento = &p
	}
	return r
}
