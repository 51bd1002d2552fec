package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gestorpos/internal/apierror"
	"gestorpos/internal/config"
	"gestorpos/internal/dto"
	"gestorpos/internal/infra"
	"gestorpos/internal/model"
	"gestorpos/internal/repository"
	"gestorpos/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type VentaService interface {
	CrearVenta(ctx context.Context, tiendaID, usuarioID uuid.UUID, req dto.CrearVentaRequest) (*dto.VentaResponse, error)
	AnularVenta(ctx context.Context, tiendaID, usuarioID, id uuid.UUID, motivo string) (*dto.VentaResponse, error)
	ObtenerVenta(ctx context.Context, tiendaID, id uuid.UUID) (*dto.VentaResponse, error)
	ListarVentas(ctx context.Context, tiendaID uuid.UUID, filter dto.VentaFilter) (*dto.VentaListResponse, error)
	ComprobantePDF(ctx context.Context, tiendaID, id uuid.UUID) ([]byte, int64, error)
	Resumen(ctx context.Context, tiendaID uuid.UUID, filter dto.ReporteFilter) (*dto.ResumenVentasResponse, error)
}

type ventaService struct {
	repo         repository.VentaRepository
	productoRepo repository.ProductoRepository
	stockRepo    repository.StockRepository
	clienteRepo  repository.ClienteRepository
	cargoRepo    repository.CargoCuentaRepository
	inventario   InventarioService
	cuentas      CuentaService
	dispatcher   *worker.Dispatcher
	cfg          *config.Config
	now          func() time.Time
}

func NewVentaService(
	repo repository.VentaRepository,
	productoRepo repository.ProductoRepository,
	stockRepo repository.StockRepository,
	clienteRepo repository.ClienteRepository,
	cargoRepo repository.CargoCuentaRepository,
	inventario InventarioService,
	cuentas CuentaService,
	dispatcher *worker.Dispatcher,
	cfg *config.Config,
) VentaService {
	return &ventaService{
		repo:         repo,
		productoRepo: productoRepo,
		stockRepo:    stockRepo,
		clienteRepo:  clienteRepo,
		cargoRepo:    cargoRepo,
		inventario:   inventario,
		cuentas:      cuentas,
		dispatcher:   dispatcher,
		cfg:          cfg,
		now:          time.Now,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── CrearVenta ────────────────────────────────────────────────────────────────
//   1. Resolve customer and every line (product of the store, active, enough stock)
//   2. Any failing line aborts the whole sale before any write
//   3. Totals, discount, change, estado and notes
//   4. BEGIN TX: nextval numero, venta+items, stock exits, outbox charge
//   5. COMMIT
//   6. Apply the outbox charge; failure is logged and left to the retry cron

type lineaVenta struct {
	producto *model.Producto
	cantidad int
	subtotal decimal.Decimal
}

func (s *ventaService) CrearVenta(ctx context.Context, tiendaID, usuarioID uuid.UUID, req dto.CrearVentaRequest) (*dto.VentaResponse, error) {
	switch req.MetodoPago {
	case model.PagoEfectivo, model.PagoPix, model.PagoDebito, model.PagoCredito, model.PagoCuentaCorriente:
	default:
		return nil, apierror.Field("metodo_pago", "metodo de pago invalido")
	}
	if len(req.Items) == 0 {
		return nil, apierror.Field("items", "la venta debe tener al menos un item")
	}

	// 1. Customer
	var clienteID *uuid.UUID
	if req.ClienteID != nil && *req.ClienteID != "" {
		id, err := s.resolverCliente(ctx, tiendaID, *req.ClienteID)
		if err != nil {
			return nil, err
		}
		clienteID = &id
	}

	// 1-4. Lines
	lineas, err := s.resolverLineas(ctx, tiendaID, req.Items)
	if err != nil {
		return nil, err
	}

	// 5. Totals
	subtotal := decimal.Zero
	for _, l := range lineas {
		subtotal = subtotal.Add(l.subtotal)
	}
	descuento := req.Descuento
	if descuento.IsNegative() {
		return nil, apierror.Field("descuento", "no puede ser negativo")
	}
	if descuento.GreaterThan(subtotal) {
		return nil, apierror.Field("descuento", "no puede superar el subtotal")
	}
	total := subtotal.Sub(descuento)

	// 6. Change, cash only
	var recibido, vuelto *decimal.Decimal
	if req.MetodoPago == model.PagoEfectivo && req.MontoRecibido != nil {
		r := *req.MontoRecibido
		v := decimal.Max(decimal.Zero, r.Sub(total))
		recibido, vuelto = &r, &v
	}

	// 7. Estado
	estado := model.VentaCompletada
	if req.MetodoPago == model.PagoCuentaCorriente {
		estado = model.VentaPendienteCuenta
	}

	resumen := s.resumenItems(lineas)
	notas := resumen
	if req.Notas != nil && strings.TrimSpace(*req.Notas) != "" {
		notas = strings.TrimSpace(*req.Notas) + "\n" + resumen
	}

	// 8-9. Persist sale and stock exits atomically
	var (
		venta model.Venta
		cargo *model.CargoCuenta
	)
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		numero, err := s.repo.NextNumero(ctx, tx)
		if err != nil {
			return apierror.Internal("numerar venta", err)
		}

		venta = model.Venta{
			Numero:        numero,
			TiendaID:      tiendaID,
			UsuarioID:     usuarioID,
			ClienteID:     clienteID,
			Subtotal:      subtotal,
			Descuento:     descuento,
			Total:         total,
			MetodoPago:    req.MetodoPago,
			MontoRecibido: recibido,
			Vuelto:        vuelto,
			Estado:        estado,
			Notas:         notas,
		}
		for _, l := range lineas {
			venta.Items = append(venta.Items, model.VentaItem{
				ProductoID:     l.producto.ID,
				Cantidad:       l.cantidad,
				PrecioUnitario: l.producto.PrecioVenta,
				Subtotal:       l.subtotal,
			})
		}
		if err := s.repo.Create(ctx, tx, &venta); err != nil {
			return apierror.Internal("crear venta", err)
		}

		motivo := fmt.Sprintf("Venta #%d", numero)
		for _, item := range itemsEnOrdenDeBloqueo(venta.Items) {
			_, _, err := s.inventario.AplicarMovimientoTx(ctx, tx, MovimientoInput{
				TiendaID:   tiendaID,
				UsuarioID:  usuarioID,
				ProductoID: item.ProductoID,
				Tipo:       model.MovimientoSalida,
				Cantidad:   item.Cantidad,
				Motivo:     &motivo,
				VentaID:    &venta.ID,
			})
			if err != nil {
				// Another sale took the stock between validation and lock.
				var br *apierror.BusinessRuleError
				if errors.As(err, &br) && br.Rule == apierror.RuleSaldoNegativo && br.Disponible != nil {
					return apierror.StockInsuficiente(*br.Disponible)
				}
				return err
			}
		}

		// 10. Outbox row in the same transaction as the sale
		if req.MetodoPago == model.PagoCuentaCorriente && clienteID != nil {
			cargo = &model.CargoCuenta{
				VentaID:     venta.ID,
				TiendaID:    tiendaID,
				ClienteID:   *clienteID,
				Monto:       total,
				Descripcion: fmt.Sprintf("Venta #%d: %s", numero, resumen),
				Estado:      model.CargoPendiente,
			}
			if err := s.cargoRepo.Create(ctx, tx, cargo); err != nil {
				return apierror.Internal("registrar cargo en cuenta", err)
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	// 10. Post-commit: apply the charge; the sale stays committed regardless.
	if cargo != nil {
		if err := s.cuentas.AplicarCargoPendiente(ctx, cargo.ID); err != nil {
			log.Warn().
				Err(err).
				Str("venta_id", venta.ID.String()).
				Str("cargo_id", cargo.ID.String()).
				Msg("venta: no se pudo aplicar el cargo en cuenta corriente, queda pendiente")
			if s.dispatcher != nil {
				if qerr := s.dispatcher.EnqueueCargoCuenta(ctx, worker.CargoJobPayload{CargoID: cargo.ID.String()}); qerr != nil {
					log.Warn().Err(qerr).Str("cargo_id", cargo.ID.String()).Msg("venta: no se pudo encolar el cargo")
				}
			}
		}
	}

	for i := range venta.Items {
		for _, l := range lineas {
			if l.producto.ID == venta.Items[i].ProductoID {
				venta.Items[i].Producto = l.producto
				break
			}
		}
	}
	return ventaToResponse(&venta), nil
}

func (s *ventaService) resolverCliente(ctx context.Context, tiendaID uuid.UUID, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apierror.Field("cliente_id", "uuid invalido")
	}
	c, err := s.clienteRepo.FindByID(ctx, nil, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return uuid.Nil, apierror.Field("cliente_id", "cliente no encontrado")
		}
		return uuid.Nil, apierror.Internal("buscar cliente", err)
	}
	if c.TiendaID != tiendaID {
		return uuid.Nil, apierror.Ownership("cliente")
	}
	return id, nil
}

// resolverLineas validates every line and reports all failures together,
// keyed by line index. Quantities of repeated products are checked cumulatively.
func (s *ventaService) resolverLineas(ctx context.Context, tiendaID uuid.UUID, items []dto.ItemVentaRequest) ([]lineaVenta, error) {
	lineas := make([]lineaVenta, len(items))
	fallos := make(map[int]error)
	pedido := make(map[uuid.UUID]int)

	for i, item := range items {
		if item.Cantidad <= 0 {
			fallos[i] = apierror.Field("cantidad", "debe ser mayor a cero")
			continue
		}
		pid, err := uuid.Parse(item.ProductoID)
		if err != nil {
			fallos[i] = apierror.Field("producto_id", "uuid invalido")
			continue
		}
		p, err := s.productoRepo.FindByID(ctx, nil, pid)
		if err != nil && !repository.IsNotFound(err) {
			return nil, apierror.Internal("buscar producto", err)
		}
		if err != nil || p.TiendaID != tiendaID || p.Eliminado {
			fallos[i] = apierror.Field("producto_id", "producto no encontrado")
			continue
		}
		if !p.Activo {
			fallos[i] = apierror.Business(apierror.RuleProductoInactivo, "el producto %s esta inactivo", p.Nombre)
			continue
		}

		disponible, err := s.stockRepo.Cantidad(ctx, nil, pid, tiendaID)
		if err != nil {
			return nil, apierror.Internal("leer stock", err)
		}
		ya := pedido[pid]
		if ya+item.Cantidad > disponible {
			fallos[i] = apierror.StockInsuficiente(max(disponible-ya, 0))
			continue
		}
		pedido[pid] = ya + item.Cantidad

		lineas[i] = lineaVenta{
			producto: p,
			cantidad: item.Cantidad,
			subtotal: p.PrecioVenta.Mul(decimal.NewFromInt(int64(item.Cantidad))),
		}
	}

	if len(fallos) > 0 {
		return nil, &apierror.ItemsError{Lines: fallos}
	}
	return lineas, nil
}

// resumenItems renders "Producto (Cant: n, Subtotal: R$x) + …".
func (s *ventaService) resumenItems(lineas []lineaVenta) string {
	simbolo := "R$"
	if s.cfg != nil && s.cfg.CurrencySymbol != "" {
		simbolo = s.cfg.CurrencySymbol
	}
	partes := make([]string, 0, len(lineas))
	for _, l := range lineas {
		partes = append(partes, fmt.Sprintf("%s (Cant: %d, Subtotal: %s%s)",
			l.producto.Nombre, l.cantidad, simbolo, l.subtotal.StringFixed(2)))
	}
	return strings.Join(partes, " + ")
}

// itemsEnOrdenDeBloqueo sorts by product id so concurrent sales lock stock rows
// in the same order.
func itemsEnOrdenDeBloqueo(items []model.VentaItem) []model.VentaItem {
	out := make([]model.VentaItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ProductoID.String() < out[j].ProductoID.String()
	})
	return out
}

// ── AnularVenta ───────────────────────────────────────────────────────────────

func (s *ventaService) AnularVenta(ctx context.Context, tiendaID, usuarioID, id uuid.UUID, motivo string) (*dto.VentaResponse, error) {
	var razonAnulacion *string
	if m := strings.TrimSpace(motivo); m != "" {
		razonAnulacion = &m
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		venta, err := s.repo.LockByID(ctx, tx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return apierror.NotFound("venta")
			}
			return apierror.Internal("bloquear venta", err)
		}
		if venta.TiendaID != tiendaID {
			return apierror.Ownership("venta")
		}
		if venta.Estado == model.VentaAnulada {
			return apierror.Business(apierror.RuleVentaAnulada, "la venta #%d ya esta anulada", venta.Numero)
		}

		razon := fmt.Sprintf("Anulación de Venta #%d", venta.Numero)
		for _, item := range itemsEnOrdenDeBloqueo(venta.Items) {
			_, _, err := s.inventario.AplicarMovimientoTx(ctx, tx, MovimientoInput{
				TiendaID:   tiendaID,
				UsuarioID:  usuarioID,
				ProductoID: item.ProductoID,
				Tipo:       model.MovimientoEntrada,
				Cantidad:   item.Cantidad,
				Motivo:     &razon,
				VentaID:    &venta.ID,
			})
			if err != nil {
				return err
			}
		}

		if venta.MetodoPago == model.PagoCuentaCorriente && venta.ClienteID != nil {
			if err := s.revertirCuenta(ctx, tx, venta, usuarioID, razon); err != nil {
				return err
			}
		}

		return s.repo.Anular(ctx, tx, venta.ID, razonAnulacion, s.now())
	})
	if txErr != nil {
		return nil, txErr
	}
	return s.ObtenerVenta(ctx, tiendaID, id)
}

// revertirCuenta undoes the store-credit effect of a sale. A charge that never
// reached the account is discarded; an applied one is subtracted.
func (s *ventaService) revertirCuenta(ctx context.Context, tx *gorm.DB, venta *model.Venta, usuarioID uuid.UUID, razon string) error {
	cargo, err := s.cargoRepo.LockByVenta(ctx, tx, venta.ID)
	if err != nil && !repository.IsNotFound(err) {
		return apierror.Internal("bloquear cargo", err)
	}
	if err == nil && (cargo.Estado == model.CargoPendiente || cargo.Estado == model.CargoError) {
		cargo.Estado = model.CargoDescartado
		cargo.ProximoIntento = nil
		if err := s.cargoRepo.Save(ctx, tx, cargo); err != nil {
			return apierror.Internal("descartar cargo", err)
		}
		return nil
	}

	uid := usuarioID
	_, err = s.cuentas.DecrementarSaldoTx(ctx, tx, AjusteCuenta{
		TiendaID:    venta.TiendaID,
		ClienteID:   *venta.ClienteID,
		UsuarioID:   &uid,
		VentaID:     &venta.ID,
		Monto:       venta.Total,
		Descripcion: razon,
	})
	return err
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *ventaService) ObtenerVenta(ctx context.Context, tiendaID, id uuid.UUID) (*dto.VentaResponse, error) {
	v, err := s.ventaDeTienda(ctx, tiendaID, id)
	if err != nil {
		return nil, err
	}
	return ventaToResponse(v), nil
}

func (s *ventaService) ventaDeTienda(ctx context.Context, tiendaID, id uuid.UUID) (*model.Venta, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.NotFound("venta")
		}
		return nil, apierror.Internal("buscar venta", err)
	}
	if v.TiendaID != tiendaID {
		return nil, apierror.Ownership("venta")
	}
	return v, nil
}

// ListarVentas returns a paginated list of sales in a date range.
// Default range: today.
func (s *ventaService) ListarVentas(ctx context.Context, tiendaID uuid.UUID, filter dto.VentaFilter) (*dto.VentaListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	desde, hasta, err := rangoFechas(filter.Desde, filter.Hasta, s.now())
	if err != nil {
		return nil, err
	}
	ventas, total, err := s.repo.List(ctx, tiendaID, desde, hasta, filter)
	if err != nil {
		return nil, apierror.Internal("listar ventas", err)
	}
	data := make([]dto.VentaResponse, 0, len(ventas))
	for i := range ventas {
		data = append(data, *ventaToResponse(&ventas[i]))
	}
	return &dto.VentaListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// ComprobantePDF renders the receipt and returns it with the sale number.
func (s *ventaService) ComprobantePDF(ctx context.Context, tiendaID, id uuid.UUID) ([]byte, int64, error) {
	v, err := s.ventaDeTienda(ctx, tiendaID, id)
	if err != nil {
		return nil, 0, err
	}
	opts := infra.ComprobanteOpciones{Negocio: "GestorPOS", Simbolo: "R$"}
	if s.cfg != nil {
		opts.Negocio = s.cfg.BusinessName
		opts.Simbolo = s.cfg.CurrencySymbol
	}
	pdf, err := infra.GenerarComprobantePDF(v, opts)
	if err != nil {
		return nil, 0, apierror.Internal("generar comprobante", err)
	}
	return pdf, v.Numero, nil
}

func (s *ventaService) Resumen(ctx context.Context, tiendaID uuid.UUID, filter dto.ReporteFilter) (*dto.ResumenVentasResponse, error) {
	desde, hasta, err := rangoFechas(filter.Desde, filter.Hasta, s.now())
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ResumenPorMetodo(ctx, tiendaID, desde, hasta)
	if err != nil {
		return nil, apierror.Internal("resumen de ventas", err)
	}
	anuladas, err := s.repo.ContarAnuladas(ctx, tiendaID, desde, hasta)
	if err != nil {
		return nil, apierror.Internal("contar anuladas", err)
	}
	pendiente, err := s.repo.TotalPendienteCuenta(ctx, tiendaID)
	if err != nil {
		return nil, apierror.Internal("total pendiente", err)
	}

	resp := &dto.ResumenVentasResponse{
		Desde:           desde.Format("2006-01-02"),
		Hasta:           hasta.AddDate(0, 0, -1).Format("2006-01-02"),
		TotalVendido:    decimal.Zero,
		PorMetodo:       make([]dto.ResumenMetodo, 0, len(rows)),
		Anuladas:        anuladas,
		PendienteCuenta: pendiente,
	}
	for _, r := range rows {
		resp.CantidadVentas += r.Cantidad
		resp.TotalVendido = resp.TotalVendido.Add(r.Total)
		resp.PorMetodo = append(resp.PorMetodo, dto.ResumenMetodo{MetodoPago: r.MetodoPago, Cantidad: r.Cantidad, Total: r.Total})
	}
	return resp, nil
}

// rangoFechas parses YYYY-MM-DD bounds into [desde, hasta+1d). Empty desde is today.
func rangoFechas(desdeStr, hastaStr string, now time.Time) (time.Time, time.Time, error) {
	loc := now.Location()
	desde := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if desdeStr != "" {
		d, err := time.ParseInLocation("2006-01-02", desdeStr, loc)
		if err != nil {
			return time.Time{}, time.Time{}, apierror.Field("desde", "formato esperado YYYY-MM-DD")
		}
		desde = d
	}
	hasta := desde
	if hastaStr != "" {
		h, err := time.ParseInLocation("2006-01-02", hastaStr, loc)
		if err != nil {
			return time.Time{}, time.Time{}, apierror.Field("hasta", "formato esperado YYYY-MM-DD")
		}
		hasta = h
	}
	if hasta.Before(desde) {
		return time.Time{}, time.Time{}, apierror.Field("hasta", "no puede ser anterior a desde")
	}
	return desde, hasta.AddDate(0, 0, 1), nil
}

func ventaToResponse(v *model.Venta) *dto.VentaResponse {
	items := make([]dto.ItemVentaResponse, 0, len(v.Items))
	for _, item := range v.Items {
		nombre := ""
		if item.Producto != nil {
			nombre = item.Producto.Nombre
		}
		items = append(items, dto.ItemVentaResponse{
			ProductoID:     item.ProductoID.String(),
			Producto:       nombre,
			Cantidad:       item.Cantidad,
			PrecioUnitario: item.PrecioUnitario,
			Subtotal:       item.Subtotal,
		})
	}
	resp := &dto.VentaResponse{
		ID:              v.ID.String(),
		Numero:          v.Numero,
		UsuarioID:       v.UsuarioID.String(),
		Items:           items,
		Subtotal:        v.Subtotal,
		Descuento:       v.Descuento,
		Total:           v.Total,
		MetodoPago:      v.MetodoPago,
		MontoRecibido:   v.MontoRecibido,
		Vuelto:          v.Vuelto,
		Estado:          v.Estado,
		Notas:           v.Notas,
		MotivoAnulacion: v.MotivoAnulacion,
		CreatedAt:       v.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if v.ClienteID != nil {
		c := v.ClienteID.String()
		resp.ClienteID = &c
	}
	return resp
}
