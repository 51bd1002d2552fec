package service_test

import (
	"context"
	"sort"
	"strings"
	"time"

	"gestorpos/internal/config"
	"gestorpos/internal/dto"
	"gestorpos/internal/model"
	"gestorpos/internal/repository"
	"gestorpos/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory repositories. DB() returns nil so services run their transactional
// blocks directly. Reads return copies and Save writes them back, like a database.

// ── Productos ─────────────────────────────────────────────────────────────────

type stubProductoRepo struct {
	productos map[uuid.UUID]*model.Producto
	stock     *stubStockRepo
}

func newStubProductoRepo() *stubProductoRepo {
	return &stubProductoRepo{productos: make(map[uuid.UUID]*model.Producto)}
}

func (r *stubProductoRepo) Create(_ context.Context, _ *gorm.DB, p *model.Producto) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	r.productos[p.ID] = &cp
	return nil
}

func (r *stubProductoRepo) FindByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	p, ok := r.productos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductoRepo) FindVigenteByNombre(_ context.Context, tiendaID uuid.UUID, nombre string) (*model.Producto, error) {
	for _, p := range r.productos {
		if p.TiendaID == tiendaID && !p.Eliminado && strings.EqualFold(p.Nombre, nombre) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductoRepo) List(_ context.Context, tiendaID uuid.UUID, _ dto.ProductoFilter) ([]model.Producto, int64, error) {
	var out []model.Producto
	for _, p := range r.productos {
		if p.TiendaID == tiendaID && !p.Eliminado {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, int64(len(out)), nil
}

func (r *stubProductoRepo) Update(_ context.Context, p *model.Producto) error {
	cp := *p
	r.productos[p.ID] = &cp
	return nil
}

func (r *stubProductoRepo) SoftDelete(_ context.Context, id uuid.UUID, at time.Time) error {
	p, ok := r.productos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Eliminado = true
	p.Activo = false
	p.EliminadoEn = &at
	return nil
}

func (r *stubProductoRepo) HardDelete(_ context.Context, id uuid.UUID) error {
	delete(r.productos, id)
	return nil
}

func (r *stubProductoRepo) TieneHistorial(_ context.Context, id uuid.UUID) (bool, error) {
	if r.stock == nil {
		return false, nil
	}
	for _, m := range r.stock.movimientos {
		if m.ProductoID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubProductoRepo) DB() *gorm.DB { return nil }

var _ repository.ProductoRepository = (*stubProductoRepo)(nil)

// ── Stock ─────────────────────────────────────────────────────────────────────

type nivelKey struct{ producto, tienda uuid.UUID }

type stubStockRepo struct {
	niveles     map[nivelKey]*model.NivelStock
	movimientos []model.MovimientoStock
	productos   *stubProductoRepo
}

func newStubStockRepo(productos *stubProductoRepo) *stubStockRepo {
	s := &stubStockRepo{niveles: make(map[nivelKey]*model.NivelStock), productos: productos}
	productos.stock = s
	return s
}

func (r *stubStockRepo) LockNivel(_ context.Context, _ *gorm.DB, productoID, tiendaID uuid.UUID) (*model.NivelStock, error) {
	k := nivelKey{productoID, tiendaID}
	n, ok := r.niveles[k]
	if !ok {
		n = &model.NivelStock{ID: uuid.New(), ProductoID: productoID, TiendaID: tiendaID}
		r.niveles[k] = n
	}
	cp := *n
	return &cp, nil
}

func (r *stubStockRepo) SaveNivel(_ context.Context, _ *gorm.DB, n *model.NivelStock) error {
	cp := *n
	r.niveles[nivelKey{n.ProductoID, n.TiendaID}] = &cp
	return nil
}

func (r *stubStockRepo) CreateMovimiento(_ context.Context, _ *gorm.DB, m *model.MovimientoStock) error {
	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	r.movimientos = append(r.movimientos, *m)
	return nil
}

func (r *stubStockRepo) Cantidad(_ context.Context, _ *gorm.DB, productoID, tiendaID uuid.UUID) (int, error) {
	if n, ok := r.niveles[nivelKey{productoID, tiendaID}]; ok {
		return n.Cantidad, nil
	}
	return 0, nil
}

func (r *stubStockRepo) Cantidades(ctx context.Context, tiendaID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(ids))
	for _, id := range ids {
		out[id], _ = r.Cantidad(ctx, nil, id, tiendaID)
	}
	return out, nil
}

func (r *stubStockRepo) SumaMovimientos(_ context.Context, productoID, tiendaID uuid.UUID) (int, error) {
	suma := 0
	for _, m := range r.movimientos {
		if m.ProductoID == productoID && m.TiendaID == tiendaID {
			suma += m.Cantidad
		}
	}
	return suma, nil
}

func (r *stubStockRepo) ListMovimientos(_ context.Context, tiendaID uuid.UUID, filter dto.MovimientoStockFilter) ([]model.MovimientoStock, int64, error) {
	var out []model.MovimientoStock
	for _, m := range r.movimientos {
		if m.TiendaID != tiendaID {
			continue
		}
		if filter.ProductoID != "" && m.ProductoID.String() != filter.ProductoID {
			continue
		}
		if filter.Tipo != "" && m.Tipo != filter.Tipo {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

func (r *stubStockRepo) Alertas(_ context.Context, tiendaID uuid.UUID) ([]repository.AlertaStock, error) {
	var out []repository.AlertaStock
	for _, p := range r.productos.productos {
		if p.TiendaID != tiendaID || p.Eliminado || !p.Activo {
			continue
		}
		cant, _ := r.Cantidad(context.Background(), nil, p.ID, tiendaID)
		if cant <= p.StockMinimo {
			out = append(out, repository.AlertaStock{ProductoID: p.ID, Nombre: p.Nombre, Cantidad: cant, StockMinimo: p.StockMinimo})
		}
	}
	return out, nil
}

func (r *stubStockRepo) DB() *gorm.DB { return nil }

var _ repository.StockRepository = (*stubStockRepo)(nil)

// ── Clientes ──────────────────────────────────────────────────────────────────

type stubClienteRepo struct {
	clientes map[uuid.UUID]*model.Cliente
	cuentas  *stubCuentaRepo
	ventas   *stubVentaRepo
	cargos   *stubCargoRepo
}

func newStubClienteRepo() *stubClienteRepo {
	return &stubClienteRepo{clientes: make(map[uuid.UUID]*model.Cliente)}
}

func (r *stubClienteRepo) Create(_ context.Context, c *model.Cliente) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	r.clientes[c.ID] = &cp
	return nil
}

func (r *stubClienteRepo) FindByID(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.Cliente, error) {
	c, ok := r.clientes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	if r.cuentas != nil {
		if cuenta, ok := r.cuentas.byCliente[id]; ok {
			cc := *cuenta
			cp.Cuenta = &cc
		}
	}
	return &cp, nil
}

func (r *stubClienteRepo) FindByEmail(_ context.Context, tiendaID uuid.UUID, email string) (*model.Cliente, error) {
	for _, c := range r.clientes {
		if c.TiendaID == tiendaID && strings.EqualFold(c.Email, email) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubClienteRepo) List(_ context.Context, tiendaID uuid.UUID, filter dto.ClienteFilter) ([]model.Cliente, int64, error) {
	var out []model.Cliente
	q := strings.ToLower(filter.Busqueda)
	for _, c := range r.clientes {
		if c.TiendaID != tiendaID {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(c.Nombre), q) && !strings.Contains(c.Email, q) {
			continue
		}
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (r *stubClienteRepo) TieneHistorial(_ context.Context, id uuid.UUID) (bool, error) {
	if r.ventas != nil {
		for _, v := range r.ventas.ventas {
			if v.ClienteID != nil && *v.ClienteID == id {
				return true, nil
			}
		}
	}
	if r.cargos != nil {
		for _, c := range r.cargos.cargos {
			if c.ClienteID == id {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *stubClienteRepo) Update(_ context.Context, c *model.Cliente) error {
	cp := *c
	cp.Cuenta = nil
	r.clientes[c.ID] = &cp
	return nil
}

func (r *stubClienteRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.clientes, id)
	if r.cuentas != nil {
		delete(r.cuentas.byCliente, id)
	}
	return nil
}

var _ repository.ClienteRepository = (*stubClienteRepo)(nil)

// ── Cuentas corrientes ────────────────────────────────────────────────────────

type stubCuentaRepo struct {
	byCliente   map[uuid.UUID]*model.CuentaCorriente
	movimientos []model.MovimientoCuenta
	// failEnsure simulates the database rejecting account writes.
	failEnsure error
}

func newStubCuentaRepo() *stubCuentaRepo {
	return &stubCuentaRepo{byCliente: make(map[uuid.UUID]*model.CuentaCorriente)}
}

func (r *stubCuentaRepo) Ensure(_ context.Context, _ *gorm.DB, clienteID, tiendaID uuid.UUID) error {
	if r.failEnsure != nil {
		return r.failEnsure
	}
	if _, ok := r.byCliente[clienteID]; !ok {
		r.byCliente[clienteID] = &model.CuentaCorriente{
			ID:        uuid.New(),
			ClienteID: clienteID,
			TiendaID:  tiendaID,
			Saldo:     decimal.Zero,
			Estado:    model.CuentaAbierta,
		}
	}
	return nil
}

func (r *stubCuentaRepo) LockByCliente(_ context.Context, _ *gorm.DB, clienteID uuid.UUID) (*model.CuentaCorriente, error) {
	c, ok := r.byCliente[clienteID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubCuentaRepo) FindByCliente(ctx context.Context, clienteID uuid.UUID) (*model.CuentaCorriente, error) {
	return r.LockByCliente(ctx, nil, clienteID)
}

func (r *stubCuentaRepo) Save(_ context.Context, _ *gorm.DB, c *model.CuentaCorriente) error {
	cp := *c
	r.byCliente[c.ClienteID] = &cp
	return nil
}

func (r *stubCuentaRepo) CreateMovimiento(_ context.Context, _ *gorm.DB, m *model.MovimientoCuenta) error {
	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	r.movimientos = append(r.movimientos, *m)
	return nil
}

func (r *stubCuentaRepo) ListMovimientos(_ context.Context, cuentaID uuid.UUID, _, _ int) ([]model.MovimientoCuenta, int64, error) {
	var out []model.MovimientoCuenta
	for _, m := range r.movimientos {
		if m.CuentaID == cuentaID {
			out = append(out, m)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubCuentaRepo) DB() *gorm.DB { return nil }

var _ repository.CuentaRepository = (*stubCuentaRepo)(nil)

// ── Cargos (outbox) ───────────────────────────────────────────────────────────

type stubCargoRepo struct {
	cargos map[uuid.UUID]*model.CargoCuenta
}

func newStubCargoRepo() *stubCargoRepo {
	return &stubCargoRepo{cargos: make(map[uuid.UUID]*model.CargoCuenta)}
}

func (r *stubCargoRepo) Create(_ context.Context, _ *gorm.DB, c *model.CargoCuenta) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	cp := *c
	r.cargos[c.ID] = &cp
	return nil
}

func (r *stubCargoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CargoCuenta, error) {
	c, ok := r.cargos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubCargoRepo) LockByID(ctx context.Context, _ *gorm.DB, id uuid.UUID) (*model.CargoCuenta, error) {
	return r.FindByID(ctx, id)
}

func (r *stubCargoRepo) LockByVenta(_ context.Context, _ *gorm.DB, ventaID uuid.UUID) (*model.CargoCuenta, error) {
	for _, c := range r.cargos {
		if c.VentaID == ventaID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCargoRepo) LockNoAplicadosCliente(_ context.Context, _ *gorm.DB, clienteID uuid.UUID) ([]model.CargoCuenta, error) {
	var out []model.CargoCuenta
	for _, c := range r.cargos {
		if c.ClienteID == clienteID && (c.Estado == model.CargoPendiente || c.Estado == model.CargoError) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *stubCargoRepo) ListVencidos(_ context.Context, now time.Time, limit int) ([]model.CargoCuenta, error) {
	var out []model.CargoCuenta
	for _, c := range r.cargos {
		if c.Estado == model.CargoPendiente && (c.ProximoIntento == nil || !c.ProximoIntento.After(now)) {
			out = append(out, *c)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubCargoRepo) List(_ context.Context, tiendaID uuid.UUID, estado string) ([]model.CargoCuenta, error) {
	var out []model.CargoCuenta
	for _, c := range r.cargos {
		if c.TiendaID == tiendaID && (estado == "" || c.Estado == estado) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubCargoRepo) Save(_ context.Context, _ *gorm.DB, c *model.CargoCuenta) error {
	cp := *c
	r.cargos[c.ID] = &cp
	return nil
}

func (r *stubCargoRepo) DB() *gorm.DB { return nil }

var _ repository.CargoCuentaRepository = (*stubCargoRepo)(nil)

// ── Ventas ────────────────────────────────────────────────────────────────────

type stubVentaRepo struct {
	ventas map[uuid.UUID]*model.Venta
	seq    int64
}

func newStubVentaRepo() *stubVentaRepo {
	return &stubVentaRepo{ventas: make(map[uuid.UUID]*model.Venta)}
}

func (r *stubVentaRepo) Create(_ context.Context, _ *gorm.DB, v *model.Venta) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.CreatedAt = time.Now()
	for i := range v.Items {
		v.Items[i].ID = uuid.New()
		v.Items[i].VentaID = v.ID
	}
	cp := *v
	cp.Items = append([]model.VentaItem(nil), v.Items...)
	r.ventas[v.ID] = &cp
	return nil
}

func (r *stubVentaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Venta, error) {
	v, ok := r.ventas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *v
	cp.Items = append([]model.VentaItem(nil), v.Items...)
	return &cp, nil
}

func (r *stubVentaRepo) LockByID(ctx context.Context, _ *gorm.DB, id uuid.UUID) (*model.Venta, error) {
	return r.FindByID(ctx, id)
}

func (r *stubVentaRepo) Anular(_ context.Context, _ *gorm.DB, id uuid.UUID, motivo *string, at time.Time) error {
	v, ok := r.ventas[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	v.Estado = model.VentaAnulada
	v.MotivoAnulacion = motivo
	v.AnuladaEn = &at
	return nil
}

func (r *stubVentaRepo) CompletarPendientes(_ context.Context, _ *gorm.DB, clienteID uuid.UUID) (int64, error) {
	var n int64
	for _, v := range r.ventas {
		if v.ClienteID != nil && *v.ClienteID == clienteID &&
			v.MetodoPago == model.PagoCuentaCorriente && v.Estado == model.VentaPendienteCuenta {
			v.Estado = model.VentaCompletada
			n++
		}
	}
	return n, nil
}

func (r *stubVentaRepo) NextNumero(_ context.Context, _ *gorm.DB) (int64, error) {
	r.seq++
	return r.seq, nil
}

func (r *stubVentaRepo) List(_ context.Context, tiendaID uuid.UUID, _, _ time.Time, filter dto.VentaFilter) ([]model.Venta, int64, error) {
	var out []model.Venta
	for _, v := range r.ventas {
		if v.TiendaID == tiendaID && (filter.Estado == "" || filter.Estado == "all" || v.Estado == filter.Estado) {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Numero < out[j].Numero })
	return out, int64(len(out)), nil
}

func (r *stubVentaRepo) ResumenPorMetodo(_ context.Context, tiendaID uuid.UUID, _, _ time.Time) ([]repository.ResumenMetodoRow, error) {
	acc := map[string]*repository.ResumenMetodoRow{}
	for _, v := range r.ventas {
		if v.TiendaID != tiendaID || v.Estado == model.VentaAnulada {
			continue
		}
		row, ok := acc[v.MetodoPago]
		if !ok {
			row = &repository.ResumenMetodoRow{MetodoPago: v.MetodoPago, Total: decimal.Zero}
			acc[v.MetodoPago] = row
		}
		row.Cantidad++
		row.Total = row.Total.Add(v.Total)
	}
	out := make([]repository.ResumenMetodoRow, 0, len(acc))
	for _, row := range acc {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MetodoPago < out[j].MetodoPago })
	return out, nil
}

func (r *stubVentaRepo) ContarAnuladas(_ context.Context, tiendaID uuid.UUID, _, _ time.Time) (int64, error) {
	var n int64
	for _, v := range r.ventas {
		if v.TiendaID == tiendaID && v.Estado == model.VentaAnulada {
			n++
		}
	}
	return n, nil
}

func (r *stubVentaRepo) TotalPendienteCuenta(_ context.Context, tiendaID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, v := range r.ventas {
		if v.TiendaID == tiendaID && v.Estado == model.VentaPendienteCuenta {
			total = total.Add(v.Total)
		}
	}
	return total, nil
}

func (r *stubVentaRepo) DB() *gorm.DB { return nil }

var _ repository.VentaRepository = (*stubVentaRepo)(nil)

// ── Categorias ────────────────────────────────────────────────────────────────

type stubCategoriaRepo struct {
	categorias map[uuid.UUID]*model.Categoria
}

func newStubCategoriaRepo() *stubCategoriaRepo {
	return &stubCategoriaRepo{categorias: make(map[uuid.UUID]*model.Categoria)}
}

func (r *stubCategoriaRepo) Create(_ context.Context, c *model.Categoria) error {
	c.ID = uuid.New()
	cp := *c
	r.categorias[c.ID] = &cp
	return nil
}

func (r *stubCategoriaRepo) List(_ context.Context, tiendaID uuid.UUID, soloActivas bool) ([]model.Categoria, error) {
	var out []model.Categoria
	for _, c := range r.categorias {
		if c.TiendaID == tiendaID && (c.Activo || !soloActivas) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *stubCategoriaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Categoria, error) {
	c, ok := r.categorias[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *stubCategoriaRepo) FindByNombre(_ context.Context, tiendaID uuid.UUID, nombre string) (*model.Categoria, error) {
	for _, c := range r.categorias {
		if c.TiendaID == tiendaID && strings.EqualFold(c.Nombre, nombre) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCategoriaRepo) Update(_ context.Context, c *model.Categoria) error {
	cp := *c
	r.categorias[c.ID] = &cp
	return nil
}

func (r *stubCategoriaRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	if c, ok := r.categorias[id]; ok {
		c.Activo = false
	}
	return nil
}

var _ repository.CategoriaRepository = (*stubCategoriaRepo)(nil)

// ── Fixture ───────────────────────────────────────────────────────────────────

// fixture wires every service over the same in-memory store.
type fixture struct {
	tienda  uuid.UUID
	usuario uuid.UUID

	productos  *stubProductoRepo
	stock      *stubStockRepo
	clientes   *stubClienteRepo
	cuentaRepo *stubCuentaRepo
	cargos     *stubCargoRepo
	ventaRepo  *stubVentaRepo

	inventario service.InventarioService
	cuentas    service.CuentaService
	ventas     service.VentaService
}

func newFixture() *fixture {
	productos := newStubProductoRepo()
	stock := newStubStockRepo(productos)
	clientes := newStubClienteRepo()
	cuentaRepo := newStubCuentaRepo()
	clientes.cuentas = cuentaRepo
	cargos := newStubCargoRepo()
	ventaRepo := newStubVentaRepo()
	clientes.ventas = ventaRepo
	clientes.cargos = cargos

	inventario := service.NewInventarioService(productos, stock)
	cuentas := service.NewCuentaService(cuentaRepo, clientes, cargos, ventaRepo)
	cfg := &config.Config{CurrencySymbol: "R$", BusinessName: "Almacen Test"}
	ventas := service.NewVentaService(ventaRepo, productos, stock, clientes, cargos, inventario, cuentas, nil, cfg)

	return &fixture{
		tienda:     uuid.New(),
		usuario:    uuid.New(),
		productos:  productos,
		stock:      stock,
		clientes:   clientes,
		cuentaRepo: cuentaRepo,
		cargos:     cargos,
		ventaRepo:  ventaRepo,
		inventario: inventario,
		cuentas:    cuentas,
		ventas:     ventas,
	}
}

// seedProducto creates an active product with the given stock already on hand.
func (f *fixture) seedProducto(nombre string, precio string, stock int) *model.Producto {
	p := &model.Producto{
		ID:          uuid.New(),
		TiendaID:    f.tienda,
		Nombre:      nombre,
		PrecioVenta: decimal.RequireFromString(precio),
		Activo:      true,
	}
	f.productos.productos[p.ID] = p
	if stock > 0 {
		f.stock.niveles[nivelKey{p.ID, f.tienda}] = &model.NivelStock{ID: uuid.New(), ProductoID: p.ID, TiendaID: f.tienda, Cantidad: stock}
		f.stock.movimientos = append(f.stock.movimientos, model.MovimientoStock{
			ID: uuid.New(), ProductoID: p.ID, TiendaID: f.tienda, UsuarioID: f.usuario,
			Tipo: model.MovimientoEntrada, StockAnterior: 0, Cantidad: stock, StockNuevo: stock,
		})
	}
	return p
}

func (f *fixture) seedCliente(nombre, email string) *model.Cliente {
	c := &model.Cliente{ID: uuid.New(), TiendaID: f.tienda, Nombre: nombre, Email: email}
	f.clientes.clientes[c.ID] = c
	return c
}

func (f *fixture) nivel(productoID uuid.UUID) int {
	n, _ := f.stock.Cantidad(context.Background(), nil, productoID, f.tienda)
	return n
}

func (f *fixture) saldo(clienteID uuid.UUID) decimal.Decimal {
	c, ok := f.cuentaRepo.byCliente[clienteID]
	if !ok {
		return decimal.Zero
	}
	return c.Saldo
}

func (f *fixture) movimientosDe(productoID uuid.UUID) []model.MovimientoStock {
	var out []model.MovimientoStock
	for _, m := range f.stock.movimientos {
		if m.ProductoID == productoID {
			out = append(out, m)
		}
	}
	return out
}
