package service

import (
	"context"

	"gestorpos/internal/apierror"
	"gestorpos/internal/dto"
	"gestorpos/internal/model"
	"gestorpos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovimientoInput describes one change to a product's stock in a store.
// For entrada/salida Cantidad is a non-negative magnitude; for ajuste it is
// the target balance and the delta is computed against the current level.
type MovimientoInput struct {
	TiendaID   uuid.UUID
	UsuarioID  uuid.UUID
	ProductoID uuid.UUID
	Tipo       string
	Cantidad   int
	Motivo     *string
	VentaID    *uuid.UUID
}

// InventarioService is the stock ledger: the only writer of NivelStock rows.
type InventarioService interface {
	AplicarMovimiento(ctx context.Context, in MovimientoInput) (*dto.MovimientoStockResponse, error)
	// AplicarMovimientoTx runs inside the caller's transaction (sales, reversals).
	AplicarMovimientoTx(ctx context.Context, tx *gorm.DB, in MovimientoInput) (*model.NivelStock, *model.MovimientoStock, error)
	StockActual(ctx context.Context, tiendaID, productoID uuid.UUID) (int, error)
	Conciliar(ctx context.Context, tiendaID, productoID uuid.UUID) (*dto.StockProductoResponse, error)
	ListarMovimientos(ctx context.Context, tiendaID uuid.UUID, filter dto.MovimientoStockFilter) (*dto.MovimientoStockListResponse, error)
	ObtenerAlertas(ctx context.Context, tiendaID uuid.UUID) ([]dto.AlertaStockResponse, error)
}

type inventarioService struct {
	productoRepo repository.ProductoRepository
	stockRepo    repository.StockRepository
}

func NewInventarioService(productoRepo repository.ProductoRepository, stockRepo repository.StockRepository) InventarioService {
	return &inventarioService{productoRepo: productoRepo, stockRepo: stockRepo}
}

func (s *inventarioService) AplicarMovimiento(ctx context.Context, in MovimientoInput) (*dto.MovimientoStockResponse, error) {
	var mov *model.MovimientoStock
	err := runTx(ctx, s.stockRepo.DB(), func(tx *gorm.DB) error {
		var err error
		_, mov, err = s.AplicarMovimientoTx(ctx, tx, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return movimientoToResponse(mov), nil
}

func (s *inventarioService) AplicarMovimientoTx(ctx context.Context, tx *gorm.DB, in MovimientoInput) (*model.NivelStock, *model.MovimientoStock, error) {
	switch in.Tipo {
	case model.MovimientoEntrada, model.MovimientoSalida, model.MovimientoAjuste:
	default:
		return nil, nil, apierror.Field("tipo", "debe ser entrada, salida o ajuste")
	}
	if in.Cantidad < 0 {
		return nil, nil, apierror.Field("cantidad", "no puede ser negativa")
	}

	if _, err := s.productoDeTienda(ctx, tx, in.TiendaID, in.ProductoID); err != nil {
		return nil, nil, err
	}

	nivel, err := s.stockRepo.LockNivel(ctx, tx, in.ProductoID, in.TiendaID)
	if err != nil {
		return nil, nil, apierror.Internal("bloquear nivel de stock", err)
	}

	antes := nivel.Cantidad
	delta := in.Cantidad
	switch in.Tipo {
	case model.MovimientoSalida:
		delta = -in.Cantidad
	case model.MovimientoAjuste:
		delta = in.Cantidad - antes
	}
	nuevo := antes + delta
	if nuevo < 0 {
		e := apierror.Business(apierror.RuleSaldoNegativo,
			"el stock no puede quedar negativo, disponible: %d", antes)
		e.Disponible = &antes
		return nil, nil, e
	}

	nivel.Cantidad = nuevo
	if err := s.stockRepo.SaveNivel(ctx, tx, nivel); err != nil {
		return nil, nil, apierror.Internal("actualizar nivel de stock", err)
	}

	mov := &model.MovimientoStock{
		ProductoID:    in.ProductoID,
		TiendaID:      in.TiendaID,
		UsuarioID:     in.UsuarioID,
		VentaID:       in.VentaID,
		Tipo:          in.Tipo,
		StockAnterior: antes,
		Cantidad:      delta,
		StockNuevo:    nuevo,
		Motivo:        in.Motivo,
	}
	if err := s.stockRepo.CreateMovimiento(ctx, tx, mov); err != nil {
		return nil, nil, apierror.Internal("registrar movimiento de stock", err)
	}
	return nivel, mov, nil
}

// productoDeTienda loads a non-deleted product and checks it belongs to tiendaID.
func (s *inventarioService) productoDeTienda(ctx context.Context, tx *gorm.DB, tiendaID, productoID uuid.UUID) (*model.Producto, error) {
	p, err := s.productoRepo.FindByID(ctx, tx, productoID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.NotFound("producto")
		}
		return nil, apierror.Internal("buscar producto", err)
	}
	if p.TiendaID != tiendaID {
		return nil, apierror.Ownership("producto")
	}
	if p.Eliminado {
		return nil, apierror.NotFound("producto")
	}
	return p, nil
}

func (s *inventarioService) StockActual(ctx context.Context, tiendaID, productoID uuid.UUID) (int, error) {
	n, err := s.stockRepo.Cantidad(ctx, nil, productoID, tiendaID)
	if err != nil {
		return 0, apierror.Internal("leer stock", err)
	}
	return n, nil
}

func (s *inventarioService) Conciliar(ctx context.Context, tiendaID, productoID uuid.UUID) (*dto.StockProductoResponse, error) {
	if _, err := s.productoDeTienda(ctx, nil, tiendaID, productoID); err != nil {
		return nil, err
	}
	actual, err := s.StockActual(ctx, tiendaID, productoID)
	if err != nil {
		return nil, err
	}
	suma, err := s.stockRepo.SumaMovimientos(ctx, productoID, tiendaID)
	if err != nil {
		return nil, apierror.Internal("sumar movimientos", err)
	}
	return &dto.StockProductoResponse{
		ProductoID:      productoID.String(),
		StockActual:     actual,
		SumaMovimientos: suma,
		Consistente:     actual == suma,
	}, nil
}

func (s *inventarioService) ListarMovimientos(ctx context.Context, tiendaID uuid.UUID, filter dto.MovimientoStockFilter) (*dto.MovimientoStockListResponse, error) {
	if filter.ProductoID != "" {
		if _, err := uuid.Parse(filter.ProductoID); err != nil {
			return nil, apierror.Field("producto_id", "uuid invalido")
		}
	}
	movs, total, err := s.stockRepo.ListMovimientos(ctx, tiendaID, filter)
	if err != nil {
		return nil, apierror.Internal("listar movimientos", err)
	}
	data := make([]dto.MovimientoStockResponse, 0, len(movs))
	for i := range movs {
		data = append(data, *movimientoToResponse(&movs[i]))
	}
	return &dto.MovimientoStockListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *inventarioService) ObtenerAlertas(ctx context.Context, tiendaID uuid.UUID) ([]dto.AlertaStockResponse, error) {
	alertas, err := s.stockRepo.Alertas(ctx, tiendaID)
	if err != nil {
		return nil, apierror.Internal("obtener alertas", err)
	}
	out := make([]dto.AlertaStockResponse, 0, len(alertas))
	for _, a := range alertas {
		out = append(out, dto.AlertaStockResponse{
			ProductoID:  a.ProductoID.String(),
			Nombre:      a.Nombre,
			StockActual: a.Cantidad,
			StockMinimo: a.StockMinimo,
		})
	}
	return out, nil
}

func movimientoToResponse(m *model.MovimientoStock) *dto.MovimientoStockResponse {
	resp := &dto.MovimientoStockResponse{
		ID:            m.ID.String(),
		ProductoID:    m.ProductoID.String(),
		UsuarioID:     m.UsuarioID.String(),
		Tipo:          m.Tipo,
		StockAnterior: m.StockAnterior,
		Cantidad:      m.Cantidad,
		StockNuevo:    m.StockNuevo,
		Motivo:        m.Motivo,
		CreatedAt:     m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if m.VentaID != nil {
		v := m.VentaID.String()
		resp.VentaID = &v
	}
	if m.Producto != nil {
		resp.Producto = m.Producto.Nombre
	}
	return resp
}
