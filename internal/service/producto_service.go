package service

import (
	"context"
	"math"
	"strings"
	"time"

	"gestorpos/internal/apierror"
	"gestorpos/internal/dto"
	"gestorpos/internal/model"
	"gestorpos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductoService defines the business logic contract for products.
// Names are unique per store among non-deleted products.
type ProductoService interface {
	Crear(ctx context.Context, tiendaID, usuarioID uuid.UUID, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	ObtenerPorID(ctx context.Context, tiendaID, id uuid.UUID) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, tiendaID uuid.UUID, filter dto.ProductoFilter) (*dto.ProductoListResponse, error)
	Actualizar(ctx context.Context, tiendaID, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	// Eliminar is a soft delete: the row stays for history and frees the name.
	Eliminar(ctx context.Context, tiendaID, id uuid.UUID) error
	// EliminarDefinitivo removes a product that never moved stock nor was sold.
	EliminarDefinitivo(ctx context.Context, tiendaID, id uuid.UUID) error
}

type productoService struct {
	repo          repository.ProductoRepository
	stockRepo     repository.StockRepository
	categoriaRepo repository.CategoriaRepository
	inventario    InventarioService
	now           func() time.Time
}

func NewProductoService(
	repo repository.ProductoRepository,
	stockRepo repository.StockRepository,
	categoriaRepo repository.CategoriaRepository,
	inventario InventarioService,
) ProductoService {
	return &productoService{
		repo:          repo,
		stockRepo:     stockRepo,
		categoriaRepo: categoriaRepo,
		inventario:    inventario,
		now:           time.Now,
	}
}

func (s *productoService) Crear(ctx context.Context, tiendaID, usuarioID uuid.UUID, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	nombre := strings.TrimSpace(req.Nombre)
	if err := s.nombreLibre(ctx, tiendaID, nombre, uuid.Nil); err != nil {
		return nil, err
	}
	categoriaID, err := s.resolverCategoria(ctx, tiendaID, req.CategoriaID)
	if err != nil {
		return nil, err
	}

	p := &model.Producto{
		TiendaID:    tiendaID,
		CategoriaID: categoriaID,
		Nombre:      nombre,
		Descripcion: req.Descripcion,
		PrecioVenta: req.PrecioVenta,
		StockMinimo: req.StockMinimo,
		Activo:      true,
	}

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, p); err != nil {
			if repository.IsUniqueViolation(err) {
				return productoDuplicado()
			}
			return apierror.Internal("crear producto", err)
		}
		if req.StockInicial > 0 {
			motivo := "Stock inicial"
			_, _, err := s.inventario.AplicarMovimientoTx(ctx, tx, MovimientoInput{
				TiendaID:   tiendaID,
				UsuarioID:  usuarioID,
				ProductoID: p.ID,
				Tipo:       model.MovimientoEntrada,
				Cantidad:   req.StockInicial,
				Motivo:     &motivo,
			})
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return productoToResponse(p, req.StockInicial), nil
}

func (s *productoService) ObtenerPorID(ctx context.Context, tiendaID, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.productoDeTienda(ctx, tiendaID, id)
	if err != nil {
		return nil, err
	}
	stock, err := s.stockRepo.Cantidad(ctx, nil, id, tiendaID)
	if err != nil {
		return nil, apierror.Internal("leer stock", err)
	}
	return productoToResponse(p, stock), nil
}

func (s *productoService) Listar(ctx context.Context, tiendaID uuid.UUID, filter dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	productos, total, err := s.repo.List(ctx, tiendaID, filter)
	if err != nil {
		return nil, apierror.Internal("listar productos", err)
	}
	ids := make([]uuid.UUID, 0, len(productos))
	for _, p := range productos {
		ids = append(ids, p.ID)
	}
	niveles, err := s.stockRepo.Cantidades(ctx, tiendaID, ids)
	if err != nil {
		return nil, apierror.Internal("leer stock", err)
	}

	data := make([]dto.ProductoResponse, 0, len(productos))
	for i := range productos {
		data = append(data, *productoToResponse(&productos[i], niveles[productos[i].ID]))
	}
	return &dto.ProductoListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
	}, nil
}

func (s *productoService) Actualizar(ctx context.Context, tiendaID, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	p, err := s.productoDeTienda(ctx, tiendaID, id)
	if err != nil {
		return nil, err
	}

	if req.Nombre != nil {
		nombre := strings.TrimSpace(*req.Nombre)
		if !strings.EqualFold(nombre, p.Nombre) {
			if err := s.nombreLibre(ctx, tiendaID, nombre, p.ID); err != nil {
				return nil, err
			}
		}
		p.Nombre = nombre
	}
	if req.Descripcion != nil {
		p.Descripcion = req.Descripcion
	}
	if req.CategoriaID != nil {
		categoriaID, err := s.resolverCategoria(ctx, tiendaID, req.CategoriaID)
		if err != nil {
			return nil, err
		}
		p.CategoriaID = categoriaID
		p.Categoria = nil
	}
	if req.PrecioVenta != nil {
		if !req.PrecioVenta.IsPositive() {
			return nil, apierror.Field("precio_venta", "debe ser mayor a cero")
		}
		p.PrecioVenta = *req.PrecioVenta
	}
	if req.StockMinimo != nil {
		p.StockMinimo = *req.StockMinimo
	}
	if req.Activo != nil {
		p.Activo = *req.Activo
	}

	if err := s.repo.Update(ctx, p); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, productoDuplicado()
		}
		return nil, apierror.Internal("actualizar producto", err)
	}
	return s.ObtenerPorID(ctx, tiendaID, id)
}

func (s *productoService) Eliminar(ctx context.Context, tiendaID, id uuid.UUID) error {
	if _, err := s.productoDeTienda(ctx, tiendaID, id); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, id, s.now()); err != nil {
		return apierror.Internal("eliminar producto", err)
	}
	return nil
}

func (s *productoService) EliminarDefinitivo(ctx context.Context, tiendaID, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, nil, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return apierror.NotFound("producto")
		}
		return apierror.Internal("buscar producto", err)
	}
	if p.TiendaID != tiendaID {
		return apierror.Ownership("producto")
	}
	conHistorial, err := s.repo.TieneHistorial(ctx, id)
	if err != nil {
		return apierror.Internal("verificar historial", err)
	}
	if conHistorial {
		return apierror.Business(apierror.RuleConHistorial,
			"el producto %s tiene movimientos o ventas; solo puede eliminarse de forma logica", p.Nombre)
	}
	if err := s.repo.HardDelete(ctx, id); err != nil {
		return apierror.Internal("eliminar producto", err)
	}
	return nil
}

// nombreLibre checks the active-only uniqueness of a product name in a store.
func (s *productoService) nombreLibre(ctx context.Context, tiendaID uuid.UUID, nombre string, excluir uuid.UUID) error {
	existing, err := s.repo.FindVigenteByNombre(ctx, tiendaID, nombre)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return apierror.Internal("buscar producto", err)
	}
	if existing.ID != excluir {
		return productoDuplicado()
	}
	return nil
}

func (s *productoService) resolverCategoria(ctx context.Context, tiendaID uuid.UUID, raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, apierror.Field("categoria_id", "uuid invalido")
	}
	c, err := s.categoriaRepo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.Field("categoria_id", "categoria no encontrada")
		}
		return nil, apierror.Internal("buscar categoria", err)
	}
	if c.TiendaID != tiendaID {
		return nil, apierror.Ownership("categoria")
	}
	return &id, nil
}

func (s *productoService) productoDeTienda(ctx context.Context, tiendaID, id uuid.UUID) (*model.Producto, error) {
	p, err := s.repo.FindByID(ctx, nil, id)
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

func productoDuplicado() error {
	return apierror.Business(apierror.RuleNombreDuplicado, "ya existe un producto con ese nombre en la tienda")
}

func productoToResponse(p *model.Producto, stock int) *dto.ProductoResponse {
	resp := &dto.ProductoResponse{
		ID:          p.ID.String(),
		Nombre:      p.Nombre,
		Descripcion: p.Descripcion,
		PrecioVenta: p.PrecioVenta,
		StockMinimo: p.StockMinimo,
		StockActual: stock,
		Activo:      p.Activo,
	}
	if p.CategoriaID != nil {
		id := p.CategoriaID.String()
		resp.CategoriaID = &id
	}
	if p.Categoria != nil {
		nombre := p.Categoria.Nombre
		resp.Categoria = &nombre
	}
	return resp
}
