package service

import (
	"context"
	"time"

	"gestorpos/internal/apierror"
	"gestorpos/internal/dto"
	"gestorpos/internal/model"
	"gestorpos/internal/repository"

	"github.com/google/uuid"
)

// CategoriaService defines business operations for product categories.
type CategoriaService interface {
	Crear(ctx context.Context, tiendaID uuid.UUID, req dto.CrearCategoriaRequest) (dto.CategoriaResponse, error)
	Listar(ctx context.Context, tiendaID uuid.UUID, soloActivas bool) ([]dto.CategoriaResponse, error)
	Actualizar(ctx context.Context, tiendaID, id uuid.UUID, req dto.ActualizarCategoriaRequest) (dto.CategoriaResponse, error)
	Desactivar(ctx context.Context, tiendaID, id uuid.UUID) error
}

type categoriaService struct {
	repo repository.CategoriaRepository
}

func NewCategoriaService(repo repository.CategoriaRepository) CategoriaService {
	return &categoriaService{repo: repo}
}

// mapCategoria converts a model to a DTO response.
func mapCategoria(c model.Categoria) dto.CategoriaResponse {
	return dto.CategoriaResponse{
		ID:          c.ID,
		Nombre:      c.Nombre,
		Descripcion: c.Descripcion,
		Activo:      c.Activo,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
	}
}

func (s *categoriaService) Crear(ctx context.Context, tiendaID uuid.UUID, req dto.CrearCategoriaRequest) (dto.CategoriaResponse, error) {
	// Check for duplicate name
	existing, err := s.repo.FindByNombre(ctx, tiendaID, req.Nombre)
	if err != nil && !repository.IsNotFound(err) {
		return dto.CategoriaResponse{}, apierror.Internal("buscar categoria", err)
	}
	if existing != nil {
		return dto.CategoriaResponse{}, categoriaDuplicada()
	}

	c := &model.Categoria{
		TiendaID:    tiendaID,
		Nombre:      req.Nombre,
		Descripcion: req.Descripcion,
		Activo:      true,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if repository.IsUniqueViolation(err) {
			return dto.CategoriaResponse{}, categoriaDuplicada()
		}
		return dto.CategoriaResponse{}, apierror.Internal("crear categoria", err)
	}
	return mapCategoria(*c), nil
}

func (s *categoriaService) Listar(ctx context.Context, tiendaID uuid.UUID, soloActivas bool) ([]dto.CategoriaResponse, error) {
	list, err := s.repo.List(ctx, tiendaID, soloActivas)
	if err != nil {
		return nil, apierror.Internal("listar categorias", err)
	}
	result := make([]dto.CategoriaResponse, 0, len(list))
	for _, c := range list {
		result = append(result, mapCategoria(c))
	}
	return result, nil
}

func (s *categoriaService) Actualizar(ctx context.Context, tiendaID, id uuid.UUID, req dto.ActualizarCategoriaRequest) (dto.CategoriaResponse, error) {
	c, err := s.categoriaDeTienda(ctx, tiendaID, id)
	if err != nil {
		return dto.CategoriaResponse{}, err
	}

	if req.Nombre != nil {
		// Check uniqueness if name is changing
		if *req.Nombre != c.Nombre {
			existing, err := s.repo.FindByNombre(ctx, tiendaID, *req.Nombre)
			if err != nil && !repository.IsNotFound(err) {
				return dto.CategoriaResponse{}, apierror.Internal("buscar categoria", err)
			}
			if existing != nil && existing.ID != id {
				return dto.CategoriaResponse{}, categoriaDuplicada()
			}
		}
		c.Nombre = *req.Nombre
	}
	if req.Descripcion != nil {
		c.Descripcion = req.Descripcion
	}
	if req.Activo != nil {
		c.Activo = *req.Activo
	}

	if err := s.repo.Update(ctx, c); err != nil {
		if repository.IsUniqueViolation(err) {
			return dto.CategoriaResponse{}, categoriaDuplicada()
		}
		return dto.CategoriaResponse{}, apierror.Internal("actualizar categoria", err)
	}
	return mapCategoria(*c), nil
}

func (s *categoriaService) Desactivar(ctx context.Context, tiendaID, id uuid.UUID) error {
	if _, err := s.categoriaDeTienda(ctx, tiendaID, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return apierror.Internal("desactivar categoria", err)
	}
	return nil
}

func (s *categoriaService) categoriaDeTienda(ctx context.Context, tiendaID, id uuid.UUID) (*model.Categoria, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.NotFound("categoria")
		}
		return nil, apierror.Internal("buscar categoria", err)
	}
	if c.TiendaID != tiendaID {
		return nil, apierror.Ownership("categoria")
	}
	return c, nil
}

func categoriaDuplicada() error {
	return apierror.Business(apierror.RuleNombreDuplicado, "ya existe una categoría con ese nombre")
}
