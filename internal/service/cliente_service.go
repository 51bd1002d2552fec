package service

import (
	"context"
	"strings"

	"gestorpos/internal/apierror"
	"gestorpos/internal/dto"
	"gestorpos/internal/model"
	"gestorpos/internal/repository"

	"github.com/google/uuid"
)

// ClienteService manages customers. Email is unique per store.
type ClienteService interface {
	Crear(ctx context.Context, tiendaID uuid.UUID, req dto.CrearClienteRequest) (*dto.ClienteResponse, error)
	ObtenerPorID(ctx context.Context, tiendaID, id uuid.UUID) (*dto.ClienteResponse, error)
	Listar(ctx context.Context, tiendaID uuid.UUID, filter dto.ClienteFilter) (*dto.ClienteListResponse, error)
	Actualizar(ctx context.Context, tiendaID, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error)
	// Eliminar refuses while the customer still owes a balance.
	Eliminar(ctx context.Context, tiendaID, id uuid.UUID) error
}

type clienteService struct {
	repo repository.ClienteRepository
}

func NewClienteService(repo repository.ClienteRepository) ClienteService {
	return &clienteService{repo: repo}
}

func (s *clienteService) Crear(ctx context.Context, tiendaID uuid.UUID, req dto.CrearClienteRequest) (*dto.ClienteResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.emailLibre(ctx, tiendaID, email, uuid.Nil); err != nil {
		return nil, err
	}
	c := &model.Cliente{
		TiendaID: tiendaID,
		Nombre:   strings.TrimSpace(req.Nombre),
		Email:    email,
		Telefono: req.Telefono,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, emailDuplicado()
		}
		return nil, apierror.Internal("crear cliente", err)
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) ObtenerPorID(ctx context.Context, tiendaID, id uuid.UUID) (*dto.ClienteResponse, error) {
	c, err := s.clienteDeTienda(ctx, tiendaID, id)
	if err != nil {
		return nil, err
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) Listar(ctx context.Context, tiendaID uuid.UUID, filter dto.ClienteFilter) (*dto.ClienteListResponse, error) {
	clientes, total, err := s.repo.List(ctx, tiendaID, filter)
	if err != nil {
		return nil, apierror.Internal("listar clientes", err)
	}
	data := make([]dto.ClienteResponse, 0, len(clientes))
	for i := range clientes {
		data = append(data, *clienteToResponse(&clientes[i]))
	}
	return &dto.ClienteListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *clienteService) Actualizar(ctx context.Context, tiendaID, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error) {
	c, err := s.clienteDeTienda(ctx, tiendaID, id)
	if err != nil {
		return nil, err
	}
	if req.Nombre != nil {
		c.Nombre = strings.TrimSpace(*req.Nombre)
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != c.Email {
			if err := s.emailLibre(ctx, tiendaID, email, c.ID); err != nil {
				return nil, err
			}
		}
		c.Email = email
	}
	if req.Telefono != nil {
		c.Telefono = req.Telefono
	}
	if err := s.repo.Update(ctx, c); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, emailDuplicado()
		}
		return nil, apierror.Internal("actualizar cliente", err)
	}
	return clienteToResponse(c), nil
}

func (s *clienteService) Eliminar(ctx context.Context, tiendaID, id uuid.UUID) error {
	c, err := s.clienteDeTienda(ctx, tiendaID, id)
	if err != nil {
		return err
	}
	if c.Cuenta != nil && c.Cuenta.Saldo.IsPositive() {
		return apierror.Business(apierror.RuleCuentaConSaldo,
			"el cliente tiene un saldo de %s en cuenta corriente", c.Cuenta.Saldo.StringFixed(2))
	}
	conHistorial, err := s.repo.TieneHistorial(ctx, id)
	if err != nil {
		return apierror.Internal("verificar historial", err)
	}
	if conHistorial {
		return apierror.Business(apierror.RuleConHistorial,
			"el cliente %s tiene ventas registradas y no puede eliminarse", c.Nombre)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apierror.Internal("eliminar cliente", err)
	}
	return nil
}

func (s *clienteService) emailLibre(ctx context.Context, tiendaID uuid.UUID, email string, excluir uuid.UUID) error {
	existing, err := s.repo.FindByEmail(ctx, tiendaID, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return apierror.Internal("buscar cliente", err)
	}
	if existing.ID != excluir {
		return emailDuplicado()
	}
	return nil
}

func (s *clienteService) clienteDeTienda(ctx context.Context, tiendaID, id uuid.UUID) (*model.Cliente, error) {
	c, err := s.repo.FindByID(ctx, nil, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.NotFound("cliente")
		}
		return nil, apierror.Internal("buscar cliente", err)
	}
	if c.TiendaID != tiendaID {
		return nil, apierror.Ownership("cliente")
	}
	return c, nil
}

func emailDuplicado() error {
	return apierror.Business(apierror.RuleEmailDuplicado, "ya existe un cliente con ese email")
}

func clienteToResponse(c *model.Cliente) *dto.ClienteResponse {
	resp := &dto.ClienteResponse{
		ID:       c.ID.String(),
		Nombre:   c.Nombre,
		Email:    c.Email,
		Telefono: c.Telefono,
	}
	if c.Cuenta != nil {
		saldo := c.Cuenta.Saldo
		resp.Saldo = &saldo
	}
	return resp
}
