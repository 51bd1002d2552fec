package service

import (
	"context"
	"time"

	"gestorpos/internal/apierror"
	"gestorpos/internal/config"
	"gestorpos/internal/dto"
	"gestorpos/internal/model"
	"gestorpos/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenAcceso  = "access"
	tokenRefresh = "refresh"
)

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	Logout(ctx context.Context, usuarioID uuid.UUID) error
	CrearUsuario(ctx context.Context, tiendaID uuid.UUID, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error)
	ListarUsuarios(ctx context.Context, tiendaID uuid.UUID) ([]dto.UsuarioResponse, error)
	DesactivarUsuario(ctx context.Context, tiendaID, id uuid.UUID) error
}

type authService struct {
	repo     repository.UsuarioRepository
	sesiones repository.SesionStore
	cfg      *config.Config
}

func NewAuthService(repo repository.UsuarioRepository, sesiones repository.SesionStore, cfg *config.Config) AuthService {
	return &authService{repo: repo, sesiones: sesiones, cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.Unauthorized("credenciales invalidas")
		}
		return nil, apierror.Internal("buscar usuario", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apierror.Unauthorized("credenciales invalidas")
	}

	resp, err := s.emitir(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RegistrarLogin(ctx, user.ID, time.Now()); err != nil {
		log.Warn().Err(err).Str("usuario_id", user.ID.String()).Msg("no se pudo registrar ultimo login")
	}
	return resp, nil
}

// Refresh rotates the session: the presented refresh token must belong to the
// user's active session, and the new pair replaces it.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, apierror.Unauthorized("refresh token invalido o expirado")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apierror.Unauthorized("claims invalidos")
	}
	if typ, _ := claims["typ"].(string); typ != tokenRefresh {
		return nil, apierror.Unauthorized("se esperaba un refresh token")
	}
	userIDStr, _ := claims["user_id"].(string)
	sid, _ := claims["sid"].(string)
	uid, err := uuid.Parse(userIDStr)
	if err != nil || sid == "" {
		return nil, apierror.Unauthorized("token mal formado")
	}

	activa, err := s.sesiones.Activa(ctx, uid.String())
	if err != nil {
		return nil, apierror.Internal("leer sesion", err)
	}
	if activa != sid {
		return nil, apierror.Unauthorized("sesion cerrada o reemplazada")
	}

	user, err := s.repo.FindByID(ctx, uid)
	if err != nil || !user.Activo {
		return nil, apierror.Unauthorized("usuario no encontrado o inactivo")
	}
	return s.emitir(ctx, user)
}

func (s *authService) Logout(ctx context.Context, usuarioID uuid.UUID) error {
	if err := s.sesiones.Cerrar(ctx, usuarioID.String()); err != nil {
		return apierror.Internal("cerrar sesion", err)
	}
	return nil
}

// emitir opens a new session, replacing any previous one of the user.
func (s *authService) emitir(ctx context.Context, user *model.Usuario) (*dto.LoginResponse, error) {
	sid := uuid.NewString()
	refreshTTL := time.Duration(s.cfg.JWTRefreshHours) * time.Hour

	accessToken, err := s.generateToken(user, sid, tokenAcceso, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, apierror.Internal("firmar token", err)
	}
	refreshToken, err := s.generateToken(user, sid, tokenRefresh, refreshTTL)
	if err != nil {
		return nil, apierror.Internal("firmar token", err)
	}
	if err := s.sesiones.Guardar(ctx, user.ID.String(), sid, refreshTTL); err != nil {
		return nil, apierror.Internal("guardar sesion", err)
	}

	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         usuarioToResponse(user),
	}, nil
}

func (s *authService) CrearUsuario(ctx context.Context, tiendaID uuid.UUID, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, apierror.Internal("hashear password", err)
	}
	user := &model.Usuario{
		TiendaID:     tiendaID,
		Username:     req.Username,
		Nombre:       req.Nombre,
		Email:        req.Email,
		PasswordHash: string(hash),
		Rol:          req.Rol,
		Activo:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apierror.Field("username", "ya esta en uso")
		}
		return nil, apierror.Internal("crear usuario", err)
	}
	resp := usuarioToResponse(user)
	return &resp, nil
}

func (s *authService) ListarUsuarios(ctx context.Context, tiendaID uuid.UUID) ([]dto.UsuarioResponse, error) {
	users, err := s.repo.List(ctx, tiendaID)
	if err != nil {
		return nil, apierror.Internal("listar usuarios", err)
	}
	resp := make([]dto.UsuarioResponse, len(users))
	for i := range users {
		resp[i] = usuarioToResponse(&users[i])
	}
	return resp, nil
}

// DesactivarUsuario also closes the user's session so issued tokens stop working.
func (s *authService) DesactivarUsuario(ctx context.Context, tiendaID, id uuid.UUID) error {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return apierror.NotFound("usuario")
		}
		return apierror.Internal("buscar usuario", err)
	}
	if user.TiendaID != tiendaID {
		return apierror.Ownership("usuario")
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return apierror.Internal("desactivar usuario", err)
	}
	return s.Logout(ctx, id)
}

func (s *authService) generateToken(user *model.Usuario, sid, typ string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":   user.ID.String(),
		"username":  user.Username,
		"rol":       user.Rol,
		"tienda_id": user.TiendaID.String(),
		"sid":       sid,
		"typ":       typ,
		"exp":       now.Add(duration).Unix(),
		"iat":       now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func usuarioToResponse(u *model.Usuario) dto.UsuarioResponse {
	resp := dto.UsuarioResponse{
		ID:       u.ID.String(),
		TiendaID: u.TiendaID.String(),
		Username: u.Username,
		Nombre:   u.Nombre,
		Email:    u.Email,
		Rol:      u.Rol,
		Activo:   u.Activo,
	}
	if u.UltimoLogin != nil {
		s := u.UltimoLogin.Format(time.RFC3339)
		resp.UltimoLogin = &s
	}
	return resp
}
