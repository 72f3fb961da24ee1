package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"

	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/application/usecase"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
	"github.com/jhoicas/Almacen-api/pkg/jwt"
)

// MinPasswordLength longitud mínima de contraseña.
const MinPasswordLength = 8

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// AuthUseCase casos de uso de autenticación: registro, login y ciclo de vida de la sesión.
type AuthUseCase struct {
	userRepo    repository.UserRepository
	revokedRepo repository.RevokedTokenRepository
	jwtCfg      JWTConfig
	fold        cases.Caser
	log         zerolog.Logger
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, revokedRepo repository.RevokedTokenRepository, jwtCfg JWTConfig, log zerolog.Logger) *AuthUseCase {
	if jwtCfg.TTL <= 0 {
		jwtCfg.TTL = time.Hour
	}
	return &AuthUseCase{
		userRepo:    userRepo,
		revokedRepo: revokedRepo,
		jwtCfg:      jwtCfg,
		fold:        cases.Fold(),
		log:         log,
	}
}

// NormalizeEmail recorta espacios y pliega mayúsculas/minúsculas (Unicode).
func (uc *AuthUseCase) NormalizeEmail(email string) string {
	return uc.fold.String(strings.TrimSpace(email))
}

// Register crea un usuario con la contraseña hasheada con bcrypt.
// El primer usuario del sistema queda como admin; los demás como bodeguero.
func (uc *AuthUseCase) Register(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error) {
	email := uc.NormalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: email inválido", domain.ErrInvalidInput)
	}
	if len(in.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: la contraseña debe tener al menos %d caracteres", domain.ErrInvalidInput, MinPasswordLength)
	}
	existing, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.FullName)
	if name == "" {
		name = email
	}
	now := time.Now().UTC()
	user := &entity.User{
		ID:           uuid.New().String(),
		Email:        email,
		FullName:     name,
		PasswordHash: string(hash),
		Role:         entity.RoleBodeguero,
		Status:       entity.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// El repositorio promueve a admin al primer usuario en la misma operación que lo inserta.
	if err := uc.userRepo.CreateFirstAdmin(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.ErrEmailAlreadyExists
		}
		return nil, err
	}
	uc.log.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("usuario registrado")
	return usecase.ToUserResponse(user), nil
}

// Login verifica email/password y emite un JWT con jti propio.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := uc.userRepo.GetByEmail(ctx, uc.NormalizeEmail(in.Email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if !user.IsActive() {
		return nil, domain.ErrForbidden
	}
	token, claims, err := jwt.Generate(uc.jwtCfg.Secret, uc.jwtCfg.Issuer, user.ID, user.Email, user.Role, uc.jwtCfg.TTL)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: claims.ExpiresAt.Time,
		User:      *usecase.ToUserResponse(user),
	}, nil
}

// Authenticate valida el token, descarta sesiones revocadas y usuarios inactivos o borrados.
// El rol de la sesión es el rol actual del usuario, no el que llevaba el token.
func (uc *AuthUseCase) Authenticate(ctx context.Context, token string) (*Session, error) {
	claims, err := jwt.Parse(uc.jwtCfg.Secret, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	revoked, err := uc.revokedRepo.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("%w: sesión cerrada", domain.ErrUnauthorized)
	}
	// Rol y estado se leen del usuario guardado: un cambio del admin aplica al siguiente request.
	user, err := uc.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("%w: usuario inexistente", domain.ErrUnauthorized)
	}
	if !user.IsActive() {
		return nil, fmt.Errorf("%w: usuario inactivo", domain.ErrForbidden)
	}
	s := &Session{
		UserID:  user.ID,
		Email:   user.Email,
		Role:    user.Role,
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// Logout revoca el jti de la sesión hasta su expiración.
func (uc *AuthUseCase) Logout(ctx context.Context, s *Session) error {
	if s == nil || s.TokenID == "" {
		return domain.ErrUnauthorized
	}
	if err := uc.revokedRepo.Revoke(ctx, s.TokenID, s.UserID, s.ExpiresAt); err != nil {
		return err
	}
	uc.log.Info().Str("user_id", s.UserID).Str("token_id", s.TokenID).Msg("sesión cerrada")
	return nil
}

// CleanupRevoked elimina revocaciones ya expiradas.
func (uc *AuthUseCase) CleanupRevoked(ctx context.Context) (int64, error) {
	n, err := uc.revokedRepo.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		uc.log.Debug().Int64("deleted", n).Msg("revocaciones expiradas eliminadas")
	}
	return n, nil
}
