package auth_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Almacen-api/internal/application/auth"
	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/application/usecase"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/infrastructure/memory"
	pkgjwt "github.com/jhoicas/Almacen-api/pkg/jwt"
)

var jwtCfg = auth.JWTConfig{Secret: "test-secret", TTL: time.Hour, Issuer: "almacen-test"}

func newAuth() (*auth.AuthUseCase, memory.Repositories) {
	repos := memory.NewRepositories(memory.NewStore())
	return auth.NewAuthUseCase(repos.Users, repos.Revoked, jwtCfg, zerolog.Nop()), repos
}

func TestRegister_PrimerUsuarioEsAdmin(t *testing.T) {
	uc, _ := newAuth()
	ctx := context.Background()

	first, err := uc.Register(ctx, dto.RegisterRequest{Email: "Jefe@Example.com", Password: "secreto123"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, first.Role)
	assert.Equal(t, "jefe@example.com", first.Email, "el email se normaliza")

	second, err := uc.Register(ctx, dto.RegisterRequest{Email: "operario@example.com", Password: "secreto123", FullName: "Operario"})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleBodeguero, second.Role)
	assert.Equal(t, "Operario", second.FullName)
}

func TestRegister_Rechazos(t *testing.T) {
	uc, _ := newAuth()
	ctx := context.Background()
	_, err := uc.Register(ctx, dto.RegisterRequest{Email: "a@example.com", Password: "secreto123"})
	require.NoError(t, err)

	_, err = uc.Register(ctx, dto.RegisterRequest{Email: " A@EXAMPLE.COM ", Password: "secreto123"})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	_, err = uc.Register(ctx, dto.RegisterRequest{Email: "b@example.com", Password: "corta"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Register(ctx, dto.RegisterRequest{Email: "sin-arroba", Password: "secreto123"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLogin_YSesion(t *testing.T) {
	uc, _ := newAuth()
	ctx := context.Background()
	_, err := uc.Register(ctx, dto.RegisterRequest{Email: "ana@example.com", Password: "secreto123"})
	require.NoError(t, err)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "incorrecta"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = uc.Login(ctx, dto.LoginRequest{Email: "nadie@example.com", Password: "secreto123"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	resp, err := uc.Login(ctx, dto.LoginRequest{Email: "ANA@example.com", Password: "secreto123"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.True(t, resp.ExpiresAt.After(time.Now()))

	s, err := uc.Authenticate(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, s.UserID)
	assert.Equal(t, entity.RoleAdmin, s.Role)
	assert.NotEmpty(t, s.TokenID)

	require.NoError(t, uc.Logout(ctx, s))
	_, err = uc.Authenticate(ctx, resp.Token)
	assert.ErrorIs(t, err, domain.ErrUnauthorized, "un token revocado ya no autentica")
}

func TestLogin_UsuarioInactivo(t *testing.T) {
	uc, repos := newAuth()
	ctx := context.Background()
	u, err := uc.Register(ctx, dto.RegisterRequest{Email: "ana@example.com", Password: "secreto123"})
	require.NoError(t, err)

	user, err := repos.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	user.Status = entity.UserStatusInactive
	require.NoError(t, repos.Users.Update(ctx, user))

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "secreto123"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestRegister_PrimerosRegistrosConcurrentes_UnSoloAdmin(t *testing.T) {
	uc, repos := newAuth()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := uc.Register(ctx, dto.RegisterRequest{Email: fmt.Sprintf("u%d@example.com", i), Password: "secreto123"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	users, err := repos.Users.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, users, 8)
	admins := 0
	for _, u := range users {
		if u.Role == entity.RoleAdmin {
			admins++
		}
	}
	assert.Equal(t, 1, admins)
}

// ──────────────────────────────────────────────────────────────────────────────
// Cambios del admin sobre sesiones ya emitidas
// ──────────────────────────────────────────────────────────────────────────────

// loginSegundoUsuario registra un admin y un bodeguero y devuelve el token del bodeguero.
func loginSegundoUsuario(t *testing.T, uc *auth.AuthUseCase) (adminID, userID, token string) {
	t.Helper()
	ctx := context.Background()
	admin, err := uc.Register(ctx, dto.RegisterRequest{Email: "jefe@example.com", Password: "secreto123"})
	require.NoError(t, err)
	user, err := uc.Register(ctx, dto.RegisterRequest{Email: "operario@example.com", Password: "secreto123"})
	require.NoError(t, err)
	require.Equal(t, entity.RoleBodeguero, user.Role)
	resp, err := uc.Login(ctx, dto.LoginRequest{Email: "operario@example.com", Password: "secreto123"})
	require.NoError(t, err)
	return admin.ID, user.ID, resp.Token
}

func TestAuthenticate_UsuarioDesactivadoConTokenVigente(t *testing.T) {
	uc, repos := newAuth()
	users := usecase.NewUserUseCase(repos.Users)
	ctx := context.Background()
	adminID, userID, token := loginSegundoUsuario(t, uc)

	_, err := uc.Authenticate(ctx, token)
	require.NoError(t, err)

	inactive := entity.UserStatusInactive
	_, err = users.Update(ctx, adminID, userID, dto.UpdateUserRequest{Status: &inactive})
	require.NoError(t, err)

	_, err = uc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, domain.ErrForbidden, "un usuario desactivado no conserva la sesión")
}

func TestAuthenticate_RolDegradadoAplicaAlSiguienteRequest(t *testing.T) {
	uc, repos := newAuth()
	users := usecase.NewUserUseCase(repos.Users)
	ctx := context.Background()
	adminID, userID, token := loginSegundoUsuario(t, uc)

	auditor := entity.RoleAuditor
	_, err := users.Update(ctx, adminID, userID, dto.UpdateUserRequest{Role: &auditor})
	require.NoError(t, err)

	s, err := uc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAuditor, s.Role, "el rol sale del usuario guardado, no del token")
}

func TestAuthenticate_UsuarioInexistente(t *testing.T) {
	uc, _ := newAuth()
	tok, _, err := pkgjwt.Generate(jwtCfg.Secret, jwtCfg.Issuer, "no-existe", "x@example.com", entity.RoleAdmin, time.Hour)
	require.NoError(t, err)

	_, err = uc.Authenticate(context.Background(), tok)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestCleanupRevoked(t *testing.T) {
	uc, repos := newAuth()
	ctx := context.Background()
	require.NoError(t, repos.Revoked.Revoke(ctx, "viejo", "u1", time.Now().Add(-time.Hour)))
	require.NoError(t, repos.Revoked.Revoke(ctx, "vigente", "u1", time.Now().Add(time.Hour)))

	n, err := uc.CleanupRevoked(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	revoked, err := repos.Revoked.IsRevoked(ctx, "vigente")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestSessionContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, auth.SessionFrom(ctx))

	s := &auth.Session{UserID: "u1", Role: entity.RoleAuditor}
	assert.Same(t, s, auth.SessionFrom(auth.WithSession(ctx, s)))
}

// ──────────────────────────────────────────────────────────────────────────────
// Fallo del almacén de revocaciones
// ──────────────────────────────────────────────────────────────────────────────

type revokedRepoMock struct {
	mock.Mock
}

func (m *revokedRepoMock) Revoke(ctx context.Context, tokenID, userID string, expiresAt time.Time) error {
	return m.Called(ctx, tokenID, userID, expiresAt).Error(0)
}

func (m *revokedRepoMock) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func (m *revokedRepoMock) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func TestAuthenticate_ErrorDeRevocacionesNoAutentica(t *testing.T) {
	repos := memory.NewRepositories(memory.NewStore())
	revoked := &revokedRepoMock{}
	uc := auth.NewAuthUseCase(repos.Users, revoked, jwtCfg, zerolog.Nop())
	ctx := context.Background()

	_, err := uc.Register(ctx, dto.RegisterRequest{Email: "ana@example.com", Password: "secreto123"})
	require.NoError(t, err)
	resp, err := uc.Login(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "secreto123"})
	require.NoError(t, err)

	boom := errors.New("conexión perdida")
	revoked.On("IsRevoked", mock.Anything, mock.AnythingOfType("string")).Return(false, boom)

	_, err = uc.Authenticate(ctx, resp.Token)
	assert.ErrorIs(t, err, boom)
	revoked.AssertExpectations(t)
}

func TestLogout_SinSesion(t *testing.T) {
	uc, _ := newAuth()
	assert.ErrorIs(t, uc.Logout(context.Background(), nil), domain.ErrUnauthorized)
}
