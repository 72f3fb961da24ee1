package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Almacen-api/internal/application/auth"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/Almacen-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Almacen-api/pkg/jwt"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testEmail     = "bodega@almacen.test"
	testIssuer    = "almacen-api-test"
)

// testAuth caso de uso de auth sobre un almacén en memoria.
type testAuth struct {
	uc    *auth.AuthUseCase
	users *memory.UserRepository
}

func newTestAuth() *testAuth {
	repos := memory.NewRepositories(memory.NewStore())
	return &testAuth{
		uc: auth.NewAuthUseCase(repos.Users, repos.Revoked,
			auth.JWTConfig{Secret: testJWTSecret, TTL: time.Hour, Issuer: testIssuer}, zerolog.Nop()),
		users: repos.Users,
	}
}

// setUser guarda (o actualiza) el usuario de prueba con rol y estado dados.
func (a *testAuth) setUser(t *testing.T, role, status string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	u, err := a.users.GetByID(ctx, testUserID)
	require.NoError(t, err)
	if u == nil {
		require.NoError(t, a.users.Create(ctx, &entity.User{
			ID: testUserID, Email: testEmail, FullName: "Bodega", Role: role, Status: status,
			CreatedAt: now, UpdatedAt: now,
		}))
		return
	}
	u.Role, u.Status, u.UpdatedAt = role, status, now
	require.NoError(t, a.users.Update(ctx, u))
}

// tokenForRole guarda el usuario de prueba con el rol indicado y genera su JWT.
func (a *testAuth) tokenForRole(t *testing.T, role string) string {
	t.Helper()
	a.setUser(t, role, entity.UserStatusActive)
	tok, _, err := pkgjwt.Generate(testJWTSecret, testIssuer, testUserID, testEmail, role, time.Hour)
	require.NoError(t, err, "debe generarse un token JWT válido")
	return "Bearer " + tok
}

// buildTestApp construye una aplicación Fiber mínima con:
//   - AuthMiddleware para validar el token y cargar la sesión
//   - RequireRole para autorizar el acceso
//   - POST /logout para revocar la sesión actual
func buildTestApp(authUC *auth.AuthUseCase, allowedRoles ...string) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Get("/protected",
		apphttp.AuthMiddleware(authUC),
		apphttp.RequireRole(allowedRoles...),
		func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"ok":   true,
				"role": apphttp.GetRole(c),
			})
		},
	)
	app.Post("/logout", apphttp.AuthMiddleware(authUC), func(c *fiber.Ctx) error {
		if err := authUC.Logout(c.UserContext(), apphttp.GetSession(c)); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

// doRequest lanza una petición GET /protected y devuelve la respuesta.
func doRequest(t *testing.T, app *fiber.App, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests RequireRole
// ──────────────────────────────────────────────────────────────────────────────

func TestRequireRole_AdminAccedeRutaAdmin(t *testing.T) {
	ta := newTestAuth()
	app := buildTestApp(ta.uc, "admin")
	resp := doRequest(t, app, ta.tokenForRole(t, "admin"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode,
		"admin debe poder acceder a ruta restringida a admin")

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "admin", body["role"])
}

func TestRequireRole_BodegueroAccedeRutaAdminOBodeguero(t *testing.T) {
	ta := newTestAuth()
	app := buildTestApp(ta.uc, "admin", "bodeguero")
	resp := doRequest(t, app, ta.tokenForRole(t, "bodeguero"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequireRole_AuditorBloqueadoEnRutaEscritura(t *testing.T) {
	ta := newTestAuth()
	app := buildTestApp(ta.uc, "admin", "bodeguero")
	resp := doRequest(t, app, ta.tokenForRole(t, "auditor"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode,
		"auditor solo lee: no debe pasar por una ruta de escritura")

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "FORBIDDEN")
}

func TestRequireRole_BodegueroBloqueadoEnRutaAdmin(t *testing.T) {
	ta := newTestAuth()
	app := buildTestApp(ta.uc, "admin")
	resp := doRequest(t, app, ta.tokenForRole(t, "bodeguero"))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRequireRole_TokenSinRol_Retorna401(t *testing.T) {
	ta := newTestAuth()
	app := buildTestApp(ta.uc, "admin")
	resp := doRequest(t, app, ta.tokenForRole(t, ""))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "token sin rol debe retornar 401")

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "UNAUTHORIZED")
}

func TestRequireRole_SinAuthHeader_Retorna401(t *testing.T) {
	ta := newTestAuth()
	app := buildTestApp(ta.uc, "admin")
	resp := doRequest(t, app, "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "MISSING_TOKEN")
}

func TestRequireRole_TokenInvalido_Retorna401(t *testing.T) {
	ta := newTestAuth()
	app := buildTestApp(ta.uc, "admin")
	resp := doRequest(t, app, "Bearer token.invalido.aqui")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "INVALID_TOKEN")
}

func TestAuthMiddleware_EsquemaDistintoDeBearer_Retorna401(t *testing.T) {
	ta := newTestAuth()
	app := buildTestApp(ta.uc, "admin")
	resp := doRequest(t, app, "Basic dXNlcjpwYXNz")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_TokenFirmadoConOtroSecret_Retorna401(t *testing.T) {
	ta := newTestAuth()
	app := buildTestApp(ta.uc, "admin")
	tok, _, err := pkgjwt.Generate("otro-secret", testIssuer, testUserID, testEmail, "admin", time.Hour)
	require.NoError(t, err)

	resp := doRequest(t, app, "Bearer "+tok)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Tests AuthMiddleware: sesión y revocación
// ──────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware_ExtraeSesion(t *testing.T) {
	ta := newTestAuth()
	app := fiber.New()
	app.Get("/me", apphttp.AuthMiddleware(ta.uc), func(c *fiber.Ctx) error {
		fromCtx := auth.SessionFrom(c.UserContext())
		return c.JSON(fiber.Map{
			"user_id":   apphttp.GetUserID(c),
			"role":      apphttp.GetRole(c),
			"email":     apphttp.GetSession(c).Email,
			"ctx_user":  fromCtx.UserID,
			"has_token": fromCtx.TokenID != "",
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", ta.tokenForRole(t, "auditor"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testUserID, body["user_id"])
	assert.Equal(t, "auditor", body["role"])
	assert.Equal(t, testEmail, body["email"])
	assert.Equal(t, testUserID, body["ctx_user"])
	assert.Equal(t, true, body["has_token"])
}

func TestAuthMiddleware_TokenRevocadoTrasLogout_Retorna401(t *testing.T) {
	ta := newTestAuth()
	app := buildTestApp(ta.uc, "admin")
	token := ta.tokenForRole(t, "admin")

	resp := doRequest(t, app, token)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", token)
	out, err := app.Test(req, -1)
	require.NoError(t, err)
	out.Body.Close()
	require.Equal(t, http.StatusNoContent, out.StatusCode)

	resp = doRequest(t, app, token)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "el token revocado no debe volver a autenticar")

	// Un token nuevo del mismo usuario sigue siendo válido.
	fresh := doRequest(t, app, ta.tokenForRole(t, "admin"))
	defer fresh.Body.Close()
	assert.Equal(t, http.StatusOK, fresh.StatusCode)
}

func TestAuthMiddleware_UsuarioDesactivado_Retorna403(t *testing.T) {
	ta := newTestAuth()
	app := buildTestApp(ta.uc, "admin", "bodeguero")
	token := ta.tokenForRole(t, "bodeguero")

	ta.setUser(t, "bodeguero", entity.UserStatusInactive)

	resp := doRequest(t, app, token)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "USER_INACTIVE")
}

func TestAuthMiddleware_RolDegradado_PierdeEscritura(t *testing.T) {
	ta := newTestAuth()
	app := buildTestApp(ta.uc, "admin", "bodeguero")
	token := ta.tokenForRole(t, "bodeguero")

	ta.setUser(t, "auditor", entity.UserStatusActive)

	resp := doRequest(t, app, token)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "el token todavía dice bodeguero, pero manda el rol guardado")
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "FORBIDDEN")
}

// ──────────────────────────────────────────────────────────────────────────────
// Authenticator alternativo
// ──────────────────────────────────────────────────────────────────────────────

type stubAuthenticator struct{ session *auth.Session }

func (s stubAuthenticator) Authenticate(context.Context, string) (*auth.Session, error) {
	return s.session, nil
}

func TestAuthMiddleware_AceptaCualquierAuthenticator(t *testing.T) {
	app := fiber.New()
	stub := stubAuthenticator{session: &auth.Session{UserID: "u-1", Role: "bodeguero", TokenID: "jti-1"}}
	app.Get("/x", apphttp.AuthMiddleware(stub), apphttp.RequireRole("bodeguero"), func(c *fiber.Ctx) error {
		return c.SendString(apphttp.GetUserID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer cualquier-cosa")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "u-1", string(body))
}
