package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Licencias-api/internal/application/dto"
	"github.com/jhoicas/Licencias-api/internal/domain/entity"
	apphttp "github.com/jhoicas/Licencias-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/Licencias-api/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testCompanyID = "00000000-0000-0000-0000-000000000002"
	testIssuer    = "licencias-test"
	testExpMin    = 60
)

// tieredApp monta los tres niveles de acceso del API: cualquier usuario autenticado,
// administradores de empresa (superadmin o admin) y solo superadmin.
func tieredApp() *fiber.App {
	app := fiber.New()
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) }
	g := app.Group("/", apphttp.AuthMiddleware(testJWTSecret, testIssuer))
	g.Get("/any", ok)
	g.Get("/managers", apphttp.RequireRole(entity.RoleSuperAdmin, entity.RoleAdmin), ok)
	g.Get("/superadmin", apphttp.RequireRole(entity.RoleSuperAdmin), ok)
	return app
}

func sign(t *testing.T, role, issuer string, issuedAt time.Time) string {
	t.Helper()
	tok, err := pkgjwt.GenerateAt(testJWTSecret, testUserID, testCompanyID, role, issuer, testExpMin, issuedAt)
	require.NoError(t, err)
	return "Bearer " + tok
}

func get(t *testing.T, app *fiber.App, path, authorization string) (int, dto.ErrorResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body dto.ErrorResponse
	if resp.StatusCode >= http.StatusBadRequest {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body
}

func TestRequireRole_NivelesDeAcceso(t *testing.T) {
	app := tieredApp()
	now := time.Now()
	// rol → status esperado en /any, /managers, /superadmin
	cases := map[string][3]int{
		entity.RoleSuperAdmin: {http.StatusNoContent, http.StatusNoContent, http.StatusNoContent},
		entity.RoleAdmin:      {http.StatusNoContent, http.StatusNoContent, http.StatusForbidden},
		entity.RoleOperator:   {http.StatusNoContent, http.StatusForbidden, http.StatusForbidden},
	}
	for role, want := range cases {
		token := sign(t, role, testIssuer, now)
		for i, path := range []string{"/any", "/managers", "/superadmin"} {
			status, body := get(t, app, path, token)
			assert.Equal(t, want[i], status, "%s en %s", role, path)
			if status == http.StatusForbidden {
				assert.Equal(t, "FORBIDDEN", body.Code)
			}
		}
	}
}

func TestRequireRole_RolDesconocidoNoPasa(t *testing.T) {
	status, body := get(t, tieredApp(), "/managers", sign(t, "auditor", testIssuer, time.Now()))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", body.Code)
}

func TestRequireRole_SinAuthMiddleware(t *testing.T) {
	app := fiber.New()
	app.Get("/x", apphttp.RequireRole(entity.RoleAdmin), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })
	status, body := get(t, app, "/x", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, apphttp.CodeMissingRole, body.Code)
}

func TestAuthMiddleware_TokensRechazados(t *testing.T) {
	app := tieredApp()
	now := time.Now()
	otherSecret, err := pkgjwt.Generate("otro-secreto", testUserID, testCompanyID, entity.RoleAdmin, testIssuer, testExpMin)
	require.NoError(t, err)

	cases := []struct {
		name          string
		authorization string
		code          string
	}{
		{"sin cabecera", "", apphttp.CodeMissingToken},
		{"esquema distinto", "Basic dXNlcjpwYXNz", apphttp.CodeInvalidToken},
		{"malformado", "Bearer token.invalido.aqui", apphttp.CodeInvalidToken},
		{"otro secreto", "Bearer " + otherSecret, apphttp.CodeInvalidToken},
		{"otro emisor", sign(t, entity.RoleAdmin, "otro-emisor", now), apphttp.CodeInvalidToken},
		{"vencido", sign(t, entity.RoleAdmin, testIssuer, now.Add(-2*time.Hour)), apphttp.CodeInvalidToken},
		{"sin rol", sign(t, "", testIssuer, now), apphttp.CodeInvalidToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := get(t, app, "/any", tc.authorization)
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, tc.code, body.Code)
		})
	}
}

func TestAuthMiddleware_BearerSinDistinguirMayusculas(t *testing.T) {
	token := sign(t, entity.RoleOperator, testIssuer, time.Now())
	status, _ := get(t, tieredApp(), "/any", "bearer "+token[len("Bearer "):])
	assert.Equal(t, http.StatusNoContent, status)
}

func TestActorFrom_ClaimsYCabeceras(t *testing.T) {
	app := fiber.New()
	app.Get("/actor", apphttp.AuthMiddleware(testJWTSecret, testIssuer), func(c *fiber.Ctx) error {
		return c.JSON(apphttp.ActorFrom(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/actor", nil)
	req.Header.Set("Authorization", sign(t, entity.RoleAdmin, testIssuer, time.Now()))
	req.Header.Set("User-Agent", "licencias-test/1.0")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var actor entity.Actor
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&actor))
	assert.Equal(t, testUserID, actor.UserID)
	assert.Equal(t, testCompanyID, actor.CompanyID)
	assert.Equal(t, entity.RoleAdmin, actor.Role)
	assert.Equal(t, "licencias-test/1.0", actor.UserAgent)
	assert.False(t, actor.IsSuperAdmin())
}
