package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/inventario-kardex/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/inventario-kardex/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testIssuer    = "inventario-kardex-test"
)

// bearer genera el header Authorization con el rol indicado.
func bearer(t *testing.T, role string) string {
	t.Helper()
	tok, err := pkgjwt.Generate(testJWTSecret, testUserID, role, testIssuer, 60)
	require.NoError(t, err)
	return "Bearer " + tok
}

func roleApp(allowed ...string) *fiber.App {
	app := fiber.New()
	app.Get("/protected",
		apphttp.AuthMiddleware(testJWTSecret),
		apphttp.RequireRole(allowed...),
		func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"user_id": apphttp.GetUserID(c), "role": apphttp.GetRole(c)})
		},
	)
	return app
}

func TestRequireRole_FiltraPorRol(t *testing.T) {
	tests := []struct {
		name     string
		allowed  []string
		header   func(t *testing.T) string
		status   int
		bodyCode string
	}{
		{"admin en ruta admin", []string{"admin"}, func(t *testing.T) string { return bearer(t, "admin") }, http.StatusOK, ""},
		{"bodeguero en ruta multi-rol", []string{"admin", "bodeguero"}, func(t *testing.T) string { return bearer(t, "bodeguero") }, http.StatusOK, ""},
		{"vendedor en ruta admin", []string{"admin"}, func(t *testing.T) string { return bearer(t, "vendedor") }, http.StatusForbidden, "FORBIDDEN"},
		{"token sin rol", []string{"admin"}, func(t *testing.T) string { return bearer(t, "") }, http.StatusUnauthorized, "MISSING_ROLE"},
		{"sin header", []string{"admin"}, func(*testing.T) string { return "" }, http.StatusUnauthorized, "MISSING_TOKEN"},
		{"token malformado", []string{"admin"}, func(*testing.T) string { return "Bearer token.invalido.aqui" }, http.StatusUnauthorized, "INVALID_TOKEN"},
		{"esquema distinto", []string{"admin"}, func(*testing.T) string { return "Basic abc" }, http.StatusUnauthorized, "INVALID_TOKEN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if h := tt.header(t); h != "" {
				req.Header.Set("Authorization", h)
			}
			resp, err := roleApp(tt.allowed...).Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.bodyCode != "" {
				body, _ := io.ReadAll(resp.Body)
				assert.Contains(t, string(body), tt.bodyCode)
			}
		})
	}
}

func TestAuthMiddleware_ExtraeClaims(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", bearer(t, "admin"))
	resp, err := roleApp("admin").Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testUserID, body["user_id"])
	assert.Equal(t, "admin", body["role"])
}
