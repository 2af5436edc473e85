package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tedlist/tedlist-api/internal/utils"
)

func setupTestApp(jwtService *utils.JWTService) *fiber.App {
	app := fiber.New()
	app.Get("/protected", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": c.Locals("userID")})
	}, AuthMiddleware(jwtService))
	return app
}

func TestAuthMiddlewareAllowsValidToken(t *testing.T) {
	jwtService := utils.NewJWTService("test-secret")
	app := setupTestApp(jwtService)

	userID := uuid.New().String()
	token, err := jwtService.GenerateToken(userID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	app := setupTestApp(utils.NewJWTService("test-secret"))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddlewareRejectsMalformedHeader(t *testing.T) {
	jwtService := utils.NewJWTService("test-secret")
	app := setupTestApp(jwtService)

	token, err := jwtService.GenerateToken(uuid.New().String())
	require.NoError(t, err)

	for _, header := range []string{token, "Basic " + token, "Bearer"} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", header)

		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "заголовок: %q", header)
	}
}

func TestAuthMiddlewareRejectsForeignToken(t *testing.T) {
	app := setupTestApp(utils.NewJWTService("test-secret"))

	foreign, err := utils.NewJWTService("other-secret").GenerateToken(uuid.New().String())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+foreign)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddlewareRejectsNonUUIDSubject(t *testing.T) {
	jwtService := utils.NewJWTService("test-secret")
	app := setupTestApp(jwtService)

	token, err := jwtService.GenerateToken("not-a-uuid")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
