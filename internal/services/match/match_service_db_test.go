package match

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tedlist/tedlist-api/internal/config"
	"github.com/tedlist/tedlist-api/internal/db"
	"github.com/tedlist/tedlist-api/internal/utils"
)

// Тесты с базой данных запускаются только при заданном PGHOST.

func setupMatchApp(t *testing.T) (*fiber.App, *config.Config) {
	t.Helper()

	if os.Getenv("PGHOST") == "" {
		t.Skip("PGHOST не задан, пропускаем тесты с базой данных")
	}

	dbConfig := config.DatabaseConfig{
		Host:     os.Getenv("PGHOST"),
		Port:     matchEnvOrDefault("PGPORT", "5432"),
		User:     matchEnvOrDefault("PGUSER", "tedlist_user"),
		Password: matchEnvOrDefault("PGPASSWORD", "tedlist_pass"),
		Name:     matchEnvOrDefault("PGDATABASE", "tedlist"),
		SSLMode:  matchEnvOrDefault("PGSSLMODE", "disable"),
	}

	cfg := &config.Config{
		JWTSecret:      "match-test-secret",
		DatabaseConfig: dbConfig,
		DatabaseURL: fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name, dbConfig.SSLMode),
	}

	if db.Pool == nil {
		require.NoError(t, db.InitDB(cfg))
	}

	app := fiber.New()
	service := NewMatchService(cfg)
	service.SetupRoutes(app)

	return app, cfg
}

func matchEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func createMatchTestUser(t *testing.T, name string) uuid.UUID {
	t.Helper()

	ctx, cancel := db.GetContext()
	defer cancel()

	var userID uuid.UUID
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, 'x')
		RETURNING id
	`, name, fmt.Sprintf("%s@match-test.local", uuid.New())).Scan(&userID)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := db.GetContext()
		defer cancel()
		db.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	})

	return userID
}

func createMatchTestItem(t *testing.T, ownerID uuid.UUID, title string) uuid.UUID {
	t.Helper()

	ctx, cancel := db.GetContext()
	defer cancel()

	var itemID uuid.UUID
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO items (user_id, title) VALUES ($1, $2) RETURNING id
	`, ownerID, title).Scan(&itemID)
	require.NoError(t, err)

	return itemID
}

func TestUpdateMatchStatusRefreshesUpdatedAt(t *testing.T) {
	app, cfg := setupMatchApp(t)

	owner := createMatchTestUser(t, "Owner")
	matched := createMatchTestUser(t, "Matched")
	ownerItem := createMatchTestItem(t, owner, "Книга")
	matchedItem := createMatchTestItem(t, matched, "Пазл")

	ctx, cancel := db.GetContext()
	defer cancel()

	// Совпадение, зафиксированное час назад
	var matchID uuid.UUID
	require.NoError(t, db.Pool.QueryRow(ctx, `
		INSERT INTO matches (item_id, matched_item_id, matched_user_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, 'detected', NOW() - interval '1 hour', NOW() - interval '1 hour')
		RETURNING id
	`, ownerItem, matchedItem, matched).Scan(&matchID))

	token, err := utils.NewJWTService(cfg.JWTSecret).GenerateToken(matched.String())
	require.NoError(t, err)

	body, _ := json.Marshal(map[string]string{"status": "accepted"})
	req := httptest.NewRequest("PUT", "/api/matches/"+matchID.String()+"/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, fiber.TestConfig{Timeout: 10 * time.Second})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel = db.GetContext()
	defer cancel()

	var status string
	var createdAt, updatedAt time.Time
	require.NoError(t, db.Pool.QueryRow(ctx, `
		SELECT status, created_at, updated_at FROM matches WHERE id = $1
	`, matchID).Scan(&status, &createdAt, &updatedAt))

	assert.Equal(t, "accepted", status)
	assert.True(t, updatedAt.After(createdAt), "updated_at не обновлен при смене статуса")

	// Принятие совпадения начисляет награду
	var teddies int
	require.NoError(t, db.Pool.QueryRow(ctx, `
		SELECT teddies FROM users WHERE id = $1
	`, matched).Scan(&teddies))
	assert.Equal(t, acceptMatchReward, teddies)
}
