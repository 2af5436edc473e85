package trading

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
	"github.com/tedlist/tedlist-api/internal/services/notification"
	"github.com/tedlist/tedlist-api/internal/utils"
	"github.com/tedlist/tedlist-api/internal/websocket"
)

// Тесты торгового цикла ходят в настоящий Postgres и запускаются только
// при заданном PGHOST (например, в docker-compose окружении).

func setupTradingApp(t *testing.T) (*fiber.App, *config.Config) {
	t.Helper()

	if os.Getenv("PGHOST") == "" {
		t.Skip("PGHOST не задан, пропускаем тесты с базой данных")
	}

	dbConfig := config.DatabaseConfig{
		Host:     os.Getenv("PGHOST"),
		Port:     envOrDefault("PGPORT", "5432"),
		User:     envOrDefault("PGUSER", "tedlist_user"),
		Password: envOrDefault("PGPASSWORD", "tedlist_pass"),
		Name:     envOrDefault("PGDATABASE", "tedlist"),
		SSLMode:  envOrDefault("PGSSLMODE", "disable"),
	}

	cfg := &config.Config{
		JWTSecret:      "trading-test-secret",
		DatabaseConfig: dbConfig,
		DatabaseURL: fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name, dbConfig.SSLMode),
	}

	if db.Pool == nil {
		require.NoError(t, db.InitDB(cfg))
	}

	app := fiber.New()
	wsManager := websocket.NewManager()
	notificationService := notification.NewNotificationService(cfg, wsManager)
	service := NewTradingService(cfg, notificationService)
	service.SetupRoutes(app)

	return app, cfg
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// createTestUser заводит пользователя и регистрирует очистку всех его
// следов: сделки не каскадируются от users, поэтому удаляются явно.
func createTestUser(t *testing.T, name string) uuid.UUID {
	t.Helper()

	ctx, cancel := db.GetContext()
	defer cancel()

	var userID uuid.UUID
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash)
		VALUES ($1, $2, 'x')
		RETURNING id
	`, name, fmt.Sprintf("%s@trading-test.local", uuid.New())).Scan(&userID)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := db.GetContext()
		defer cancel()
		db.Pool.Exec(ctx, `DELETE FROM deals WHERE sender_id = $1 OR receiver_id = $1`, userID)
		db.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	})

	return userID
}

func createTestItem(t *testing.T, ownerID uuid.UUID, title string) uuid.UUID {
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

func doTradingRequest(t *testing.T, app *fiber.App, cfg *config.Config, userID uuid.UUID, method, path string, payload interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	token, err := utils.NewJWTService(cfg.JWTSecret).GenerateToken(userID.String())
	require.NoError(t, err)

	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, fiber.TestConfig{Timeout: 10 * time.Second})
	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	resp.Body.Close()

	return resp, result
}

func startSession(t *testing.T, app *fiber.App, cfg *config.Config, userID, itemID uuid.UUID) {
	t.Helper()

	resp, _ := doTradingRequest(t, app, cfg, userID, "POST", "/api/trading/start",
		map[string]string{"item_id": itemID.String()})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSwipeWithoutSessionRejected(t *testing.T) {
	app, cfg := setupTradingApp(t)

	swiper := createTestUser(t, "Swiper")
	owner := createTestUser(t, "Owner")
	itemID := createTestItem(t, owner, "Лампа")

	resp, result := doTradingRequest(t, app, cfg, swiper, "POST", "/api/trading/swipe",
		map[string]string{"item_id": itemID.String(), "direction": "right"})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, result["error"], "активной торговой сессии")
}

func TestMutualRightSwipeCreatesMatch(t *testing.T) {
	app, cfg := setupTradingApp(t)

	alice := createTestUser(t, "Alice")
	bob := createTestUser(t, "Bob")
	aliceItem := createTestItem(t, alice, "Книга")
	bobItem := createTestItem(t, bob, "Пазл")

	startSession(t, app, cfg, alice, aliceItem)
	startSession(t, app, cfg, bob, bobItem)

	// Первый свайп односторонний: совпадения ещё нет
	resp, result := doTradingRequest(t, app, cfg, bob, "POST", "/api/trading/swipe",
		map[string]string{"item_id": aliceItem.String(), "direction": "right"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, result["is_match"])

	// Встречный правый свайп замыкает взаимный интерес
	resp, result = doTradingRequest(t, app, cfg, alice, "POST", "/api/trading/swipe",
		map[string]string{"item_id": bobItem.String(), "direction": "right"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, result["is_match"])
	assert.Equal(t, "Bob", result["matched_user"])

	ctx, cancel := db.GetContext()
	defer cancel()

	var matchCount int
	err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM matches
		WHERE status = 'detected'
		  AND ((item_id = $1 AND matched_item_id = $2) OR (item_id = $2 AND matched_item_id = $1))
	`, aliceItem, bobItem).Scan(&matchCount)
	require.NoError(t, err)
	assert.Equal(t, 1, matchCount)

	// Уведомление о совпадении получают обе стороны
	for _, userID := range []uuid.UUID{alice, bob} {
		var notified bool
		err = db.Pool.QueryRow(ctx, `
			SELECT EXISTS(SELECT 1 FROM notifications WHERE user_id = $1 AND type = 'match')
		`, userID).Scan(&notified)
		require.NoError(t, err)
		assert.True(t, notified, "пользователь %s не получил уведомление о совпадении", userID)
	}
}

func TestRepeatedSwipeOnSameItemConflicts(t *testing.T) {
	app, cfg := setupTradingApp(t)

	alice := createTestUser(t, "Alice")
	bob := createTestUser(t, "Bob")
	aliceItem := createTestItem(t, alice, "Книга")
	bobItem := createTestItem(t, bob, "Пазл")

	startSession(t, app, cfg, alice, aliceItem)

	payload := map[string]string{"item_id": bobItem.String(), "direction": "left"}

	resp, _ := doTradingRequest(t, app, cfg, alice, "POST", "/api/trading/swipe", payload)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, result := doTradingRequest(t, app, cfg, alice, "POST", "/api/trading/swipe", payload)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, result["error"], "уже был просмотрен")
}

func TestAcceptTradeCompletesOnce(t *testing.T) {
	app, cfg := setupTradingApp(t)

	alice := createTestUser(t, "Alice")
	bob := createTestUser(t, "Bob")
	carol := createTestUser(t, "Carol")
	aliceItem := createTestItem(t, alice, "Книга")
	bobItem := createTestItem(t, bob, "Пазл")
	carolItem := createTestItem(t, carol, "Мяч")

	startSession(t, app, cfg, alice, aliceItem)
	startSession(t, app, cfg, bob, bobItem)
	startSession(t, app, cfg, carol, carolItem)

	payload := map[string]string{
		"item_id":      bobItem.String(),
		"from_user_id": alice.String(),
	}

	resp, result := doTradingRequest(t, app, cfg, bob, "POST", "/api/trading/accept", payload)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, result["success"])
	require.NotNil(t, result["deal"])

	ctx, cancel := db.GetContext()
	defer cancel()

	// Оба предмета переведены в traded
	for _, itemID := range []uuid.UUID{aliceItem, bobItem} {
		var status string
		require.NoError(t, db.Pool.QueryRow(ctx, `
			SELECT status FROM items WHERE id = $1
		`, itemID).Scan(&status))
		assert.Equal(t, "traded", status)
	}

	// Торговые сессии обоих участников завершены
	for _, userID := range []uuid.UUID{alice, bob} {
		var activeItemID *uuid.UUID
		require.NoError(t, db.Pool.QueryRow(ctx, `
			SELECT active_item_id FROM users WHERE id = $1
		`, userID).Scan(&activeItemID))
		assert.Nil(t, activeItemID, "сессия пользователя %s не завершена", userID)
	}

	// Повторное принятие того же предложения: сессия отправителя уже закрыта
	resp, result = doTradingRequest(t, app, cfg, bob, "POST", "/api/trading/accept", payload)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Принятие другого предложения тем же, уже обменянным предметом — конфликт
	resp, result = doTradingRequest(t, app, cfg, bob, "POST", "/api/trading/accept",
		map[string]string{
			"item_id":      bobItem.String(),
			"from_user_id": carol.String(),
		})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, result["error"], "уже обменян")

	// Сделка осталась ровно одна
	var dealCount int
	require.NoError(t, db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM deals WHERE sender_id = $1 OR receiver_id = $1
	`, bob).Scan(&dealCount))
	assert.Equal(t, 1, dealCount)
}

func TestAcceptTradeRequiresOwnItem(t *testing.T) {
	app, cfg := setupTradingApp(t)

	alice := createTestUser(t, "Alice")
	bob := createTestUser(t, "Bob")
	carol := createTestUser(t, "Carol")
	aliceItem := createTestItem(t, alice, "Книга")
	carolItem := createTestItem(t, carol, "Мяч")
	createTestItem(t, bob, "Пазл")

	startSession(t, app, cfg, alice, aliceItem)

	// Боб пытается провести сделку чужим предметом
	resp, result := doTradingRequest(t, app, cfg, bob, "POST", "/api/trading/accept",
		map[string]string{
			"item_id":      carolItem.String(),
			"from_user_id": alice.String(),
		})

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, result["error"], "своим предметом")

	// Чужой предмет остался доступным
	ctx, cancel := db.GetContext()
	defer cancel()
	var status string
	require.NoError(t, db.Pool.QueryRow(ctx, `
		SELECT status FROM items WHERE id = $1
	`, carolItem).Scan(&status))
	assert.Equal(t, "available", status)
}

func TestAcceptTradeRejectsSelfDeal(t *testing.T) {
	app, cfg := setupTradingApp(t)

	alice := createTestUser(t, "Alice")
	aliceItem := createTestItem(t, alice, "Книга")

	startSession(t, app, cfg, alice, aliceItem)

	resp, result := doTradingRequest(t, app, cfg, alice, "POST", "/api/trading/accept",
		map[string]string{
			"item_id":      aliceItem.String(),
			"from_user_id": alice.String(),
		})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, result["error"], "самим собой")
}
