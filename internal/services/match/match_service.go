package match

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tedlist/tedlist-api/internal/config"
	"github.com/tedlist/tedlist-api/internal/db"
	"github.com/tedlist/tedlist-api/internal/models"
	"github.com/tedlist/tedlist-api/internal/utils"
)

// Награда за принятое совпадение
const acceptMatchReward = 50

// MatchService представляет сервис для работы с совпадениями
type MatchService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
}

// NewMatchService создает новый экземпляр MatchService
func NewMatchService(cfg *config.Config) *MatchService {
	return &MatchService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// GetMatches возвращает совпадения пользователя: и те, где он вторая
// сторона, и те, что затрагивают его предметы
func (s *MatchService) GetMatches(c fiber.Ctx) error {
	userUUID, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
		SELECT m.id, m.item_id, m.matched_user_id, m.matched_item_id, m.status, m.created_at
		FROM matches m
		LEFT JOIN items i ON i.id = m.item_id
		WHERE m.matched_user_id = $1 OR i.user_id = $1
		ORDER BY m.created_at DESC
	`, userUUID)

	if err != nil {
		log.Printf("Ошибка запроса совпадений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения совпадений"})
	}
	defer rows.Close()

	matches := []models.Match{}
	for rows.Next() {
		var match models.Match
		if err := rows.Scan(
			&match.ID,
			&match.ItemID,
			&match.MatchedUserID,
			&match.MatchedItemID,
			&match.Status,
			&match.CreatedAt,
		); err != nil {
			log.Printf("Ошибка сканирования совпадения: %v", err)
			continue
		}
		matches = append(matches, match)
	}

	return c.JSON(fiber.Map{
		"matches": matches,
		"count":   len(matches),
	})
}

// CreateMatch создает запись совпадения вручную
func (s *MatchService) CreateMatch(c fiber.Ctx) error {
	userUUID, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	var requestData struct {
		ItemID        string `json:"item_id"`
		MatchedItemID string `json:"matched_item_id"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	itemUUID, err := uuid.Parse(requestData.ItemID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID предмета"})
	}

	matchedItemUUID, err := uuid.Parse(requestData.MatchedItemID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID предмета"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var match models.Match
	err = db.Pool.QueryRow(ctx, `
		INSERT INTO matches (item_id, matched_user_id, matched_item_id, status)
		VALUES ($1, $2, $3, 'detected')
		RETURNING id, item_id, matched_user_id, matched_item_id, status, created_at
	`, itemUUID, userUUID, matchedItemUUID).Scan(
		&match.ID,
		&match.ItemID,
		&match.MatchedUserID,
		&match.MatchedItemID,
		&match.Status,
		&match.CreatedAt,
	)

	if err != nil {
		log.Printf("Ошибка создания совпадения: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка создания совпадения"})
	}

	return c.Status(fiber.StatusCreated).JSON(match)
}

// UpdateMatchStatus принимает или отклоняет совпадение.
// Принятие начисляет фиксированную награду.
func (s *MatchService) UpdateMatchStatus(c fiber.Ctx) error {
	userUUID, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	matchUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID совпадения"})
	}

	var requestData struct {
		Status string `json:"status"` // accepted, rejected
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if requestData.Status != models.MatchStatusAccepted && requestData.Status != models.MatchStatusRejected {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Недопустимый статус совпадения"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var matchedUserID uuid.UUID
	err = db.Pool.QueryRow(ctx, `
		SELECT matched_user_id FROM matches WHERE id = $1
	`, matchUUID).Scan(&matchedUserID)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Совпадение не найдено"})
		}
		log.Printf("Ошибка запроса совпадения: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления совпадения"})
	}

	if matchedUserID != userUUID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Нет прав на изменение этого совпадения"})
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("Ошибка начала транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer tx.Rollback(ctx)

	var match models.Match
	err = tx.QueryRow(ctx, `
		UPDATE matches
		SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING id, item_id, matched_user_id, matched_item_id, status, created_at
	`, requestData.Status, matchUUID).Scan(
		&match.ID,
		&match.ItemID,
		&match.MatchedUserID,
		&match.MatchedItemID,
		&match.Status,
		&match.CreatedAt,
	)

	if err != nil {
		log.Printf("Ошибка обновления совпадения: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления совпадения"})
	}

	if requestData.Status == models.MatchStatusAccepted {
		_, err = tx.Exec(ctx, `
			UPDATE users SET teddies = teddies + $1, updated_at = NOW() WHERE id = $2
		`, acceptMatchReward, userUUID)
		if err != nil {
			log.Printf("Ошибка начисления награды за совпадение: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления совпадения"})
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO teddy_transactions (user_id, amount, description)
			VALUES ($1, $2, 'Match accepted')
		`, userUUID, acceptMatchReward)
		if err != nil {
			log.Printf("Ошибка записи транзакции награды: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления совпадения"})
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("Ошибка фиксации транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	return c.JSON(match)
}

// DeleteMatch удаляет совпадение пользователя
func (s *MatchService) DeleteMatch(c fiber.Ctx) error {
	userUUID, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	matchUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID совпадения"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var matchedUserID uuid.UUID
	err = db.Pool.QueryRow(ctx, `
		SELECT matched_user_id FROM matches WHERE id = $1
	`, matchUUID).Scan(&matchedUserID)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Совпадение не найдено"})
		}
		log.Printf("Ошибка запроса совпадения: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка удаления совпадения"})
	}

	if matchedUserID != userUUID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Нет прав на удаление этого совпадения"})
	}

	_, err = db.Pool.Exec(ctx, `DELETE FROM matches WHERE id = $1`, matchUUID)
	if err != nil {
		log.Printf("Ошибка удаления совпадения: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка удаления совпадения"})
	}

	return c.JSON(fiber.Map{"success": true})
}

// currentUser извлекает UUID текущего пользователя из контекста запроса
func currentUser(c fiber.Ctx) (uuid.UUID, bool) {
	userID, _ := c.Locals("userID").(string)
	if userID == "" {
		return uuid.Nil, false
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, false
	}

	return userUUID, true
}
