package item

import (
	"encoding/json"
	"log"
	"math/rand/v2"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tedlist/tedlist-api/internal/config"
	"github.com/tedlist/tedlist-api/internal/db"
	"github.com/tedlist/tedlist-api/internal/models"
	"github.com/tedlist/tedlist-api/internal/utils"
)

// ItemService представляет сервис для работы с предметами
type ItemService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
}

// NewItemService создает новый экземпляр ItemService
func NewItemService(cfg *config.Config) *ItemService {
	return &ItemService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// CreateItem обрабатывает создание нового предмета
func (s *ItemService) CreateItem(c fiber.Ctx) error {
	userUUID, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	var requestData struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Images      []string `json:"images"`
		Condition   string   `json:"condition"`
		Type        string   `json:"type"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if requestData.Title == "" || requestData.Description == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Название и описание обязательны"})
	}

	if requestData.Condition == "" {
		requestData.Condition = "Good"
	}
	if !models.ValidConditions[requestData.Condition] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Недопустимое состояние предмета"})
	}

	if requestData.Type == "" {
		requestData.Type = "trade"
	}
	if requestData.Type != "trade" && requestData.Type != "sell" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Тип предмета должен быть trade или sell"})
	}

	if requestData.Images == nil {
		requestData.Images = []string{}
	}
	imagesData, err := json.Marshal(requestData.Images)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат изображений"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Бонус предмета выбирается один раз при создании
	teddyBonus := rand.IntN(10) + 1

	var item models.Item
	err = db.Pool.QueryRow(ctx, `
		INSERT INTO items (user_id, title, description, images, condition, type, status, teddy_bonus)
		VALUES ($1, $2, $3, $4, $5, $6, 'available', $7)
		RETURNING id, user_id, title, description, condition, type, status, teddy_bonus, created_at, updated_at
	`, userUUID, requestData.Title, requestData.Description, imagesData, requestData.Condition, requestData.Type, teddyBonus).Scan(
		&item.ID,
		&item.UserID,
		&item.Title,
		&item.Description,
		&item.Condition,
		&item.Type,
		&item.Status,
		&item.TeddyBonus,
		&item.CreatedAt,
		&item.UpdatedAt,
	)

	if err != nil {
		log.Printf("Ошибка создания предмета: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения предмета"})
	}
	item.Images = requestData.Images

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"item":    item,
	})
}

// GetMyItems возвращает предметы текущего пользователя
func (s *ItemService) GetMyItems(c fiber.Ctx) error {
	userUUID, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
		SELECT id, user_id, title, description, images, condition, type, status, teddy_bonus, created_at, updated_at
		FROM items
		WHERE user_id = $1 AND status != 'deleted'
		ORDER BY created_at DESC
	`, userUUID)

	if err != nil {
		log.Printf("Ошибка запроса предметов: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения предметов"})
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		log.Printf("Ошибка сканирования предметов: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения предметов"})
	}

	return c.JSON(fiber.Map{
		"items": items,
		"count": len(items),
	})
}

// GetItem возвращает один предмет по ID
func (s *ItemService) GetItem(c fiber.Ctx) error {
	itemUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID предмета"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var item models.Item
	var imagesData []byte
	var ownerName string

	err = db.Pool.QueryRow(ctx, `
		SELECT i.id, i.user_id, i.title, i.description, i.images, i.condition,
		       i.type, i.status, i.teddy_bonus, i.created_at, i.updated_at, u.name
		FROM items i
		JOIN users u ON u.id = i.user_id
		WHERE i.id = $1 AND i.status != 'deleted'
	`, itemUUID).Scan(
		&item.ID,
		&item.UserID,
		&item.Title,
		&item.Description,
		&imagesData,
		&item.Condition,
		&item.Type,
		&item.Status,
		&item.TeddyBonus,
		&item.CreatedAt,
		&item.UpdatedAt,
		&ownerName,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Предмет не найден"})
		}
		log.Printf("Ошибка запроса предмета: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения предмета"})
	}

	if len(imagesData) > 0 {
		if err := json.Unmarshal(imagesData, &item.Images); err != nil {
			item.Images = []string{}
		}
	}
	item.User = &models.UserInfo{ID: item.UserID, Name: ownerName}

	return c.JSON(fiber.Map{"item": item})
}

// UpdateItem обновляет предмет текущего пользователя
func (s *ItemService) UpdateItem(c fiber.Ctx) error {
	userUUID, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	itemUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID предмета"})
	}

	var requestData struct {
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Images      []string `json:"images"`
		Condition   string   `json:"condition"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if requestData.Condition != "" && !models.ValidConditions[requestData.Condition] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Недопустимое состояние предмета"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Проверяем владение предметом
	var ownerID uuid.UUID
	err = db.Pool.QueryRow(ctx, `SELECT user_id FROM items WHERE id = $1`, itemUUID).Scan(&ownerID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Предмет не найден"})
		}
		log.Printf("Ошибка запроса предмета: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления предмета"})
	}

	if ownerID != userUUID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Нельзя редактировать чужой предмет"})
	}

	var imagesData []byte
	if requestData.Images != nil {
		imagesData, _ = json.Marshal(requestData.Images)
	}

	_, err = db.Pool.Exec(ctx, `
		UPDATE items
		SET title = COALESCE(NULLIF($1, ''), title),
		    description = COALESCE(NULLIF($2, ''), description),
		    condition = COALESCE(NULLIF($3, ''), condition),
		    images = COALESCE($4, images),
		    updated_at = NOW()
		WHERE id = $5
	`, requestData.Title, requestData.Description, requestData.Condition, imagesData, itemUUID)

	if err != nil {
		log.Printf("Ошибка обновления предмета: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления предмета"})
	}

	return c.JSON(fiber.Map{"success": true, "item_id": itemUUID})
}

// DeleteItem помечает предмет удаленным
func (s *ItemService) DeleteItem(c fiber.Ctx) error {
	userUUID, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	itemUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID предмета"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tag, err := db.Pool.Exec(ctx, `
		UPDATE items SET status = 'deleted', updated_at = NOW()
		WHERE id = $1 AND user_id = $2
	`, itemUUID, userUUID)

	if err != nil {
		log.Printf("Ошибка удаления предмета: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка удаления предмета"})
	}

	if tag.RowsAffected() == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Предмет не найден"})
	}

	return c.JSON(fiber.Map{"success": true})
}

// GetPublicItems возвращает публичный список доступных предметов
func (s *ItemService) GetPublicItems(c fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}

	offset, err := strconv.Atoi(c.Query("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
		SELECT id, user_id, title, description, images, condition, type, status, teddy_bonus, created_at, updated_at
		FROM items
		WHERE status = 'available'
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)

	if err != nil {
		log.Printf("Ошибка запроса предметов: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения предметов"})
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		log.Printf("Ошибка сканирования предметов: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения предметов"})
	}

	return c.JSON(fiber.Map{
		"items":  items,
		"count":  len(items),
		"limit":  limit,
		"offset": offset,
	})
}

// scanItems сканирует строки предметов из результата запроса
func scanItems(rows pgx.Rows) ([]models.Item, error) {
	items := []models.Item{}
	for rows.Next() {
		var item models.Item
		var imagesData []byte

		if err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.Title,
			&item.Description,
			&imagesData,
			&item.Condition,
			&item.Type,
			&item.Status,
			&item.TeddyBonus,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, err
		}

		if len(imagesData) > 0 {
			if err := json.Unmarshal(imagesData, &item.Images); err != nil {
				item.Images = []string{}
			}
		}

		items = append(items, item)
	}

	return items, rows.Err()
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
