package deal

import (
	"context"
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/tedlist/tedlist-api/internal/config"
	"github.com/tedlist/tedlist-api/internal/db"
	"github.com/tedlist/tedlist-api/internal/models"
	"github.com/tedlist/tedlist-api/internal/utils"
)

// DealService представляет сервис для работы со сделками
type DealService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
}

// NewDealService создает новый экземпляр DealService
func NewDealService(cfg *config.Config) *DealService {
	return &DealService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// GetSentDeals возвращает сделки, где пользователь — отправитель
func (s *DealService) GetSentDeals(c fiber.Ctx) error {
	userUUID, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	deals, err := s.listDeals(ctx, `
		SELECT id, sender_id, receiver_id, sender_items, receiver_items,
		       status, teddies_earned, last_activity_at, created_at, updated_at
		FROM deals
		WHERE sender_id = $1
		ORDER BY created_at DESC
	`, userUUID)

	if err != nil {
		log.Printf("Ошибка запроса отправленных сделок: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения сделок"})
	}

	return c.JSON(deals)
}

// GetReceivedDeals возвращает принятые и завершенные сделки,
// где пользователь — получатель
func (s *DealService) GetReceivedDeals(c fiber.Ctx) error {
	userUUID, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	deals, err := s.listDeals(ctx, `
		SELECT id, sender_id, receiver_id, sender_items, receiver_items,
		       status, teddies_earned, last_activity_at, created_at, updated_at
		FROM deals
		WHERE receiver_id = $1 AND status IN ('accepted', 'completed')
		ORDER BY created_at DESC
	`, userUUID)

	if err != nil {
		log.Printf("Ошибка запроса полученных сделок: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения сделок"})
	}

	return c.JSON(deals)
}

// listDeals выполняет запрос сделок и загружает связанные данные
func (s *DealService) listDeals(ctx context.Context, query string, userID uuid.UUID) ([]models.Deal, error) {
	rows, err := db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deals := []models.Deal{}
	for rows.Next() {
		var deal models.Deal
		var senderItemsData, receiverItemsData []byte

		if err := rows.Scan(
			&deal.ID,
			&deal.SenderID,
			&deal.ReceiverID,
			&senderItemsData,
			&receiverItemsData,
			&deal.Status,
			&deal.TeddiesEarned,
			&deal.LastActivityAt,
			&deal.CreatedAt,
			&deal.UpdatedAt,
		); err != nil {
			log.Printf("Ошибка сканирования сделки: %v", err)
			continue
		}

		if err := json.Unmarshal(senderItemsData, &deal.SenderItems); err != nil {
			deal.SenderItems = []uuid.UUID{}
		}
		if err := json.Unmarshal(receiverItemsData, &deal.ReceiverItems); err != nil {
			deal.ReceiverItems = []uuid.UUID{}
		}

		// Загружаем данные участников и предметов
		deal.Sender = getUserInfo(ctx, deal.SenderID)
		deal.Receiver = getUserInfo(ctx, deal.ReceiverID)
		deal.SenderItemsData = getItems(ctx, deal.SenderItems)
		deal.ReceiverItemsData = getItems(ctx, deal.ReceiverItems)

		deals = append(deals, deal)
	}

	return deals, nil
}

// getUserInfo получает минимальную информацию о пользователе
func getUserInfo(ctx context.Context, userID uuid.UUID) *models.UserInfo {
	var user models.UserInfo
	var avatarURL *string

	err := db.Pool.QueryRow(ctx, `
		SELECT id, name, avatar_url FROM users WHERE id = $1
	`, userID).Scan(&user.ID, &user.Name, &avatarURL)

	if err != nil {
		log.Printf("Ошибка получения пользователя %s: %v", userID, err)
		return nil
	}

	if avatarURL != nil {
		user.AvatarURL = *avatarURL
	}

	return &user
}

// getItems загружает предметы по списку идентификаторов
func getItems(ctx context.Context, itemIDs []uuid.UUID) []models.Item {
	if len(itemIDs) == 0 {
		return nil
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT id, user_id, title, description, images, condition, type, status, created_at, updated_at
		FROM items
		WHERE id = ANY($1)
	`, itemIDs)
	if err != nil {
		log.Printf("Ошибка получения предметов сделки: %v", err)
		return nil
	}
	defer rows.Close()

	var items []models.Item
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
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			log.Printf("Ошибка сканирования предмета: %v", err)
			continue
		}

		if len(imagesData) > 0 {
			if err := json.Unmarshal(imagesData, &item.Images); err != nil {
				item.Images = []string{}
			}
		}

		items = append(items, item)
	}

	return items
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
