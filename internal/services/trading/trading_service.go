package trading

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log"
	"math/rand/v2"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tedlist/tedlist-api/internal/config"
	"github.com/tedlist/tedlist-api/internal/db"
	"github.com/tedlist/tedlist-api/internal/models"
	"github.com/tedlist/tedlist-api/internal/services/notification"
	"github.com/tedlist/tedlist-api/internal/utils"
)

const (
	// Базовая награда за свайп
	swipeTeddyReward = 1

	// Границы случайного бонуса за совпадение и за принятую сделку
	matchBonusMin = 5
	matchBonusMax = 14
)

// TradingService представляет сервис торговых сессий: свайпы,
// обнаружение совпадений и принятие обменов
type TradingService struct {
	cfg           *config.Config
	jwtService    *utils.JWTService
	notifications *notification.NotificationService
}

// NewTradingService создает новый экземпляр TradingService
func NewTradingService(cfg *config.Config, notifications *notification.NotificationService) *TradingService {
	return &TradingService{
		cfg:           cfg,
		jwtService:    utils.NewJWTService(cfg.JWTSecret),
		notifications: notifications,
	}
}

// StartSession начинает торговую сессию с выбранным предметом
func (s *TradingService) StartSession(c fiber.Ctx) error {
	userUUID, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	var requestData struct {
		ItemID string `json:"item_id"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	itemUUID, err := uuid.Parse(requestData.ItemID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID предмета"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Предмет должен существовать, принадлежать пользователю и быть доступным
	var ownerID uuid.UUID
	var status string
	err = db.Pool.QueryRow(ctx, `
		SELECT user_id, status FROM items WHERE id = $1
	`, itemUUID).Scan(&ownerID, &status)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Предмет не найден"})
		}
		log.Printf("Ошибка запроса предмета: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки предмета"})
	}

	if ownerID != userUUID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Нельзя предлагать чужой предмет"})
	}

	if status != models.ItemStatusAvailable {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Предмет недоступен для обмена"})
	}

	_, err = db.Pool.Exec(ctx, `
		UPDATE users
		SET active_item_id = $1, session_started_at = NOW(), updated_at = NOW()
		WHERE id = $2
	`, itemUUID, userUUID)

	if err != nil {
		log.Printf("Ошибка старта торговой сессии: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка старта торговой сессии"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"item_id": itemUUID,
	})
}

// GetItems возвращает предметы-кандидаты для свайпов: чужие, доступные,
// ещё не просмотренные. Без активной сессии возвращается пустой список.
func (s *TradingService) GetItems(c fiber.Ctx) error {
	userUUID, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	activeItemID, err := s.activeItem(ctx, userUUID)
	if err != nil {
		log.Printf("Ошибка запроса торговой сессии: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения предметов"})
	}

	if activeItemID == nil {
		return c.JSON([]models.Item{})
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT i.id, i.user_id, i.title, i.description, i.images, i.condition,
		       i.type, i.status, i.teddy_bonus, i.created_at, i.updated_at, u.name
		FROM items i
		JOIN users u ON u.id = i.user_id
		WHERE i.user_id != $1
		  AND i.type = 'trade'
		  AND i.status = 'available'
		  AND NOT EXISTS (
		      SELECT 1 FROM swipes s WHERE s.user_id = $1 AND s.item_id = i.id
		  )
		ORDER BY i.created_at DESC
	`, userUUID)

	if err != nil {
		log.Printf("Ошибка запроса предметов: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения предметов"})
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		var item models.Item
		var imagesData []byte
		var ownerName string

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
			&ownerName,
		); err != nil {
			log.Printf("Ошибка сканирования предмета: %v", err)
			continue
		}

		if len(imagesData) > 0 {
			if err := json.Unmarshal(imagesData, &item.Images); err != nil {
				item.Images = []string{}
			}
		}

		item.User = &models.UserInfo{ID: item.UserID, Name: ownerName}
		items = append(items, item)
	}

	return c.JSON(items)
}

// Swipe записывает решение пользователя по предмету и на правом свайпе
// проверяет взаимный интерес
func (s *TradingService) Swipe(c fiber.Ctx) error {
	userUUID, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	var requestData struct {
		ItemID    string `json:"item_id"`
		Direction string `json:"direction"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if !ValidSwipeDirection(requestData.Direction) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Направление свайпа должно быть left или right"})
	}

	itemUUID, err := uuid.Parse(requestData.ItemID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID предмета"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Свайп без активной сессии — ошибка состояния, а не тихий no-op
	var userName string
	var activeItemID *uuid.UUID
	err = db.Pool.QueryRow(ctx, `
		SELECT name, active_item_id FROM users WHERE id = $1
	`, userUUID).Scan(&userName, &activeItemID)

	if err != nil {
		log.Printf("Ошибка запроса пользователя: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка записи свайпа"})
	}

	if activeItemID == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Нет активной торговой сессии"})
	}

	// Целевой предмет и его владелец
	var itemTitle string
	var itemOwnerID uuid.UUID
	err = db.Pool.QueryRow(ctx, `
		SELECT title, user_id FROM items WHERE id = $1
	`, itemUUID).Scan(&itemTitle, &itemOwnerID)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Предмет не найден"})
		}
		log.Printf("Ошибка запроса предмета: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка записи свайпа"})
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("Ошибка начала транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer tx.Rollback(ctx)

	// Сериализуем проверку взаимности по неупорядоченной паре предметов:
	// два встречных свайпа не могут пройти эту точку одновременно, поэтому
	// завершивший взаимность всегда увидит свайп противоположной стороны.
	_, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, PairLockKey(*activeItemID, itemUUID))
	if err != nil {
		log.Printf("Ошибка получения блокировки пары: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	// Записываем свайп в обоих направлениях, чтобы предмет не показывался повторно
	tag, err := tx.Exec(ctx, `
		INSERT INTO swipes (user_id, item_id, direction)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, item_id) DO NOTHING
	`, userUUID, itemUUID, requestData.Direction)

	if err != nil {
		log.Printf("Ошибка записи свайпа: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка записи свайпа"})
	}

	if tag.RowsAffected() == 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Предмет уже был просмотрен"})
	}

	// Левый свайп: фиксируем участие и выходим
	if requestData.Direction == "left" {
		if err := creditTeddies(ctx, tx, userUUID, swipeTeddyReward, "Swipe reward"); err != nil {
			log.Printf("Ошибка начисления награды за свайп: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка записи свайпа"})
		}

		if err := tx.Commit(ctx); err != nil {
			log.Printf("Ошибка фиксации транзакции: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
		}

		return c.JSON(fiber.Map{
			"success":     true,
			"is_match":    false,
			"teddy_bonus": swipeTeddyReward,
		})
	}

	// Проверка взаимности: другой пользователь предлагает именно этот предмет
	// и уже свайпнул вправо наш активный предмет
	var matchedUserID uuid.UUID
	var matchedUserName string
	err = tx.QueryRow(ctx, `
		SELECT u.id, u.name
		FROM users u
		JOIN swipes s ON s.user_id = u.id AND s.item_id = $1 AND s.direction = 'right'
		WHERE u.active_item_id = $2
	`, *activeItemID, itemUUID).Scan(&matchedUserID, &matchedUserName)

	if err != nil && err != pgx.ErrNoRows {
		log.Printf("Ошибка проверки взаимности: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка записи свайпа"})
	}

	isMatch := err == nil

	if !isMatch {
		if err := creditTeddies(ctx, tx, userUUID, swipeTeddyReward, "Swipe reward"); err != nil {
			log.Printf("Ошибка начисления награды за свайп: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка записи свайпа"})
		}

		if err := tx.Commit(ctx); err != nil {
			log.Printf("Ошибка фиксации транзакции: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
		}

		// Уведомляем владельца о проявленном интересе. Доставка — побочный
		// канал: её сбой не отменяет записанный свайп.
		s.sendOfferNotification(itemOwnerID, itemUUID, userUUID, userName, itemTitle)

		return c.JSON(fiber.Map{
			"success":     true,
			"is_match":    false,
			"teddy_bonus": swipeTeddyReward,
		})
	}

	// Совпадение: фиксируем его и начисляем бонус обоим участникам
	bonus := matchTeddyBonus()

	_, err = tx.Exec(ctx, `
		INSERT INTO matches (item_id, matched_user_id, matched_item_id, status)
		VALUES ($1, $2, $3, 'detected')
	`, *activeItemID, matchedUserID, itemUUID)
	if err != nil {
		log.Printf("Ошибка записи совпадения: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка записи свайпа"})
	}

	if err := creditTeddies(ctx, tx, userUUID, bonus, "Match bonus"); err != nil {
		log.Printf("Ошибка начисления бонуса: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка записи свайпа"})
	}
	if err := creditTeddies(ctx, tx, matchedUserID, bonus, "Match bonus"); err != nil {
		log.Printf("Ошибка начисления бонуса: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка записи свайпа"})
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("Ошибка фиксации транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	// Уведомления после фиксации: владельцу об интересе и обоим о совпадении
	s.sendOfferNotification(itemOwnerID, itemUUID, userUUID, userName, itemTitle)

	if _, err := s.notifications.Create(
		matchedUserID,
		models.NotificationTypeMatch,
		&itemUUID,
		&userUUID,
		fmt.Sprintf("You have a match with %s for \"%s\"", userName, itemTitle),
	); err != nil {
		log.Printf("Ошибка создания уведомления о совпадении: %v", err)
	}

	if _, err := s.notifications.Create(
		userUUID,
		models.NotificationTypeMatch,
		activeItemID,
		&matchedUserID,
		fmt.Sprintf("You have a match with %s", matchedUserName),
	); err != nil {
		log.Printf("Ошибка создания уведомления о совпадении: %v", err)
	}

	return c.JSON(fiber.Map{
		"success":         true,
		"is_match":        true,
		"matched_user":    matchedUserName,
		"matched_item_id": itemUUID,
		"teddy_bonus":     bonus,
	})
}

// AcceptTrade принимает предложение обмена: создает сделку и переводит
// оба предмета в статус traded
func (s *TradingService) AcceptTrade(c fiber.Ctx) error {
	userUUID, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	var requestData struct {
		ItemID     string `json:"item_id"`
		FromUserID string `json:"from_user_id"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	itemUUID, err := uuid.Parse(requestData.ItemID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID предмета"})
	}

	fromUserUUID, err := uuid.Parse(requestData.FromUserID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	if fromUserUUID == userUUID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Нельзя принять обмен с самим собой"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Активный предмет отправителя — вторая сторона обмена
	var senderItemID *uuid.UUID
	err = db.Pool.QueryRow(ctx, `
		SELECT active_item_id FROM users WHERE id = $1
	`, fromUserUUID).Scan(&senderItemID)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Пользователь не найден"})
		}
		log.Printf("Ошибка запроса отправителя: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка принятия обмена"})
	}

	if senderItemID == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "У отправителя нет активной торговой сессии"})
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("Ошибка начала транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer tx.Rollback(ctx)

	// Один и тот же предмет с обеих сторон сделкой не является
	if itemUUID == *senderItemID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Нельзя обменять предмет сам на себя"})
	}

	// Блокируем оба предмета и проверяем доступность. Повторное принятие
	// уже обменянных предметов — конфликт, а не вторая сделка.
	rows, err := tx.Query(ctx, `
		SELECT id, user_id, status FROM items WHERE id = ANY($1) FOR UPDATE
	`, []uuid.UUID{itemUUID, *senderItemID})
	if err != nil {
		log.Printf("Ошибка блокировки предметов: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка принятия обмена"})
	}

	owners := make(map[uuid.UUID]uuid.UUID)
	statuses := make(map[uuid.UUID]string)
	for rows.Next() {
		var id, ownerID uuid.UUID
		var status string
		if err := rows.Scan(&id, &ownerID, &status); err != nil {
			rows.Close()
			log.Printf("Ошибка сканирования предмета: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка принятия обмена"})
		}
		owners[id] = ownerID
		statuses[id] = status
	}
	rows.Close()

	if len(statuses) < 2 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Предметы не найдены"})
	}

	// Каждая сторона сделки отдаёт только свой предмет
	if owners[itemUUID] != userUUID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Можно принять обмен только со своим предметом"})
	}
	if owners[*senderItemID] != fromUserUUID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Предмет не принадлежит отправителю"})
	}

	for _, status := range statuses {
		if status != models.ItemStatusAvailable {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Предмет уже обменян"})
		}
	}

	bonus := matchTeddyBonus()

	senderItems, _ := json.Marshal([]uuid.UUID{*senderItemID})
	receiverItems, _ := json.Marshal([]uuid.UUID{itemUUID})

	var deal models.Deal
	err = tx.QueryRow(ctx, `
		INSERT INTO deals (sender_id, receiver_id, sender_items, receiver_items, status, teddies_earned, last_activity_at)
		VALUES ($1, $2, $3, $4, 'accepted', $5, NOW())
		RETURNING id, sender_id, receiver_id, status, teddies_earned, last_activity_at, created_at, updated_at
	`, fromUserUUID, userUUID, senderItems, receiverItems, bonus).Scan(
		&deal.ID,
		&deal.SenderID,
		&deal.ReceiverID,
		&deal.Status,
		&deal.TeddiesEarned,
		&deal.LastActivityAt,
		&deal.CreatedAt,
		&deal.UpdatedAt,
	)
	if err != nil {
		log.Printf("Ошибка создания сделки: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка создания сделки"})
	}
	deal.SenderItems = []uuid.UUID{*senderItemID}
	deal.ReceiverItems = []uuid.UUID{itemUUID}

	// Только принятая сделка переводит предметы в traded
	_, err = tx.Exec(ctx, `
		UPDATE items SET status = 'traded', updated_at = NOW() WHERE id = ANY($1)
	`, []uuid.UUID{itemUUID, *senderItemID})
	if err != nil {
		log.Printf("Ошибка обновления статуса предметов: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка принятия обмена"})
	}

	// Обменянные предметы не могут оставаться активными в чьих-то сессиях
	_, err = tx.Exec(ctx, `
		UPDATE users
		SET active_item_id = NULL, session_started_at = NULL
		WHERE active_item_id = ANY($1)
	`, []uuid.UUID{itemUUID, *senderItemID})
	if err != nil {
		log.Printf("Ошибка завершения торговых сессий: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка принятия обмена"})
	}

	// Если совпадение для этой пары было зафиксировано, отмечаем его принятым.
	// Принятие напрямую из уведомления, без записи о совпадении — допустимый путь.
	_, err = tx.Exec(ctx, `
		UPDATE matches
		SET status = 'accepted', updated_at = NOW()
		WHERE status = 'detected'
		  AND ((item_id = $1 AND matched_item_id = $2) OR (item_id = $2 AND matched_item_id = $1))
	`, itemUUID, *senderItemID)
	if err != nil {
		log.Printf("Ошибка обновления совпадения: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка принятия обмена"})
	}

	if err := creditTeddies(ctx, tx, userUUID, bonus, "Trade completed"); err != nil {
		log.Printf("Ошибка начисления награды: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка принятия обмена"})
	}
	if err := creditTeddies(ctx, tx, fromUserUUID, bonus, "Trade completed"); err != nil {
		log.Printf("Ошибка начисления награды: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка принятия обмена"})
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("Ошибка фиксации транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	// Уведомляем инициатора обмена о принятии
	if _, err := s.notifications.Create(
		fromUserUUID,
		models.NotificationTypeMessage,
		&itemUUID,
		&userUUID,
		"Your trade request has been accepted!",
	); err != nil {
		log.Printf("Ошибка создания уведомления о принятии обмена: %v", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"deal":    deal,
	})
}

// DeclineTrade отклоняет предложение обмена. Статусы предметов не меняются,
// инициатор получает уведомление.
func (s *TradingService) DeclineTrade(c fiber.Ctx) error {
	userUUID, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	var requestData struct {
		ItemID     string `json:"item_id"`
		FromUserID string `json:"from_user_id"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	fromUserUUID, err := uuid.Parse(requestData.FromUserID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	var itemID *uuid.UUID
	if requestData.ItemID != "" {
		parsed, err := uuid.Parse(requestData.ItemID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID предмета"})
		}
		itemID = &parsed
	}

	if _, err := s.notifications.Create(
		fromUserUUID,
		models.NotificationTypeMessage,
		itemID,
		&userUUID,
		"Your trade request has been declined",
	); err != nil {
		if err == notification.ErrNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Пользователь не найден"})
		}
		log.Printf("Ошибка создания уведомления об отклонении: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка отклонения обмена"})
	}

	return c.JSON(fiber.Map{"success": true})
}

// ResetSwipes очищает свайпы и торговую сессию пользователя.
// Сброс затрагивает только самого пользователя; глобальный возврат
// обменянных предметов вынесен в административную операцию.
func (s *TradingService) ResetSwipes(c fiber.Ctx) error {
	userUUID, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		log.Printf("Ошибка начала транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM swipes WHERE user_id = $1`, userUUID); err != nil {
		log.Printf("Ошибка очистки свайпов: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сброса свайпов"})
	}

	if _, err := tx.Exec(ctx, `
		UPDATE users
		SET active_item_id = NULL, session_started_at = NULL, updated_at = NOW()
		WHERE id = $1
	`, userUUID); err != nil {
		log.Printf("Ошибка сброса торговой сессии: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сброса свайпов"})
	}

	if err := tx.Commit(ctx); err != nil {
		log.Printf("Ошибка фиксации транзакции: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка базы данных"})
	}

	return c.JSON(fiber.Map{"success": true})
}

// sendOfferNotification уведомляет владельца предмета о правом свайпе
func (s *TradingService) sendOfferNotification(ownerID, itemID, fromUserID uuid.UUID, fromUserName, itemTitle string) {
	if _, err := s.notifications.Create(
		ownerID,
		models.NotificationTypeOffer,
		&itemID,
		&fromUserID,
		fmt.Sprintf("%s is interested in your item \"%s\"", fromUserName, itemTitle),
	); err != nil {
		log.Printf("Ошибка создания уведомления о предложении: %v", err)
	}
}

// activeItem возвращает ID активного предмета пользователя или nil
func (s *TradingService) activeItem(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	var activeItemID *uuid.UUID
	err := db.Pool.QueryRow(ctx, `
		SELECT active_item_id FROM users WHERE id = $1
	`, userID).Scan(&activeItemID)
	if err != nil {
		return nil, err
	}
	return activeItemID, nil
}

// creditTeddies начисляет пользователю теддиков и пишет запись в журнал наград
func creditTeddies(ctx context.Context, tx pgx.Tx, userID uuid.UUID, amount int, description string) error {
	if _, err := tx.Exec(ctx, `
		UPDATE users SET teddies = teddies + $1, updated_at = NOW() WHERE id = $2
	`, amount, userID); err != nil {
		return err
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO teddy_transactions (user_id, amount, description)
		VALUES ($1, $2, $3)
	`, userID, amount, description)
	return err
}

// ValidSwipeDirection проверяет допустимость направления свайпа
func ValidSwipeDirection(direction string) bool {
	return direction == "left" || direction == "right"
}

// matchTeddyBonus возвращает случайный бонус за совпадение или принятую сделку
func matchTeddyBonus() int {
	return matchBonusMin + rand.IntN(matchBonusMax-matchBonusMin+1)
}

// PairLockKey возвращает ключ advisory-блокировки для неупорядоченной пары
// предметов: обе стороны пары получают один и тот же ключ независимо от
// порядка аргументов
func PairLockKey(a, b uuid.UUID) int64 {
	first, second := a, b
	if bytes.Compare(a[:], b[:]) > 0 {
		first, second = b, a
	}

	h := fnv.New64a()
	h.Write(first[:])
	h.Write(second[:])
	return int64(h.Sum64())
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
