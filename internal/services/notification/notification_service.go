package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tedlist/tedlist-api/internal/config"
	"github.com/tedlist/tedlist-api/internal/db"
	"github.com/tedlist/tedlist-api/internal/models"
	"github.com/tedlist/tedlist-api/internal/utils"
	"github.com/tedlist/tedlist-api/internal/websocket"
)

// ErrNotFound возвращается, когда получатель, отправитель или предмет
// уведомления не существуют
var ErrNotFound = errors.New("получатель уведомления не найден")

// NotificationService представляет сервис для работы с уведомлениями.
// Реестр WebSocket соединений передаётся явно: сервис создаёт запись
// уведомления всегда, а доставляет её только подключённым клиентам.
type NotificationService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	wsManager  *websocket.Manager
}

// NewNotificationService создает новый экземпляр NotificationService
func NewNotificationService(cfg *config.Config, wsManager *websocket.Manager) *NotificationService {
	return &NotificationService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		wsManager:  wsManager,
	}
}

// Create создает уведомление, сохраняет его в БД и пытается доставить
// получателю через WebSocket. Запись в БД — основной эффект; доставка
// по живому соединению выполняется по возможности и не влияет на результат.
func (s *NotificationService) Create(recipientID uuid.UUID, notificationType string, itemID, fromUserID *uuid.UUID, message string) (*models.Notification, error) {
	if !models.IsValidNotificationType(notificationType) {
		return nil, fmt.Errorf("недопустимый тип уведомления: %s", notificationType)
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Проверяем существование всех указанных сущностей до вставки
	if err := s.validateReferences(ctx, recipientID, itemID, fromUserID); err != nil {
		return nil, err
	}

	// Заголовок определяется типом уведомления
	title := models.NotificationTitle(notificationType)

	var notificationID uuid.UUID
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO notifications (user_id, from_user_id, item_id, type, title, message, read)
		VALUES ($1, $2, $3, $4, $5, $6, false)
		RETURNING id
	`, recipientID, fromUserID, itemID, notificationType, title, message).Scan(&notificationID)

	if err != nil {
		return nil, fmt.Errorf("ошибка при создании уведомления: %w", err)
	}

	// Перечитываем уведомление с данными отправителя и предмета
	notification, err := s.getNotification(ctx, notificationID)
	if err != nil {
		return nil, err
	}

	// Доставляем по живому соединению, если получатель подключен.
	// Отключенный клиент заберет непрочитанные уведомления при следующем запросе.
	s.wsManager.SendNotification(recipientID.String(), notification)

	return notification, nil
}

// validateReferences проверяет существование получателя, отправителя и предмета
func (s *NotificationService) validateReferences(ctx context.Context, recipientID uuid.UUID, itemID, fromUserID *uuid.UUID) error {
	var recipientExists bool
	err := db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)
	`, recipientID).Scan(&recipientExists)
	if err != nil {
		return fmt.Errorf("ошибка при проверке получателя: %w", err)
	}
	if !recipientExists {
		return ErrNotFound
	}

	if fromUserID != nil {
		var senderExists bool
		err = db.Pool.QueryRow(ctx, `
			SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)
		`, *fromUserID).Scan(&senderExists)
		if err != nil {
			return fmt.Errorf("ошибка при проверке отправителя: %w", err)
		}
		if !senderExists {
			return ErrNotFound
		}
	}

	if itemID != nil {
		var itemExists bool
		err = db.Pool.QueryRow(ctx, `
			SELECT EXISTS(SELECT 1 FROM items WHERE id = $1)
		`, *itemID).Scan(&itemExists)
		if err != nil {
			return fmt.Errorf("ошибка при проверке предмета: %w", err)
		}
		if !itemExists {
			return ErrNotFound
		}
	}

	return nil
}

// getNotification загружает уведомление с данными отправителя и предмета
func (s *NotificationService) getNotification(ctx context.Context, notificationID uuid.UUID) (*models.Notification, error) {
	row := db.Pool.QueryRow(ctx, notificationSelect+`
		WHERE n.id = $1
	`, notificationID)

	notification, err := scanNotification(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка при получении уведомления: %w", err)
	}

	return notification, nil
}

// notificationSelect — общая часть запросов уведомлений с данными
// отправителя и предмета
const notificationSelect = `
	SELECT n.id, n.user_id, n.from_user_id, n.item_id, n.type, n.title, n.message,
	       n.read, n.created_at, n.updated_at,
	       u.name, u.avatar_url,
	       i.title, i.description, i.images, i.condition
	FROM notifications n
	LEFT JOIN users u ON u.id = n.from_user_id
	LEFT JOIN items i ON i.id = n.item_id
`

// rowScanner объединяет pgx.Row и pgx.Rows для общего сканирования
type rowScanner interface {
	Scan(dest ...any) error
}

// scanNotification сканирует строку уведомления вместе с данными
// отправителя и предмета
func scanNotification(row rowScanner) (*models.Notification, error) {
	var n models.Notification
	var fromName, fromAvatar *string
	var itemTitle, itemDescription, itemCondition *string
	var itemImages []byte

	err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.FromUser,
		&n.ItemID,
		&n.Type,
		&n.Title,
		&n.Message,
		&n.Read,
		&n.CreatedAt,
		&n.UpdatedAt,
		&fromName,
		&fromAvatar,
		&itemTitle,
		&itemDescription,
		&itemImages,
		&itemCondition,
	)
	if err != nil {
		return nil, err
	}

	if n.FromUser != nil && fromName != nil {
		n.FromUserData = &models.UserInfo{ID: *n.FromUser, Name: *fromName}
		if fromAvatar != nil {
			n.FromUserData.AvatarURL = *fromAvatar
		}
	}

	if n.ItemID != nil && itemTitle != nil {
		item := &models.Item{
			ID:    *n.ItemID,
			Title: *itemTitle,
		}
		if itemDescription != nil {
			item.Description = *itemDescription
		}
		if itemCondition != nil {
			item.Condition = *itemCondition
		}
		if len(itemImages) > 0 {
			if err := json.Unmarshal(itemImages, &item.Images); err != nil {
				item.Images = []string{}
			}
		}
		n.Item = item
	}

	return &n, nil
}

// GetNotifications возвращает все уведомления пользователя
func (s *NotificationService) GetNotifications(c fiber.Ctx) error {
	userUUID, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Пользователь не авторизован"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	notifications, err := s.listNotifications(ctx, userUUID, 0)
	if err != nil {
		log.Printf("Ошибка запроса уведомлений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Ошибка получения уведомлений"})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"notifications": notifications,
	})
}

// GetRecentNotifications возвращает последние 5 уведомлений и число непрочитанных
func (s *NotificationService) GetRecentNotifications(c fiber.Ctx) error {
	userUUID, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Пользователь не авторизован"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	notifications, err := s.listNotifications(ctx, userUUID, 5)
	if err != nil {
		log.Printf("Ошибка запроса последних уведомлений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Ошибка получения уведомлений"})
	}

	var unreadCount int
	err = db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = false
	`, userUUID).Scan(&unreadCount)
	if err != nil {
		log.Printf("Ошибка подсчета непрочитанных уведомлений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Ошибка получения уведомлений"})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"notifications": notifications,
		"unread_count":  unreadCount,
	})
}

// listNotifications возвращает уведомления пользователя, новые первыми.
// limit == 0 означает без ограничения.
func (s *NotificationService) listNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]models.Notification, error) {
	query := notificationSelect + `
		WHERE n.user_id = $1
		ORDER BY n.created_at DESC
	`
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		notification, err := scanNotification(rows)
		if err != nil {
			log.Printf("Ошибка сканирования уведомления: %v", err)
			continue
		}
		notifications = append(notifications, *notification)
	}

	return notifications, nil
}

// MarkAsRead помечает уведомление прочитанным. Операция идемпотентна:
// повторная пометка уже прочитанного уведомления не является ошибкой.
func (s *NotificationService) MarkAsRead(c fiber.Ctx) error {
	userUUID, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Пользователь не авторизован"})
	}

	notificationID := c.Params("id")
	notificationUUID, err := uuid.Parse(notificationID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "error": "Неверный формат ID уведомления"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Обновляем только своё уведомление: чужие для пользователя неотличимы
	// от несуществующих
	var updatedID uuid.UUID
	err = db.Pool.QueryRow(ctx, `
		UPDATE notifications
		SET read = true, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING id
	`, notificationUUID, userUUID).Scan(&updatedID)

	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "error": "Уведомление не найдено"})
		}
		log.Printf("Ошибка обновления уведомления: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Ошибка обновления уведомления"})
	}

	notification, err := s.getNotification(ctx, updatedID)
	if err != nil {
		log.Printf("Ошибка получения уведомления после обновления: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Ошибка обновления уведомления"})
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"notification": notification,
	})
}

// MarkAllRead помечает все непрочитанные уведомления пользователя прочитанными
func (s *NotificationService) MarkAllRead(c fiber.Ctx) error {
	userUUID, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "error": "Пользователь не авторизован"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	tag, err := db.Pool.Exec(ctx, `
		UPDATE notifications
		SET read = true, updated_at = NOW()
		WHERE user_id = $1 AND read = false
	`, userUUID)

	if err != nil {
		log.Printf("Ошибка массового обновления уведомлений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "error": "Ошибка обновления уведомлений"})
	}

	return c.JSON(fiber.Map{
		"success":        true,
		"modified_count": tag.RowsAffected(),
	})
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
