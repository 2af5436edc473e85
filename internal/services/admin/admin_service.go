package admin

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/tedlist/tedlist-api/internal/config"
	"github.com/tedlist/tedlist-api/internal/db"
	"github.com/tedlist/tedlist-api/internal/utils"
)

// AdminService представляет сервис административных операций
type AdminService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
}

// NewAdminService создает новый экземпляр AdminService
func NewAdminService(cfg *config.Config) *AdminService {
	return &AdminService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
	}
}

// ResetTradedItems возвращает все обменянные вещи в статус available.
// Служебная операция для тестовых стендов.
func (s *AdminService) ResetTradedItems(c fiber.Ctx) error {
	userUUID, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var isAdmin bool
	err := db.Pool.QueryRow(ctx, `
		SELECT is_admin FROM users WHERE id = $1
	`, userUUID).Scan(&isAdmin)

	if err != nil {
		log.Printf("Ошибка проверки прав администратора: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки прав"})
	}

	if !isAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Недостаточно прав"})
	}

	tag, err := db.Pool.Exec(ctx, `
		UPDATE items SET status = 'available', updated_at = NOW()
		WHERE status = 'traded'
	`)
	if err != nil {
		log.Printf("Ошибка сброса обменянных вещей: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сброса вещей"})
	}

	log.Printf("Администратор %s вернул %d вещей в статус available", userUUID, tag.RowsAffected())

	return c.JSON(fiber.Map{
		"success":     true,
		"items_reset": tag.RowsAffected(),
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
