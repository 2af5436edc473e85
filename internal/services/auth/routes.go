package auth

import (
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/tedlist/tedlist-api/internal/db"
	"github.com/tedlist/tedlist-api/internal/middleware"
)

// SetupRoutes регистрирует маршруты в Fiber
func (s *AuthService) SetupRoutes(app *fiber.App) {
	app.Post("/api/auth/register", s.RegisterHandler)
	app.Post("/api/auth/login", s.LoginHandler)

	// Защищенные маршруты: middleware вешаем на группу профиля,
	// а не на весь префикс /api
	protected := app.Group("/api/profile")
	protected.Use(middleware.AuthMiddleware(s.jwtService))

	// Профиль текущего пользователя
	protected.Get("/", func(c fiber.Ctx) error {
		userID := c.Locals("userID").(string)
		userUUID, err := uuid.Parse(userID)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Неверный ID пользователя"})
		}

		user, err := db.GetUserByID(userUUID)
		if err != nil {
			if err == db.ErrUserNotFound {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Пользователь не найден"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения профиля"})
		}

		return c.JSON(fiber.Map{"user": user})
	})
}
