package notification

import (
	"github.com/gofiber/fiber/v3"
	"github.com/tedlist/tedlist-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API уведомлений
func (s *NotificationService) SetupRoutes(app *fiber.App) {
	// Группа для API уведомлений
	api := app.Group("/api/notifications")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для получения всех уведомлений
	api.Get("/", s.GetNotifications)

	// Маршрут для получения последних уведомлений и числа непрочитанных
	api.Get("/recent", s.GetRecentNotifications)

	// Маршрут для пометки уведомления прочитанным
	api.Post("/:id/read", s.MarkAsRead)

	// Маршрут для пометки всех уведомлений прочитанными
	api.Post("/mark-all-read", s.MarkAllRead)
}
