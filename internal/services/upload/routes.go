package upload

import (
	"github.com/gofiber/fiber/v3"

	"github.com/tedlist/tedlist-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для сервиса загрузки изображений
func (s *UploadService) SetupRoutes(app *fiber.App) {
	uploadGroup := app.Group("/api/upload", middleware.AuthMiddleware(s.jwtService))

	// Параметры для подписанной загрузки с клиента
	uploadGroup.Get("/params", s.GenerateUploadParams)

	// Удаление загруженного изображения
	uploadGroup.Post("/delete", s.DeleteImage)
}
