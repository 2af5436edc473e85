package vision

import (
	"github.com/gofiber/fiber/v3"

	"github.com/tedlist/tedlist-api/internal/middleware"
)

// SetupRoutes настраивает маршруты сервиса анализа изображений
func (s *VisionService) SetupRoutes(app *fiber.App) {
	visionGroup := app.Group("/api/vision", middleware.AuthMiddleware(s.jwtService))

	visionGroup.Post("/analyze", s.Analyze)
}
