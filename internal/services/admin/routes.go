package admin

import (
	"github.com/gofiber/fiber/v3"

	"github.com/tedlist/tedlist-api/internal/middleware"
)

// SetupRoutes настраивает маршруты административных операций
func (s *AdminService) SetupRoutes(app *fiber.App) {
	adminGroup := app.Group("/api/admin", middleware.AuthMiddleware(s.jwtService))

	adminGroup.Post("/reset-traded-items", s.ResetTradedItems)
}
