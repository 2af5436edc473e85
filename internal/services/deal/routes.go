package deal

import (
	"github.com/gofiber/fiber/v3"
	"github.com/tedlist/tedlist-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API сделок
func (s *DealService) SetupRoutes(app *fiber.App) {
	// Группа для API сделок
	api := app.Group("/api/deals")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для отправленных сделок
	api.Get("/sent", s.GetSentDeals)

	// Маршрут для полученных сделок
	api.Get("/received", s.GetReceivedDeals)
}
