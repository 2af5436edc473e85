package trading

import (
	"github.com/gofiber/fiber/v3"
	"github.com/tedlist/tedlist-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API торговых сессий
func (s *TradingService) SetupRoutes(app *fiber.App) {
	// Группа для API торговли
	api := app.Group("/api/trading")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для старта торговой сессии
	api.Post("/start", s.StartSession)

	// Маршрут для получения предметов-кандидатов
	api.Get("/items", s.GetItems)

	// Маршрут для записи свайпа
	api.Post("/swipe", s.Swipe)

	// Маршрут для принятия обмена
	api.Post("/accept", s.AcceptTrade)

	// Маршрут для отклонения обмена
	api.Post("/decline", s.DeclineTrade)

	// Маршрут для сброса свайпов
	api.Post("/reset-swipes", s.ResetSwipes)
}
