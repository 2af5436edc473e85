package match

import (
	"github.com/gofiber/fiber/v3"
	"github.com/tedlist/tedlist-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API совпадений
func (s *MatchService) SetupRoutes(app *fiber.App) {
	// Группа для API совпадений
	api := app.Group("/api/matches")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для списка совпадений
	api.Get("/", s.GetMatches)

	// Маршрут для создания совпадения
	api.Post("/", s.CreateMatch)

	// Маршрут для принятия или отклонения совпадения
	api.Put("/:id/status", s.UpdateMatchStatus)

	// Маршрут для удаления совпадения
	api.Delete("/:id", s.DeleteMatch)
}
