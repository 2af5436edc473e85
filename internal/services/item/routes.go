package item

import (
	"github.com/gofiber/fiber/v3"
	"github.com/tedlist/tedlist-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API предметов
func (s *ItemService) SetupRoutes(app *fiber.App) {
	// Группа для API предметов
	api := app.Group("/api/items")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для создания предмета
	api.Post("/create", s.CreateItem)

	// Маршрут для получения списка своих предметов
	api.Get("/my", s.GetMyItems)

	// Маршрут для получения одного предмета по ID
	api.Get("/:id", s.GetItem)

	// Маршрут для обновления предмета
	api.Put("/:id", s.UpdateItem)

	// Маршрут для удаления предмета
	api.Delete("/:id", s.DeleteItem)
}

// SetupPublicRoutes настраивает публичные маршруты для предметов.
// Публичный список живёт вне префикса /api/items, чтобы не попадать
// под middleware авторизации группы.
func (s *ItemService) SetupPublicRoutes(app *fiber.App) {
	app.Get("/api/public/items", s.GetPublicItems)
}
