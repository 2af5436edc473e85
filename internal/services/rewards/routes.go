package rewards

import (
	"github.com/gofiber/fiber/v3"

	"github.com/tedlist/tedlist-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для сервиса наград
func (s *RewardsService) SetupRoutes(app *fiber.App) {
	rewardsGroup := app.Group("/api/rewards", middleware.AuthMiddleware(s.jwtService))

	rewardsGroup.Get("/", s.GetRewards)
	rewardsGroup.Post("/teddies", s.AddTeddies)
	rewardsGroup.Post("/badges", s.AddBadge)
	rewardsGroup.Post("/streak", s.UpdateStreak)
}
