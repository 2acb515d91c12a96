package swipe

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rajivgeraev/swapspot-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API свайпов
func (s *SwipeService) SetupRoutes(app *fiber.App) {
	// Группа для API свайпов
	api := app.Group("/api/swipes")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для обработки свайпа
	api.Post("/", s.ProcessSwipe)
}
