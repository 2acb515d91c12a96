package swap

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rajivgeraev/swapspot-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API обменов
func (s *SwapService) SetupRoutes(app *fiber.App) {
	// Группа для API обменов
	api := app.Group("/api/swaps")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для получения списка обменов пользователя
	api.Get("/", s.GetMySwaps)

	// Маршруты чата обмена
	api.Get("/:id/messages", s.GetSwapMessages)
	api.Post("/:id/messages", s.SendSwapMessage)

	// Маршруты согласования места встречи
	api.Post("/:id/location", s.SuggestSwapLocation)
	api.Post("/:id/location/accept", s.AcceptSwapLocation)

	// Маршрут подтверждения сделки
	api.Post("/:id/confirm", s.ConfirmSwapTrade)
}
