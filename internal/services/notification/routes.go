package notification

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rajivgeraev/swapspot-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API уведомлений
func (s *NotificationService) SetupRoutes(app *fiber.App) {
	// Группа для API уведомлений
	api := app.Group("/api/notifications")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	// Маршрут для получения списка уведомлений
	api.Get("/", s.GetNotifications)

	// Маршрут для отметки уведомления прочитанным
	api.Put("/:id/read", s.MarkRead)

	// Маршрут для отметки всех уведомлений прочитанными
	api.Put("/read-all", s.MarkAllRead)
}
