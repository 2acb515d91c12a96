package swap

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/swapspot-api/internal/apperrors"
	"github.com/rajivgeraev/swapspot-api/internal/db"
)

// GetMySwaps обрабатывает запрос на получение списка обменов пользователя
func (s *SwapService) GetMySwaps(c fiber.Ctx) error {
	userIDStr := c.Locals("userID").(string)
	if userIDStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	status := c.Query("status")

	ctx, cancel := db.GetContext()
	defer cancel()

	swaps, err := s.ListSwaps(ctx, userID, status)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"swaps": swaps, "count": len(swaps)})
}

// GetSwapMessages обрабатывает запрос на получение истории сообщений обмена
func (s *SwapService) GetSwapMessages(c fiber.Ctx) error {
	userIDStr := c.Locals("userID").(string)
	if userIDStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	swapID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный ID обмена"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	messages, err := s.GetMessages(ctx, userID, swapID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"messages": messages, "count": len(messages)})
}

// SendSwapMessage обрабатывает отправку текстового сообщения в чат обмена
func (s *SwapService) SendSwapMessage(c fiber.Ctx) error {
	userIDStr := c.Locals("userID").(string)
	if userIDStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	swapID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный ID обмена"})
	}

	var requestData struct {
		Text string `json:"text"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	message, err := s.SendMessage(ctx, userID, swapID, requestData.Text)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "message": message})
}

// SuggestSwapLocation обрабатывает предложение места встречи
func (s *SwapService) SuggestSwapLocation(c fiber.Ctx) error {
	userIDStr := c.Locals("userID").(string)
	if userIDStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	swapID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный ID обмена"})
	}

	var requestData struct {
		Lat     *float64 `json:"lat"`
		Lng     *float64 `json:"lng"`
		Name    string   `json:"name"`
		Address string   `json:"address"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}
	if requestData.Lat == nil || requestData.Lng == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Координаты обязательны"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	message, err := s.SuggestLocation(ctx, userID, swapID, *requestData.Lat, *requestData.Lng, requestData.Name, requestData.Address)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "message": message})
}

// AcceptSwapLocation обрабатывает принятие предложенного места встречи
func (s *SwapService) AcceptSwapLocation(c fiber.Ctx) error {
	userIDStr := c.Locals("userID").(string)
	if userIDStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	swapID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный ID обмена"})
	}

	var requestData struct {
		MessageID string `json:"message_id"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	messageID, err := uuid.Parse(requestData.MessageID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный ID сообщения"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	message, err := s.AcceptLocation(ctx, userID, swapID, messageID)
	if err != nil {
		return respondError(c, err)
	}

	agreed := message.LocationAgreedByUserA && message.LocationAgreedByUserB
	return c.JSON(fiber.Map{"success": true, "message": message, "agreed": agreed})
}

// ConfirmSwapTrade обрабатывает подтверждение сделки одной из сторон
func (s *SwapService) ConfirmSwapTrade(c fiber.Ctx) error {
	userIDStr := c.Locals("userID").(string)
	if userIDStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	swapID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный ID обмена"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	swap, err := s.ConfirmTrade(ctx, userID, swapID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"success": true, "swap": swap})
}

// respondError преобразует типизированную ошибку в HTTP-ответ
func respondError(c fiber.Ctx, err error) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return c.Status(appErr.HTTPStatus()).JSON(fiber.Map{"error": appErr.Message})
	}

	log.Printf("Внутренняя ошибка: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Внутренняя ошибка сервера"})
}
