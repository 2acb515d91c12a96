package swipe

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/swapspot-api/internal/apperrors"
	"github.com/rajivgeraev/swapspot-api/internal/config"
	"github.com/rajivgeraev/swapspot-api/internal/db"
	"github.com/rajivgeraev/swapspot-api/internal/models"
	"github.com/rajivgeraev/swapspot-api/internal/services/notification"
	"github.com/rajivgeraev/swapspot-api/internal/storage"
	"github.com/rajivgeraev/swapspot-api/internal/utils"
)

// SwipeService представляет сервис обработки свайпов и обнаружения матчей
type SwipeService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	store      storage.Store
	notifier   *notification.Dispatcher
}

// NewSwipeService создает новый экземпляр SwipeService
func NewSwipeService(cfg *config.Config, store storage.Store, notifier *notification.Dispatcher) *SwipeService {
	return &SwipeService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		store:      store,
		notifier:   notifier,
	}
}

// Result представляет итог обработки свайпа
type Result struct {
	Swipe   *models.Swipe `json:"swipe"`
	Matched bool          `json:"matched"`
	Swap    *models.Swap  `json:"swap,omitempty"`
}

// RecordSwipe сохраняет решение "нравится/пропустить" и на лайке проверяет
// встречный лайк. Перезапись прежнего skip на like тоже запускает проверку
// матча — пропуск не приговор.
func (s *SwipeService) RecordSwipe(ctx context.Context, callerID, swiperItemID, swipedOnItemID uuid.UUID, action string) (*Result, error) {
	if action != models.SwipeActionLike && action != models.SwipeActionSkip {
		return nil, apperrors.Validation("Недопустимое действие свайпа")
	}
	if swiperItemID == swipedOnItemID {
		return nil, apperrors.Forbidden("Нельзя свайпнуть предмет на него самого")
	}

	swiperItem, err := s.store.GetItem(ctx, swiperItemID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NotFound("Предмет свайпающего не найден")
		}
		return nil, err
	}
	if swiperItem.UserID != callerID {
		return nil, apperrors.Forbidden("Свайпать можно только собственным предметом")
	}

	targetItem, err := s.store.GetItem(ctx, swipedOnItemID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NotFound("Целевой предмет не найден")
		}
		return nil, err
	}
	if targetItem.UserID == callerID {
		return nil, apperrors.Forbidden("Нельзя лайкать собственный предмет")
	}

	stored, err := s.store.UpsertSwipe(ctx, &models.Swipe{
		SwiperUserID:   callerID,
		SwiperItemID:   swiperItemID,
		SwipedOnItemID: swipedOnItemID,
		Action:         action,
	})
	if err != nil {
		return nil, err
	}

	if action != models.SwipeActionLike {
		return &Result{Swipe: stored}, nil
	}

	return s.checkAndCreateMatch(ctx, stored, swiperItem, targetItem)
}

// checkAndCreateMatch проверяет встречный лайк и при его наличии создает обмен.
// Пара предметов канонизируется, поэтому от направления последнего лайка не
// зависит ни идентичность обмена, ни раскладка полей a/b.
func (s *SwipeService) checkAndCreateMatch(ctx context.Context, stored *models.Swipe, swiperItem, targetItem *models.Item) (*Result, error) {
	reciprocal, err := s.store.HasReciprocalLike(ctx, swiperItem.ID, targetItem.ID)
	if err != nil {
		return nil, err
	}
	if !reciprocal {
		return &Result{Swipe: stored}, nil
	}

	itemAID, itemBID := models.CanonicalItemPair(swiperItem.ID, targetItem.ID)

	userAID, userBID := swiperItem.UserID, targetItem.UserID
	if itemAID != swiperItem.ID {
		userAID, userBID = targetItem.UserID, swiperItem.UserID
	}

	swap, created, err := s.store.CreateOrGetSwap(ctx, &models.Swap{
		ItemAID: itemAID,
		ItemBID: itemBID,
		UserAID: userAID,
		UserBID: userBID,
	})
	if err != nil {
		return nil, err
	}

	// Уведомляем только при первом создании, чтобы повторный матч
	// после смены решения не спамил участников
	if created {
		s.notifyMatch(ctx, swap)
	}

	return &Result{Swipe: stored, Matched: true, Swap: swap}, nil
}

// notifyMatch ставит в очередь уведомления о новом матче обоим участникам
func (s *SwipeService) notifyMatch(ctx context.Context, swap *models.Swap) {
	nameA := s.userName(ctx, swap.UserAID)
	nameB := s.userName(ctx, swap.UserBID)

	s.notifier.Notify(notification.Intent{
		UserID:  swap.UserAID,
		Type:    models.NotificationTypeNewSwap,
		Title:   "Новый матч!",
		Message: "Вы обменялись лайками с " + nameB,
		Data:    map[string]any{"swap_id": swap.ID.String()},
	})
	s.notifier.Notify(notification.Intent{
		UserID:  swap.UserBID,
		Type:    models.NotificationTypeNewSwap,
		Title:   "Новый матч!",
		Message: "Вы обменялись лайками с " + nameA,
		Data:    map[string]any{"swap_id": swap.ID.String()},
	})
}

// userName возвращает имя пользователя для текста уведомления
func (s *SwipeService) userName(ctx context.Context, userID uuid.UUID) string {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		log.Printf("Ошибка получения пользователя %s: %v", userID, err)
		return "другим пользователем"
	}
	return user.Name
}

// ProcessSwipe обрабатывает HTTP-запрос свайпа
func (s *SwipeService) ProcessSwipe(c fiber.Ctx) error {
	userID := c.Locals("userID").(string)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID пользователя"})
	}

	// Извлекаем данные из запроса
	var requestData struct {
		SwiperItemID   string `json:"swiper_item_id"`
		SwipedOnItemID string `json:"swiped_on_item_id"`
		Action         string `json:"action"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		log.Printf("Ошибка декодирования тела запроса: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if requestData.SwiperItemID == "" || requestData.SwipedOnItemID == "" || requestData.Action == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Необходимо указать оба предмета и действие"})
	}

	swiperItemUUID, err := uuid.Parse(requestData.SwiperItemID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID предмета"})
	}

	swipedOnItemUUID, err := uuid.Parse(requestData.SwipedOnItemID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID целевого предмета"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	result, err := s.RecordSwipe(ctx, userUUID, swiperItemUUID, swipedOnItemUUID, requestData.Action)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"matched": result.Matched,
		"swap":    result.Swap,
	})
}

// respondError переводит типизированную ошибку сервисного слоя в HTTP-ответ
func respondError(c fiber.Ctx, err error) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return c.Status(appErr.HTTPStatus()).JSON(fiber.Map{"error": appErr.Message})
	}

	log.Printf("Внутренняя ошибка: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Внутренняя ошибка сервера"})
}
