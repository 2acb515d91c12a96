package swap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/rajivgeraev/swapspot-api/internal/apperrors"
	"github.com/rajivgeraev/swapspot-api/internal/config"
	"github.com/rajivgeraev/swapspot-api/internal/models"
	"github.com/rajivgeraev/swapspot-api/internal/services/notification"
	"github.com/rajivgeraev/swapspot-api/internal/storage"
	"github.com/rajivgeraev/swapspot-api/internal/utils"
	"github.com/rajivgeraev/swapspot-api/internal/websocket"
)

const (
	maxMessageLength         = 2000
	maxLocationNameLength    = 255
	maxLocationAddressLength = 500
)

// SwapService управляет жизненным циклом обмена: чат, согласование места
// встречи и двустороннее подтверждение сделки. Два трека — место и
// подтверждение — независимы: сделку можно завершить, не договорившись о
// месте, и наоборот. Это осознанное решение, а не недосмотр.
type SwapService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	store      storage.Store
	notifier   *notification.Dispatcher
	ws         *websocket.Manager
}

// NewSwapService создает новый экземпляр SwapService
func NewSwapService(cfg *config.Config, store storage.Store, notifier *notification.Dispatcher, ws *websocket.Manager) *SwapService {
	return &SwapService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		store:      store,
		notifier:   notifier,
		ws:         ws,
	}
}

// loadSwapForParticipant возвращает обмен, убедившись что вызывающий — его участник
func (s *SwapService) loadSwapForParticipant(ctx context.Context, swapID, callerID uuid.UUID) (*models.Swap, error) {
	swap, err := s.store.GetSwap(ctx, swapID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NotFound("Обмен не найден")
		}
		return nil, err
	}

	if !swap.IsParticipant(callerID) {
		return nil, apperrors.Forbidden("Вы не участник этого обмена")
	}

	return swap, nil
}

// ListSwaps возвращает обмены пользователя с данными предметов и участников
func (s *SwapService) ListSwaps(ctx context.Context, userID uuid.UUID, status string) ([]*models.Swap, error) {
	switch status {
	case "", models.SwapStatusActive, models.SwapStatusLocationSuggested,
		models.SwapStatusLocationAgreed, models.SwapStatusTradeComplete:
	default:
		return nil, apperrors.Validation("Недопустимый статус обмена")
	}

	swaps, err := s.store.ListSwapsForUser(ctx, userID, status)
	if err != nil {
		return nil, err
	}

	s.enrichSwaps(ctx, swaps)
	return swaps, nil
}

// enrichSwaps подгружает предметы и участников обменов. Ошибки обогащения
// не фатальны: список отдается и без дополнительных данных.
func (s *SwapService) enrichSwaps(ctx context.Context, swaps []*models.Swap) {
	if len(swaps) == 0 {
		return
	}

	var itemIDs []uuid.UUID
	for _, swap := range swaps {
		itemIDs = append(itemIDs, swap.ItemAID, swap.ItemBID)
	}

	items, err := s.store.GetItems(ctx, itemIDs)
	if err != nil {
		log.Printf("Ошибка получения предметов обменов: %v", err)
		return
	}

	itemsByID := make(map[uuid.UUID]*models.Item, len(items))
	for _, item := range items {
		itemsByID[item.ID] = item
	}

	usersByID := make(map[uuid.UUID]*models.User)
	lookupUser := func(id uuid.UUID) *models.User {
		if user, ok := usersByID[id]; ok {
			return user
		}
		user, err := s.store.GetUser(ctx, id)
		if err != nil {
			log.Printf("Ошибка получения пользователя %s: %v", id, err)
			usersByID[id] = nil
			return nil
		}
		usersByID[id] = user
		return user
	}

	for _, swap := range swaps {
		swap.ItemA = itemsByID[swap.ItemAID]
		swap.ItemB = itemsByID[swap.ItemBID]
		swap.UserA = lookupUser(swap.UserAID)
		swap.UserB = lookupUser(swap.UserBID)
	}
}

// GetMessages возвращает историю сообщений обмена
func (s *SwapService) GetMessages(ctx context.Context, callerID, swapID uuid.UUID) ([]*models.Message, error) {
	if _, err := s.loadSwapForParticipant(ctx, swapID, callerID); err != nil {
		return nil, err
	}

	messages, err := s.store.ListMessages(ctx, swapID)
	if err != nil {
		return nil, err
	}

	// Подгружаем отправителей
	usersByID := make(map[uuid.UUID]*models.User)
	for _, message := range messages {
		user, ok := usersByID[message.SenderUserID]
		if !ok {
			user, err = s.store.GetUser(ctx, message.SenderUserID)
			if err != nil {
				log.Printf("Ошибка получения пользователя %s: %v", message.SenderUserID, err)
				user = nil
			}
			usersByID[message.SenderUserID] = user
		}
		message.Sender = user
	}

	return messages, nil
}

// SendMessage сохраняет текстовое сообщение в чате обмена. Обычный текст —
// сквозная запись без влияния на статус обмена.
func (s *SwapService) SendMessage(ctx context.Context, callerID, swapID uuid.UUID, text string) (*models.Message, error) {
	if text == "" {
		return nil, apperrors.Validation("Текст сообщения не может быть пустым")
	}
	if len(text) > maxMessageLength {
		return nil, apperrors.Validation("Сообщение слишком длинное (макс. 2000 символов)")
	}

	swap, err := s.loadSwapForParticipant(ctx, swapID, callerID)
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		ID:           uuid.New(),
		SwapID:       swapID,
		SenderUserID: callerID,
		Type:         models.MessageTypeText,
		MessageText:  text,
		CreatedAt:    time.Now(),
	}

	if err := s.store.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	s.notifier.Notify(notification.Intent{
		UserID:  swap.OtherUserID(callerID),
		Type:    models.NotificationTypeNewMessage,
		Title:   "Новое сообщение",
		Message: s.userName(ctx, callerID) + " отправил вам сообщение",
		Data:    map[string]any{"swap_id": swapID.String()},
	})
	s.broadcastMessage(swap, message, callerID)

	return message, nil
}

// SuggestLocation создает предложение места встречи. Предложение — это
// location-сообщение с двумя флагами согласия, флаг предложившего выставлен
// сразу. Повторное предложение из location_suggested перекрывает предыдущее.
func (s *SwapService) SuggestLocation(ctx context.Context, callerID, swapID uuid.UUID, lat, lng float64, name, address string) (*models.Message, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, apperrors.Validation("Недопустимые координаты")
	}
	if len(name) > maxLocationNameLength {
		return nil, apperrors.Validation("Название места слишком длинное (макс. 255 символов)")
	}
	if len(address) > maxLocationAddressLength {
		return nil, apperrors.Validation("Адрес места слишком длинный (макс. 500 символов)")
	}

	swap, err := s.loadSwapForParticipant(ctx, swapID, callerID)
	if err != nil {
		return nil, err
	}

	if swap.Status != models.SwapStatusActive && swap.Status != models.SwapStatusLocationSuggested {
		return nil, apperrors.InvalidState("Нельзя предложить место встречи в текущем статусе обмена")
	}

	isUserA := swap.UserAID == callerID

	message := &models.Message{
		ID:                    uuid.New(),
		SwapID:                swapID,
		SenderUserID:          callerID,
		Type:                  models.MessageTypeLocation,
		MessageText:           "Предложено место встречи: " + name,
		Lat:                   &lat,
		Lng:                   &lng,
		LocationAgreedByUserA: isUserA,
		LocationAgreedByUserB: !isUserA,
		CreatedAt:             time.Now(),
	}
	if name != "" {
		message.LocationName = &name
	}
	if address != "" {
		message.LocationAddress = &address
	}

	if err := s.store.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	if err := s.store.MarkLocationSuggested(ctx, swapID, time.Now()); err != nil {
		if errors.Is(err, storage.ErrInvalidStatus) {
			// Параллельный переход успел изменить статус
			return nil, apperrors.InvalidState("Нельзя предложить место встречи в текущем статусе обмена")
		}
		return nil, err
	}

	notificationText := name
	if notificationText == "" {
		notificationText = "Для вашего обмена предложено место встречи"
	}
	s.notifier.Notify(notification.Intent{
		UserID:  swap.OtherUserID(callerID),
		Type:    models.NotificationTypeLocation,
		Title:   "Предложено место встречи",
		Message: notificationText,
		Data:    map[string]any{"swap_id": swapID.String()},
	})
	s.broadcastMessage(swap, message, callerID)

	return message, nil
}

// AcceptLocation выставляет голос вызывающего на location-сообщении.
// Протокол требует единогласия: место считается согласованным только когда
// согласны оба участника, одного голоса недостаточно.
func (s *SwapService) AcceptLocation(ctx context.Context, callerID, swapID, messageID uuid.UUID) (*models.Message, error) {
	swap, err := s.loadSwapForParticipant(ctx, swapID, callerID)
	if err != nil {
		return nil, err
	}

	if swap.Status != models.SwapStatusLocationSuggested {
		return nil, apperrors.InvalidState("Нет ожидающего предложения места встречи")
	}

	message, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NotFound("Сообщение не найдено")
		}
		return nil, err
	}
	if message.SwapID != swapID {
		return nil, apperrors.Forbidden("Сообщение не относится к этому обмену")
	}
	if message.Type != models.MessageTypeLocation {
		return nil, apperrors.Validation("Сообщение не является предложением места встречи")
	}

	isUserA := swap.UserAID == callerID

	updated, err := s.store.SetLocationAgreed(ctx, messageID, isUserA)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NotFound("Сообщение не найдено")
		}
		return nil, err
	}

	if !updated.LocationAgreedByUserA || !updated.LocationAgreedByUserB {
		return updated, nil
	}

	// Оба согласны: переводим обмен в location_agreed. Условное обновление
	// вернет false, если свипер успел сбросить предложение по таймауту —
	// тогда согласование считается несостоявшимся.
	transitioned, err := s.store.MarkLocationAgreed(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if !transitioned {
		return updated, nil
	}

	locationName := ""
	if updated.LocationName != nil {
		locationName = *updated.LocationName
	}

	systemMessage := &models.Message{
		ID:           uuid.New(),
		SwapID:       swapID,
		SenderUserID: callerID,
		Type:         models.MessageTypeLocationAgreement,
		MessageText:  "Место встречи согласовано: " + locationName,
		CreatedAt:    time.Now(),
	}
	if err := s.store.CreateMessage(ctx, systemMessage); err != nil {
		log.Printf("Ошибка создания системного сообщения: %v", err)
		// Не возвращаем ошибку, т.к. основная функциональность выполнена
	}

	s.notifier.Notify(notification.Intent{
		UserID:  swap.OtherUserID(callerID),
		Type:    models.NotificationTypeLocationAgree,
		Title:   "Место встречи согласовано",
		Message: "Предложенное место встречи принято!",
		Data:    map[string]any{"swap_id": swapID.String()},
	})
	s.broadcastMessage(swap, systemMessage, callerID)

	return updated, nil
}

// ConfirmTrade подтверждает сделку со стороны вызывающего. Операция
// идемпотентна для одной стороны; когда подтверждают обе, хранилище атомарно
// завершает обмен и помечает оба предмета как traded.
func (s *SwapService) ConfirmTrade(ctx context.Context, callerID, swapID uuid.UUID) (*models.Swap, error) {
	swap, err := s.loadSwapForParticipant(ctx, swapID, callerID)
	if err != nil {
		return nil, err
	}

	isUserA := swap.UserAID == callerID

	confirmed, completed, err := s.store.ConfirmSide(ctx, swapID, isUserA)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperrors.NotFound("Обмен не найден")
		}
		if errors.Is(err, storage.ErrInvalidStatus) {
			return nil, apperrors.InvalidState("Обмен уже завершен")
		}
		return nil, err
	}

	if completed {
		s.notifier.Notify(notification.Intent{
			UserID:  swap.OtherUserID(callerID),
			Type:    models.NotificationTypeTradeComplete,
			Title:   "Обмен завершен!",
			Message: "Обе стороны подтвердили обмен. Теперь вы можете оставить отзыв.",
			Data:    map[string]any{"swap_id": swapID.String()},
		})
		s.broadcastStatus(confirmed)
	}

	return confirmed, nil
}

// SweepExpiredLocationSuggestions сбрасывает в active обмены, зависшие в
// location_suggested дольше настроенного порога. Без этого неотвеченное
// предложение места навсегда блокировало бы повторный SuggestLocation.
func (s *SwapService) SweepExpiredLocationSuggestions(ctx context.Context, now time.Time) (int64, error) {
	olderThan := now.Add(-time.Duration(s.cfg.LocationTimeoutHours) * time.Hour)

	reset, err := s.store.ResetExpiredLocationSuggestions(ctx, olderThan)
	if err != nil {
		return 0, fmt.Errorf("ошибка сброса просроченных предложений: %w", err)
	}

	if reset > 0 {
		log.Printf("🧹 Сброшено просроченных предложений места встречи: %d", reset)
	}
	return reset, nil
}

// broadcastMessage рассылает сообщение второму участнику обмена через WebSocket
func (s *SwapService) broadcastMessage(swap *models.Swap, message *models.Message, senderID uuid.UUID) {
	if s.ws == nil {
		return
	}

	payload, err := json.Marshal(message)
	if err != nil {
		log.Printf("Ошибка сериализации сообщения: %v", err)
		return
	}

	s.ws.SendToSwap(swap.ID.String(), websocket.Event{
		Type:      websocket.EventNewMessage,
		SwapID:    swap.ID.String(),
		MessageID: message.ID.String(),
		UserID:    senderID.String(),
		Timestamp: message.CreatedAt,
		Payload:   payload,
	}, senderID.String())
}

// broadcastStatus рассылает смену статуса обмена обоим участникам
func (s *SwapService) broadcastStatus(swap *models.Swap) {
	if s.ws == nil {
		return
	}

	payload, err := json.Marshal(swap)
	if err != nil {
		log.Printf("Ошибка сериализации обмена: %v", err)
		return
	}

	s.ws.SendToSwap(swap.ID.String(), websocket.Event{
		Type:      websocket.EventSwapStatus,
		SwapID:    swap.ID.String(),
		Timestamp: time.Now(),
		Payload:   payload,
	}, "")
}

// userName возвращает имя пользователя для текста уведомления
func (s *SwapService) userName(ctx context.Context, userID uuid.UUID) string {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil || user.Name == "" {
		if err != nil {
			log.Printf("Ошибка получения пользователя %s: %v", userID, err)
		}
		return "Участник обмена"
	}
	return user.Name
}
