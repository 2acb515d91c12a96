// Package memory реализует storage.Store в памяти процесса. Используется в
// тестах и для локального запуска без PostgreSQL. Один мьютекс на все данные
// воспроизводит атомарность строковых обновлений базы.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rajivgeraev/swapspot-api/internal/models"
	"github.com/rajivgeraev/swapspot-api/internal/storage"
)

type swipeKey struct {
	swiperItemID   uuid.UUID
	swipedOnItemID uuid.UUID
	swiperUserID   uuid.UUID
}

type pairKey struct {
	itemAID uuid.UUID
	itemBID uuid.UUID
}

// Store реализует storage.Store в памяти
type Store struct {
	mu            sync.Mutex
	items         map[uuid.UUID]*models.Item
	users         map[uuid.UUID]*models.User
	swipes        map[swipeKey]*models.Swipe
	swaps         map[uuid.UUID]*models.Swap
	swapsByPair   map[pairKey]uuid.UUID
	messages      map[uuid.UUID]*models.Message
	messageOrder  []uuid.UUID
	notifications []*models.Notification
}

var _ storage.Store = (*Store)(nil)

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{
		items:       make(map[uuid.UUID]*models.Item),
		users:       make(map[uuid.UUID]*models.User),
		swipes:      make(map[swipeKey]*models.Swipe),
		swaps:       make(map[uuid.UUID]*models.Swap),
		swapsByPair: make(map[pairKey]uuid.UUID),
		messages:    make(map[uuid.UUID]*models.Message),
	}
}

// AddItem добавляет предмет (для тестов и наполнения)
func (s *Store) AddItem(item *models.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *item
	s.items[item.ID] = &copied
}

// AddUser добавляет пользователя (для тестов и наполнения)
func (s *Store) AddUser(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *user
	s.users[user.ID] = &copied
}

// GetItem возвращает предмет по ID
func (s *Store) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *item
	return &copied, nil
}

// GetItems возвращает предметы по списку ID
func (s *Store) GetItems(ctx context.Context, ids []uuid.UUID) ([]*models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []*models.Item
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			copied := *item
			items = append(items, &copied)
		}
	}
	return items, nil
}

// GetUser возвращает пользователя по ID
func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

// UpsertSwipe создает или перезаписывает свайп по тройке-ключу
func (s *Store) UpsertSwipe(ctx context.Context, swipe *models.Swipe) (*models.Swipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := swipeKey{
		swiperItemID:   swipe.SwiperItemID,
		swipedOnItemID: swipe.SwipedOnItemID,
		swiperUserID:   swipe.SwiperUserID,
	}

	now := time.Now()
	if existing, ok := s.swipes[key]; ok {
		existing.Action = swipe.Action
		existing.UpdatedAt = now
		copied := *existing
		return &copied, nil
	}

	stored := &models.Swipe{
		ID:             uuid.New(),
		SwiperUserID:   swipe.SwiperUserID,
		SwiperItemID:   swipe.SwiperItemID,
		SwipedOnItemID: swipe.SwipedOnItemID,
		Action:         swipe.Action,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.swipes[key] = stored
	copied := *stored
	return &copied, nil
}

// HasReciprocalLike проверяет наличие встречного лайка
func (s *Store) HasReciprocalLike(ctx context.Context, swiperItemID, swipedOnItemID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, swipe := range s.swipes {
		if key.swiperItemID == swipedOnItemID && key.swipedOnItemID == swiperItemID &&
			swipe.Action == models.SwipeActionLike {
			return true, nil
		}
	}
	return false, nil
}

// CreateOrGetSwap вставляет обмен по канонической паре или возвращает существующий
func (s *Store) CreateOrGetSwap(ctx context.Context, swap *models.Swap) (*models.Swap, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{itemAID: swap.ItemAID, itemBID: swap.ItemBID}
	if existingID, ok := s.swapsByPair[key]; ok {
		copied := *s.swaps[existingID]
		return &copied, false, nil
	}

	now := time.Now()
	stored := &models.Swap{
		ID:        uuid.New(),
		ItemAID:   swap.ItemAID,
		ItemBID:   swap.ItemBID,
		UserAID:   swap.UserAID,
		UserBID:   swap.UserBID,
		Status:    models.SwapStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.swaps[stored.ID] = stored
	s.swapsByPair[key] = stored.ID

	copied := *stored
	return &copied, true, nil
}

// GetSwap возвращает обмен по ID
func (s *Store) GetSwap(ctx context.Context, id uuid.UUID) (*models.Swap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	swap, ok := s.swaps[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *swap
	return &copied, nil
}

// ListSwapsForUser возвращает обмены пользователя с опциональным фильтром по статусу
func (s *Store) ListSwapsForUser(ctx context.Context, userID uuid.UUID, status string) ([]*models.Swap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var swaps []*models.Swap
	for _, swap := range s.swaps {
		if swap.UserAID != userID && swap.UserBID != userID {
			continue
		}
		if status != "" && swap.Status != status {
			continue
		}
		copied := *swap
		swaps = append(swaps, &copied)
	}
	return swaps, nil
}

// MarkLocationSuggested переводит обмен в location_suggested
func (s *Store) MarkLocationSuggested(ctx context.Context, swapID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	swap, ok := s.swaps[swapID]
	if !ok {
		return storage.ErrNotFound
	}
	if swap.Status != models.SwapStatusActive && swap.Status != models.SwapStatusLocationSuggested {
		return storage.ErrInvalidStatus
	}

	stamp := at
	swap.Status = models.SwapStatusLocationSuggested
	swap.LocationSuggestedAt = &stamp
	swap.UpdatedAt = time.Now()
	return nil
}

// MarkLocationAgreed переводит location_suggested → location_agreed
func (s *Store) MarkLocationAgreed(ctx context.Context, swapID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	swap, ok := s.swaps[swapID]
	if !ok {
		return false, storage.ErrNotFound
	}
	if swap.Status != models.SwapStatusLocationSuggested {
		return false, nil
	}

	swap.Status = models.SwapStatusLocationAgreed
	swap.UpdatedAt = time.Now()
	return true, nil
}

// ConfirmSide выставляет флаг подтверждения стороны и завершает сделку,
// когда подтверждены обе
func (s *Store) ConfirmSide(ctx context.Context, swapID uuid.UUID, sideA bool) (*models.Swap, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	swap, ok := s.swaps[swapID]
	if !ok {
		return nil, false, storage.ErrNotFound
	}
	if swap.Status == models.SwapStatusTradeComplete {
		return nil, false, storage.ErrInvalidStatus
	}

	if sideA {
		swap.ItemAOwnerConfirmed = true
	} else {
		swap.ItemBOwnerConfirmed = true
	}
	swap.UpdatedAt = time.Now()

	completed := false
	if swap.ItemAOwnerConfirmed && swap.ItemBOwnerConfirmed {
		swap.Status = models.SwapStatusTradeComplete
		completed = true

		if itemA, ok := s.items[swap.ItemAID]; ok {
			itemA.Status = models.ItemStatusTraded
		}
		if itemB, ok := s.items[swap.ItemBID]; ok {
			itemB.Status = models.ItemStatusTraded
		}
	}

	copied := *swap
	return &copied, completed, nil
}

// ResetExpiredLocationSuggestions сбрасывает зависшие предложения места встречи
func (s *Store) ResetExpiredLocationSuggestions(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reset int64
	for _, swap := range s.swaps {
		if swap.Status != models.SwapStatusLocationSuggested {
			continue
		}
		if swap.LocationSuggestedAt == nil || !swap.LocationSuggestedAt.Before(olderThan) {
			continue
		}

		swap.Status = models.SwapStatusActive
		swap.LocationSuggestedAt = nil
		swap.UpdatedAt = time.Now()
		reset++
	}
	return reset, nil
}

// CreateMessage сохраняет сообщение
func (s *Store) CreateMessage(ctx context.Context, message *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *message
	s.messages[message.ID] = &copied
	s.messageOrder = append(s.messageOrder, message.ID)
	return nil
}

// GetMessage возвращает сообщение по ID
func (s *Store) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	message, ok := s.messages[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *message
	return &copied, nil
}

// ListMessages возвращает сообщения обмена в порядке создания
func (s *Store) ListMessages(ctx context.Context, swapID uuid.UUID) ([]*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var messages []*models.Message
	for _, id := range s.messageOrder {
		message := s.messages[id]
		if message.SwapID != swapID {
			continue
		}
		copied := *message
		messages = append(messages, &copied)
	}
	return messages, nil
}

// SetLocationAgreed выставляет флаг согласия стороны на location-сообщении
func (s *Store) SetLocationAgreed(ctx context.Context, messageID uuid.UUID, sideA bool) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	message, ok := s.messages[messageID]
	if !ok {
		return nil, storage.ErrNotFound
	}

	if sideA {
		message.LocationAgreedByUserA = true
	} else {
		message.LocationAgreedByUserB = true
	}

	copied := *message
	return &copied, nil
}

// CreateNotification сохраняет уведомление
func (s *Store) CreateNotification(ctx context.Context, notification *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *notification
	s.notifications = append(s.notifications, &copied)
	return nil
}

// ListNotifications возвращает уведомления пользователя, новые первыми
func (s *Store) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var notifications []*models.Notification
	for i := len(s.notifications) - 1; i >= 0 && len(notifications) < limit; i-- {
		if s.notifications[i].UserID != userID {
			continue
		}
		copied := *s.notifications[i]
		notifications = append(notifications, &copied)
	}
	return notifications, nil
}

// MarkNotificationRead отмечает уведомление прочитанным
func (s *Store) MarkNotificationRead(ctx context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return storage.ErrNotFound
}

// MarkAllNotificationsRead отмечает все уведомления пользователя прочитанными
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}
