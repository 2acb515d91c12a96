package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rajivgeraev/swapspot-api/internal/models"
)

// Ошибки хранилища. Сервисный слой переводит их в типизированные ошибки API.
var (
	// ErrNotFound возвращается, когда запрошенная запись отсутствует
	ErrNotFound = errors.New("запись не найдена")
	// ErrInvalidStatus возвращается условными обновлениями, когда строка
	// находится в статусе, не допускающем операцию
	ErrInvalidStatus = errors.New("недопустимый статус записи")
)

// ItemStore предоставляет доступ к предметам
type ItemStore interface {
	GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error)
	GetItems(ctx context.Context, ids []uuid.UUID) ([]*models.Item, error)
}

// UserStore предоставляет доступ к профилям пользователей
type UserStore interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// SwipeStore хранит решения "нравится/пропустить"
type SwipeStore interface {
	// UpsertSwipe создает или перезаписывает свайп по тройке
	// (swiper_item_id, swiped_on_item_id, swiper_user_id)
	UpsertSwipe(ctx context.Context, swipe *models.Swipe) (*models.Swipe, error)

	// HasReciprocalLike проверяет наличие встречного лайка
	// (swiper_item_id = swipedOnItemID, swiped_on_item_id = swiperItemID)
	HasReciprocalLike(ctx context.Context, swiperItemID, swipedOnItemID uuid.UUID) (bool, error)
}

// SwapStore хранит обмены и выполняет переходы их статусов.
// Все условные обновления атомарны на уровне строки: конкурирующие вызовы
// разрешаются базой данных, а не блокировками в приложении.
type SwapStore interface {
	// CreateOrGetSwap вставляет обмен по канонической паре предметов.
	// При конфликте уникальности возвращается существующая запись и created=false.
	CreateOrGetSwap(ctx context.Context, swap *models.Swap) (result *models.Swap, created bool, err error)

	GetSwap(ctx context.Context, id uuid.UUID) (*models.Swap, error)
	ListSwapsForUser(ctx context.Context, userID uuid.UUID, status string) ([]*models.Swap, error)

	// MarkLocationSuggested переводит обмен в статус location_suggested и ставит
	// отметку времени. Допустимо только из active и location_suggested —
	// иначе ErrInvalidStatus.
	MarkLocationSuggested(ctx context.Context, swapID uuid.UUID, at time.Time) error

	// MarkLocationAgreed переводит location_suggested → location_agreed.
	// Возвращает false без ошибки, если строка уже покинула location_suggested
	// (например, сброшена по таймауту).
	MarkLocationAgreed(ctx context.Context, swapID uuid.UUID) (bool, error)

	// ConfirmSide атомарно выставляет флаг подтверждения одной стороны. Если после
	// этого подтверждены обе стороны, в той же транзакции статус становится
	// trade_complete, а оба предмета — traded. Возвращает обновленный обмен и
	// признак того, что именно этот вызов завершил сделку.
	ConfirmSide(ctx context.Context, swapID uuid.UUID, sideA bool) (*models.Swap, bool, error)

	// ResetExpiredLocationSuggestions сбрасывает в active все обмены, зависшие в
	// location_suggested дольше допустимого. Возвращает количество сброшенных строк.
	ResetExpiredLocationSuggestions(ctx context.Context, olderThan time.Time) (int64, error)
}

// MessageStore хранит сообщения чатов обменов
type MessageStore interface {
	CreateMessage(ctx context.Context, message *models.Message) error
	GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error)
	ListMessages(ctx context.Context, swapID uuid.UUID) ([]*models.Message, error)

	// SetLocationAgreed атомарно выставляет флаг согласия одной стороны на
	// location-сообщении и возвращает обновленное сообщение
	SetLocationAgreed(ctx context.Context, messageID uuid.UUID, sideA bool) (*models.Message, error)
}

// NotificationStore хранит уведомления пользователей
type NotificationStore interface {
	CreateNotification(ctx context.Context, notification *models.Notification) error
	ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error
}

// Store объединяет все хранилища приложения
type Store interface {
	ItemStore
	UserStore
	SwipeStore
	SwapStore
	MessageStore
	NotificationStore
}
