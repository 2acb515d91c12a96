package models

import (
	"time"

	"github.com/google/uuid"
)

// Типы уведомлений
const (
	NotificationTypeNewSwap       = "new_swap"
	NotificationTypeNewMessage    = "new_message"
	NotificationTypeLocation      = "location_suggested"
	NotificationTypeLocationAgree = "location_agreed"
	NotificationTypeTradeComplete = "trade_complete"
)

// Notification представляет уведомление пользователя
type Notification struct {
	ID        uuid.UUID      `json:"id"`
	UserID    uuid.UUID      `json:"user_id"`
	Type      string         `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	IsRead    bool           `json:"is_read"`
	CreatedAt time.Time      `json:"created_at"`
}
