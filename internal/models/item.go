package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы предмета
const (
	ItemStatusActive  = "active"
	ItemStatusPending = "pending"
	ItemStatusTraded  = "traded"
	ItemStatusHidden  = "hidden"
)

// Item представляет предмет, выставленный пользователем на обмен.
// Ядро читает и меняет только статус и владельца — остальным управляет CRUD-слой.
type Item struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"` // active, pending, traded, hidden
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Дополнительные поля для API
	Owner *User `json:"owner,omitempty"`
}
