package models

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

// Статусы обмена
const (
	SwapStatusActive            = "active"
	SwapStatusLocationSuggested = "location_suggested"
	SwapStatusLocationAgreed    = "location_agreed"
	SwapStatusTradeComplete     = "trade_complete"
)

// Swap представляет состоявшийся матч двух предметов и весь жизненный цикл обмена.
// Пара предметов хранится в каноническом порядке (item_a_id < item_b_id), поэтому
// на неупорядоченную пару предметов существует ровно одна запись независимо от того,
// чей лайк был вторым.
type Swap struct {
	ID                  uuid.UUID  `json:"id"`
	ItemAID             uuid.UUID  `json:"item_a_id"`
	ItemBID             uuid.UUID  `json:"item_b_id"`
	UserAID             uuid.UUID  `json:"user_a_id"`
	UserBID             uuid.UUID  `json:"user_b_id"`
	Status              string     `json:"status"`
	ItemAOwnerConfirmed bool       `json:"item_a_owner_confirmed"`
	ItemBOwnerConfirmed bool       `json:"item_b_owner_confirmed"`
	LocationSuggestedAt *time.Time `json:"location_suggested_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`

	// Дополнительные поля для API
	ItemA *Item `json:"item_a,omitempty"`
	ItemB *Item `json:"item_b,omitempty"`
	UserA *User `json:"user_a,omitempty"`
	UserB *User `json:"user_b,omitempty"`
}

// IsParticipant проверяет, является ли пользователь участником обмена
func (s *Swap) IsParticipant(userID uuid.UUID) bool {
	return s.UserAID == userID || s.UserBID == userID
}

// OtherUserID возвращает ID второго участника обмена
func (s *Swap) OtherUserID(userID uuid.UUID) uuid.UUID {
	if s.UserAID == userID {
		return s.UserBID
	}
	return s.UserAID
}

// CanonicalItemPair упорядочивает пару предметов так, чтобы идентичность обмена
// не зависела от направления лайков. Меньший по байтам UUID всегда становится item_a.
func CanonicalItemPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return a, b
	}
	return b, a
}
