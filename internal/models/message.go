package models

import (
	"time"

	"github.com/google/uuid"
)

// Типы сообщений
const (
	MessageTypeText              = "text"
	MessageTypeLocation          = "location"
	MessageTypeLocationAgreement = "location_agreement"
)

// Message представляет сообщение в чате обмена. Сообщение типа location само
// является предложением места встречи: два флага согласия на нем — это голоса
// участников, и место считается согласованным только когда оба флага true.
type Message struct {
	ID                    uuid.UUID `json:"id"`
	SwapID                uuid.UUID `json:"swap_id"`
	SenderUserID          uuid.UUID `json:"sender_user_id"`
	Type                  string    `json:"type"` // text, location, location_agreement
	MessageText           string    `json:"message_text"`
	Lat                   *float64  `json:"lat,omitempty"`
	Lng                   *float64  `json:"lng,omitempty"`
	LocationName          *string   `json:"location_name,omitempty"`
	LocationAddress       *string   `json:"location_address,omitempty"`
	LocationAgreedByUserA bool      `json:"location_agreed_by_user_a"`
	LocationAgreedByUserB bool      `json:"location_agreed_by_user_b"`
	CreatedAt             time.Time `json:"created_at"`

	// Дополнительные поля для API
	Sender *User `json:"sender,omitempty"`
}
