package models

import (
	"time"

	"github.com/google/uuid"
)

// Действия свайпа
const (
	SwipeActionLike = "like"
	SwipeActionSkip = "skip"
)

// Swipe представляет направленное решение "нравится/пропустить" между двумя предметами.
// На тройку (swiper_item_id, swiped_on_item_id, swiper_user_id) существует не более
// одной записи — повторное решение перезаписывает предыдущее.
type Swipe struct {
	ID             uuid.UUID `json:"id"`
	SwiperUserID   uuid.UUID `json:"swiper_user_id"`
	SwiperItemID   uuid.UUID `json:"swiper_item_id"`
	SwipedOnItemID uuid.UUID `json:"swiped_on_item_id"`
	Action         string    `json:"action"` // like, skip
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
