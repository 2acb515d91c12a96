package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/rajivgeraev/swapspot-api/internal/models"
)

// UpsertSwipe создает свайп или перезаписывает действие существующего.
// Уникальное ограничение на тройку (swiper_item_id, swiped_on_item_id,
// swiper_user_id) гарантирует не более одной записи на направление.
func (s *Store) UpsertSwipe(ctx context.Context, swipe *models.Swipe) (*models.Swipe, error) {
	var stored models.Swipe
	err := s.pool.QueryRow(ctx, `
        INSERT INTO swipes (id, swiper_user_id, swiper_item_id, swiped_on_item_id, action, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, now(), now())
        ON CONFLICT (swiper_item_id, swiped_on_item_id, swiper_user_id)
        DO UPDATE SET action = EXCLUDED.action, updated_at = now()
        RETURNING id, swiper_user_id, swiper_item_id, swiped_on_item_id, action, created_at, updated_at
    `, uuid.New(), swipe.SwiperUserID, swipe.SwiperItemID, swipe.SwipedOnItemID, swipe.Action).Scan(
		&stored.ID,
		&stored.SwiperUserID,
		&stored.SwiperItemID,
		&stored.SwipedOnItemID,
		&stored.Action,
		&stored.CreatedAt,
		&stored.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &stored, nil
}

// HasReciprocalLike проверяет наличие встречного лайка
func (s *Store) HasReciprocalLike(ctx context.Context, swiperItemID, swipedOnItemID uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
        SELECT EXISTS(
            SELECT 1 FROM swipes
            WHERE swiper_item_id = $1 AND swiped_on_item_id = $2 AND action = 'like'
        )
    `, swipedOnItemID, swiperItemID).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}
