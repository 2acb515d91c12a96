package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/rajivgeraev/swapspot-api/internal/models"
	"github.com/rajivgeraev/swapspot-api/internal/storage"
)

// CreateNotification сохраняет уведомление пользователя
func (s *Store) CreateNotification(ctx context.Context, notification *models.Notification) error {
	_, err := s.pool.Exec(ctx, `
        INSERT INTO notifications (id, user_id, type, title, message, data, is_read, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, false, $7)
    `, notification.ID, notification.UserID, notification.Type, notification.Title,
		notification.Message, notification.Data, notification.CreatedAt)

	return err
}

// ListNotifications возвращает последние уведомления пользователя
func (s *Store) ListNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Notification, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT id, user_id, type, title, message, data, is_read, created_at
        FROM notifications
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2
    `, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(
			&n.ID,
			&n.UserID,
			&n.Type,
			&n.Title,
			&n.Message,
			&n.Data,
			&n.IsRead,
			&n.CreatedAt,
		); err != nil {
			return nil, err
		}
		notifications = append(notifications, &n)
	}

	return notifications, rows.Err()
}

// MarkNotificationRead отмечает уведомление прочитанным.
// Условие по user_id не дает пометить чужое уведомление.
func (s *Store) MarkNotificationRead(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
        UPDATE notifications
        SET is_read = true
        WHERE id = $1 AND user_id = $2
    `, id, userID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// MarkAllNotificationsRead отмечает все уведомления пользователя прочитанными
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
        UPDATE notifications
        SET is_read = true
        WHERE user_id = $1 AND is_read = false
    `, userID)

	return err
}
