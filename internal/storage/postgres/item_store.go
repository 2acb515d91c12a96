package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rajivgeraev/swapspot-api/internal/models"
	"github.com/rajivgeraev/swapspot-api/internal/storage"
)

// GetItem возвращает предмет по ID
func (s *Store) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	var item models.Item
	err := s.pool.QueryRow(ctx, `
        SELECT id, user_id, title, status, created_at, updated_at
        FROM items
        WHERE id = $1
    `, id).Scan(
		&item.ID,
		&item.UserID,
		&item.Title,
		&item.Status,
		&item.CreatedAt,
		&item.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	return &item, nil
}

// GetItems возвращает предметы по списку ID
func (s *Store) GetItems(ctx context.Context, ids []uuid.UUID) ([]*models.Item, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT id, user_id, title, status, created_at, updated_at
        FROM items
        WHERE id = ANY($1)
    `, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.Title,
			&item.Status,
			&item.CreatedAt,
			&item.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}

	return items, rows.Err()
}

// GetUser возвращает базовую информацию о пользователе
func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.pool.QueryRow(ctx, `
        SELECT id, name, COALESCE(username, ''), COALESCE(avatar_url, '')
        FROM users
        WHERE id = $1
    `, id).Scan(
		&user.ID,
		&user.Name,
		&user.Username,
		&user.AvatarURL,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	return &user, nil
}
