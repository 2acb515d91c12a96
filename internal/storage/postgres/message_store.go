package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rajivgeraev/swapspot-api/internal/models"
	"github.com/rajivgeraev/swapspot-api/internal/storage"
)

const messageColumns = `id, swap_id, sender_user_id, type, message_text, lat, lng,
        location_name, location_address, location_agreed_by_user_a, location_agreed_by_user_b, created_at`

func scanMessage(row pgx.Row) (*models.Message, error) {
	var message models.Message
	err := row.Scan(
		&message.ID,
		&message.SwapID,
		&message.SenderUserID,
		&message.Type,
		&message.MessageText,
		&message.Lat,
		&message.Lng,
		&message.LocationName,
		&message.LocationAddress,
		&message.LocationAgreedByUserA,
		&message.LocationAgreedByUserB,
		&message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// CreateMessage сохраняет новое сообщение чата обмена
func (s *Store) CreateMessage(ctx context.Context, message *models.Message) error {
	_, err := s.pool.Exec(ctx, `
        INSERT INTO messages (id, swap_id, sender_user_id, type, message_text, lat, lng,
            location_name, location_address, location_agreed_by_user_a, location_agreed_by_user_b, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    `, message.ID, message.SwapID, message.SenderUserID, message.Type, message.MessageText,
		message.Lat, message.Lng, message.LocationName, message.LocationAddress,
		message.LocationAgreedByUserA, message.LocationAgreedByUserB, message.CreatedAt)

	return err
}

// GetMessage возвращает сообщение по ID
func (s *Store) GetMessage(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	message, err := scanMessage(s.pool.QueryRow(ctx, `
        SELECT `+messageColumns+`
        FROM messages
        WHERE id = $1
    `, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	return message, nil
}

// ListMessages возвращает все сообщения обмена в хронологическом порядке
func (s *Store) ListMessages(ctx context.Context, swapID uuid.UUID) ([]*models.Message, error) {
	rows, err := s.pool.Query(ctx, `
        SELECT `+messageColumns+`
        FROM messages
        WHERE swap_id = $1
        ORDER BY created_at ASC
    `, swapID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}

	return messages, rows.Err()
}

// SetLocationAgreed выставляет флаг согласия одной стороны на location-сообщении.
// UPDATE ... RETURNING атомарен: оба участника могут согласиться одновременно,
// и каждый увидит актуальное состояние обоих флагов после своего обновления.
func (s *Store) SetLocationAgreed(ctx context.Context, messageID uuid.UUID, sideA bool) (*models.Message, error) {
	column := "location_agreed_by_user_b"
	if sideA {
		column = "location_agreed_by_user_a"
	}

	message, err := scanMessage(s.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE messages
        SET %s = true
        WHERE id = $1
        RETURNING `+messageColumns, column), messageID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	return message, nil
}
