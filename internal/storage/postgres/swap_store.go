package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rajivgeraev/swapspot-api/internal/db"
	"github.com/rajivgeraev/swapspot-api/internal/models"
	"github.com/rajivgeraev/swapspot-api/internal/storage"
)

const swapColumns = `id, item_a_id, item_b_id, user_a_id, user_b_id, status,
        item_a_owner_confirmed, item_b_owner_confirmed, location_suggested_at, created_at, updated_at`

func scanSwap(row pgx.Row) (*models.Swap, error) {
	var swap models.Swap
	err := row.Scan(
		&swap.ID,
		&swap.ItemAID,
		&swap.ItemBID,
		&swap.UserAID,
		&swap.UserBID,
		&swap.Status,
		&swap.ItemAOwnerConfirmed,
		&swap.ItemBOwnerConfirmed,
		&swap.LocationSuggestedAt,
		&swap.CreatedAt,
		&swap.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &swap, nil
}

// CreateOrGetSwap вставляет обмен по канонической паре предметов.
// Два одновременных встречных лайка разрешаются уникальным ограничением на
// (item_a_id, item_b_id): вставка с конфликтом означает "уже сматчились",
// и тогда возвращается существующая запись.
func (s *Store) CreateOrGetSwap(ctx context.Context, swap *models.Swap) (*models.Swap, bool, error) {
	created, err := scanSwap(s.pool.QueryRow(ctx, `
        INSERT INTO swaps (id, item_a_id, item_b_id, user_a_id, user_b_id, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, 'active', now(), now())
        ON CONFLICT (item_a_id, item_b_id) DO NOTHING
        RETURNING `+swapColumns+`
    `, uuid.New(), swap.ItemAID, swap.ItemBID, swap.UserAID, swap.UserBID))

	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	// Конфликт вставки: обмен уже существует, забираем его
	existing, err := scanSwap(s.pool.QueryRow(ctx, `
        SELECT `+swapColumns+`
        FROM swaps
        WHERE item_a_id = $1 AND item_b_id = $2
    `, swap.ItemAID, swap.ItemBID))
	if err != nil {
		return nil, false, err
	}

	return existing, false, nil
}

// GetSwap возвращает обмен по ID
func (s *Store) GetSwap(ctx context.Context, id uuid.UUID) (*models.Swap, error) {
	swap, err := scanSwap(s.pool.QueryRow(ctx, `
        SELECT `+swapColumns+`
        FROM swaps
        WHERE id = $1
    `, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	return swap, nil
}

// ListSwapsForUser возвращает обмены пользователя, опционально отфильтрованные по статусу
func (s *Store) ListSwapsForUser(ctx context.Context, userID uuid.UUID, status string) ([]*models.Swap, error) {
	var query string
	var args []interface{}

	if status == "" {
		query = `
            SELECT ` + swapColumns + `
            FROM swaps
            WHERE user_a_id = $1 OR user_b_id = $1
            ORDER BY updated_at DESC
        `
		args = []interface{}{userID}
	} else {
		query = `
            SELECT ` + swapColumns + `
            FROM swaps
            WHERE (user_a_id = $1 OR user_b_id = $1) AND status = $2
            ORDER BY updated_at DESC
        `
		args = []interface{}{userID, status}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var swaps []*models.Swap
	for rows.Next() {
		swap, err := scanSwap(rows)
		if err != nil {
			return nil, err
		}
		swaps = append(swaps, swap)
	}

	return swaps, rows.Err()
}

// MarkLocationSuggested переводит обмен в location_suggested со штампом времени.
// Условие по статусу в WHERE делает обновление безопасным при гонке с
// параллельным переходом в location_agreed или trade_complete.
func (s *Store) MarkLocationSuggested(ctx context.Context, swapID uuid.UUID, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `
        UPDATE swaps
        SET status = 'location_suggested', location_suggested_at = $2, updated_at = now()
        WHERE id = $1 AND status IN ('active', 'location_suggested')
    `, swapID, at)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrInvalidStatus
	}
	return nil
}

// MarkLocationAgreed переводит location_suggested → location_agreed.
// Возвращает false, если обмен уже покинул location_suggested.
func (s *Store) MarkLocationAgreed(ctx context.Context, swapID uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
        UPDATE swaps
        SET status = 'location_agreed', updated_at = now()
        WHERE id = $1 AND status = 'location_suggested'
    `, swapID)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() == 1, nil
}

// ConfirmSide выставляет флаг подтверждения одной стороны и, если подтверждены
// обе, в той же транзакции завершает сделку: статус обмена → trade_complete,
// оба предмета → traded. Конкурирующие подтверждения сериализуются блокировкой
// строки, которую берет UPDATE, поэтому второе подтверждение всегда видит флаг
// первого и переход не теряется.
func (s *Store) ConfirmSide(ctx context.Context, swapID uuid.UUID, sideA bool) (*models.Swap, bool, error) {
	column := "item_b_owner_confirmed"
	if sideA {
		column = "item_a_owner_confirmed"
	}

	var swap *models.Swap
	var completed bool

	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		swap, err = scanSwap(tx.QueryRow(ctx, fmt.Sprintf(`
            UPDATE swaps
            SET %s = true, updated_at = now()
            WHERE id = $1 AND status IN ('active', 'location_suggested', 'location_agreed')
            RETURNING `+swapColumns, column), swapID))

		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return err
			}
			// Отличаем отсутствующий обмен от уже завершенного
			var status string
			selErr := tx.QueryRow(ctx, `SELECT status FROM swaps WHERE id = $1`, swapID).Scan(&status)
			if errors.Is(selErr, pgx.ErrNoRows) {
				return storage.ErrNotFound
			}
			if selErr != nil {
				return selErr
			}
			return storage.ErrInvalidStatus
		}

		if !swap.ItemAOwnerConfirmed || !swap.ItemBOwnerConfirmed {
			return nil
		}

		// Обе стороны подтвердили: завершаем сделку и помечаем предметы
		if _, err := tx.Exec(ctx, `
            UPDATE swaps SET status = 'trade_complete', updated_at = now() WHERE id = $1
        `, swapID); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
            UPDATE items SET status = 'traded', updated_at = now() WHERE id = ANY($1)
        `, []uuid.UUID{swap.ItemAID, swap.ItemBID}); err != nil {
			return err
		}

		swap.Status = models.SwapStatusTradeComplete
		completed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	return swap, completed, nil
}

// ResetExpiredLocationSuggestions сбрасывает зависшие предложения места встречи.
// Условие по статусу гарантирует, что обмены, успевшие дойти до location_agreed
// или trade_complete, не затрагиваются.
func (s *Store) ResetExpiredLocationSuggestions(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
        UPDATE swaps
        SET status = 'active', location_suggested_at = NULL, updated_at = now()
        WHERE status = 'location_suggested' AND location_suggested_at < $1
    `, olderThan)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}
