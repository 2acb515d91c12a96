// Package postgres реализует хранилища приложения поверх PostgreSQL.
// Все гарантии конкурентности обеспечиваются на уровне базы: уникальные
// ограничения с insert-or-fetch для свайпов и обменов, условные обновления
// по статусу и транзакция на подтверждение сделки.
package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rajivgeraev/swapspot-api/internal/storage"
)

// Store реализует storage.Store поверх пула соединений pgx
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

// NewStore создает новый экземпляр Store
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}
