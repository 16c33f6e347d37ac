package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/taskmaster/repository"
)

var _ repository.KeyValueStore = (*Store)(nil)

// Store keeps each application key as one row of kv_store. Values must be valid JSON.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	const query = `SELECT value FROM kv_store WHERE key = $1`

	var value []byte
	if err := s.pool.QueryRow(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrKeyNotFound
		}
		return nil, err
	}
	return value, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	const query = `
	INSERT INTO kv_store (key, value, updated_at)
	VALUES ($1, $2, NOW())
	ON CONFLICT (key) DO UPDATE
	SET value = EXCLUDED.value,
		updated_at = NOW()
	`
	_, err := s.pool.Exec(ctx, query, key, string(value))
	return err
}

func (s *Store) Delete(ctx context.Context, key string) error {
	const query = `DELETE FROM kv_store WHERE key = $1`
	_, err := s.pool.Exec(ctx, query, key)
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Keys counts the stored rows.
func (s *Store) Keys(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM kv_store`

	var count int
	err := s.pool.QueryRow(ctx, query).Scan(&count)
	return count, err
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
