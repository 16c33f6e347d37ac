package redis

import (
	"context"
	"errors"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/taskmaster/repository"
)

var _ repository.KeyValueStore = (*Store)(nil)

// Store maps every application key to a prefixed Redis string without expiry.
type Store struct {
	client *redislib.Client
	prefix string
}

// NewStore wraps client. Close releases the client.
func NewStore(client *redislib.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, repository.ErrKeyNotFound
		}
		return nil, err
	}
	return value, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.key(key), value, 0).Err()
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Keys counts the keys under the prefix.
func (s *Store) Keys(ctx context.Context) (int, error) {
	count := 0
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		count++
	}
	return count, iter.Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(key string) string {
	return s.prefix + key
}
