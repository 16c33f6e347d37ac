package bolt

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/fastygo/taskmaster/repository"
)

const defaultBucket = "taskmaster"

var _ repository.KeyValueStore = (*Store)(nil)

// Store keeps every key of the application in a single BoltDB bucket.
type Store struct {
	db     *bbolt.DB
	bucket []byte
}

// Open initializes the BoltDB file and ensures the bucket exists.
func Open(path string, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = defaultBucket
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		bucket: []byte(bucket),
	}, nil
}

// Get returns a copy of the stored value or repository.ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if s == nil || s.db == nil {
		return nil, bbolt.ErrDatabaseNotOpen
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var value []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(key))
		if v == nil {
			return repository.ErrKeyNotFound
		}
		// bolt memory is only valid inside the transaction
		value = append([]byte(nil), v...)
		return nil
	})
	return value, err
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if s == nil || s.db == nil {
		return bbolt.ErrDatabaseNotOpen
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), value)
	})
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if s == nil || s.db == nil {
		return bbolt.ErrDatabaseNotOpen
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
}

// Ping opens a read transaction to prove the file is usable.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return bbolt.ErrDatabaseNotOpen
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(s.bucket) == nil {
			return bbolt.ErrBucketNotFound
		}
		return nil
	})
}

// Keys returns the number of stored keys.
func (s *Store) Keys(ctx context.Context) (int, error) {
	if s == nil || s.db == nil {
		return 0, bbolt.ErrDatabaseNotOpen
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var count int
	err := s.db.View(func(tx *bbolt.Tx) error {
		count = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Close closes the Bolt database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
