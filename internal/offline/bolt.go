package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// BoltStorage implements Storage using BoltDB, one bucket per cache
type BoltStorage struct {
	db *bbolt.DB
}

// NewBoltStorage opens or creates the cache database at path
func NewBoltStorage(path string) (*BoltStorage, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}
	return &BoltStorage{db: db}, nil
}

type boltCache struct {
	db   *bbolt.DB
	name []byte
}

// Open returns the named cache, creating its bucket if needed
func (b *BoltStorage) Open(name string) (Cache, error) {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(name))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating bucket %s: %w", name, err)
	}
	return &boltCache{db: b.db, name: []byte(name)}, nil
}

// Keys lists cache names in bucket order
func (b *BoltStorage) Keys() ([]string, error) {
	names := make([]string, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			names = append(names, string(name))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Delete removes a cache bucket
func (b *BoltStorage) Delete(name string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		err := tx.DeleteBucket([]byte(name))
		if errors.Is(err, bbolt.ErrBucketNotFound) {
			return nil
		}
		return err
	})
}

// Match looks key up in every bucket
func (b *BoltStorage) Match(ctx context.Context, key string) (*CachedResponse, bool, error) {
	var entry *CachedResponse
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, bucket *bbolt.Bucket) error {
			if entry != nil {
				return nil
			}
			data := bucket.Get([]byte(key))
			if data == nil {
				return nil
			}
			var e CachedResponse
			if err := json.Unmarshal(data, &e); err != nil {
				return fmt.Errorf("unmarshaling entry %s in %s: %w", key, name, err)
			}
			entry = &e
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	return entry, entry != nil, nil
}

// Close closes the database connection
func (b *BoltStorage) Close() error {
	return b.db.Close()
}

func (c *boltCache) Match(ctx context.Context, key string) (*CachedResponse, bool, error) {
	var entry *CachedResponse
	err := c.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(c.name)
		if bucket == nil {
			return nil
		}
		data := bucket.Get([]byte(key))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, false, err
	}
	return entry, entry != nil, nil
}

// Put recreates the bucket if the cache was deleted while open
func (c *boltCache) Put(ctx context.Context, key string, entry *CachedResponse) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(c.name)
		if err != nil {
			return err
		}
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshaling entry: %w", err)
		}
		return bucket.Put([]byte(key), data)
	})
}

func (c *boltCache) Delete(ctx context.Context, key string) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(c.name)
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(key))
	})
}
