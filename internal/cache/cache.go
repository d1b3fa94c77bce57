// Package cache provides a persistent content-hash cache.
//
// Decoding a media file to hash its streams is expensive, so computed
// hashes are stored in a BoltDB file keyed by path. An entry is reused
// only while the file's size and modification time still match; any
// mismatch is a miss and the hash is recomputed.
//
// The cache is strictly advisory: a missing, locked or corrupt cache
// file degrades the run to full recomputation, never aborts it. All
// methods are nil-receiver safe so a disabled cache is simply nil.
package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// bucketName is the BoltDB bucket for hash entries
const bucketName = "hashes"

// Cache stores computed content hashes in BoltDB
type Cache struct {
	db *bbolt.DB
}

// Open opens (or creates) the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the cache database
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}

	return c.db.Close()
}

// Lookup returns the cached hash for path if the stored size and
// modification time still match the file's current metadata.
// Corrupt or stale entries report a miss.
func (c *Cache) Lookup(path string, size int64, modTime time.Time) (string, bool) {
	if c == nil || c.db == nil {
		return "", false
	}

	var entry Entry
	found := false

	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}

		data := b.Get(key(path))
		if data == nil {
			return nil // Cache miss
		}

		if err := json.Unmarshal(data, &entry); err != nil {
			return nil // Corrupt entry, treat as miss
		}

		found = true
		return nil
	})
	if err != nil || !found {
		return "", false
	}

	if entry.Path != path || entry.Size != size || !entry.ModTime.Equal(modTime) {
		return "", false
	}

	return entry.Hash, true
}

// Store saves a computed hash. Bolt serializes update transactions, so
// Store is safe to call from concurrent hashing workers.
func (c *Cache) Store(path string, size int64, modTime time.Time, hash string) error {
	if c == nil || c.db == nil {
		return nil
	}

	entry := Entry{
		Path:    path,
		Size:    size,
		ModTime: modTime,
		Hash:    hash,
	}

	return c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))

		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}

		return b.Put(key(path), data)
	})
}

// Stats returns the number of stored entries.
func (c *Cache) Stats() (int, error) {
	if c == nil || c.db == nil {
		return 0, nil
	}

	var count int
	err := c.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b != nil {
			count = b.Stats().KeyN
		}
		return nil
	})

	return count, err
}
