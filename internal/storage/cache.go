package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/containerd/log"
	bolt "go.etcd.io/bbolt"

	"github.com/vocdoni/gofirma/receiptparser/internal/canon"
	"github.com/vocdoni/gofirma/receiptparser/internal/receipt"
)

var receiptBucket = []byte("receipts")

var ErrNotCached = errors.New("receipt not cached")

// Cache stores parsed receipts keyed by the SHA-256 of their raw bytes.
type Cache struct {
	db *bolt.DB
}

func OpenCache(path string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(receiptBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}
	return &Cache{db: db}, nil
}

// Key returns the cache key for raw receipt bytes.
func Key(raw []byte) string {
	return canon.Digest(raw)
}

func (c *Cache) Get(key string) (receipt.AppleReceipt, error) {
	var r receipt.AppleReceipt
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(receiptBucket).Get([]byte(key))
		if v == nil {
			return ErrNotCached
		}
		return json.Unmarshal(v, &r)
	})
	if err != nil {
		return receipt.AppleReceipt{}, err
	}
	log.L.WithField("key", key).Debug("receipt cache hit")
	return r, nil
}

func (c *Cache) Put(key string, r receipt.AppleReceipt) error {
	data, err := canon.Encode(r)
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(receiptBucket).Put([]byte(key), data)
	})
}

func (c *Cache) Close() error {
	return c.db.Close()
}
