// Package bboltslot provides the default BoltDB-backed slot.
package bboltslot

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/joshrakosky/fmg-pick/internal/storage"
)

const slotBucket = "slots"

// Slot is a BoltDB-backed key-value slot.
type Slot struct {
	db *bbolt.DB
}

// Open opens (creating if needed) a BoltDB file at the provided path.
func Open(path string) (*Slot, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(slotBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create slot bucket: %w", err)
	}

	return &Slot{db: db}, nil
}

func (s *Slot) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(slotBucket))
		if bucket == nil {
			return fmt.Errorf("slot bucket is missing")
		}
		payload := bucket.Get([]byte(key))
		if payload == nil {
			return storage.ErrNotFound
		}
		// Copy: bbolt payloads are only valid inside the transaction.
		value = append([]byte(nil), payload...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *Slot) Set(key string, value []byte) error {
	if key == "" {
		return fmt.Errorf("slot key is required")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(slotBucket))
		if bucket == nil {
			return fmt.Errorf("slot bucket is missing")
		}
		return bucket.Put([]byte(key), value)
	})
}

func (s *Slot) Delete(key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(slotBucket))
		if bucket == nil {
			return fmt.Errorf("slot bucket is missing")
		}
		return bucket.Delete([]byte(key))
	})
}

func (s *Slot) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
