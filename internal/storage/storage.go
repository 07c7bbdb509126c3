// Package storage defines the durable key-value slot the application keeps
// its state in. The entire order collection lives under a single key, so the
// interface is deliberately tiny: get, set, delete whole values.
package storage

import "errors"

// ErrNotFound indicates the requested key has no value.
var ErrNotFound = errors.New("key not found")

// Well-known slot keys.
const (
	OrdersKey      = "orders"
	InitializedKey = "app_initialized"
	UsersKey       = "users"
)

// Slot is an origin-scoped durable key-value store. Values are opaque blobs;
// callers own serialization.
type Slot interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}
