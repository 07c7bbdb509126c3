// Package broadcast carries change notifications between execution contexts
// sharing one slot: other stores in this process and, through the websocket
// bridge, every open browser tab.
package broadcast

import (
	"encoding/json"
	"sync"
)

// ChannelName is the single topic the application uses.
const ChannelName = "order-updates"

// TypeOrdersUpdated signals that the canonical order collection changed.
const TypeOrdersUpdated = "orders-updated"

// Message is the wire shape of a change notification. Orders optionally
// carries the new collection inline; receivers must stay correct if they
// ignore it and re-read the slot instead.
type Message struct {
	Type   string          `json:"type"`
	Origin string          `json:"origin,omitempty"`
	Orders json.RawMessage `json:"orders,omitempty"`
}

// Channel is a publish/subscribe notification channel. Subscribe returns a
// detach function.
type Channel interface {
	Publish(msg Message) error
	Subscribe(fn func(Message)) (func(), error)
}

// Bus is the in-process Channel. Delivery is synchronous and includes the
// publisher's own subscription; receivers filter on Origin.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]func(Message)
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[int]func(Message))}
}

func (b *Bus) Publish(msg Message) error {
	b.mu.RLock()
	handlers := make([]func(Message), 0, len(b.handlers))
	for _, fn := range b.handlers {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(msg)
	}
	return nil
}

func (b *Bus) Subscribe(fn func(Message)) (func(), error) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.handlers[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}, nil
}
