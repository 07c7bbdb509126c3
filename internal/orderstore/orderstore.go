// Package orderstore holds the canonical order collection: an in-memory
// cache over one durable slot key, fanned out to local subscribers and to
// other execution contexts through the broadcast channel.
package orderstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joshrakosky/fmg-pick/internal/broadcast"
	"github.com/joshrakosky/fmg-pick/internal/models"
	"github.com/joshrakosky/fmg-pick/internal/storage"
)

var (
	// ErrNotFound indicates no order in the collection has the given ID.
	ErrNotFound = errors.New("order not found")
	// ErrDuplicateID indicates an insert would reuse an existing order ID.
	ErrDuplicateID = errors.New("duplicate order id")
	// ErrInvalidTransition indicates a status change the lifecycle forbids.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Listener receives the full post-mutation collection. The slice is a
// snapshot; the store never mutates it after delivery.
type Listener func(orders []models.Order)

// Store caches the order collection for one execution context. All methods
// are safe for concurrent use. Construct with New and release with Close.
type Store struct {
	slot    storage.Slot
	channel broadcast.Channel
	logger  *slog.Logger
	origin  string // identifies this context in broadcast messages

	mu        sync.Mutex
	orders    []models.Order
	listeners map[int]Listener
	nextID    int

	detach func()
}

// New loads the persisted collection and attaches the cross-context change
// handler. A missing or malformed slot value starts the store empty; it is
// never fatal.
func New(slot storage.Slot, channel broadcast.Channel, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		slot:      slot,
		channel:   channel,
		logger:    logger,
		origin:    uuid.NewString(),
		listeners: make(map[int]Listener),
	}
	s.orders = s.load()

	if _, err := slot.Get(storage.InitializedKey); errors.Is(err, storage.ErrNotFound) {
		if err := slot.Set(storage.InitializedKey, []byte("1")); err != nil {
			return nil, fmt.Errorf("write init flag: %w", err)
		}
		logger.Info("First run detected, storage initialized")
	}

	if channel != nil {
		detach, err := channel.Subscribe(s.handleMessage)
		if err != nil {
			return nil, fmt.Errorf("subscribe to %s: %w", broadcast.ChannelName, err)
		}
		s.detach = detach
	}

	return s, nil
}

// Close detaches the store from the broadcast channel. The slot stays open;
// its owner closes it.
func (s *Store) Close() {
	if s.detach != nil {
		s.detach()
		s.detach = nil
	}
}

// handleMessage reacts to change notifications from other contexts. The
// inline payload is ignored on purpose: re-reading the slot is correct even
// when messages arrive truncated or out of order.
func (s *Store) handleMessage(msg broadcast.Message) {
	if msg.Type != broadcast.TypeOrdersUpdated || msg.Origin == s.origin {
		return
	}
	s.reload()
}

// load reads and decodes the collection from the slot. Absent or malformed
// content yields an empty collection.
func (s *Store) load() []models.Order {
	payload, err := s.slot.Get(storage.OrdersKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		s.logger.Warn("Failed to read orders from storage, starting empty", "error", err)
		return nil
	}

	var orders []models.Order
	if err := json.Unmarshal(payload, &orders); err != nil {
		s.logger.Warn("Stored orders are malformed, starting empty", "error", err)
		return nil
	}
	return orders
}

// reload swaps in the persisted collection and notifies local listeners.
func (s *Store) reload() {
	orders := s.load()

	s.mu.Lock()
	s.orders = orders
	listeners, snapshot := s.fanoutLocked()
	s.mu.Unlock()

	notify(listeners, snapshot)
}

// Orders returns a snapshot of the current collection.
func (s *Store) Orders() []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotOf(s.orders)
}

// SetOrders atomically replaces the entire collection. Used for bulk import
// seeds and the admin clear.
func (s *Store) SetOrders(orders []models.Order) error {
	seen := make(map[string]bool, len(orders))
	for _, o := range orders {
		if seen[o.OrderID] {
			return fmt.Errorf("%w: %s", ErrDuplicateID, o.OrderID)
		}
		seen[o.OrderID] = true
	}

	s.mu.Lock()
	s.orders = snapshotOf(orders)
	return s.commitLocked()
}

// AddOrder appends one order to the collection.
func (s *Store) AddOrder(order models.Order) error {
	s.mu.Lock()
	for _, existing := range s.orders {
		if existing.OrderID == order.OrderID {
			s.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrDuplicateID, order.OrderID)
		}
	}
	s.orders = append(s.orders, order)
	return s.commitLocked()
}

// UpdateOrder replaces the order with a matching ID. The stored record is
// normalized so CompletedAt is present exactly when the status is completed.
func (s *Store) UpdateOrder(order models.Order) error {
	s.mu.Lock()
	for i, existing := range s.orders {
		if existing.OrderID != order.OrderID {
			continue
		}
		normalizeCompletion(&order)
		s.orders[i] = order
		return s.commitLocked()
	}
	s.mu.Unlock()
	return fmt.Errorf("%w: %s", ErrNotFound, order.OrderID)
}

// UpdateOrderStatus moves one order through the picking lifecycle. Entering
// completed stamps CompletedAt; the undo path back to pending clears it.
func (s *Store) UpdateOrderStatus(orderID string, status models.OrderStatus) error {
	if !status.Valid() {
		return fmt.Errorf("unknown status %q", status)
	}

	s.mu.Lock()
	for i := range s.orders {
		if s.orders[i].OrderID != orderID {
			continue
		}
		if !models.CanTransition(s.orders[i].Status, status) {
			from := s.orders[i].Status
			s.mu.Unlock()
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, status)
		}
		s.orders[i].Status = status
		normalizeCompletion(&s.orders[i])
		return s.commitLocked()
	}
	s.mu.Unlock()
	return fmt.Errorf("%w: %s", ErrNotFound, orderID)
}

// Subscribe registers a listener and immediately delivers the current
// snapshot, so late subscribers are never stale. The returned function
// detaches the listener.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	// The initial delivery happens under the lock: a concurrent commit
	// cannot hand this listener a newer snapshot ahead of it, so listeners
	// only ever see states in order. The listener must not call back into
	// the store during this first invocation.
	fn(snapshotOf(s.orders))
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Refresh unconditionally reloads from the slot and notifies listeners.
// This backs the manual refresh gesture and the visibility fallback for
// contexts that missed broadcasts while backgrounded.
func (s *Store) Refresh() {
	s.reload()
}

// commitLocked persists the collection, broadcasts the change, and fans out
// to local listeners. The caller must hold s.mu; commitLocked releases it.
// The slot write happens under the lock so concurrent commits cannot persist
// out of order. A persist failure is returned to the caller, but listeners
// are still notified so views track the in-memory state.
func (s *Store) commitLocked() error {
	payload, err := json.Marshal(s.orders)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("marshal orders: %w", err)
	}

	var persistErr error
	if err := s.slot.Set(storage.OrdersKey, payload); err != nil {
		s.logger.Error("Failed to persist orders", "error", err)
		persistErr = fmt.Errorf("persist orders: %w", err)
	}

	listeners, snapshot := s.fanoutLocked()
	s.mu.Unlock()

	if persistErr == nil && s.channel != nil {
		msg := broadcast.Message{
			Type:   broadcast.TypeOrdersUpdated,
			Origin: s.origin,
			Orders: payload,
		}
		if err := s.channel.Publish(msg); err != nil {
			s.logger.Warn("Failed to broadcast order update", "error", err)
		}
	}

	notify(listeners, snapshot)
	return persistErr
}

// fanoutLocked snapshots the listener set and collection under s.mu.
func (s *Store) fanoutLocked() ([]Listener, []models.Order) {
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	return listeners, snapshotOf(s.orders)
}

func notify(listeners []Listener, snapshot []models.Order) {
	for _, fn := range listeners {
		fn(snapshot)
	}
}

func snapshotOf(orders []models.Order) []models.Order {
	snapshot := make([]models.Order, len(orders))
	copy(snapshot, orders)
	return snapshot
}

// normalizeCompletion enforces the invariant that CompletedAt is present
// exactly when the order is completed.
func normalizeCompletion(order *models.Order) {
	if order.Status == models.StatusCompleted {
		if order.CompletedAt == "" {
			order.CompletedAt = time.Now().UTC().Format(time.RFC3339)
		}
		return
	}
	order.CompletedAt = ""
}
