package models

// OrderStatus is the picking lifecycle state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusInProgress OrderStatus = "in_progress"
	StatusCompleted  OrderStatus = "completed"
)

// Valid reports whether s is one of the known lifecycle states.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// CanTransition reports whether the lifecycle allows moving from -> to.
// Allowed moves: pending -> in_progress, pending -> completed,
// in_progress -> completed, and the undo path completed -> pending.
func CanTransition(from, to OrderStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusInProgress || to == StatusCompleted
	case StatusInProgress:
		return to == StatusCompleted
	case StatusCompleted:
		return to == StatusPending
	}
	return false
}

type Address struct {
	Street  string `json:"street"`
	Street2 string `json:"street2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Postal  string `json:"postal"`
}

type Customer struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Contact string  `json:"contact"`
	Address Address `json:"address"`
}

type OrderItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
	Color    string `json:"color,omitempty"`
	Size     string `json:"size,omitempty"`
	LineNote string `json:"lineNote,omitempty"`
}

type Order struct {
	OrderID       string      `json:"orderId"` // Stable unique ID, also the display order number
	Customer      Customer    `json:"customer"`
	Items         []OrderItem `json:"items"`
	Status        OrderStatus `json:"status"`
	CreatedAt     string      `json:"createdAt"`             // RFC 3339
	CompletedAt   string      `json:"completedAt,omitempty"` // Set iff Status == completed
	ShipAttention string      `json:"shipAttention,omitempty"`
}

// Validate checks the fields an order must carry before it enters the
// collection: an ID, enough customer detail to ship, and at least one item.
func (o *Order) Validate() bool {
	return o.OrderID != "" &&
		o.Customer.Name != "" &&
		o.Customer.Email != "" &&
		o.Customer.Address.City != "" &&
		o.Customer.Address.State != "" &&
		o.Customer.Address.Postal != "" &&
		len(o.Items) > 0
}

// ItemCount is the total unit count across all lines.
func (o *Order) ItemCount() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}
