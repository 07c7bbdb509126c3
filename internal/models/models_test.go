package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to OrderStatus }{
		{StatusPending, StatusInProgress},
		{StatusPending, StatusCompleted},
		{StatusInProgress, StatusCompleted},
		{StatusCompleted, StatusPending},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	forbidden := []struct{ from, to OrderStatus }{
		{StatusInProgress, StatusPending},
		{StatusCompleted, StatusInProgress},
		{StatusPending, StatusPending},
		{StatusInProgress, StatusInProgress},
		{StatusCompleted, StatusCompleted},
	}
	for _, tc := range forbidden {
		assert.False(t, CanTransition(tc.from, tc.to), "%s -> %s should be forbidden", tc.from, tc.to)
	}
}

func TestStatusValid(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.True(t, StatusInProgress.Valid())
	assert.True(t, StatusCompleted.Valid())
	assert.False(t, OrderStatus("cancelled").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func validOrder() Order {
	return Order{
		OrderID: "A1",
		Customer: Customer{
			Name:  "Jane Doe",
			Email: "jane@example.com",
			Address: Address{
				Street: "1 Main St",
				City:   "Springfield",
				State:  "IL",
				Postal: "62704",
			},
		},
		Items:     []OrderItem{{ID: "X", SKU: "X", Name: "Widget", Quantity: 2}},
		Status:    StatusPending,
		CreatedAt: "2026-08-01T10:00:00Z",
	}
}

func TestOrderValidate(t *testing.T) {
	order := validOrder()
	assert.True(t, order.Validate())

	missingID := validOrder()
	missingID.OrderID = ""
	assert.False(t, missingID.Validate())

	noItems := validOrder()
	noItems.Items = nil
	assert.False(t, noItems.Validate())

	noCity := validOrder()
	noCity.Customer.Address.City = ""
	assert.False(t, noCity.Validate())
}

func TestItemCount(t *testing.T) {
	order := validOrder()
	order.Items = append(order.Items, OrderItem{ID: "Y", SKU: "Y", Name: "Gadget", Quantity: 3})
	assert.Equal(t, 5, order.ItemCount())
}
