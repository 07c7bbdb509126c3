package broadcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus()

	var first, second []Message
	_, err := bus.Subscribe(func(msg Message) { first = append(first, msg) })
	require.NoError(t, err)
	_, err = bus.Subscribe(func(msg Message) { second = append(second, msg) })
	require.NoError(t, err)

	require.NoError(t, bus.Publish(Message{Type: TypeOrdersUpdated, Origin: "tab-1"}))

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, TypeOrdersUpdated, first[0].Type)
	assert.Equal(t, "tab-1", second[0].Origin)
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()

	var got []Message
	detach, err := bus.Subscribe(func(msg Message) { got = append(got, msg) })
	require.NoError(t, err)

	require.NoError(t, bus.Publish(Message{Type: TypeOrdersUpdated}))
	detach()
	require.NoError(t, bus.Publish(Message{Type: TypeOrdersUpdated}))

	assert.Len(t, got, 1)
}

func TestBusPublishWithNoSubscribers(t *testing.T) {
	bus := NewBus()
	assert.NoError(t, bus.Publish(Message{Type: TypeOrdersUpdated}))
}
