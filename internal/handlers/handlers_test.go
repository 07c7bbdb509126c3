package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshrakosky/fmg-pick/internal/broadcast"
	"github.com/joshrakosky/fmg-pick/internal/models"
	"github.com/joshrakosky/fmg-pick/internal/orderstore"
	"github.com/joshrakosky/fmg-pick/internal/storage/memslot"
)

func newHandlerStore(t *testing.T) (*orderstore.Store, *broadcast.Bus) {
	t.Helper()
	bus := broadcast.NewBus()
	store, err := orderstore.New(memslot.New(), bus, nil)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store, bus
}

func TestAPIOrdersServesSnapshot(t *testing.T) {
	store, _ := newHandlerStore(t)
	require.NoError(t, store.SetOrders(SampleOrders()))

	h := &OrderHandler{Store: store}
	rec := httptest.NewRecorder()
	h.APIOrders(rec, httptest.NewRequest("GET", "/api/orders", nil))

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var orders []models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orders))
	require.Len(t, orders, 2)
	assert.Equal(t, "TEST-001", orders[0].OrderID)
	assert.Equal(t, models.StatusPending, orders[0].Status)
}

func TestEventsHandlerRelaysUpdates(t *testing.T) {
	store, bus := newHandlerStore(t)

	events, err := NewEventsHandler(bus)
	require.NoError(t, err)
	defer events.Close()

	server := httptest.NewServer(events)
	defer server.Close()

	wsURL, err := url.Parse(server.URL)
	require.NoError(t, err)
	wsURL.Scheme = "ws"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the server a beat to register the connection.
	time.Sleep(50 * time.Millisecond)

	// A mutation in the store must surface as a frame on the tab socket.
	require.NoError(t, store.SetOrders(SampleOrders()))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame broadcast.Message
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, broadcast.TypeOrdersUpdated, frame.Type)
	assert.Empty(t, frame.Orders, "frames carry no payload; tabs re-fetch")
}

func TestEventsHandlerConcurrentBroadcasts(t *testing.T) {
	_, bus := newHandlerStore(t)

	events, err := NewEventsHandler(bus)
	require.NoError(t, err)
	defer events.Close()

	server := httptest.NewServer(events)
	defer server.Close()

	wsURL, err := url.Parse(server.URL)
	require.NoError(t, err)
	wsURL.Scheme = "ws"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the server a beat to register the connection.
	time.Sleep(50 * time.Millisecond)

	// Publishers run on their own goroutines, so relays hit the same
	// connection concurrently. Every frame must still arrive intact.
	const publishers = 8
	var wg sync.WaitGroup
	for i := 0; i < publishers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, bus.Publish(broadcast.Message{Type: broadcast.TypeOrdersUpdated}))
		}()
	}
	wg.Wait()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < publishers; i++ {
		var frame broadcast.Message
		require.NoError(t, conn.ReadJSON(&frame))
		assert.Equal(t, broadcast.TypeOrdersUpdated, frame.Type)
	}
}

func TestEventsHandlerRejectsCrossOriginDial(t *testing.T) {
	_, bus := newHandlerStore(t)

	events, err := NewEventsHandler(bus)
	require.NoError(t, err)
	defer events.Close()

	server := httptest.NewServer(events)
	defer server.Close()

	wsURL, err := url.Parse(server.URL)
	require.NoError(t, err)
	wsURL.Scheme = "ws"

	header := http.Header{"Origin": []string{"http://evil.example"}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL.String(), header)
	if conn != nil {
		conn.Close()
	}
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestColumnMapFromForm(t *testing.T) {
	form := url.Values{}
	form.Set("col_order_id", "Order Number")
	form.Set("col_quantity", "Qty")

	req := httptest.NewRequest("POST", "/import/preview", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	columns := columnMapFromForm(req)
	assert.Equal(t, "Order Number", columns.OrderID)
	assert.Equal(t, "Qty", columns.Quantity)
	// Unset fields keep the export defaults.
	assert.Equal(t, "Product Name", columns.ProductName)
	assert.Equal(t, "Ship Name", columns.ShipName)
}

func TestSampleOrdersAreValid(t *testing.T) {
	for _, o := range SampleOrders() {
		o := o
		assert.True(t, o.Validate(), "sample order %s should validate", o.OrderID)
		assert.Equal(t, models.StatusPending, o.Status)
	}
}
