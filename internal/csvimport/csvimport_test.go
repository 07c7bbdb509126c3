package csvimport

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshrakosky/fmg-pick/internal/models"
)

const sampleCSV = `ProStore Order #,Product Name,Customer Item #,Quantity,Line Note,Ship Name,Contact Email,Customer Contact,Ship Street 1,Ship Street 2,City,State,Postal,Ship Attention,Created Date
1001,Team Hoodie,HD-01,2,"Color: Navy, Size: XL, gift wrap",Jane Doe,jane@example.com,Jane,1 Main St,Apt 2,Springfield,IL,62704,Receiving,2026-08-01T10:00:00Z
1001,Team Cap,CP-07,1,Size: L,Jane Doe,jane@example.com,Jane,1 Main St,Apt 2,Springfield,IL,62704,Receiving,2026-08-01T10:00:00Z
1002,Water Bottle,,,,John Roe,john@example.com,John,9 Elm Ave,,Shelbyville,IL,62565,,2026-08-02T09:30:00Z
`

func TestParseGroupsRowsByOrder(t *testing.T) {
	orders, err := Parse(strings.NewReader(sampleCSV), DefaultColumnMap())
	require.NoError(t, err)
	require.Len(t, orders, 2)

	first := orders[0]
	assert.Equal(t, "1001", first.OrderID)
	assert.Equal(t, "Jane Doe", first.Customer.Name)
	assert.Equal(t, "jane@example.com", first.Customer.Email)
	assert.Equal(t, "Apt 2", first.Customer.Address.Street2)
	assert.Equal(t, "Receiving", first.ShipAttention)
	assert.Equal(t, models.StatusPending, first.Status)
	assert.Equal(t, "2026-08-01T10:00:00Z", first.CreatedAt)
	require.Len(t, first.Items, 2)

	hoodie := first.Items[0]
	assert.Equal(t, "HD-01", hoodie.SKU)
	assert.Equal(t, "Team Hoodie", hoodie.Name)
	assert.Equal(t, 2, hoodie.Quantity)
	assert.Equal(t, "Navy", hoodie.Color)
	assert.Equal(t, "XL", hoodie.Size)
	assert.Equal(t, "gift wrap", hoodie.LineNote)

	hat := first.Items[1]
	assert.Equal(t, "L", hat.Size)
	assert.Empty(t, hat.Color)
	assert.Empty(t, hat.LineNote)
}

func TestParseDefaults(t *testing.T) {
	orders, err := Parse(strings.NewReader(sampleCSV), DefaultColumnMap())
	require.NoError(t, err)

	bottle := orders[1].Items[0]
	assert.Equal(t, 1, bottle.Quantity, "missing quantity defaults to 1")
	assert.Equal(t, "Water Bottle", bottle.ID, "item id falls back to the product name")
	assert.Equal(t, "Water Bottle", bottle.SKU)
}

func TestParseSkipsRowsWithoutOrderID(t *testing.T) {
	csv := "ProStore Order #,Product Name\n,Orphan Product\n1003,Real Product\n"
	orders, err := Parse(strings.NewReader(csv), DefaultColumnMap())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "1003", orders[0].OrderID)
}

func TestParseSkipsItemRowsWithoutProductName(t *testing.T) {
	csv := "ProStore Order #,Product Name,Ship Name\n1004,,Jane\n1004,Real Product,Jane\n"
	orders, err := Parse(strings.NewReader(csv), DefaultColumnMap())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, "Real Product", orders[0].Items[0].Name)
}

func TestParseEmptyInput(t *testing.T) {
	orders, err := Parse(strings.NewReader(""), DefaultColumnMap())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestParseMissingCreatedDateFallsBackToNow(t *testing.T) {
	csv := "ProStore Order #,Product Name\n1005,Widget\n"
	orders, err := Parse(strings.NewReader(csv), DefaultColumnMap())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.NotEmpty(t, orders[0].CreatedAt)
}

func TestParseCustomColumnMap(t *testing.T) {
	columns := ColumnMap{
		OrderID:     "Order",
		ProductName: "Item",
		Quantity:    "Qty",
		ShipName:    "Name",
	}
	csv := "Order,Item,Qty,Name\nX-1,Mug,3,Jane\n"
	orders, err := Parse(strings.NewReader(csv), columns)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "X-1", orders[0].OrderID)
	assert.Equal(t, "Jane", orders[0].Customer.Name)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, 3, orders[0].Items[0].Quantity)
}

func TestExtractColorAndSize(t *testing.T) {
	color, size, note := extractColorAndSize("Color: Forest Green, Size: M, rush order")
	assert.Equal(t, "Forest Green", color)
	assert.Equal(t, "M", size)
	assert.Equal(t, "rush order", note)

	color, size, note = extractColorAndSize("plain note")
	assert.Empty(t, color)
	assert.Empty(t, size)
	assert.Equal(t, "plain note", note)

	color, _, note = extractColorAndSize("color: red")
	assert.Equal(t, "red", color, "matching is case-insensitive")
	assert.Empty(t, note)
}
