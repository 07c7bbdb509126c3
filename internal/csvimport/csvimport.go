// Package csvimport turns a tabular order export into Order records. Rows
// sharing an order number collapse into one order with one item per row.
package csvimport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joshrakosky/fmg-pick/internal/models"
)

// ColumnMap names the source column for each order field. Empty entries
// leave the field blank.
type ColumnMap struct {
	OrderID     string
	ProductName string
	ItemSKU     string
	Quantity    string
	LineNote    string
	ShipName    string
	Email       string
	Contact     string
	Street      string
	Street2     string
	City        string
	State       string
	Postal      string
	Attention   string
	CreatedDate string
}

// DefaultColumnMap matches the ProStore order export headers.
func DefaultColumnMap() ColumnMap {
	return ColumnMap{
		OrderID:     "ProStore Order #",
		ProductName: "Product Name",
		ItemSKU:     "Customer Item #",
		Quantity:    "Quantity",
		LineNote:    "Line Note",
		ShipName:    "Ship Name",
		Email:       "Contact Email",
		Contact:     "Customer Contact",
		Street:      "Ship Street 1",
		Street2:     "Ship Street 2",
		City:        "City",
		State:       "State",
		Postal:      "Postal",
		Attention:   "Ship Attention",
		CreatedDate: "Created Date",
	}
}

var (
	colorPattern = regexp.MustCompile(`(?i)Color: ([^,]+)`)
	sizePattern  = regexp.MustCompile(`(?i)Size: ([^,]+)`)
	colorStrip   = regexp.MustCompile(`(?i)Color: [^,]+,?`)
	sizeStrip    = regexp.MustCompile(`(?i)Size: [^,]+,?`)
)

// extractColorAndSize pulls "Color: X" / "Size: Y" fragments out of a line
// note, returning the values and the note with the fragments removed.
func extractColorAndSize(lineNote string) (color, size, note string) {
	if m := colorPattern.FindStringSubmatch(lineNote); m != nil {
		color = strings.TrimSpace(m[1])
	}
	if m := sizePattern.FindStringSubmatch(lineNote); m != nil {
		size = strings.TrimSpace(m[1])
	}
	note = colorStrip.ReplaceAllString(lineNote, "")
	note = sizeStrip.ReplaceAllString(note, "")
	note = strings.TrimSpace(note)
	return color, size, note
}

// Parse reads a CSV export with a header row and produces orders grouped by
// order number, preserving first-seen order. Rows without an order number or
// product name are skipped. Every imported order starts pending.
func Parse(r io.Reader, columns ColumnMap) ([]models.Order, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // exports pad unevenly

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	field := func(record []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var orders []models.Order
	byID := make(map[string]int)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		orderID := field(record, columns.OrderID)
		if orderID == "" {
			continue
		}

		i, ok := byID[orderID]
		if !ok {
			createdAt := field(record, columns.CreatedDate)
			if createdAt == "" {
				createdAt = time.Now().UTC().Format(time.RFC3339)
			}
			orders = append(orders, models.Order{
				OrderID: orderID,
				Customer: models.Customer{
					Name:    field(record, columns.ShipName),
					Email:   field(record, columns.Email),
					Contact: field(record, columns.Contact),
					Address: models.Address{
						Street:  field(record, columns.Street),
						Street2: field(record, columns.Street2),
						City:    field(record, columns.City),
						State:   field(record, columns.State),
						Postal:  field(record, columns.Postal),
					},
				},
				ShipAttention: field(record, columns.Attention),
				Status:        models.StatusPending,
				CreatedAt:     createdAt,
			})
			i = len(orders) - 1
			byID[orderID] = i
		}

		productName := field(record, columns.ProductName)
		if productName == "" {
			continue
		}

		color, size, note := extractColorAndSize(field(record, columns.LineNote))

		quantity := 1
		if q, err := strconv.Atoi(field(record, columns.Quantity)); err == nil && q > 0 {
			quantity = q
		}

		itemID := field(record, columns.ItemSKU)
		if itemID == "" {
			itemID = productName
		}

		orders[i].Items = append(orders[i].Items, models.OrderItem{
			ID:       itemID,
			Name:     productName,
			SKU:      itemID,
			Quantity: quantity,
			Color:    color,
			Size:     size,
			LineNote: note,
		})
	}

	return orders, nil
}
