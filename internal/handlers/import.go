package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"

	"github.com/joshrakosky/fmg-pick/internal/csvimport"
	"github.com/joshrakosky/fmg-pick/internal/models"
	"github.com/joshrakosky/fmg-pick/internal/orderstore"
)

type ImportHandler struct {
	Store        *orderstore.Store
	Templates    *TemplateCache
	SessionStore *sessions.CookieStore
}

// Form renders the CSV upload form with the column mapping fields
// pre-filled from the default export layout.
func (h *ImportHandler) Form(w http.ResponseWriter, r *http.Request) {
	tmpl := h.Templates.Get("import.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	session, _ := h.SessionStore.Get(r, "picker-session")
	data := map[string]interface{}{
		"Columns":   csvimport.DefaultColumnMap(),
		"CsrfField": csrf.TemplateField(r),
		"Flashes":   GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}

// columnMapFromForm reads the user's column mapping, falling back to the
// default header names for fields left blank.
func columnMapFromForm(r *http.Request) csvimport.ColumnMap {
	columns := csvimport.DefaultColumnMap()
	override := func(dst *string, field string) {
		if v := r.FormValue(field); v != "" {
			*dst = v
		}
	}
	override(&columns.OrderID, "col_order_id")
	override(&columns.ProductName, "col_product_name")
	override(&columns.ItemSKU, "col_item_sku")
	override(&columns.Quantity, "col_quantity")
	override(&columns.LineNote, "col_line_note")
	override(&columns.ShipName, "col_ship_name")
	override(&columns.Email, "col_email")
	override(&columns.Contact, "col_contact")
	override(&columns.Street, "col_street")
	override(&columns.Street2, "col_street2")
	override(&columns.City, "col_city")
	override(&columns.State, "col_state")
	override(&columns.Postal, "col_postal")
	override(&columns.Attention, "col_attention")
	override(&columns.CreatedDate, "col_created_date")
	return columns
}

// Preview parses the upload and shows the resulting orders before anything
// is written. The parsed orders ride along in the confirm form so the file
// does not need a second upload.
func (h *ImportHandler) Preview(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, "picker-session")

	if err := r.ParseMultipartForm(10 << 20); err != nil { // 10MB
		session.AddFlash(FlashMessage{Type: "error", Message: "File too large. Max 10MB."})
		session.Save(r, w)
		http.Redirect(w, r, "/import", http.StatusSeeOther)
		return
	}

	file, _, err := r.FormFile("csv")
	if err != nil {
		session.AddFlash(FlashMessage{Type: "error", Message: "A CSV file is required."})
		session.Save(r, w)
		http.Redirect(w, r, "/import", http.StatusSeeOther)
		return
	}
	defer file.Close()

	orders, err := csvimport.Parse(file, columnMapFromForm(r))
	if err != nil {
		slog.Warn("CSV parse failed", "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Could not parse the CSV file: " + err.Error()})
		session.Save(r, w)
		http.Redirect(w, r, "/import", http.StatusSeeOther)
		return
	}

	valid := orders[:0]
	skipped := 0
	for _, o := range orders {
		if o.Validate() {
			valid = append(valid, o)
		} else {
			skipped++
		}
	}

	if len(valid) == 0 {
		session.AddFlash(FlashMessage{Type: "error", Message: "No importable orders found in the file."})
		session.Save(r, w)
		http.Redirect(w, r, "/import", http.StatusSeeOther)
		return
	}

	payload, err := json.Marshal(valid)
	if err != nil {
		http.Error(w, "Error preparing preview", http.StatusInternalServerError)
		return
	}

	tmpl := h.Templates.Get("import_preview.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	data := map[string]interface{}{
		"Orders":    valid,
		"Skipped":   skipped,
		"Payload":   base64.StdEncoding.EncodeToString(payload),
		"CsrfField": csrf.TemplateField(r),
		"Flashes":   GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}

// Confirm imports the previewed orders. Orders whose ID already exists in
// the collection are skipped and reported.
func (h *ImportHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, "picker-session")
	defer session.Save(r, w)

	payload, err := base64.StdEncoding.DecodeString(r.FormValue("payload"))
	if err != nil {
		session.AddFlash(FlashMessage{Type: "error", Message: "Import payload was corrupted. Please upload again."})
		http.Redirect(w, r, "/import", http.StatusSeeOther)
		return
	}

	var orders []models.Order
	if err := json.Unmarshal(payload, &orders); err != nil {
		session.AddFlash(FlashMessage{Type: "error", Message: "Import payload was corrupted. Please upload again."})
		http.Redirect(w, r, "/import", http.StatusSeeOther)
		return
	}

	imported, duplicates := 0, 0
	for _, o := range orders {
		err := h.Store.AddOrder(o)
		switch {
		case errors.Is(err, orderstore.ErrDuplicateID):
			duplicates++
		case err != nil:
			slog.Error("Failed to import order", "order_id", o.OrderID, "error", err)
			session.AddFlash(FlashMessage{Type: "error", Message: "Import stopped: could not save order " + o.OrderID + "."})
			http.Redirect(w, r, "/import", http.StatusSeeOther)
			return
		default:
			imported++
		}
	}

	msg := fmt.Sprintf("Imported %d orders.", imported)
	if duplicates > 0 {
		msg = fmt.Sprintf("Imported %d orders, skipped %d already in the system.", imported, duplicates)
	}
	session.AddFlash(FlashMessage{Type: "success", Message: msg})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
