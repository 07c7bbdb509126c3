package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"

	"github.com/joshrakosky/fmg-pick/internal/models"
	"github.com/joshrakosky/fmg-pick/internal/orderstore"
)

type OrderHandler struct {
	Store        *orderstore.Store
	Templates    *TemplateCache
	SessionStore *sessions.CookieStore
}

// Index renders the picking dashboard: active orders on the left, the
// selected order's pick list on the right.
func (h *OrderHandler) Index(w http.ResponseWriter, r *http.Request) {
	orders := h.Store.Orders()

	var active []models.Order
	completedCount := 0
	for _, o := range orders {
		switch o.Status {
		case models.StatusCompleted:
			completedCount++
		default:
			active = append(active, o)
		}
	}

	var selected *models.Order
	if id := r.URL.Query().Get("selected"); id != "" {
		for i := range active {
			if active[i].OrderID == id {
				selected = &active[i]
				break
			}
		}
	}

	tmpl := h.Templates.Get("index.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	session, _ := h.SessionStore.Get(r, "picker-session")
	data := map[string]interface{}{
		"Active":         active,
		"Selected":       selected,
		"CompletedCount": completedCount,
		"CsrfField":      csrf.TemplateField(r),
		"Flashes":        GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}

// Select opens a pending order for picking.
func (h *OrderHandler) Select(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, "picker-session")
	defer session.Save(r, w)

	id := r.FormValue("id")
	err := h.Store.UpdateOrderStatus(id, models.StatusInProgress)
	switch {
	case errors.Is(err, orderstore.ErrNotFound):
		session.AddFlash(FlashMessage{Type: "error", Message: "Order not found. It may have been completed in another tab."})
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	case errors.Is(err, orderstore.ErrInvalidTransition):
		// Already being picked; just show it.
	case err != nil:
		slog.Error("Failed to open order for picking", "order_id", id, "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Could not save the order. Please try again."})
	}

	http.Redirect(w, r, "/?selected="+id, http.StatusSeeOther)
}

// Complete finishes picking an order.
func (h *OrderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, "picker-session")
	defer session.Save(r, w)

	id := r.FormValue("id")
	err := h.Store.UpdateOrderStatus(id, models.StatusCompleted)
	switch {
	case errors.Is(err, orderstore.ErrNotFound):
		session.AddFlash(FlashMessage{Type: "error", Message: "Order not found."})
	case errors.Is(err, orderstore.ErrInvalidTransition):
		session.AddFlash(FlashMessage{Type: "error", Message: "Order is already completed."})
	case err != nil:
		slog.Error("Failed to complete order", "order_id", id, "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Could not save the order. Please try again."})
	default:
		session.AddFlash(FlashMessage{Type: "success", Message: "Order " + id + " completed!"})
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Undo moves a completed order back to pending.
func (h *OrderHandler) Undo(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, "picker-session")
	defer session.Save(r, w)

	id := r.FormValue("id")
	err := h.Store.UpdateOrderStatus(id, models.StatusPending)
	switch {
	case errors.Is(err, orderstore.ErrNotFound):
		session.AddFlash(FlashMessage{Type: "error", Message: "Order not found."})
	case errors.Is(err, orderstore.ErrInvalidTransition):
		session.AddFlash(FlashMessage{Type: "error", Message: "Only completed orders can be reopened."})
	case err != nil:
		slog.Error("Failed to reopen order", "order_id", id, "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Could not save the order. Please try again."})
	default:
		session.AddFlash(FlashMessage{Type: "success", Message: "Order " + id + " moved back to pending."})
	}

	http.Redirect(w, r, "/completed", http.StatusSeeOther)
}

// CompleteAll force-completes every active order.
func (h *OrderHandler) CompleteAll(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, "picker-session")
	defer session.Save(r, w)

	completed := 0
	for _, o := range h.Store.Orders() {
		if o.Status == models.StatusCompleted {
			continue
		}
		if err := h.Store.UpdateOrderStatus(o.OrderID, models.StatusCompleted); err != nil {
			slog.Error("Failed to complete order during clear", "order_id", o.OrderID, "error", err)
			continue
		}
		completed++
	}

	if completed > 0 {
		session.AddFlash(FlashMessage{Type: "success", Message: "All active orders completed."})
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Completed renders the completed-orders drawer.
func (h *OrderHandler) Completed(w http.ResponseWriter, r *http.Request) {
	var completed []models.Order
	for _, o := range h.Store.Orders() {
		if o.Status == models.StatusCompleted {
			completed = append(completed, o)
		}
	}

	tmpl := h.Templates.Get("completed.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	session, _ := h.SessionStore.Get(r, "picker-session")
	data := map[string]interface{}{
		"Completed": completed,
		"CsrfField": csrf.TemplateField(r),
		"Flashes":   GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}

// Refresh is the manual refresh gesture: reload from the slot and notify.
func (h *OrderHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.Store.Refresh()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// APIOrders serves the current snapshot as JSON. Tab scripts poll it when
// the page becomes visible again, in case a broadcast was missed.
func (h *OrderHandler) APIOrders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(h.Store.Orders()); err != nil {
		slog.Error("Failed to encode orders", "error", err)
	}
}
