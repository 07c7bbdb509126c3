package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"

	"github.com/joshrakosky/fmg-pick/internal/models"
	"github.com/joshrakosky/fmg-pick/internal/orderstore"
	"github.com/joshrakosky/fmg-pick/internal/storage"
	"github.com/joshrakosky/fmg-pick/internal/users"
)

type AdminHandler struct {
	Store        *orderstore.Store
	Users        *users.Store
	Slot         storage.Slot
	SessionStore *sessions.CookieStore
	Templates    *TemplateCache
}

func (h *AdminHandler) LoginGet(w http.ResponseWriter, r *http.Request) {
	tmpl := h.Templates.Get("login.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	session, _ := h.SessionStore.Get(r, "admin-session")
	data := map[string]interface{}{
		"CsrfField": csrf.TemplateField(r),
		"Flashes":   GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}

func (h *AdminHandler) LoginPost(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, "admin-session")

	username := r.FormValue("username")
	password := r.FormValue("password")

	ok, err := h.Users.Authenticate(username, password)
	if err != nil {
		slog.Error("Failed to check credentials", "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Internal Server Error"})
		session.Save(r, w)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if !ok {
		session.AddFlash(FlashMessage{Type: "error", Message: "Invalid username or password"})
		session.Save(r, w)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	// Set authenticated session
	session.Values["authenticated"] = true
	session.Values["username"] = username
	session.Options.Path = "/"
	session.AddFlash(FlashMessage{Type: "success", Message: "Welcome, " + username + "!"})

	if err := session.Save(r, w); err != nil {
		slog.Error("Failed to save session", "error", err)
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	slog.Info("Login successful, redirecting to /admin", "username", username)
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, "admin-session")
	session.Values["authenticated"] = false
	session.Options.MaxAge = -1 // Expire immediately
	session.Save(r, w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// AuthMiddleware ensures the operator is logged in
func (h *AdminHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := h.SessionStore.Get(r, "admin-session")
		if auth, ok := session.Values["authenticated"].(bool); !ok || !auth {
			session.AddFlash(FlashMessage{Type: "error", Message: "You must be logged in to access this page."})
			session.Save(r, w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// DashboardStats summarizes the collection for the admin view.
type DashboardStats struct {
	TotalOrders    int
	TotalUnits     int
	OrdersByStatus map[models.OrderStatus]int
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats := DashboardStats{
		OrdersByStatus: make(map[models.OrderStatus]int),
	}
	for _, o := range h.Store.Orders() {
		stats.TotalOrders++
		stats.TotalUnits += o.ItemCount()
		stats.OrdersByStatus[o.Status]++
	}

	tmpl := h.Templates.Get("admin.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	session, _ := h.SessionStore.Get(r, "admin-session")
	data := map[string]interface{}{
		"Stats":     stats,
		"CsrfField": csrf.TemplateField(r),
		"Flashes":   GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}

// ListOrders shows every order regardless of status.
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	tmpl := h.Templates.Get("admin_orders.html")
	if tmpl == nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	session, _ := h.SessionStore.Get(r, "admin-session")
	data := map[string]interface{}{
		"Orders":    h.Store.Orders(),
		"CsrfField": csrf.TemplateField(r),
		"Flashes":   GetFlash(session),
	}
	session.Save(r, w)
	tmpl.Execute(w, data)
}

// ClearOrders empties the collection and deletes the slot key.
func (h *AdminHandler) ClearOrders(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, "admin-session")
	defer session.Save(r, w)

	if err := h.Store.SetOrders(nil); err != nil {
		slog.Error("Failed to clear orders", "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Error clearing orders."})
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	if err := h.Slot.Delete(storage.OrdersKey); err != nil {
		slog.Warn("Failed to delete orders slot key", "error", err)
	}

	session.AddFlash(FlashMessage{Type: "success", Message: "All orders cleared."})
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// SeedOrders inserts the sample orders used for training and smoke tests.
func (h *AdminHandler) SeedOrders(w http.ResponseWriter, r *http.Request) {
	session, _ := h.SessionStore.Get(r, "admin-session")
	defer session.Save(r, w)

	if err := h.Store.SetOrders(SampleOrders()); err != nil {
		slog.Error("Failed to seed orders", "error", err)
		session.AddFlash(FlashMessage{Type: "error", Message: "Error seeding test orders."})
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}

	session.AddFlash(FlashMessage{Type: "success", Message: "Test orders loaded."})
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

// SampleOrders returns the two training orders.
func SampleOrders() []models.Order {
	now := time.Now().UTC().Format(time.RFC3339)
	return []models.Order{
		{
			OrderID: "TEST-001",
			Customer: models.Customer{
				Name:    "Test Customer 1",
				Email:   "test1@example.com",
				Contact: "Test Contact 1",
				Address: models.Address{
					Street: "123 Test St",
					City:   "Test City",
					State:  "TS",
					Postal: "12345",
				},
			},
			Items: []models.OrderItem{
				{ID: "SKU001", SKU: "SKU001", Name: "Test Product 1", Quantity: 2, LineNote: "Test note"},
				{ID: "SKU002", SKU: "SKU002", Name: "Test Product 2", Quantity: 1},
			},
			ShipAttention: "Test Attention",
			Status:        models.StatusPending,
			CreatedAt:     now,
		},
		{
			OrderID: "TEST-002",
			Customer: models.Customer{
				Name:    "Test Customer 2",
				Email:   "test2@example.com",
				Contact: "Test Contact 2",
				Address: models.Address{
					Street: "456 Test Ave",
					City:   "Test Town",
					State:  "TS",
					Postal: "67890",
				},
			},
			Items: []models.OrderItem{
				{ID: "SKU003", SKU: "SKU003", Name: "Test Product 3", Quantity: 3},
			},
			Status:    models.StatusPending,
			CreatedAt: now,
		},
	}
}
