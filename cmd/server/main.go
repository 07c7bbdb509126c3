package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/csrf"
	"github.com/gorilla/sessions"

	"github.com/joshrakosky/fmg-pick/internal/broadcast"
	"github.com/joshrakosky/fmg-pick/internal/config"
	"github.com/joshrakosky/fmg-pick/internal/handlers"
	"github.com/joshrakosky/fmg-pick/internal/orderstore"
	"github.com/joshrakosky/fmg-pick/internal/storage"
	"github.com/joshrakosky/fmg-pick/internal/storage/bboltslot"
	"github.com/joshrakosky/fmg-pick/internal/storage/sqliteslot"
	"github.com/joshrakosky/fmg-pick/internal/users"
)

func openSlot(cfg *config.Config) (storage.Slot, error) {
	if cfg.StoreDriver == "sqlite" {
		return sqliteslot.Open(cfg.DataPath)
	}
	return bboltslot.Open(cfg.DataPath)
}

func main() {
	// Configure slog to output DEBUG level messages
	// This should be done as early as possible in main
	handlerOpts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	// Using TextHandler for console readability; for production JSONHandler might be preferred.
	logger := slog.New(slog.NewTextHandler(os.Stdout, handlerOpts))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// 2. Open the persistent slot and build the order store
	slot, err := openSlot(cfg)
	if err != nil {
		slog.Error("Failed to open storage", "error", err, "path", cfg.DataPath)
		os.Exit(1)
	}
	defer slot.Close()

	bus := broadcast.NewBus()

	store, err := orderstore.New(slot, bus, logger)
	if err != nil {
		slog.Error("Failed to initialize order store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	userStore := users.NewStore(slot)

	// 3. Session Setup
	sessionStore := sessions.NewCookieStore(cfg.SessionKey)
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.Secure = cfg.CookieSecure // Configurable for production
	sessionStore.Options.SameSite = http.SameSiteLaxMode
	sessionStore.Options.Path = "/"
	if cfg.CookieDomain != "" {
		sessionStore.Options.Domain = cfg.CookieDomain
	}

	// 4. Init Templates
	templates := handlers.NewTemplateCache()
	if err := templates.Load("templates"); err != nil {
		slog.Error("Failed to load templates", "error", err)
		os.Exit(1)
	}

	// 5. Setup Handlers
	orderHandler := &handlers.OrderHandler{
		Store:        store,
		Templates:    templates,
		SessionStore: sessionStore,
	}
	importHandler := &handlers.ImportHandler{
		Store:        store,
		Templates:    templates,
		SessionStore: sessionStore,
	}
	adminHandler := &handlers.AdminHandler{
		Store:        store,
		Users:        userStore,
		Slot:         slot,
		SessionStore: sessionStore,
		Templates:    templates,
	}
	eventsHandler, err := handlers.NewEventsHandler(bus)
	if err != nil {
		slog.Error("Failed to start events bridge", "error", err)
		os.Exit(1)
	}
	defer eventsHandler.Close()

	mux := http.NewServeMux()

	// Static Files
	fileServer := http.FileServer(http.Dir("./static"))
	mux.Handle("/static/", http.StripPrefix("/static", fileServer))

	// Rate limiter for login attempts and CSV uploads
	rateLimiter := handlers.NewRateLimiter(5 * time.Second)

	// Picking UI
	mux.HandleFunc("/", orderHandler.Index)
	mux.HandleFunc("GET /completed", orderHandler.Completed)
	mux.HandleFunc("POST /orders/select", orderHandler.Select)
	mux.HandleFunc("POST /orders/complete", orderHandler.Complete)
	mux.HandleFunc("POST /orders/undo", orderHandler.Undo)
	mux.HandleFunc("POST /orders/complete-all", orderHandler.CompleteAll)
	mux.HandleFunc("POST /refresh", orderHandler.Refresh)

	// CSV Import
	mux.HandleFunc("GET /import", importHandler.Form)
	mux.HandleFunc("POST /import/preview", rateLimiter.Middleware(importHandler.Preview))
	mux.HandleFunc("POST /import/confirm", importHandler.Confirm)

	// Tab synchronization
	mux.HandleFunc("GET /api/orders", orderHandler.APIOrders)
	mux.Handle("GET /events", eventsHandler)

	// Auth
	mux.HandleFunc("GET /login", adminHandler.LoginGet)
	mux.HandleFunc("POST /login", rateLimiter.Middleware(adminHandler.LoginPost))
	mux.HandleFunc("GET /logout", adminHandler.Logout)

	// Protected admin routes
	mux.HandleFunc("GET /admin", adminHandler.AuthMiddleware(adminHandler.Dashboard))
	mux.HandleFunc("GET /admin/orders", adminHandler.AuthMiddleware(adminHandler.ListOrders))
	mux.HandleFunc("POST /admin/orders/clear", adminHandler.AuthMiddleware(adminHandler.ClearOrders))
	mux.HandleFunc("POST /admin/orders/seed", adminHandler.AuthMiddleware(adminHandler.SeedOrders))

	// 6. Middleware Setup
	CSRF := csrf.Protect(
		cfg.CSRFKey,
		csrf.Secure(cfg.CookieSecure), // Configurable for production
		csrf.TrustedOrigins([]string{"localhost:" + cfg.Port, "127.0.0.1:" + cfg.Port, "localhost", "127.0.0.1"}),
	)

	// Chain: Logger -> Security Headers -> CSRF -> Mux
	handler := handlers.LoggingMiddleware(
		handlers.SecurityHeadersMiddleware(
			CSRF(mux),
		),
	)

	// 7. Start Server with Graceful Shutdown
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("Server starting", "port", cfg.Port, "driver", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to listen and serve", "error", err)
			os.Exit(1)
		}
	}()

	<-stop

	slog.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited gracefully.")
}
