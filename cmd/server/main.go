package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-relay/internal/ai"
	"chat-relay/internal/auth"
	"chat-relay/internal/config"
	"chat-relay/internal/handlers"
	"chat-relay/internal/relay"
	"chat-relay/internal/store"
	"chat-relay/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize notification store
	notificationStore, err := newNotificationStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize notification store: %v", err)
	}
	defer notificationStore.Close()

	// Initialize services
	authService := auth.NewService(cfg.Auth.JWTSecret)

	var responder relay.Responder
	if cfg.AI.ServiceURL != "" {
		responder = ai.NewClient(cfg.AI.ServiceURL, cfg.AI.Timeout)
		logger.Info("AI responder enabled: %s", cfg.AI.ServiceURL)
	}

	// Initialize relay hub
	hub := relay.NewHub(notificationStore, responder)
	go hub.Run()

	// Initialize handlers
	wsHandlers := handlers.NewWebSocketHandlers(authService, hub, cfg)
	healthHandlers := handlers.NewHealthHandlers(hub)

	// Setup routes
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandlers.HandleWebSocket)
	mux.HandleFunc("/health", healthHandlers.HandleHealth)

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      corsMiddleware(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	logger.Info("🚀 Relay started on http://localhost%s", cfg.Server.Port)
	logger.Info("📡 WebSocket endpoint: ws://localhost%s/ws", cfg.Server.Port)
	logger.Info("🔗 Health endpoint: GET /health")

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("HTTP shutdown error: %v", err)
	}

	hub.Shutdown()
	select {
	case <-hub.Done():
	case <-time.After(cfg.Server.ShutdownTimeout):
		logger.Error("Timed out waiting for hub shutdown")
	}
}

func newNotificationStore(cfg *config.Config) (store.NotificationStore, error) {
	if cfg.Store.DatabaseURL != "" {
		return store.NewPostgresStore(cfg.Store.DatabaseURL)
	}
	logger.Info("No DATABASE_URL configured, notification read-state is in-memory only")
	return store.NewMemoryStore(), nil
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
