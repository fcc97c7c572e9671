package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"chat-relay/internal/relay"
)

type HealthHandlers struct {
	hub     *relay.Hub
	started time.Time
}

func NewHealthHandlers(hub *relay.Hub) *HealthHandlers {
	return &HealthHandlers{hub: hub, started: time.Now()}
}

type healthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Connections   int    `json:"connections"`
	Rooms         int    `json:"rooms"`
}

// HandleHealth reports process liveness; it is not part of the relay
// protocol itself.
func (h *HealthHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessions, rooms := h.hub.Stats()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(healthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Connections:   sessions,
		Rooms:         rooms,
	})
}
