package http

import (
	"net/http"

	"github.com/saransh1220/qrdrop/internal/modules/realtime/infrastructure/websocket"
)

type RealtimeHandler struct {
	hub *websocket.Hub
}

func NewRealtimeHandler(hub *websocket.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// Subscribe upgrades to a websocket. Rooms are joined afterwards with join-session frames.
func (h *RealtimeHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, w, r)
}
