package realtime

import (
	"github.com/saransh1220/qrdrop/internal/modules/realtime/infrastructure/websocket"
	realtime_http "github.com/saransh1220/qrdrop/internal/modules/realtime/interfaces/http"
)

type Module struct {
	handler *realtime_http.RealtimeHandler
	hub     *websocket.Hub
}

// NewModule starts the hub loop. sessionExists, when non-nil, rejects joins for unknown sessions.
func NewModule(sessionExists func(string) bool) *Module {
	var opts []websocket.Option
	if sessionExists != nil {
		opts = append(opts, websocket.WithJoinFilter(sessionExists))
	}
	hub := websocket.NewHub(opts...)
	go hub.Run()

	return &Module{
		handler: realtime_http.NewRealtimeHandler(hub),
		hub:     hub,
	}
}

func (m *Module) HTTPHandler() *realtime_http.RealtimeHandler {
	return m.handler
}

func (m *Module) Hub() *websocket.Hub {
	return m.hub
}

// Stop terminates the hub loop and closes every client
func (m *Module) Stop() {
	m.hub.Stop()
}
