package gateway

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/saransh1220/qrdrop/internal/gateway/middleware"
	realtime_http "github.com/saransh1220/qrdrop/internal/modules/realtime/interfaces/http"
	session_http "github.com/saransh1220/qrdrop/internal/modules/session/interfaces/http"
)

// RouterConfig holds all the handlers and middleware needed for routing
type RouterConfig struct {
	SessionHandler  *session_http.SessionHandler
	RealtimeHandler *realtime_http.RealtimeHandler
	AllowedOrigins  string
}

// SetupRoutes creates and configures all application routes
func SetupRoutes(config RouterConfig) *http.ServeMux {
	return newAppRouter(config).Mux()
}

func newAppRouter(config RouterConfig) *Router {
	router := NewRouter()

	// Health Check
	router.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus Metrics Endpoint
	router.Handle("GET /metrics", promhttp.Handler())

	// Session Routes
	router.HandleFunc("GET /api/server-info", config.SessionHandler.ServerInfo)
	router.HandleFunc("POST /api/session", config.SessionHandler.CreateSession)
	router.HandleFunc("GET /api/session/{sessionId}", config.SessionHandler.GetSession)
	router.HandleFunc("GET /api/session/{sessionId}/files", config.SessionHandler.ListFiles)
	router.HandleFunc("DELETE /api/session/{sessionId}/file/{fileId}", config.SessionHandler.DeleteFile)

	// Transfer Routes
	router.HandleFunc("POST /api/upload/{sessionId}", config.SessionHandler.Upload)
	router.HandleFunc("GET /api/download/{sessionId}/{fileId}", config.SessionHandler.Download)
	router.HandleFunc("GET /api/preview/{sessionId}/{fileId}", config.SessionHandler.Preview)
	router.HandleFunc("GET /api/thumbnail/{sessionId}/{fileId}", config.SessionHandler.Thumbnail)
	router.HandleFunc("GET /api/download-all/{sessionId}", config.SessionHandler.DownloadAll)

	// Realtime
	router.HandleFunc("GET /ws", config.RealtimeHandler.Subscribe)

	return router
}

// NewHandler wraps the routes with the shared middleware chain
func NewHandler(config RouterConfig) http.Handler {
	router := newAppRouter(config)
	router.Use(
		func(next http.Handler) http.Handler { return middleware.CORSMiddleware(next, config.AllowedOrigins) },
		middleware.PrometheusMiddleware,
	)
	return router.Handler()
}
