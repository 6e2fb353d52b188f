package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRouter(t *testing.T) {
	router := NewRouter()

	assert.NotNil(t, router)
	assert.NotNil(t, router.Mux())
}

func TestRouter_HandleAndHandleFunc(t *testing.T) {
	router := NewRouter()

	router.Handle("GET /healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	router.HandleFunc("GET /api/session/{sessionId}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.PathValue("sessionId")))
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.Mux().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/session/abc", nil)
	w = httptest.NewRecorder()
	router.Mux().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", w.Body.String())
}

func TestRouter_HandlerAppliesMiddlewareInOrder(t *testing.T) {
	router := NewRouter()
	router.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("handler"))
	})

	var order []string
	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	router.Use(tag("outer"), tag("inner"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.Handler().ServeHTTP(w, req)
	assert.Equal(t, "handler", w.Body.String())
	assert.Equal(t, []string{"outer", "inner"}, order)

	order = nil
	w = httptest.NewRecorder()
	router.Mux().ServeHTTP(w, req)
	assert.Empty(t, order)
}
