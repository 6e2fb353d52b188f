package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORSMiddleware_PreflightRequest(t *testing.T) {
	allowedOrigins := "http://192.168.1.20:3000,https://example.com"

	// Mock handler
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := CORSMiddleware(nextHandler, allowedOrigins)

	// Preflight request
	req := httptest.NewRequest("OPTIONS", "/test", nil)
	req.Header.Set("Origin", "http://192.168.1.20:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// Verify CORS headers
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://192.168.1.20:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestCORSMiddleware_ActualRequest(t *testing.T) {
	allowedOrigins := "http://192.168.1.20:3000"

	nextCalled := false
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("success"))
	})

	handler := CORSMiddleware(nextHandler, allowedOrigins)

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Origin", "http://192.168.1.20:3000")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.True(t, nextCalled)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://192.168.1.20:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "success", rec.Body.String())
}

func TestCORSMiddleware_MultipleOrigins(t *testing.T) {
	allowedOrigins := "http://192.168.1.20:3000,https://example.com,https://app.example.com"

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := CORSMiddleware(nextHandler, allowedOrigins)

	testCases := []struct {
		name   string
		origin string
		expect string
	}{
		{"first_origin", "http://192.168.1.20:3000", "http://192.168.1.20:3000"},
		{"second_origin", "https://example.com", "https://example.com"},
		{"third_origin", "https://app.example.com", "https://app.example.com"},
		{"unauthorized_origin", "https://evil.com", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			req.Header.Set("Origin", tc.origin)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if tc.expect != "" {
				assert.Equal(t, tc.expect, rec.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestCORSMiddleware_Wildcard(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := CORSMiddleware(nextHandler, "*")

	req := httptest.NewRequest("DELETE", "/api/session/s/file/f", nil)
	req.Header.Set("Origin", "http://192.168.1.20:3000")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
}
