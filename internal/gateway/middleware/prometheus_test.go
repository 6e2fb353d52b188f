package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusMiddleware_RecordsMetrics(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	handler := PrometheusMiddleware(nextHandler)

	req := httptest.NewRequest("GET", "/test", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPrometheusMiddleware_LabelsByPattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/session/{sessionId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	handler := PrometheusMiddleware(mux)

	counter := httpRequestsTotal.WithLabelValues("GET", "GET /api/session/{sessionId}", "404")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/session/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.Equal(t, before+3, testutil.ToFloat64(counter))
}

func TestPrometheusMiddleware_DifferentStatusCodes(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
	}{
		{"success_200", http.StatusOK},
		{"bad_request_400", http.StatusBadRequest},
		{"not_found_404", http.StatusNotFound},
		{"too_large_413", http.StatusRequestEntityTooLarge},
		{"unsupported_415", http.StatusUnsupportedMediaType},
		{"server_error_500", http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
			})

			handler := PrometheusMiddleware(nextHandler)

			req := httptest.NewRequest("GET", "/api/endpoint", nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tc.statusCode, rec.Code)
		})
	}
}

func TestResponseWriter_FlushAndHijack(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, status: http.StatusOK}

	rw.Write([]byte("x"))
	rw.Flush()
	assert.True(t, rec.Flushed)
	assert.Equal(t, rec, rw.Unwrap())

	_, _, err := rw.Hijack()
	assert.Error(t, err)
}
