package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"medminion/pkg/metrics"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func TestRateLimitMiddleware(t *testing.T) {
	m := NewRateLimitMiddleware(newTestLogger(), 0.001, 1)
	h := m.Handle(http.HandlerFunc(okHandler))

	call := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodGet, "/fetch_departments", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:5000"))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:5001"))
	assert.Equal(t, http.StatusNoContent, call("10.0.0.2:5000"))
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	m := NewRateLimitMiddleware(newTestLogger(), 0, 0)
	h := m.Handle(http.HandlerFunc(okHandler))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientIP(req))
}

func TestLoggingMiddleware_RecordsRouteTemplate(t *testing.T) {
	m := metrics.New()
	router := mux.NewRouter()
	router.HandleFunc("/api/v1/appointments/{id}", okHandler).Methods(http.MethodGet)
	router.Use(NewLoggingMiddleware(newTestLogger(), m).Handle)

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/appointments/"+id, nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	}

	// both requests share one series labelled by the route template
	series, err := testutil.GatherAndCount(m.Registry(), "medminion_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, series)
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		method     string
		origin     string
		wantStatus int
		wantOrigin string
	}{
		{name: "preflight any origin", method: http.MethodOptions, origin: "https://chat.example", wantStatus: http.StatusOK, wantOrigin: "*"},
		{name: "wildcard list", allowed: []string{"*"}, method: http.MethodGet, wantStatus: http.StatusNoContent, wantOrigin: "*"},
		{name: "listed origin echoed", allowed: []string{"https://chat.example"}, method: http.MethodOptions, origin: "https://chat.example", wantStatus: http.StatusOK, wantOrigin: "https://chat.example"},
		{name: "unlisted preflight refused", allowed: []string{"https://chat.example"}, method: http.MethodOptions, origin: "https://evil.example", wantStatus: http.StatusForbidden},
		{name: "unlisted simple request passes without headers", allowed: []string{"https://chat.example"}, method: http.MethodGet, origin: "https://evil.example", wantStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCORSMiddleware(tt.allowed...).Handle(http.HandlerFunc(okHandler))

			req := httptest.NewRequest(tt.method, "/book_appointment", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
