package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{name: "ok", status: http.StatusOK, wantLevel: "level=INFO"},
		{name: "client error", status: http.StatusNotFound, wantLevel: "level=WARN"},
		{name: "server error", status: http.StatusServiceUnavailable, wantLevel: "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := newTestLogger()
			handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("hello"))
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/main?access_token=secret", nil)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			out := logs.String()
			assert.Contains(t, out, tt.wantLevel)
			assert.Contains(t, out, "path=/api/v1/documents/main")
			assert.Contains(t, out, "bytes_written=5")
			assert.NotContains(t, out, "secret")
		})
	}
}

func TestLoggingWithSkip(t *testing.T) {
	logger, logs := newTestLogger()
	handler := LoggingWithSkip(logger, []string{"/api/v1/health"})(http.HandlerFunc(okHandler))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Empty(t, logs.String())

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/other", nil))
	assert.Contains(t, logs.String(), "path=/other")
}

func TestResponseWriter_HijackUnsupported(t *testing.T) {
	rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}

	_, _, err := rw.Hijack()
	assert.Error(t, err)
	assert.False(t, rw.hijacked)
	assert.NotNil(t, rw.Unwrap())
}
