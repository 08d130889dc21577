package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORSMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		allowed    []string
		origin     string
		method     string
		wantOrigin string
		wantCreds  string
		wantStatus int
	}{
		{
			name:       "wildcard",
			allowed:    []string{"*"},
			origin:     "https://example.com",
			method:     http.MethodGet,
			wantOrigin: "*",
			wantStatus: http.StatusOK,
		},
		{
			name:       "listed origin",
			allowed:    []string{"https://dash.example.com"},
			origin:     "https://dash.example.com",
			method:     http.MethodGet,
			wantOrigin: "https://dash.example.com",
			wantCreds:  "true",
			wantStatus: http.StatusOK,
		},
		{
			name:       "unlisted origin",
			allowed:    []string{"https://dash.example.com"},
			origin:     "https://evil.example.com",
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
		},
		{
			name:       "preflight",
			allowed:    []string{"*"},
			origin:     "https://example.com",
			method:     http.MethodOptions,
			wantOrigin: "*",
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/get_incidents", nil)
			req.Header.Set("Origin", tt.origin)
			rr := httptest.NewRecorder()

			CORSMiddleware(tt.allowed)(ok).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantCreds, rr.Header().Get("Access-Control-Allow-Credentials"))
		})
	}
}
