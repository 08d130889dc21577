package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, feed *fakeFeed) (http.Handler, *Controller) {
	t.Helper()

	c := newTestController(t, feed, ControllerConfig{Timeout: 5 * time.Second})
	renderer, err := NewRenderer()
	require.NoError(t, err)

	hub := NewHub([]string{"*"})
	t.Cleanup(hub.Close)

	r := chi.NewRouter()
	NewHandler(c, renderer, hub).RegisterRoutes(r)
	return r, c
}

func TestHandler_Page(t *testing.T) {
	feed := &fakeFeed{status: http.StatusOK, body: twoIncidents}
	router, _ := newTestRouter(t, feed)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, `<div id="incidents-list">`)
	assert.Contains(t, body, "🔥 URBÀ")
	assert.Contains(t, body, `"kind":"marker"`)
	assert.Equal(t, int32(1), feed.requests.Load())
}

func TestHandler_PageReconnectsWebsocket(t *testing.T) {
	feed := &fakeFeed{status: http.StatusOK, body: twoIncidents}
	router, _ := newTestRouter(t, feed)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "ws.onclose")
	assert.Contains(t, body, "setTimeout(connect, retry)")
	assert.Contains(t, body, `fetch("/api/dashboard"`)
}

func TestHandler_PageOnFeedFailure(t *testing.T) {
	feed := &fakeFeed{status: http.StatusBadGateway, body: "bad gateway"}
	router, _ := newTestRouter(t, feed)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "HTTP error! status: 502")
}

func TestHandler_SnapshotDoesNotRefresh(t *testing.T) {
	feed := &fakeFeed{status: http.StatusOK, body: twoIncidents}
	router, _ := newTestRouter(t, feed)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(0), feed.requests.Load())

	var resp struct {
		Data Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Nil(t, resp.Data.RefreshedAt)
}

func TestHandler_Refresh(t *testing.T) {
	feed := &fakeFeed{status: http.StatusOK, body: `{"incidents":[]}`}
	router, _ := newTestRouter(t, feed)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/dashboard/refresh", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data RefreshResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, OutcomeEmpty, resp.Data.Result.Outcome)
	assert.Equal(t, NoIncidentsMessage, resp.Data.State.Message)
	assert.NotNil(t, resp.Data.RefreshedAt)
}
