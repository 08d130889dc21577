//go:build integration

package integration

import (
	"net/http"
	"strings"
	"testing"

	"github.com/bissquit/firemap/internal/archive"
	"github.com/bissquit/firemap/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type historyResponse struct {
	Data struct {
		Sightings []archive.Sighting `json:"sightings"`
		Limit     int                `json:"limit"`
	} `json:"data"`
}

func getHistory(t *testing.T, query string) historyResponse {
	t.Helper()
	client := newTestClient(t)

	resp, err := client.GET("/api/incidents/history" + query)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body historyResponse
	testutil.DecodeJSON(t, resp, &body)
	return body
}

func TestArchive_RecordsFeedBuilds(t *testing.T) {
	resetArchive(t)

	getFeed(t)

	history := getHistory(t, "")
	assert.Equal(t, archive.DefaultHistoryLimit, history.Data.Limit)
	require.Len(t, history.Data.Sightings, 2)

	ids := []int64{history.Data.Sightings[0].ObjectID, history.Data.Sightings[1].ObjectID}
	assert.ElementsMatch(t, []int64{101, 102}, ids)
}

func TestArchive_KeepsMaxCrewCount(t *testing.T) {
	resetArchive(t)

	getFeed(t)

	reduced := strings.Replace(defaultFeatures, `"ACT_NUM_VEH":5`, `"ACT_NUM_VEH":1`, 1)
	upstream.set(t, http.StatusOK, reduced, false)
	getFeed(t)

	history := getHistory(t, "?limit=10")
	var bruc *archive.Sighting
	for i := range history.Data.Sightings {
		if history.Data.Sightings[i].ObjectID == 101 {
			bruc = &history.Data.Sightings[i]
		}
	}
	require.NotNil(t, bruc)
	assert.Equal(t, 1, bruc.CrewCount)
	assert.Equal(t, 5, bruc.MaxCrewCount)
	assert.False(t, bruc.LastSeenAt.Before(bruc.FirstSeenAt))
	assert.Len(t, bruc.LatLon, 2)
}

func TestArchive_Limit(t *testing.T) {
	resetArchive(t)
	getFeed(t)

	history := getHistory(t, "?limit=1")
	assert.Equal(t, 1, history.Data.Limit)
	assert.Len(t, history.Data.Sightings, 1)
}

func TestArchive_InvalidLimit(t *testing.T) {
	client := newTestClient(t)

	for _, limit := range []string{"0", "501"} {
		resp, err := client.GET("/api/incidents/history?limit=" + limit)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "limit=%s", limit)
		_ = resp.Body.Close()
	}

	// Not an integer: outside the documented parameter schema.
	resp, err := newTestClientWithoutValidation().GET("/api/incidents/history?limit=abc")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}
