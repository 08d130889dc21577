//go:build integration

package integration

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// Madrid wall clock: 12:00 and 11:00 on 2024-06-01.
const (
	noonMillis   = int64(1717236000000)
	elevenMillis = int64(1717232400000)
)

const defaultFeatures = `{"features":[
	{"attributes":{"ESRI_OID":101,"ACT_NUM_VEH":5,"COM_FASE":"Actiu","ACT_DAT_ACTUACIO":1717232400000,
		"TAL_DESC_ALARMA1":"Incendi","TAL_DESC_ALARMA2":"Vegetació","MUN_NOM_MUNICIPI":"El Bruc"},
	 "geometry":{"x":396000,"y":4600000}},
	{"attributes":{"ESRI_OID":102,"ACT_NUM_VEH":2,"COM_FASE":"Controlat","ACT_DAT_ACTUACIO":1717236000000,
		"TAL_DESC_ALARMA1":"Incendi","TAL_DESC_ALARMA2":"Urbà","MUN_NOM_MUNICIPI":"Vic"}},
	{"attributes":{"ESRI_OID":103,"ACT_NUM_VEH":0,"COM_FASE":"Actiu","ACT_DAT_ACTUACIO":1717236000000,
		"TAL_DESC_ALARMA1":"Incendi","TAL_DESC_ALARMA2":"Agrícola","MUN_NOM_MUNICIPI":"Lleida"},
	 "geometry":{"x":300000,"y":4610000}}
]}`

// fakeArcGIS serves a configurable FeatureServer query response.
type fakeArcGIS struct {
	mu                 sync.Mutex
	body               string
	status             int
	rejectMunicipality bool
	queries            []string
}

func newFakeArcGIS() *fakeArcGIS {
	return &fakeArcGIS{body: defaultFeatures, status: http.StatusOK}
}

func (f *fakeArcGIS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	outFields := r.URL.Query().Get("outFields")
	f.queries = append(f.queries, outFields)

	if f.rejectMunicipality && strings.Contains(outFields, "MUN_NOM_MUNICIPI") {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"Invalid query parameters","details":[]}}`))
		return
	}

	w.WriteHeader(f.status)
	if f.status == http.StatusOK {
		_, _ = w.Write([]byte(f.body))
	}
}

// set replaces the upstream behaviour for the duration of the test.
func (f *fakeArcGIS) set(t *testing.T, status int, body string, rejectMunicipality bool) {
	t.Helper()
	f.mu.Lock()
	f.status, f.body, f.rejectMunicipality, f.queries = status, body, rejectMunicipality, nil
	f.mu.Unlock()

	t.Cleanup(func() {
		f.mu.Lock()
		f.status, f.body, f.rejectMunicipality, f.queries = http.StatusOK, defaultFeatures, false, nil
		f.mu.Unlock()
	})
}

func (f *fakeArcGIS) seenQueries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

// resetArchive empties the sightings table.
func resetArchive(t *testing.T) {
	t.Helper()
	_, err := testDB.Exec(context.Background(), "TRUNCATE incident_sightings")
	require.NoError(t, err)
}
