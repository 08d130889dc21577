package nominatim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bissquit/firemap/internal/geo"
	"github.com/bissquit/firemap/internal/geocoder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGeocoder(t *testing.T, url string) *Geocoder {
	t.Helper()
	g, err := New(Config{
		BaseURL:    url,
		UserAgent:  "firemap-test",
		Language:   "ca",
		Timeout:    5 * time.Second,
		RetryCount: 2,
		RetryWait:  time.Millisecond,
	})
	require.NoError(t, err)
	return g
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{UserAgent: "x"})
	assert.Error(t, err)

	_, err = New(Config{BaseURL: "https://nominatim.example"})
	assert.Error(t, err)
}

func TestGeocoder_Reverse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "firemap-test", r.Header.Get("User-Agent"))
		q := r.URL.Query()
		assert.Equal(t, "jsonv2", q.Get("format"))
		assert.Equal(t, "41.3851", q.Get("lat"))
		assert.Equal(t, "2.1734", q.Get("lon"))
		assert.Equal(t, "1", q.Get("addressdetails"))
		assert.Equal(t, "ca", q.Get("accept-language"))

		_, _ = w.Write([]byte(`{"display_name":"Carrer de Pau Claris, Barcelona, Catalunya, España",
			"address":{"road":"Carrer de Pau Claris","city":"Barcelona","state":"Catalunya"}}`))
	}))
	defer server.Close()

	addr, err := newTestGeocoder(t, server.URL).Reverse(context.Background(), geo.LatLng{Lat: 41.3851, Lng: 2.1734})
	require.NoError(t, err)
	assert.Equal(t, geocoder.Address{Street: "Carrer de Pau Claris", Municipality: "Barcelona"}, addr)
}

func TestAddressFrom(t *testing.T) {
	tests := []struct {
		name     string
		body     reverseResponse
		expected geocoder.Address
	}{
		{
			name:     "building and town",
			body:     reverseResponse{Address: map[string]string{"building": "Mercat", "town": "Vic"}},
			expected: geocoder.Address{Street: "Mercat", Municipality: "Vic"},
		},
		{
			name:     "amenity and village",
			body:     reverseResponse{Address: map[string]string{"amenity": "Escola", "village": "Rupit"}},
			expected: geocoder.Address{Street: "Escola", Municipality: "Rupit"},
		},
		{
			name:     "county only",
			body:     reverseResponse{Address: map[string]string{"county": "Osona"}},
			expected: geocoder.Address{Municipality: "Osona"},
		},
		{
			name: "municipality from display name",
			body: reverseResponse{
				DisplayName: "Camí de la Font, Les Planes, 08196, Catalunya, España",
				Address:     map[string]string{"road": "Camí de la Font"},
			},
			expected: geocoder.Address{Street: "Camí de la Font", Municipality: "Les Planes"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, addressFrom(tt.body))
		})
	}
}

func TestGeocoder_Reverse_Retries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"address":{"town":"Manresa"}}`))
	}))
	defer server.Close()

	addr, err := newTestGeocoder(t, server.URL).Reverse(context.Background(), geo.LatLng{Lat: 41.72, Lng: 1.82})
	require.NoError(t, err)
	assert.Equal(t, "Manresa", addr.Municipality)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGeocoder_Reverse_GivesUp(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestGeocoder(t, server.URL).Reverse(context.Background(), geo.LatLng{Lat: 41, Lng: 2})
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGeocoder_Reverse_NoResult(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
	}))
	defer server.Close()

	addr, err := newTestGeocoder(t, server.URL).Reverse(context.Background(), geo.LatLng{Lat: 40, Lng: 4})
	require.NoError(t, err)
	assert.True(t, addr.IsZero())
	assert.Equal(t, int32(1), calls.Load())
}
