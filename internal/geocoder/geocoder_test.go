package geocoder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bissquit/firemap/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMunicipalityFromDisplayName(t *testing.T) {
	tests := []struct {
		name        string
		displayName string
		expected    string
	}{
		{"last meaningful part", "Carrer Major, Vic, Osona, Barcelona, Catalunya, España", "Barcelona"},
		{"skips postcodes", "Camí Ral, Tordera, 08490, Catalunya, España", "Tordera"},
		{"skips short parts", "Pista, Sort, PA, Catalunya", "Sort"},
		{"case insensitive regions", "Riba, Olot, CATALUNYA, ESPAÑA", "Olot"},
		{"nothing usable", "12, AB, Catalunya", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MunicipalityFromDisplayName(tt.displayName))
		})
	}
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", FirstNonEmpty("", "b", "c"))
	assert.Equal(t, "", FirstNonEmpty("", ""))
	assert.Equal(t, "", FirstNonEmpty())
}

func TestNoop(t *testing.T) {
	addr, err := Noop{}.Reverse(context.Background(), geo.LatLng{Lat: 1, Lng: 2})
	require.NoError(t, err)
	assert.True(t, addr.IsZero())
}

type countingGeocoder struct {
	calls int
	err   error
}

func (g *countingGeocoder) Reverse(context.Context, geo.LatLng) (Address, error) {
	g.calls++
	if g.err != nil {
		return Address{}, g.err
	}
	return Address{Street: "Rambla", Municipality: "Girona"}, nil
}

func TestCached_Reverse(t *testing.T) {
	next := &countingGeocoder{}
	c := NewCached(next, time.Hour)
	defer c.Stop()

	ctx := context.Background()
	p := geo.LatLng{Lat: 41.981234, Lng: 2.821234}

	first, err := c.Reverse(ctx, p)
	require.NoError(t, err)
	second, err := c.Reverse(ctx, geo.LatLng{Lat: 41.9812341, Lng: 2.8212339})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, 1, c.Len())

	_, err = c.Reverse(ctx, geo.LatLng{Lat: 41.5, Lng: 2.1})
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCached_DoesNotCacheErrors(t *testing.T) {
	next := &countingGeocoder{err: errors.New("boom")}
	c := NewCached(next, time.Hour)
	defer c.Stop()

	for range 2 {
		_, err := c.Reverse(context.Background(), geo.LatLng{Lat: 41, Lng: 2})
		require.Error(t, err)
	}
	assert.Equal(t, 2, next.calls)
	assert.Equal(t, 0, c.Len())
}

func TestCached_Expires(t *testing.T) {
	next := &countingGeocoder{}
	c := NewCached(next, 20*time.Millisecond)
	defer c.Stop()

	p := geo.LatLng{Lat: 41, Lng: 2}
	_, err := c.Reverse(context.Background(), p)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	_, err = c.Reverse(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}
