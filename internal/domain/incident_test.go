package domain

import (
	"encoding/json"
	"testing"

	"github.com/bissquit/firemap/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "09:00", want: 540},
		{in: "14:30", want: 870},
		{in: "23:59", want: 1439},
		{in: "7:05", want: 425},
		{in: "", wantErr: true},
		{in: "1430", wantErr: true},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "ab:cd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidClock)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIncident_Coordinates(t *testing.T) {
	var withCoords Incident
	withCoords.SetCoordinates(geo.LatLng{Lat: 41.5, Lng: 2.1})
	p, ok := withCoords.Coordinates()
	require.True(t, ok)
	assert.Equal(t, geo.LatLng{Lat: 41.5, Lng: 2.1}, p)

	_, ok = Incident{}.Coordinates()
	assert.False(t, ok)
}

func TestIncident_WireFormat(t *testing.T) {
	raw := `{"tipo":"forestal","ubicacion":"Carrer Major, Olot","hora":"10:05",
		"dotaciones":4,"fase":"Actiu","lat_lon":[42.18,2.49]}`

	var inc Incident
	require.NoError(t, json.Unmarshal([]byte(raw), &inc))
	assert.Equal(t, "forestal", inc.Type)
	assert.Equal(t, "Carrer Major, Olot", inc.Location)
	assert.Equal(t, 4, inc.CrewCount)
	assert.Equal(t, []float64{42.18, 2.49}, inc.LatLon)

	out, err := json.Marshal(Incident{Type: "urbà", Time: "08:00"})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "lat_lon")
}

func TestValidator(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		inc     Incident
		wantErr bool
	}{
		{name: "valid", inc: Incident{Time: "10:00", CrewCount: 3, LatLon: []float64{41, 2}}},
		{name: "no coordinates", inc: Incident{Time: "10:00"}},
		{name: "bad time", inc: Incident{Time: "late"}, wantErr: true},
		{name: "negative crew", inc: Incident{Time: "10:00", CrewCount: -1}, wantErr: true},
		{name: "three coordinates", inc: Incident{Time: "10:00", LatLon: []float64{1, 2, 3}}, wantErr: true},
		{name: "one coordinate", inc: Incident{Time: "10:00", LatLon: []float64{1}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.inc)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
