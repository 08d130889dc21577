// Package domain holds the incident model shared by the feed and the dashboard.
package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bissquit/firemap/internal/geo"
)

// ErrInvalidClock is returned when an incident time is not "HH:MM".
var ErrInvalidClock = errors.New("time must be HH:MM")

// Incident is one reported fire-brigade intervention as published on
// /api/get_incidents. JSON names follow the public feed.
type Incident struct {
	ID        int64     `json:"id,omitempty"`
	Type      string    `json:"tipo"`
	Location  string    `json:"ubicacion"`
	Time      string    `json:"hora" validate:"clock"`
	CrewCount int       `json:"dotaciones" validate:"gte=0"`
	Phase     string    `json:"fase"`
	LatLon    []float64 `json:"lat_lon,omitempty" validate:"omitempty,len=2"`
	Timestamp int64     `json:"timestamp,omitempty"`
}

// Coordinates returns the geocoded position, if the incident has one.
func (i Incident) Coordinates() (geo.LatLng, bool) {
	if len(i.LatLon) != 2 {
		return geo.LatLng{}, false
	}
	return geo.LatLng{Lat: i.LatLon[0], Lng: i.LatLon[1]}, true
}

// SetCoordinates stores p as the [lat, lon] pair.
func (i *Incident) SetCoordinates(p geo.LatLng) {
	i.LatLon = []float64{p.Lat, p.Lng}
}

// MinuteOfDay parses the incident time and returns hours*60+minutes.
func (i Incident) MinuteOfDay() (int, error) {
	return ParseClock(i.Time)
}

// ParseClock parses a same-day wall-clock time "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return h*60 + m, nil
}
