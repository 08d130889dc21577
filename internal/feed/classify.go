package feed

import (
	"strings"

	"github.com/bissquit/firemap/internal/arcgis"
)

// Incident types.
const (
	TypeUrban        = "urbà"
	TypeAgricultural = "agrícola"
	TypeForest       = "forestal"
)

// Location placeholders.
const (
	UnknownLocation = "ubicació desconeguda"
	UnknownPhase    = "Desconeguda"
)

// Classify derives the incident type from the two alarm descriptions.
// Anything unrecognised counts as urban.
func Classify(a arcgis.Attributes) string {
	d := strings.ToLower(a.Alarm1 + " " + a.Alarm2)
	switch {
	case strings.Contains(d, "urbà"), strings.Contains(d, "urbana"):
		return TypeUrban
	case strings.Contains(d, "agrí"):
		return TypeAgricultural
	case strings.Contains(d, "forestal"), strings.Contains(d, "vegetació"):
		return TypeForest
	default:
		return TypeUrban
	}
}

// FormatLocation joins street and municipality, falling back to the
// unknown placeholder when neither is known.
func FormatLocation(street, municipality string) string {
	switch {
	case street != "" && municipality != "":
		return street + ", " + municipality
	case municipality != "":
		return municipality
	case street != "":
		return street
	default:
		return UnknownLocation
	}
}
