// Package arcgis queries the ArcGIS FeatureServer layer that publishes
// fire-brigade interventions.
package arcgis

import (
	"errors"
	"fmt"
	"strings"
)

// Layer field names.
const (
	FieldObjectID     = "ESRI_OID"
	FieldCrewCount    = "ACT_NUM_VEH"
	FieldPhase        = "COM_FASE"
	FieldTimestamp    = "ACT_DAT_ACTUACIO"
	FieldAlarm1       = "TAL_DESC_ALARMA1"
	FieldAlarm2       = "TAL_DESC_ALARMA2"
	FieldMunicipality = "MUN_NOM_MUNICIPI"
)

var (
	// ErrQueryRejected is returned when the layer answers with an error body.
	ErrQueryRejected = errors.New("arcgis rejected the query")
	// ErrUnexpectedStatus is returned for non-2xx responses that are not retried further.
	ErrUnexpectedStatus = errors.New("arcgis returned unexpected status")

	errInvalidQuery = errors.New("invalid query parameters")
)

// invalidQueryMessage marks rejections caused by a field the layer does not expose.
const invalidQueryMessage = "Invalid query parameters"

var (
	fieldsWithMunicipality = []string{
		FieldObjectID, FieldCrewCount, FieldPhase, FieldTimestamp,
		FieldAlarm1, FieldAlarm2, FieldMunicipality,
	}
	fieldsWithoutMunicipality = fieldsWithMunicipality[:len(fieldsWithMunicipality)-1]
)

// Attributes are the feature fields firemap reads. Nullable fields are pointers.
type Attributes struct {
	ObjectID     int64   `json:"ESRI_OID"`
	CrewCount    int     `json:"ACT_NUM_VEH"`
	Phase        *string `json:"COM_FASE"`
	Timestamp    *int64  `json:"ACT_DAT_ACTUACIO"`
	Alarm1       string  `json:"TAL_DESC_ALARMA1"`
	Alarm2       string  `json:"TAL_DESC_ALARMA2"`
	Municipality string  `json:"MUN_NOM_MUNICIPI"`
}

// Geometry is a point in the layer's spatial reference (EPSG:25831).
type Geometry struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

// Point returns easting and northing when both are present.
func (g *Geometry) Point() (x, y float64, ok bool) {
	if g == nil || g.X == nil || g.Y == nil {
		return 0, 0, false
	}
	return *g.X, *g.Y, true
}

// Feature is one queried record.
type Feature struct {
	Attributes Attributes `json:"attributes"`
	Geometry   *Geometry  `json:"geometry,omitempty"`

	// MunicipalityQueried is false when the layer rejected the municipality
	// field and the query was repeated without it.
	MunicipalityQueried bool `json:"-"`
}

// APIError is the error object ArcGIS returns with HTTP 200.
type APIError struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("%d %s (%s)", e.Code, e.Message, strings.Join(e.Details, "; "))
	}
	return fmt.Sprintf("%d %s", e.Code, e.Message)
}

func (e *APIError) invalidQuery() bool {
	return e.Code == 400 && strings.Contains(e.Message, invalidQueryMessage)
}

type queryResponse struct {
	Features []Feature `json:"features"`
	Error    *APIError `json:"error,omitempty"`
}
