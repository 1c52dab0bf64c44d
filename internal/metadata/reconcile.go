// Package metadata merges geolocation data supplied as form fields with an
// optional embedded JSON payload under a defined precedence: form fields
// win, the embedded payload is the fallback.
package metadata

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/khacks/phototriage-go/internal/errors"
)

// ErrMissingCoordinates is returned when neither the form fields nor the
// embedded payload supply a usable latitude and longitude pair.
var ErrMissingCoordinates = errors.NewStd("missing latitude/longitude")

// FormFields holds the raw geolocation form values of an upload request.
// Empty strings mean the field was not supplied.
type FormFields struct {
	Latitude  string
	Longitude string
	Timestamp string
	Notes     string
}

// EmbeddedPayload is the parse result of the optional metadata file part.
// A payload that failed UTF-8 or JSON decoding is kept as Valid=false with
// no fields; a malformed payload never fails the upload on its own.
type EmbeddedPayload struct {
	Valid  bool
	Fields map[string]any
}

// ParseEmbedded decodes raw metadata bytes into an EmbeddedPayload. Nil or
// empty input, invalid UTF-8 and invalid JSON all produce an empty mapping.
func ParseEmbedded(raw []byte) EmbeddedPayload {
	if len(raw) == 0 {
		return EmbeddedPayload{}
	}
	if !utf8.Valid(raw) {
		return EmbeddedPayload{}
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return EmbeddedPayload{}
	}

	return EmbeddedPayload{Valid: true, Fields: fields}
}

// Reconciled is the canonical metadata tuple produced by reconciliation.
type Reconciled struct {
	Latitude  float64
	Longitude float64
	Timestamp string  // RFC 3339
	Notes     *string // nil when no notes were supplied
}

// Reconcile merges form fields with the embedded payload. Latitude and
// longitude must resolve from one of the two sources or the request is
// rejected; the timestamp falls back to the current wall-clock time and can
// never cause a failure. Notes are taken from the form only.
func Reconcile(form *FormFields, embedded EmbeddedPayload) (Reconciled, error) {
	lat, latOK := resolveCoordinate(form.Latitude, embedded, "latitude")
	lng, lngOK := resolveCoordinate(form.Longitude, embedded, "longitude")

	if !latOK || !lngOK {
		return Reconciled{}, errors.New(ErrMissingCoordinates).
			Component("metadata").
			Category(errors.CategoryValidation).
			Context("latitude_present", latOK).
			Context("longitude_present", lngOK).
			Build()
	}

	reconciled := Reconciled{
		Latitude:  lat,
		Longitude: lng,
		Timestamp: resolveTimestamp(form.Timestamp, embedded),
	}

	if form.Notes != "" {
		notes := form.Notes
		reconciled.Notes = &notes
	}

	return reconciled, nil
}

// resolveCoordinate applies the precedence rule for a single coordinate:
// form field first, embedded payload second.
func resolveCoordinate(formValue string, embedded EmbeddedPayload, key string) (float64, bool) {
	if v, ok := parseFinite(formValue); ok {
		return v, true
	}
	if v, ok := coordinateFromAny(embedded.Fields[key]); ok {
		return v, true
	}
	return 0, false
}

func resolveTimestamp(formValue string, embedded EmbeddedPayload) string {
	if formValue != "" {
		return formValue
	}
	if v, ok := embedded.Fields["timestamp"].(string); ok && v != "" {
		return v
	}
	return time.Now().Format(time.RFC3339)
}

// parseFinite parses a string as a finite float. NaN and infinities are
// rejected alongside unparseable input.
func parseFinite(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// coordinateFromAny accepts the JSON representations a coordinate may take
// in the embedded payload: a number or a numeric string.
func coordinateFromAny(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return 0, false
		}
		return val, true
	case string:
		return parseFinite(val)
	default:
		return 0, false
	}
}
