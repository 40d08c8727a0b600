package domain

import "strconv"

// Positional column indexes in a raw sensor row.
const (
	colLatitude = iota
	colLongitude
	colDepth
	colTimestamp
	colTemperature

	// MinFields is the number of positional columns a row must supply.
	MinFields
)

// AltitudeColumn is the name of the derived column appended in enrichment mode.
const AltitudeColumn = "altitude_asl"

var (
	// BasicHeader is the output header when enrichment is disabled.
	BasicHeader = []string{"latitude", "longitude", "depth", "timestamp", "temperature"}

	// EnrichedHeader is the output header when altitude enrichment is enabled.
	EnrichedHeader = append(append([]string(nil), BasicHeader...), AltitudeColumn)
)

// RawRow is the ordered text of one CSV line before any validation.
type RawRow []string

// Record is a validated sensor reading. Coordinates are parsed; the remaining
// columns keep their trimmed source text so output matches input byte for byte.
type Record struct {
	Latitude    float64
	Longitude   float64
	Depth       string
	Timestamp   string
	Temperature string
	Extra       []string // trailing vendor columns beyond the fifth

	// AltitudeASL is set by Enrich; nil on records that were not enriched.
	AltitudeASL *float64

	fields []string
}

// Fields returns the output row: the trimmed source columns followed by the
// formatted altitude when the record has been enriched.
func (r Record) Fields() []string {
	n := len(r.fields)
	out := make([]string, n, n+1)
	copy(out, r.fields)
	if r.AltitudeASL != nil {
		out = append(out, FormatAltitude(*r.AltitudeASL))
	}
	return out
}

// Enriched reports whether an altitude has been derived for the record.
func (r Record) Enriched() bool {
	return r.AltitudeASL != nil
}

// FormatAltitude renders an altitude with exactly two fractional digits.
// Non-finite values are written as nan, inf or -inf.
func FormatAltitude(v float64) string {
	if s, ok := formatNonFinite(v); ok {
		return s
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// SurfaceReference is the known surface elevation above sea level at the
// sensor's entry point, in meters. The zero value means sea level.
type SurfaceReference struct {
	Meters float64
}
