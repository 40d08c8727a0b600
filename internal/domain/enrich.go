package domain

import (
	"fmt"
	"strings"
)

// Enrich derives the altitude above sea level of a validated record as
// surface minus depth. A depth that is not a number rejects the row with
// ReasonInvalidDepth. The input record is left unchanged; a copy carrying
// AltitudeASL is returned.
func Enrich(rec Record, surface SurfaceReference) (Record, error) {
	depth, err := parseNumber(rec.Depth)
	if err != nil {
		return Record{}, &RejectError{Reason: ReasonInvalidDepth, Field: "depth", Value: rec.Depth}
	}

	alt := surface.Meters - depth
	rec.AltitudeASL = &alt
	return rec, nil
}

// ParseSurfaceReference reads the operator-entered surface altitude. Either
// '.' or ',' is accepted as the decimal separator and blank input means 0.
func ParseSurfaceReference(text string) (SurfaceReference, error) {
	s := strings.TrimSpace(strings.ReplaceAll(text, ",", "."))
	if s == "" {
		return SurfaceReference{}, nil
	}

	v, err := parseNumber(s)
	if err != nil {
		return SurfaceReference{}, fmt.Errorf("%w: %q", ErrInvalidSurfaceAltitude, text)
	}
	return SurfaceReference{Meters: v}, nil
}
