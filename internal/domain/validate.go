package domain

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var errHexNumber = errors.New("hexadecimal numbers are not accepted")

// parseNumber parses a decimal float. Hexadecimal forms such as 0x1p1 are
// refused; inf and nan are accepted in any case.
func parseNumber(s string) (float64, error) {
	digits := strings.TrimLeft(s, "+-")
	if len(digits) >= 2 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, errHexNumber
	}
	return strconv.ParseFloat(s, 64)
}

// formatNonFinite renders NaN and infinities as nan, inf and -inf.
func formatNonFinite(v float64) (string, bool) {
	switch {
	case math.IsNaN(v):
		return "nan", true
	case math.IsInf(v, 1):
		return "inf", true
	case math.IsInf(v, -1):
		return "-inf", true
	}
	return "", false
}

// TrimFields returns a copy of row with surrounding whitespace removed from every cell.
func TrimFields(row RawRow) []string {
	out := make([]string, len(row))
	for i, cell := range row {
		out[i] = strings.TrimSpace(cell)
	}
	return out
}

// ValidateRow decides whether a raw CSV row is a usable coordinate record.
// Cells are trimmed first. The row is rejected when it has fewer than
// MinFields columns, when latitude or longitude is not a number, or when
// either coordinate is exactly zero (an unset GPS fix). Trailing columns past
// the fifth are kept. Depth is not checked here; see Enrich.
func ValidateRow(row RawRow) (Record, error) {
	fields := TrimFields(row)
	if len(fields) < MinFields {
		return Record{}, &RejectError{Reason: ReasonTooFewFields}
	}

	lat, err := parseNumber(fields[colLatitude])
	if err != nil {
		return Record{}, &RejectError{Reason: ReasonInvalidCoord, Field: "latitude", Value: fields[colLatitude]}
	}
	lon, err := parseNumber(fields[colLongitude])
	if err != nil {
		return Record{}, &RejectError{Reason: ReasonInvalidCoord, Field: "longitude", Value: fields[colLongitude]}
	}

	if lat == 0 {
		return Record{}, &RejectError{Reason: ReasonZeroCoord, Field: "latitude", Value: fields[colLatitude]}
	}
	if lon == 0 {
		return Record{}, &RejectError{Reason: ReasonZeroCoord, Field: "longitude", Value: fields[colLongitude]}
	}

	return Record{
		Latitude:    lat,
		Longitude:   lon,
		Depth:       fields[colDepth],
		Timestamp:   fields[colTimestamp],
		Temperature: fields[colTemperature],
		Extra:       fields[MinFields:],
		fields:      fields,
	}, nil
}
