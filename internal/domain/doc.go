// Package domain models geolocated depth-sensor readings exported as CSV.
//
// # Data Source
//
// Readings come from sonar/depth loggers that dump one fix per line with no
// header row. Columns are positional:
//
//	latitude, longitude, depth, timestamp, temperature[, ...]
//
// Loggers append vendor-specific trailing columns on some firmware versions.
// Those are carried through untouched; only the first five positions have
// meaning here, and depth is always column index 2.
//
// # Logger Conventions
//
// Unset GPS fix:
//
//	Hardware writes 0.0 for latitude and/or longitude until the receiver has a
//	fix. A zero in either coordinate therefore marks the row as unusable, even
//	though 0.0 is a valid coordinate on the equator or prime meridian.
//
// Whitespace:
//
//	Cells are frequently padded ("  45.20 "). Every cell is trimmed before any
//	check and the trimmed text is what gets written back out.
//
// Timestamp and temperature:
//
//	Opaque text. Formats vary by device and are not interpreted.
//
// # Altitude Enrichment
//
// Depth is measured downward from the water surface at the entry point. Given
// the surface elevation above sea level (entered by the operator once per run),
// the altitude of each reading is:
//
//	altitude_asl = surface - depth
//
// The result is not clamped: the tool has no knowledge of sensor range limits.
// It is written with exactly two fractional digits. See [Enrich].
//
// # Rejections
//
// A row that fails validation is skipped, not reported as an error. Callers
// detect skips with errors.Is(err, [ErrRowRejected]) and can read the reason
// from [RejectError] for diagnostics.
package domain
