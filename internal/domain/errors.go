package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRowRejected matches every row-level rejection. A rejected row is
	// skipped; it never aborts a run.
	ErrRowRejected = errors.New("row rejected")

	// ErrInvalidSurfaceAltitude is returned when non-blank surface altitude
	// text is not a number.
	ErrInvalidSurfaceAltitude = errors.New("invalid surface altitude")
)

// RejectReason classifies why a row was skipped.
type RejectReason string

const (
	ReasonTooFewFields RejectReason = "too_few_fields"
	ReasonInvalidCoord RejectReason = "invalid_coordinate"
	ReasonZeroCoord    RejectReason = "zero_coordinate"
	ReasonInvalidDepth RejectReason = "invalid_depth"
)

// RejectReasons lists every reason in a stable order for reporting.
var RejectReasons = []RejectReason{
	ReasonTooFewFields,
	ReasonInvalidCoord,
	ReasonZeroCoord,
	ReasonInvalidDepth,
}

// RejectError describes a skipped row.
type RejectError struct {
	Reason RejectReason
	Field  string // column name, empty for structural rejections
	Value  string
}

func (e *RejectError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s %q", e.Reason, e.Field, e.Value)
	}
	return string(e.Reason)
}

// Is makes every RejectError match ErrRowRejected.
func (e *RejectError) Is(target error) bool {
	return target == ErrRowRejected
}

// ReasonOf extracts the rejection reason from err, or "" if err is not a rejection.
func ReasonOf(err error) RejectReason {
	var re *RejectError
	if errors.As(err, &re) {
		return re.Reason
	}
	return ""
}
