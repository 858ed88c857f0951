package errors

import (
	"errors"
	"fmt"
)

// Anomaly classifies the non-fatal conditions the pipeline can hit while
// processing a batch. No anomaly is fatal to the batch: every one is
// counted and surfaced in the run report, never thrown past the row or
// record boundary.
type Anomaly string

const (
	// AnomalyMalformedRow marks a raw row with too few cells to map.
	// The row is skipped and counted.
	AnomalyMalformedRow Anomaly = "MALFORMED_ROW"
	// AnomalyParseWarning marks an unparsable numeric or date field.
	// The field defaults and processing continues.
	AnomalyParseWarning Anomaly = "PARSE_WARNING"
	// AnomalyAmbiguousMatch marks a name collision with no confirming
	// phone/email signal. The member is left unmatched rather than
	// guessed.
	AnomalyAmbiguousMatch Anomaly = "AMBIGUOUS_MATCH"
)

// RowError is a non-fatal, countable error attached to one raw row.
type RowError struct {
	Kind   Anomaly
	Row    int // zero-based index in the raw batch
	Detail string
}

// Error implements the error interface.
func (e *RowError) Error() string {
	return fmt.Sprintf("%s: row %d: %s", e.Kind, e.Row, e.Detail)
}

// NewRowError creates a RowError for the given row and anomaly kind.
func NewRowError(kind Anomaly, row int, format string, args ...any) *RowError {
	return &RowError{Kind: kind, Row: row, Detail: fmt.Sprintf(format, args...)}
}

// IsAnomaly reports whether err is a RowError of the given kind.
func IsAnomaly(err error, kind Anomaly) bool {
	var re *RowError
	if errors.As(err, &re) {
		return re.Kind == kind
	}
	return false
}

// ErrUnknownSchema is returned at the mapping boundary when a raw row
// cannot be attributed to any known form layout, so future layout drift
// is detected loudly instead of silently misreading columns.
var ErrUnknownSchema = errors.New("row does not match any known form layout")
