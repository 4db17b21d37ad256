package report

import (
	"fmt"
	"time"
)

// DataIntegrityError reports a snapshot whose value fields cannot take part
// in delta computation. It aborts the whole report.
type DataIntegrityError struct {
	Participant string
	Metric      string
	CapturedAt  time.Time
	Field       string
	Reason      string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity: %s for %q (participant %q, metric %q, captured_at %s)",
		e.Reason, e.Field, e.Participant, e.Metric, e.CapturedAt.UTC().Format(time.RFC3339))
}

// LayoutMismatchError means the formula generator asked for a column the
// reshaped report does not contain. Always a programming defect.
type LayoutMismatchError struct {
	Column string
}

func (e *LayoutMismatchError) Error() string {
	return fmt.Sprintf("layout mismatch: column %q is not part of the report layout", e.Column)
}

// EmptyInputWarning is recorded on a report built from zero snapshots.
type EmptyInputWarning struct {
	Report string
}

func (w *EmptyInputWarning) Error() string {
	return fmt.Sprintf("report %q has no snapshots", w.Report)
}
