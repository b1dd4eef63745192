package attendance

import (
	"errors"
	"fmt"

	"github.com/warp/attendance-engine/clock"
	"github.com/warp/attendance-engine/rules"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrMalformedLine is returned for a punch-log line that cannot be read.
	// Such lines are skipped and reported; they never reach the engine.
	ErrMalformedLine = errors.New("malformed punch line")

	// ErrInvalidRoster is returned when an employee workbook has no usable
	// header row.
	ErrInvalidRoster = errors.New("invalid roster")

	// ErrRecordNotFound is returned when no record exists for a card and date.
	ErrRecordNotFound = errors.New("record not found")

	// ErrEmployeeNotFound is returned when no employee holds a card.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrDuplicateImport is returned when a punch log with the same checksum
	// has already been imported.
	ErrDuplicateImport = errors.New("punch log already imported")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// LineError describes one rejected punch-log line.
type LineError struct {
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

func (e *LineError) Unwrap() error {
	return ErrMalformedLine
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMalformedLine) ||
		errors.Is(err, ErrInvalidRoster) ||
		errors.Is(err, rules.ErrInvalidRuleSet) ||
		errors.Is(err, clock.ErrInvalidClockTime) ||
		errors.Is(err, clock.ErrInvalidDate)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound) ||
		errors.Is(err, ErrEmployeeNotFound)
}

// IsConflict returns true if the error indicates already-present data.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateImport)
}
