package rules

import (
	"errors"
	"fmt"
)

// ErrInvalidRuleSet is the sentinel behind every configuration failure. Use
// errors.Is; the concrete errors are *ConfigurationError, possibly joined.
var ErrInvalidRuleSet = errors.New("invalid rule set")

// ConfigurationError describes one rejected rule field. It is fatal: no
// engine is built from a rule set that produced one.
type ConfigurationError struct {
	Field  string // JSON path, e.g. "meal_allowance.weekday_periods[1].end"
	Value  string // offending raw value, empty when missing
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("rule %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("rule %s: %s (got %q)", e.Field, e.Reason, e.Value)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidRuleSet
}

// FieldErrors extracts every ConfigurationError from err, including those
// combined with errors.Join.
func FieldErrors(err error) []*ConfigurationError {
	switch e := err.(type) {
	case nil:
		return nil
	case *ConfigurationError:
		return []*ConfigurationError{e}
	case interface{ Unwrap() []error }:
		var out []*ConfigurationError
		for _, inner := range e.Unwrap() {
			out = append(out, FieldErrors(inner)...)
		}
		return out
	case interface{ Unwrap() error }:
		return FieldErrors(e.Unwrap())
	}
	return nil
}
