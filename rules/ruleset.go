/*
Package rules holds the payroll rule configuration the attendance engine
evaluates against.

PURPOSE:
  A RuleSet is every threshold and window list the engine needs: official
  work-day boundaries, the daily hours that are not overtime, break windows
  excluded from overtime, the night window, holiday bonus thresholds and the
  meal and transport allowance tables.

LIFECYCLE:
  A RuleSet is built once at startup by the Factory (from JSON), validated,
  and never mutated afterwards. The engine takes its own copy (Clone) so a
  caller holding the original cannot change rules under a running engine.

SEE ALSO:
  - factory.go:  JSON schema and validation
  - defaults.go: the stock rule JSON
  - engine/engine.go: consumer
*/
package rules

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/clock"
)

// =============================================================================
// RULE SET
// =============================================================================

// RuleSet is a validated, read-only rule configuration.
type RuleSet struct {
	Name    string
	Version int

	// Official work-day boundaries used for lateness and early leave.
	StandardStart clock.ClockTime
	StandardEnd   clock.ClockTime

	// Daily hours counted as the non-overtime baseline.
	StandardDailyHours decimal.Decimal

	// Breaks that never count toward overtime.
	OvertimeExclusions []clock.TimeWindow

	Night        NightRule
	HolidayBonus HolidayBonusRule
	Meal         MealRule
	Transport    TransportRule

	// Days treated as weekend for meal and transport allowances.
	WeekendDays []time.Weekday
}

// NightRule is the night-work window and the breaks excluded from it.
type NightRule struct {
	Window     clock.TimeWindow
	Exclusions []clock.TimeWindow
}

// HolidayBonusRule grants a flat AmountHours when approved overtime on the
// rest day reaches ThresholdHours.
type HolidayBonusRule struct {
	ThresholdHours decimal.Decimal
	AmountHours    decimal.Decimal
	RestDay        time.Weekday
}

// MealRule pays AmountPerWindow for every window the shift touches.
type MealRule struct {
	WeekdayWindows  []clock.TimeWindow
	WeekendWindows  []clock.TimeWindow
	AmountPerWindow decimal.Decimal
}

// TransportRule pays WeekendAmount for any weekend attendance and
// WeekdayAmount when a weekday check-out is at or after LateCheckoutCutoff.
type TransportRule struct {
	WeekdayAmount      decimal.Decimal
	WeekendAmount      decimal.Decimal
	LateCheckoutCutoff clock.ClockTime
}

// StandardDaily is StandardDailyHours as a duration.
func (rs *RuleSet) StandardDaily() time.Duration {
	return clock.DurationOf(rs.StandardDailyHours)
}

// IsWeekend reports whether date falls on a configured weekend day.
func (rs *RuleSet) IsWeekend(date clock.Date) bool {
	return slices.Contains(rs.WeekendDays, date.Weekday())
}

// IsRestDay reports whether date is the holiday-bonus rest day.
func (rs *RuleSet) IsRestDay(date clock.Date) bool {
	return date.Weekday() == rs.HolidayBonus.RestDay
}

// Clone returns a deep copy; window slices are not shared.
func (rs *RuleSet) Clone() *RuleSet {
	c := *rs
	c.OvertimeExclusions = slices.Clone(rs.OvertimeExclusions)
	c.Night.Exclusions = slices.Clone(rs.Night.Exclusions)
	c.Meal.WeekdayWindows = slices.Clone(rs.Meal.WeekdayWindows)
	c.Meal.WeekendWindows = slices.Clone(rs.Meal.WeekendWindows)
	c.WeekendDays = slices.Clone(rs.WeekendDays)
	return &c
}
