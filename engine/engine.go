/*
Package engine is the attendance rule engine.

PURPOSE:
  Turns one employee-day of punches into payroll metrics: work overtime,
  lateness/early leave, approved overtime, night work, holiday bonus, meal
  allowance and transport allowance.

COMPUTATION ORDER:
  Most metrics depend only on the punch. Two depend on other metrics:

    WorkOvertime ──┐
                   ├─> ApprovedOvertime ──> HolidayBonus
    LateEarly ─────┘

  Compute evaluates them in that order. Callers invoking the individual
  methods must follow it too.

PURITY:
  The Engine holds a private copy of its RuleSet and no other state. Every
  method is a pure function of its arguments, so one Engine can be shared by
  any number of goroutines.

MISSING PUNCHES:
  A punch without check-in or check-out yields zero for every metric that
  needs it (transport on weekends only needs the check-in).

SEE ALSO:
  - clock: duration, overlap and half-hour flooring
  - rules: RuleSet
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/clock"
	"github.com/warp/attendance-engine/rules"
)

// Engine evaluates a fixed RuleSet.
type Engine struct {
	rules *rules.RuleSet
}

// New builds an engine over a private copy of rs.
func New(rs *rules.RuleSet) *Engine {
	return &Engine{rules: rs.Clone()}
}

// Rules returns a copy of the engine's rule set.
func (e *Engine) Rules() *rules.RuleSet {
	return e.rules.Clone()
}

// Compute evaluates every metric for p in dependency order.
func (e *Engine) Compute(p DailyPunch) DailyMetrics {
	workOT := e.WorkOvertime(p)
	lateEarly := e.LateEarly(p)
	approved := ApprovedOvertime(workOT, lateEarly)

	return DailyMetrics{
		WorkOvertimeHours:        workOT,
		LateEarlyHours:           lateEarly,
		ApprovedOvertimeHours:    approved,
		NightWorkHours:           e.NightWork(p),
		HolidayBonusHours:        e.HolidayBonus(p.Date, approved),
		MealAllowanceAmount:      e.MealAllowance(p),
		TransportAllowanceAmount: e.TransportAllowance(p),
	}
}

// =============================================================================
// OVERTIME
// =============================================================================

// WorkOvertime is worked time, minus time inside overtime exclusion windows,
// minus the standard daily hours, floored to the half hour.
func (e *Engine) WorkOvertime(p DailyPunch) decimal.Decimal {
	span, ok := p.Worked()
	if !ok {
		return decimal.Zero
	}
	raw := span.Length() - span.OverlapSum(e.rules.OvertimeExclusions) - e.rules.StandardDaily()
	return halfHours(raw)
}

// LateEarly is the time checked in after the standard start plus the time
// checked out before the standard end, summed and then floored to the half
// hour.
func (e *Engine) LateEarly(p DailyPunch) decimal.Decimal {
	if !p.Complete() {
		return decimal.Zero
	}
	var total time.Duration
	if p.CheckIn.After(e.rules.StandardStart) {
		total += clock.Duration(e.rules.StandardStart, *p.CheckIn)
	}
	if p.CheckOut.Before(e.rules.StandardEnd) {
		total += clock.Duration(*p.CheckOut, e.rules.StandardEnd)
	}
	return halfHours(total)
}

// ApprovedOvertime offsets work overtime by lateness/early leave. It never
// exceeds workOT and never goes negative.
func ApprovedOvertime(workOT, lateEarly decimal.Decimal) decimal.Decimal {
	if !workOT.IsPositive() {
		return decimal.Zero
	}
	if lateEarly.IsPositive() {
		return decimal.Max(decimal.Zero, workOT.Sub(lateEarly))
	}
	return workOT
}

// ApprovedOvertime is the package-level ApprovedOvertime, for callers that
// hold an Engine.
func (e *Engine) ApprovedOvertime(workOT, lateEarly decimal.Decimal) decimal.Decimal {
	return ApprovedOvertime(workOT, lateEarly)
}

// =============================================================================
// NIGHT WORK
// =============================================================================

// NightWork is worked time inside the night window, minus time inside the
// night exclusion windows, floored to the half hour.
func (e *Engine) NightWork(p DailyPunch) decimal.Decimal {
	span, ok := p.Worked()
	if !ok {
		return decimal.Zero
	}
	night := span.OverlapWith(e.rules.Night.Window)
	if night <= 0 {
		return decimal.Zero
	}
	return halfHours(night - span.OverlapSum(e.rules.Night.Exclusions))
}

// =============================================================================
// HOLIDAY BONUS
// =============================================================================

// HolidayBonus grants the flat bonus hours when date is the rest day and the
// approved overtime reaches the threshold.
func (e *Engine) HolidayBonus(date clock.Date, approvedOT decimal.Decimal) decimal.Decimal {
	hb := e.rules.HolidayBonus
	if e.rules.IsRestDay(date) && approvedOT.GreaterThanOrEqual(hb.ThresholdHours) {
		return hb.AmountHours
	}
	return decimal.Zero
}

// =============================================================================
// ALLOWANCES
// =============================================================================

// MealAllowance pays the per-window amount once for every meal window the
// shift touches, whatever the length of the contact.
func (e *Engine) MealAllowance(p DailyPunch) decimal.Decimal {
	span, ok := p.Worked()
	if !ok {
		return decimal.Zero
	}
	windows := e.rules.Meal.WeekdayWindows
	if e.rules.IsWeekend(p.Date) {
		windows = e.rules.Meal.WeekendWindows
	}

	hits := 0
	for _, w := range windows {
		if span.OverlapWith(w) > 0 {
			hits++
		}
	}
	return e.rules.Meal.AmountPerWindow.Mul(decimal.NewFromInt(int64(hits)))
}

// TransportAllowance pays the weekend amount for any weekend check-in and
// the weekday amount for a weekday check-out at or after the cutoff.
func (e *Engine) TransportAllowance(p DailyPunch) decimal.Decimal {
	if p.CheckIn == nil {
		return decimal.Zero
	}
	t := e.rules.Transport
	if e.rules.IsWeekend(p.Date) {
		return t.WeekendAmount
	}
	if p.CheckOut != nil && p.CheckOut.AfterOrEqual(t.LateCheckoutCutoff) {
		return t.WeekdayAmount
	}
	return decimal.Zero
}

func halfHours(d time.Duration) decimal.Decimal {
	return clock.HoursOf(clock.FloorHalfHour(d))
}
