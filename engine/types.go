package engine

import (
	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/clock"
)

// =============================================================================
// DAILY PUNCH - One employee-day of clock events
// =============================================================================

// DailyPunch is the earliest check-in and latest check-out of one employee on
// one date. Either punch may be missing; a missing punch is a normal input,
// not an error.
type DailyPunch struct {
	Date     clock.Date
	CheckIn  *clock.ClockTime
	CheckOut *clock.ClockTime
}

// NewPunch builds a punch with both times present.
func NewPunch(date clock.Date, checkIn, checkOut clock.ClockTime) DailyPunch {
	return DailyPunch{Date: date, CheckIn: &checkIn, CheckOut: &checkOut}
}

// Complete reports whether both punches are present.
func (p DailyPunch) Complete() bool { return p.CheckIn != nil && p.CheckOut != nil }

// Worked returns the worked span; ok is false when a punch is missing.
func (p DailyPunch) Worked() (span clock.Span, ok bool) {
	if !p.Complete() {
		return clock.Span{}, false
	}
	return clock.Worked(*p.CheckIn, *p.CheckOut), true
}

// =============================================================================
// DAILY METRICS - Engine output
// =============================================================================

// DailyMetrics holds every payroll figure derived from one DailyPunch. Hour
// fields are multiples of 0.5; amount fields are in the rule set's currency.
type DailyMetrics struct {
	WorkOvertimeHours        decimal.Decimal `json:"work_overtime_hours"`
	LateEarlyHours           decimal.Decimal `json:"late_early_hours"`
	ApprovedOvertimeHours    decimal.Decimal `json:"approved_overtime_hours"`
	NightWorkHours           decimal.Decimal `json:"night_work_hours"`
	HolidayBonusHours        decimal.Decimal `json:"holiday_bonus_hours"`
	MealAllowanceAmount      decimal.Decimal `json:"meal_allowance_amount"`
	TransportAllowanceAmount decimal.Decimal `json:"transport_allowance_amount"`
}

// Add sums two metric sets field by field, for period aggregation.
func (m DailyMetrics) Add(o DailyMetrics) DailyMetrics {
	return DailyMetrics{
		WorkOvertimeHours:        m.WorkOvertimeHours.Add(o.WorkOvertimeHours),
		LateEarlyHours:           m.LateEarlyHours.Add(o.LateEarlyHours),
		ApprovedOvertimeHours:    m.ApprovedOvertimeHours.Add(o.ApprovedOvertimeHours),
		NightWorkHours:           m.NightWorkHours.Add(o.NightWorkHours),
		HolidayBonusHours:        m.HolidayBonusHours.Add(o.HolidayBonusHours),
		MealAllowanceAmount:      m.MealAllowanceAmount.Add(o.MealAllowanceAmount),
		TransportAllowanceAmount: m.TransportAllowanceAmount.Add(o.TransportAllowanceAmount),
	}
}

// IsZero reports whether every metric is zero.
func (m DailyMetrics) IsZero() bool {
	return m.WorkOvertimeHours.IsZero() &&
		m.LateEarlyHours.IsZero() &&
		m.ApprovedOvertimeHours.IsZero() &&
		m.NightWorkHours.IsZero() &&
		m.HolidayBonusHours.IsZero() &&
		m.MealAllowanceAmount.IsZero() &&
		m.TransportAllowanceAmount.IsZero()
}
