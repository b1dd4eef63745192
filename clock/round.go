package clock

import (
	"time"

	"github.com/shopspring/decimal"
)

// HalfHour is the payroll rounding step.
const HalfHour = 30 * time.Minute

var (
	secondsPerHour = decimal.NewFromInt(3600)
	two            = decimal.NewFromInt(2)
)

// HoursOf converts a duration to decimal hours at second resolution.
func HoursOf(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d / time.Second)).Div(secondsPerHour)
}

// DurationOf converts decimal hours back to a duration, truncated to the
// second.
func DurationOf(hours decimal.Decimal) time.Duration {
	secs := hours.Mul(secondsPerHour).IntPart()
	return time.Duration(secs) * time.Second
}

// FloorHalfHour truncates d to a whole number of half hours. Zero or negative
// durations give zero.
func FloorHalfHour(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Truncate(HalfHour)
}

// RoundToHalfStep floors hours to the half hour below: the whole hours, plus
// 0.5 when the remaining minutes reach 30. 1.49 becomes 1.0, never 1.5.
// Zero or negative input gives zero.
func RoundToHalfStep(hours decimal.Decimal) decimal.Decimal {
	if !hours.IsPositive() {
		return decimal.Zero
	}
	return hours.Mul(two).Floor().Div(two)
}
