/*
Package clock provides the time-of-day arithmetic the attendance engine is
built on.

PURPOSE:
  Punch clocks record a calendar date and a wall-clock time. Every payroll
  rule is expressed against wall-clock windows ("22:00-06:00 is night work",
  "12:00-13:00 is lunch"), many of which cross midnight. This package keeps
  all of that arithmetic in one place so metric rules never re-implement it.

KEY CONCEPTS:
  - ClockTime: a time of day with second resolution, [00:00:00, 24:00:00)
  - Date:      a calendar date (no time of day)
  - TimeWindow: a start/end pair of ClockTimes; end <= start crosses midnight
  - Span:      a window laid out on an absolute timeline (offsets from the
               midnight that starts the worked day)

ROUNDING:
  Payroll hours are floored to the half hour. See RoundToHalfStep.

SEE ALSO:
  - window.go: TimeWindow, Span and overlap computation
  - round.go:  hour conversion and half-hour flooring
*/
package clock

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Day is the length of one wall-clock day.
const Day = 24 * time.Hour

var (
	// ErrInvalidClockTime is returned when a time-of-day string or component
	// is out of range or malformed.
	ErrInvalidClockTime = errors.New("invalid clock time")

	// ErrInvalidDate is returned when a calendar date cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")
)

// =============================================================================
// CLOCK TIME - Time of day, no date component
// =============================================================================

// ClockTime is a time of day with second resolution. The zero value is
// midnight.
type ClockTime struct {
	offset time.Duration // since midnight, always in [0, Day)
}

// NewClockTime builds a ClockTime from its components.
func NewClockTime(hour, minute, second int) (ClockTime, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return ClockTime{}, fmt.Errorf("%w: %02d:%02d:%02d", ErrInvalidClockTime, hour, minute, second)
	}
	d := time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute + time.Duration(second)*time.Second
	return ClockTime{offset: d}, nil
}

// MustClockTime is NewClockTime for literals known to be valid. It panics
// otherwise.
func MustClockTime(hour, minute, second int) ClockTime {
	ct, err := NewClockTime(hour, minute, second)
	if err != nil {
		panic(err)
	}
	return ct
}

// ParseClockTime accepts "HH:MM:SS", "HH:MM" and the compact "HHMMSS" form
// written by punch-clock terminals.
func ParseClockTime(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)

	var parts []string
	switch {
	case strings.Contains(s, ":"):
		parts = strings.Split(s, ":")
		if len(parts) == 2 {
			parts = append(parts, "00")
		}
	case len(s) == 6:
		parts = []string{s[0:2], s[2:4], s[4:6]}
	}
	if len(parts) != 3 {
		return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
	}

	var nums [3]int
	for i, p := range parts {
		if len(p) != 2 {
			return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return ClockTime{}, fmt.Errorf("%w: %q", ErrInvalidClockTime, s)
		}
		nums[i] = n
	}
	return NewClockTime(nums[0], nums[1], nums[2])
}

// MustParseClockTime panics on malformed input. Intended for tests and
// package-level defaults.
func MustParseClockTime(s string) ClockTime {
	ct, err := ParseClockTime(s)
	if err != nil {
		panic(err)
	}
	return ct
}

// Comparison
func (c ClockTime) Before(other ClockTime) bool        { return c.offset < other.offset }
func (c ClockTime) After(other ClockTime) bool         { return c.offset > other.offset }
func (c ClockTime) Equal(other ClockTime) bool         { return c.offset == other.offset }
func (c ClockTime) BeforeOrEqual(other ClockTime) bool { return c.offset <= other.offset }
func (c ClockTime) AfterOrEqual(other ClockTime) bool  { return c.offset >= other.offset }

// Properties
func (c ClockTime) Hour() int                    { return int(c.offset / time.Hour) }
func (c ClockTime) Minute() int                  { return int(c.offset % time.Hour / time.Minute) }
func (c ClockTime) Second() int                  { return int(c.offset % time.Minute / time.Second) }
func (c ClockTime) SinceMidnight() time.Duration { return c.offset }

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour(), c.Minute(), c.Second())
}

// MarshalText renders HH:MM:SS so ClockTime works as a JSON string.
func (c ClockTime) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ClockTime) UnmarshalText(b []byte) error {
	ct, err := ParseClockTime(string(b))
	if err != nil {
		return err
	}
	*c = ct
	return nil
}

// Ptr returns a pointer to a copy of c, for optional punch fields.
func (c ClockTime) Ptr() *ClockTime { return &c }

// =============================================================================
// DURATION - Between two clock times, rolling over midnight
// =============================================================================

// Duration returns the time from start to end. When end is earlier than
// start the pair is read as crossing midnight. Equal times give zero.
func Duration(start, end ClockTime) time.Duration {
	d := end.offset - start.offset
	if d < 0 {
		d += Day
	}
	return d
}

// DurationHours is Duration expressed in (unrounded) hours.
func DurationHours(start, end ClockTime) decimal.Decimal {
	return HoursOf(Duration(start, end))
}

// =============================================================================
// DATE - Calendar date
// =============================================================================

// Date is a calendar day in UTC.
type Date struct {
	t time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the time-of-day part of t.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate accepts "YYYY-MM-DD" and the compact "YYYYMMDD".
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	layout := dateLayout
	if len(s) == 8 && !strings.Contains(s, "-") {
		layout = "20060102"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsWeekend() bool       { wd := d.Weekday(); return wd == time.Saturday || wd == time.Sunday }
func (d Date) IsZero() bool          { return d.t.IsZero() }
func (d Date) Time() time.Time       { return d.t }
func (d Date) AddDays(n int) Date    { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) String() string        { return d.t.Format(dateLayout) }

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
