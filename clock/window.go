package clock

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TIME WINDOW - Named wall-clock range, possibly crossing midnight
// =============================================================================

// TimeWindow is a wall-clock range. When End <= Start the window crosses
// midnight and ends on the following day; Start == End is a full day.
type TimeWindow struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

// NewTimeWindow parses a window from two clock strings.
func NewTimeWindow(start, end string) (TimeWindow, error) {
	s, err := ParseClockTime(start)
	if err != nil {
		return TimeWindow{}, err
	}
	e, err := ParseClockTime(end)
	if err != nil {
		return TimeWindow{}, err
	}
	return TimeWindow{Start: s, End: e}, nil
}

func MustTimeWindow(start, end string) TimeWindow {
	w, err := NewTimeWindow(start, end)
	if err != nil {
		panic(err)
	}
	return w
}

// CrossesMidnight reports whether the window ends on the following day.
func (w TimeWindow) CrossesMidnight() bool { return w.End.BeforeOrEqual(w.Start) }

// Length is the window's span; never more than a day.
func (w TimeWindow) Length() time.Duration { return w.Span().Length() }

// Span lays the window out on the timeline anchored at the midnight
// preceding Start.
func (w TimeWindow) Span() Span {
	end := w.End.offset
	if w.CrossesMidnight() {
		end += Day
	}
	return Span{Start: w.Start.offset, End: end}
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("%s-%s", w.Start, w.End)
}

// =============================================================================
// SPAN - Absolute interval on a worked-day timeline
// =============================================================================

// Span is a half-open interval [Start, End) measured from the midnight that
// starts the worked day. End may exceed Day for intervals running into the
// next morning.
type Span struct {
	Start time.Duration
	End   time.Duration
}

// Worked is the span actually worked between a check-in and a check-out.
// A check-out earlier than the check-in is on the following day; equal
// punches give an empty span.
func Worked(checkIn, checkOut ClockTime) Span {
	return Span{Start: checkIn.offset, End: checkIn.offset + Duration(checkIn, checkOut)}
}

func (s Span) Length() time.Duration { return s.End - s.Start }
func (s Span) IsEmpty() bool          { return s.End <= s.Start }

// Intersect returns the length of the common part of two spans, zero when
// they do not meet.
func (s Span) Intersect(other Span) time.Duration {
	start := max(s.Start, other.Start)
	end := min(s.End, other.End)
	if end <= start {
		return 0
	}
	return end - start
}

// OverlapWith returns how much of s falls inside w. The window is laid on
// the same day as the span's start: a window that crosses midnight runs into
// the next morning, but a pre-midnight span never meets an after-midnight
// window such as 00:00-01:00.
func (s Span) OverlapWith(w TimeWindow) time.Duration {
	if s.IsEmpty() {
		return 0
	}
	return s.Intersect(w.Span())
}

// OverlapSum adds up the overlap with every window independently. Time
// covered by two overlapping windows is counted twice.
func (s Span) OverlapSum(windows []TimeWindow) time.Duration {
	var total time.Duration
	for _, w := range windows {
		total += s.OverlapWith(w)
	}
	return total
}

// =============================================================================
// OVERLAP - Hour-valued helpers over windows
// =============================================================================

// Overlap returns the time the work window spends inside window. The work
// window follows the TimeWindow convention (End <= Start crosses midnight).
func Overlap(work, window TimeWindow) time.Duration {
	return work.Span().OverlapWith(window)
}

// OverlapHours is Overlap in hours, unrounded.
func OverlapHours(work, window TimeWindow) decimal.Decimal {
	return HoursOf(Overlap(work, window))
}
