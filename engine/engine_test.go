package engine_test

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/clock"
	"github.com/warp/attendance-engine/engine"
	"github.com/warp/attendance-engine/rules"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// lunchOnlyRules is an 08:00-17:00 day, 8 standard hours and one 12-13 break.
const lunchOnlyRules = `{
  "work_hours": {"standard_start": "08:00", "standard_end": "17:00", "standard_hours": 8},
  "overtime_exclusion_periods": [{"start": "12:00", "end": "13:00"}],
  "night_work_period": {"start": "22:00", "end": "06:00", "exclusion_periods": [{"start": "00:00", "end": "01:00"}]},
  "holiday_bonus": {"min_approved_ot_hours": 8, "bonus_hours": 8},
  "meal_allowance": {
    "weekday_periods": [{"start": "12:00", "end": "13:00"}, {"start": "18:00", "end": "19:00"}],
    "weekend_periods": [{"start": "12:00", "end": "13:00"}],
    "amount_per_period": 10000
  },
  "transport_allowance": {"weekday_amount": 5000, "weekend_amount": 7000, "weekday_checkout_cutoff": "22:00"}
}`

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	rs, err := rules.NewFactory().Parse([]byte(lunchOnlyRules))
	require.NoError(t, err)
	return engine.New(rs)
}

func ct(s string) clock.ClockTime { return clock.MustParseClockTime(s) }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// 2025-09-01 is a Monday, 2025-09-06 a Saturday, 2025-09-07 a Sunday.
var (
	monday   = clock.MustParseDate("2025-09-01")
	saturday = clock.MustParseDate("2025-09-06")
	sunday   = clock.MustParseDate("2025-09-07")
)

func punch(date clock.Date, in, out string) engine.DailyPunch {
	p := engine.DailyPunch{Date: date}
	if in != "" {
		p.CheckIn = ct(in).Ptr()
	}
	if out != "" {
		p.CheckOut = ct(out).Ptr()
	}
	return p
}

func assertDec(t *testing.T, want string, got decimal.Decimal, note ...string) {
	t.Helper()
	assert.Truef(t, got.Equal(dec(want)), "want %s got %s %v", want, got, note)
}

// =============================================================================
// REFERENCE SCENARIO
// =============================================================================

func TestCompute_ReferenceDay(t *testing.T) {
	// GIVEN: 08:10 in, 19:05 out on a weekday, one 12-13 exclusion
	// WHEN: Computing all metrics
	// THEN: 10.9167h worked - 1h excluded - 8h = 1.9167h -> 1.5h overtime,
	//       10 minutes late -> 0, approved overtime passes through unchanged
	e := newEngine(t)
	m := e.Compute(punch(monday, "08:10:00", "19:05:00"))

	assertDec(t, "1.5", m.WorkOvertimeHours)
	assertDec(t, "0", m.LateEarlyHours)
	assertDec(t, "1.5", m.ApprovedOvertimeHours)
	assertDec(t, "0", m.NightWorkHours)
	assertDec(t, "0", m.HolidayBonusHours)
	assertDec(t, "20000", m.MealAllowanceAmount) // 12-13 and 18-19
	assertDec(t, "0", m.TransportAllowanceAmount)
}

// =============================================================================
// WORK OVERTIME
// =============================================================================

func TestWorkOvertime(t *testing.T) {
	e := newEngine(t)
	cases := []struct {
		name, in, out, want string
	}{
		{"exactly standard day", "08:00:00", "17:00:00", "0"},
		{"29 minutes over", "08:00:00", "17:29:00", "0"},
		{"30 minutes over", "08:00:00", "17:30:00", "0.5"},
		{"short day never negative", "09:00:00", "12:00:00", "0"},
		{"skips the lunch break", "13:00:00", "23:00:00", "2"},
		{"overnight shift", "20:00:00", "08:00:00", "4"},
		{"equal punches", "08:00:00", "08:00:00", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assertDec(t, tc.want, e.WorkOvertime(punch(monday, tc.in, tc.out)))
		})
	}
}

func TestWorkOvertime_MonotonicInCheckout(t *testing.T) {
	// GIVEN: Disjoint exclusion windows (standard rules)
	// WHEN: Check-out moves later minute by minute from check-in
	// THEN: Overtime never decreases
	e := engine.New(rules.Standard())
	in := ct("07:00:00")
	prev := decimal.Zero
	for k := 1; k < 24*60; k++ {
		outOffset := (in.SinceMidnight() + time.Duration(k)*time.Minute) % clock.Day
		out := clock.MustClockTime(int(outOffset/time.Hour), int(outOffset%time.Hour/time.Minute), 0)
		got := e.WorkOvertime(engine.NewPunch(monday, in, out))
		require.True(t, got.GreaterThanOrEqual(prev), "check-out %s: %s < %s", out, got, prev)
		prev = got
	}
}

// =============================================================================
// LATE / EARLY
// =============================================================================

func TestLateEarly(t *testing.T) {
	e := newEngine(t)
	cases := []struct {
		name, in, out, want string
	}{
		{"on time", "08:00:00", "17:00:00", "0"},
		{"late 45 min", "08:45:00", "17:00:00", "0.5"},
		{"early 1h", "08:00:00", "16:00:00", "1"},
		{"late and early summed before flooring", "08:20:00", "16:50:00", "0.5"},
		{"late 2h10", "10:10:00", "18:00:00", "2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assertDec(t, tc.want, e.LateEarly(punch(monday, tc.in, tc.out)))
		})
	}
}

// =============================================================================
// APPROVED OVERTIME
// =============================================================================

func TestApprovedOvertime(t *testing.T) {
	assertDec(t, "1.5", engine.ApprovedOvertime(dec("1.5"), dec("0")))
	assertDec(t, "1", engine.ApprovedOvertime(dec("1.5"), dec("0.5")))
	assertDec(t, "0", engine.ApprovedOvertime(dec("1"), dec("3")))
	assertDec(t, "0", engine.ApprovedOvertime(dec("0"), dec("0")))
	assertDec(t, "0", engine.ApprovedOvertime(dec("-1"), dec("0")))
}

func TestApprovedOvertime_NeverExceedsWorkOvertime(t *testing.T) {
	for w := 0; w <= 20; w++ {
		for l := 0; l <= 20; l++ {
			work := decimal.NewFromInt(int64(w)).Div(decimal.NewFromInt(2))
			late := decimal.NewFromInt(int64(l)).Div(decimal.NewFromInt(2))
			got := engine.ApprovedOvertime(work, late)
			assert.True(t, got.LessThanOrEqual(work))
			assert.False(t, got.IsNegative())
		}
	}
}

// =============================================================================
// NIGHT WORK
// =============================================================================

func TestNightWork(t *testing.T) {
	e := newEngine(t)
	cases := []struct {
		name, in, out, want string
	}{
		{"day shift", "08:00:00", "17:00:00", "0"},
		{"evening into night", "14:00:00", "23:40:00", "1.5"},
		{"full night, 00-01 break sits on the check-in day", "21:00:00", "07:00:00", "8"},
		{"starts after midnight", "00:30:00", "08:00:00", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assertDec(t, tc.want, e.NightWork(punch(monday, tc.in, tc.out)))
		})
	}
}

func TestStandardRules_OvernightShifts(t *testing.T) {
	// GIVEN: The stock rules, whose breaks and meal windows are laid on the
	//        check-in day
	e := engine.New(rules.Standard())

	// WHEN: A weekday 22:00-06:00 shift
	night := e.Compute(punch(monday, "22:00:00", "06:00:00"))

	// THEN: The 00-01 and 05-06 windows of the check-in day are never met
	assertDec(t, "8", night.NightWorkHours)
	assertDec(t, "0", night.MealAllowanceAmount)
	assertDec(t, "0", night.WorkOvertimeHours)
	assertDec(t, "0", night.TransportAllowanceAmount)

	// WHEN: A 20:00-08:00 shift
	long := e.Compute(punch(monday, "20:00:00", "08:00:00"))

	// THEN: 12h - 8h standard with nothing excluded
	assertDec(t, "4", long.WorkOvertimeHours)
	assertDec(t, "8", long.NightWorkHours)

	// WHEN: A shift starting after midnight
	early := e.Compute(punch(monday, "01:00:00", "09:00:00"))

	// THEN: The 22:00 night window of that day lies ahead of it
	assertDec(t, "0", early.NightWorkHours)
	assertDec(t, "10000", early.MealAllowanceAmount, "05-06 window")
	assertDec(t, "0", early.WorkOvertimeHours, "8h - 1h break < 8h")
}

// =============================================================================
// HOLIDAY BONUS
// =============================================================================

func TestHolidayBonus(t *testing.T) {
	e := newEngine(t)
	assertDec(t, "8", e.HolidayBonus(sunday, dec("8.5")), "flat amount, not the overtime")
	assertDec(t, "8", e.HolidayBonus(sunday, dec("8")), "threshold is inclusive")
	assertDec(t, "0", e.HolidayBonus(sunday, dec("7.5")))
	assertDec(t, "0", e.HolidayBonus(saturday, dec("10")))
	assertDec(t, "0", e.HolidayBonus(monday, dec("10")))
}

func TestCompute_SundayLongShiftEarnsBonus(t *testing.T) {
	e := newEngine(t)
	m := e.Compute(punch(sunday, "06:00:00", "23:30:00"))

	// 17.5h - 1h lunch - 8h = 8.5h overtime; early start is not lateness
	assertDec(t, "8.5", m.WorkOvertimeHours)
	assertDec(t, "8.5", m.ApprovedOvertimeHours)
	assertDec(t, "8", m.HolidayBonusHours)
	assertDec(t, "7000", m.TransportAllowanceAmount)
}

// =============================================================================
// ALLOWANCES
// =============================================================================

func TestMealAllowance_CountsWindowHits(t *testing.T) {
	e := newEngine(t)
	assertDec(t, "10000", e.MealAllowance(punch(monday, "08:00:00", "12:01:00")), "one minute is a hit")
	assertDec(t, "0", e.MealAllowance(punch(monday, "08:00:00", "12:00:00")), "touching the edge is not")
	assertDec(t, "20000", e.MealAllowance(punch(monday, "08:00:00", "20:00:00")))
	assertDec(t, "10000", e.MealAllowance(punch(saturday, "08:00:00", "20:00:00")), "weekend list")
}

func TestTransportAllowance(t *testing.T) {
	e := newEngine(t)
	assertDec(t, "5000", e.TransportAllowance(punch(monday, "08:00:00", "22:30:00")))
	assertDec(t, "5000", e.TransportAllowance(punch(monday, "08:00:00", "22:00:00")), "cutoff inclusive")
	assertDec(t, "0", e.TransportAllowance(punch(monday, "08:00:00", "21:59:59")))
	assertDec(t, "0", e.TransportAllowance(punch(monday, "08:00:00", "")))
	assertDec(t, "7000", e.TransportAllowance(punch(saturday, "08:00:00", "")), "weekend ignores check-out")
	assertDec(t, "0", e.TransportAllowance(punch(saturday, "", "17:00:00")))
	assertDec(t, "0", e.TransportAllowance(punch(monday, "", "23:00:00")))
}

// =============================================================================
// PROPERTIES
// =============================================================================

func TestAbsentPunches_AreNeutral(t *testing.T) {
	e := newEngine(t)
	for _, p := range []engine.DailyPunch{
		punch(sunday, "", "19:00:00"),
		punch(sunday, "08:00:00", ""),
		punch(sunday, "", ""),
	} {
		assertDec(t, "0", e.WorkOvertime(p))
		assertDec(t, "0", e.LateEarly(p))
		assertDec(t, "0", e.NightWork(p))
		assertDec(t, "0", e.MealAllowance(p))
	}

	m := e.Compute(punch(monday, "", ""))
	assert.True(t, m.IsZero())
}

func TestCompute_IsIdempotentAndSafeForConcurrentUse(t *testing.T) {
	e := newEngine(t)
	p := punch(monday, "07:55:00", "23:10:00")
	want := e.Compute(p)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, e.Compute(p))
		}()
	}
	wg.Wait()
}

func TestNew_CopiesRuleSet(t *testing.T) {
	rs := rules.Standard()
	e := engine.New(rs)
	rs.OvertimeExclusions = nil
	rs.StandardDailyHours = decimal.Zero

	assert.Len(t, e.Rules().OvertimeExclusions, 4)
	assertDec(t, "0", e.WorkOvertime(punch(monday, "08:00:00", "17:00:00")))
}

func TestDailyMetrics_Add(t *testing.T) {
	a := engine.DailyMetrics{WorkOvertimeHours: dec("1.5"), MealAllowanceAmount: dec("10000")}
	b := engine.DailyMetrics{WorkOvertimeHours: dec("2"), TransportAllowanceAmount: dec("5000")}
	sum := a.Add(b)
	assertDec(t, "3.5", sum.WorkOvertimeHours)
	assertDec(t, "10000", sum.MealAllowanceAmount)
	assertDec(t, "5000", sum.TransportAllowanceAmount)
}
