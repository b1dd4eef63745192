package clock_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/clock"
)

func ct(s string) clock.ClockTime { return clock.MustParseClockTime(s) }

func hours(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// =============================================================================
// PARSING
// =============================================================================

func TestParseClockTime_Formats(t *testing.T) {
	cases := map[string]string{
		"08:10:00": "08:10:00",
		"08:10":    "08:10:00",
		"191005":   "19:10:05",
		" 23:59:59": "23:59:59",
		"00:00:00": "00:00:00",
	}
	for in, want := range cases {
		got, err := clock.ParseClockTime(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.String(), in)
	}
}

func TestParseClockTime_Rejects(t *testing.T) {
	for _, in := range []string{"", "24:00:00", "8:10", "12:60", "ab:cd:ef", "1234", "12:00:00:00"} {
		_, err := clock.ParseClockTime(in)
		assert.ErrorIs(t, err, clock.ErrInvalidClockTime, in)
	}
}

func TestParseDate(t *testing.T) {
	d, err := clock.ParseDate("20250907")
	require.NoError(t, err)
	assert.Equal(t, "2025-09-07", d.String())
	assert.Equal(t, time.Sunday, d.Weekday())
	assert.True(t, d.IsWeekend())

	_, err = clock.ParseDate("2025-02-30")
	assert.ErrorIs(t, err, clock.ErrInvalidDate)
}

func TestClockTime_JSONRoundTrip(t *testing.T) {
	w := clock.MustTimeWindow("22:00", "06:00")
	data, err := json.Marshal(w)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"22:00:00","end":"06:00:00"}`, string(data))
}

// =============================================================================
// DURATION
// =============================================================================

func TestDurationHours_MidnightRollover(t *testing.T) {
	assert.True(t, clock.DurationHours(ct("23:30:00"), ct("00:30:00")).Equal(hours("1")))
	assert.True(t, clock.DurationHours(ct("08:00:00"), ct("17:00:00")).Equal(hours("9")))
	assert.True(t, clock.DurationHours(ct("08:00:00"), ct("08:00:00")).IsZero())
}

// =============================================================================
// OVERLAP
// =============================================================================

func TestOverlapHours(t *testing.T) {
	cases := []struct {
		name         string
		work, window clock.TimeWindow
		want         string
	}{
		{"both cross midnight", clock.MustTimeWindow("22:00", "02:00"), clock.MustTimeWindow("23:00", "01:00"), "2"},
		{"window inside work", clock.MustTimeWindow("08:00", "17:00"), clock.MustTimeWindow("12:00", "13:00"), "1"},
		{"work inside window", clock.MustTimeWindow("23:00", "01:00"), clock.MustTimeWindow("22:00", "06:00"), "2"},
		{"partial leading edge", clock.MustTimeWindow("12:30", "17:00"), clock.MustTimeWindow("12:00", "13:00"), "0.5"},
		{"partial trailing edge", clock.MustTimeWindow("08:00", "12:15"), clock.MustTimeWindow("12:00", "13:00"), "0.25"},
		{"disjoint", clock.MustTimeWindow("08:00", "11:00"), clock.MustTimeWindow("12:00", "13:00"), "0"},
		{"touching edges", clock.MustTimeWindow("08:00", "12:00"), clock.MustTimeWindow("12:00", "13:00"), "0"},
		{"after-midnight window not reached", clock.MustTimeWindow("22:00", "02:00"), clock.MustTimeWindow("00:00", "01:00"), "0"},
		{"after-midnight start misses night window", clock.MustTimeWindow("01:00", "09:00"), clock.MustTimeWindow("22:00", "06:00"), "0"},
		{"night window running into next morning", clock.MustTimeWindow("21:00", "07:00"), clock.MustTimeWindow("22:00", "06:00"), "8"},
		{"full-day window", clock.MustTimeWindow("08:00", "17:00"), clock.MustTimeWindow("00:00", "00:00"), "9"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := clock.OverlapHours(tc.work, tc.window)
			assert.True(t, got.Equal(hours(tc.want)), "got %s want %s", got, tc.want)
		})
	}
}

func TestWorked_EmptyWhenPunchesEqual(t *testing.T) {
	span := clock.Worked(ct("09:00:00"), ct("09:00:00"))
	assert.True(t, span.IsEmpty())
	assert.Zero(t, span.OverlapWith(clock.MustTimeWindow("00:00", "00:00")))
}

func TestOverlapSum_IsAdditive(t *testing.T) {
	// GIVEN: Two exclusion windows that overlap each other
	// WHEN: Summing overlap against a shift covering both
	// THEN: The shared half hour is counted twice
	span := clock.Worked(ct("08:00:00"), ct("17:00:00"))
	windows := []clock.TimeWindow{
		clock.MustTimeWindow("12:00", "13:00"),
		clock.MustTimeWindow("12:30", "13:30"),
	}
	assert.Equal(t, 2*time.Hour, span.OverlapSum(windows))
}

// =============================================================================
// ROUNDING
// =============================================================================

func TestRoundToHalfStep(t *testing.T) {
	cases := map[string]string{
		"1.48":  "1",
		"1.5":   "1.5",
		"1.49":  "1",
		"1.99":  "1.5",
		"2":     "2",
		"0":     "0",
		"-0.2":  "0",
		"0.499": "0",
	}
	for in, want := range cases {
		got := clock.RoundToHalfStep(hours(in))
		assert.True(t, got.Equal(hours(want)), "RoundToHalfStep(%s) = %s, want %s", in, got, want)
	}
}

func TestFloorHalfHour(t *testing.T) {
	assert.Equal(t, 90*time.Minute, clock.FloorHalfHour(115*time.Minute))
	assert.Equal(t, time.Duration(0), clock.FloorHalfHour(29*time.Minute+59*time.Second))
	assert.Equal(t, time.Duration(0), clock.FloorHalfHour(-time.Hour))
}

func TestHoursOf_DurationOf(t *testing.T) {
	assert.True(t, clock.HoursOf(90*time.Minute).Equal(hours("1.5")))
	assert.Equal(t, 8*time.Hour, clock.DurationOf(hours("8")))
	assert.Equal(t, 7*time.Hour+30*time.Minute, clock.DurationOf(hours("7.5")))
}
