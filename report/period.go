package report

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/clock"
)

// YearMonth names the payroll month a report covers.
type YearMonth struct {
	Year  int
	Month time.Month
}

func (ym YearMonth) String() string { return fmt.Sprintf("%04d_%02d", ym.Year, int(ym.Month)) }

// IsZero reports whether ym is unset.
func (ym YearMonth) IsZero() bool { return ym.Year == 0 }

// First and Last are the bounding dates of the month.
func (ym YearMonth) First() clock.Date { return clock.NewDate(ym.Year, ym.Month, 1) }
func (ym YearMonth) Last() clock.Date  { return clock.DateOf(ym.First().Time().AddDate(0, 1, -1)) }

var monthPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{4})년\s*(\d{1,2})월`),
	regexp.MustCompile(`(\d{4})[-_.](\d{1,2})(?:\D|$)`),
	regexp.MustCompile(`(?:^|\D)(\d{4})(\d{2})(?:\D|$)`),
}

// MonthFromName extracts the month from a punch-log file name such as
// "2025년 9월.txt", "2025-09.txt" or "202509.txt".
func MonthFromName(name string) (YearMonth, bool) {
	base := filepath.Base(name)
	for _, re := range monthPatterns {
		m := re.FindStringSubmatch(base)
		if m == nil {
			continue
		}
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month >= 1 && month <= 12 {
			return YearMonth{Year: year, Month: time.Month(month)}, true
		}
	}
	return YearMonth{}, false
}

// MonthOf returns the month holding most of the records, earliest month on
// a tie. ok is false for no records.
func MonthOf(records []attendance.Record) (ym YearMonth, ok bool) {
	counts := make(map[YearMonth]int)
	for _, r := range records {
		counts[YearMonth{Year: r.Date.Year(), Month: r.Date.Month()}]++
	}
	best := 0
	for k, n := range counts {
		if n > best || (n == best && k.before(ym)) {
			ym, best = k, n
		}
	}
	return ym, best > 0
}

func (ym YearMonth) before(o YearMonth) bool {
	return ym.Year < o.Year || (ym.Year == o.Year && ym.Month < o.Month)
}

// Output file names for one month.
func MonthlySummaryName(ym YearMonth) string { return ym.String() + "_monthly_summary.xlsx" }
func DailyDetailName(ym YearMonth) string    { return ym.String() + "_daily_detail.xlsx" }
func DailyCSVName(ym YearMonth) string       { return ym.String() + "_daily.csv" }
