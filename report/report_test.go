package report_test

import (
	"bytes"
	"encoding/csv"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/clock"
	"github.com/warp/attendance-engine/engine"
	"github.com/warp/attendance-engine/report"
	"github.com/warp/attendance-engine/rules"
)

// =============================================================================
// FIXTURES
// =============================================================================

func fixture() ([]attendance.Record, *attendance.Roster) {
	roster := attendance.NewRoster([]attendance.Employee{
		{Card: "0002", Name: "홍길동", Department: "생산1팀(평택)"},
		{Card: "0017", Name: "김철수", Department: "관리팀"},
	})
	b := attendance.NewBuilder(engine.New(rules.Standard()))
	b.ReviewOvertime = true

	punch := func(card, date, in, out string) attendance.PunchRow {
		return attendance.PunchRow{Card: card, Punch: engine.NewPunch(
			clock.MustParseDate(date), clock.MustParseClockTime(in), clock.MustParseClockTime(out))}
	}
	records := b.Build([]attendance.PunchRow{
		punch("0002", "2025-09-02", "08:00", "22:00"),
		punch("0002", "2025-09-01", "08:00", "17:00"),
		punch("0017", "2025-09-01", "08:00", "17:00"),
		punch("0099", "2025-09-01", "09:00", "18:00"),
	})
	return records, roster
}

func openWorkbook(t *testing.T, buf *bytes.Buffer) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

// =============================================================================
// WORKBOOKS
// =============================================================================

func TestWriteMonthlySummary_SheetPerDepartment(t *testing.T) {
	// GIVEN: Records from two departments plus an unknown card
	records, roster := fixture()

	// WHEN: Rendering the summary
	var buf bytes.Buffer
	require.NoError(t, report.WriteMonthlySummary(&buf, attendance.Summarize(records, roster)))

	// THEN: One sheet per department, totals per employee
	f := openWorkbook(t, &buf)
	assert.Equal(t, []string{"관리팀", "생산1팀(평택)", attendance.UnassignedDepartment}, f.GetSheetList())

	rows, err := f.GetRows("생산1팀(평택)")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "성명", rows[0][0])
	assert.Equal(t, "홍길동", rows[1][0])
	assert.Equal(t, "2", rows[1][3], "worked days")
	assert.Equal(t, "4", rows[1][4], "work overtime 14h - 2h breaks - 8h")
	assert.Equal(t, "5000", rows[1][11], "one late check-out")

	style, err := f.GetCellStyle("관리팀", "A1")
	require.NoError(t, err)
	s, err := f.GetStyle(style)
	require.NoError(t, err)
	assert.True(t, s.Font.Bold)
	assert.Equal(t, "center", s.Alignment.Horizontal)

	width, err := f.GetColWidth("관리팀", "A")
	require.NoError(t, err)
	assert.Equal(t, float64(5), width, "three-character name plus two")
}

func TestWriteDailyDetail_SheetPerEmployee(t *testing.T) {
	records, roster := fixture()

	var buf bytes.Buffer
	require.NoError(t, report.WriteDailyDetail(&buf, records, roster))

	f := openWorkbook(t, &buf)
	assert.Equal(t, []string{"0099", "김철수", "홍길동"}, f.GetSheetList())

	rows, err := f.GetRows("홍길동")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "2025-09-01", rows[1][1], "days in date order")
	assert.Equal(t, "2025-09-02", rows[2][1])
	assert.Equal(t, "22:00:00", rows[2][3])
	assert.Equal(t, report.ReviewMark, rows[2][12])
}

func TestWorkbooks_EmptyInputStillHasHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteDailyDetail(&buf, nil, nil))

	f := openWorkbook(t, &buf)
	require.Len(t, f.GetSheetList(), 1)
	rows, err := f.GetRows(f.GetSheetList()[0])
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "a_b_c", report.SheetName("a/b?c"))
	assert.Equal(t, "Sheet", report.SheetName("  "))
	long := strings.Repeat("가", 40)
	assert.Equal(t, 31, len([]rune(report.SheetName(long))))
}

// =============================================================================
// CSV
// =============================================================================

func TestWriteDailyCSV(t *testing.T) {
	records, roster := fixture()

	var buf bytes.Buffer
	require.NoError(t, report.WriteDailyCSV(&buf, records, roster))

	data := buf.String()
	require.True(t, strings.HasPrefix(data, "\ufeff"))

	lines, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(data, "\ufeff"))).ReadAll()
	require.NoError(t, err)
	require.Len(t, lines, 5)
	assert.Equal(t, "카드번호", lines[0][0])
	assert.Equal(t, []string{"0099", "0099", "2025-09-01", "09:00:00", "18:00:00"}, lines[1][:5])
	assert.Equal(t, "4", lines[4][5])
}

// =============================================================================
// FILE NAMES AND MONTHS
// =============================================================================

func TestMonthFromName(t *testing.T) {
	cases := map[string]report.YearMonth{
		"data/2025년 9월.txt": {Year: 2025, Month: time.September},
		"2025년12월.txt":      {Year: 2025, Month: time.December},
		"punch-2025-09.txt":  {Year: 2025, Month: time.September},
		"202510.txt":         {Year: 2025, Month: time.October},
	}
	for name, want := range cases {
		got, ok := report.MonthFromName(name)
		assert.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	_, ok := report.MonthFromName("attendance.txt")
	assert.False(t, ok)
	_, ok = report.MonthFromName("2025-13.txt")
	assert.False(t, ok)
}

func TestMonthOf(t *testing.T) {
	records, _ := fixture()
	ym, ok := report.MonthOf(records)
	require.True(t, ok)
	assert.Equal(t, "2025_09", ym.String())
	assert.Equal(t, "2025-09-30", ym.Last().String())
	assert.Equal(t, "2025_09_monthly_summary.xlsx", report.MonthlySummaryName(ym))

	_, ok = report.MonthOf(nil)
	assert.False(t, ok)
}

func TestSaveAll(t *testing.T) {
	records, roster := fixture()
	dir := t.TempDir()

	paths, err := report.SaveAll(dir+"/out", report.YearMonth{Year: 2025, Month: time.September}, records, roster)
	require.NoError(t, err)

	for _, p := range []string{paths.MonthlySummary, paths.DailyDetail, paths.DailyCSV} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
	assert.True(t, strings.HasSuffix(paths.DailyCSV, "2025_09_daily.csv"))
}
