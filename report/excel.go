/*
Package report renders computed attendance into payroll workbooks and CSV.

OUTPUTS:
  Monthly summary  one sheet per department, one row per employee with the
                   period totals
  Daily detail     one sheet per employee, one row per day sorted by date
  Daily CSV        every day of every employee in one UTF-8 (BOM) file

LAYOUT:
  Header row bold on grey (D3D3D3), thin borders and centered text on every
  cell, column width = longest value + 2 capped at 50. Sheet names are cut to
  Excel's 31 character limit and de-duplicated.

  Hours and amounts are written as numbers so payroll can sum them; clock
  times and dates as text.

SEE ALSO:
  - attendance/summary.go: the per-department totals rendered here
*/
package report

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/clock"
)

const (
	maxSheetName   = 31
	maxColumnWidth = 50
	defaultSheet   = "Sheet1"

	// ReviewMark flags a day whose overtime must be matched to approvals.
	ReviewMark = "확인필요"
)

var (
	summaryHeader = []string{"성명", "카드번호", "사원코드", "근무일수", "근무 OT", "연장", "지각/조퇴", "인정 OT", "야간적용", "휴일추가", "식대", "교통비"}
	dailyHeader   = []string{"성명", "날짜", "출근", "퇴근", "근무 OT", "연장", "지각/조퇴", "인정 OT", "야간적용", "휴일추가", "식대", "교통비", "연장확인"}
)

// =============================================================================
// MONTHLY SUMMARY
// =============================================================================

// MonthlySummaryWorkbook builds the per-department summary workbook.
func MonthlySummaryWorkbook(depts []attendance.DepartmentSummary) (*excelize.File, error) {
	wb, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	for _, d := range depts {
		rows := make([][]any, 0, len(d.Employees))
		for _, e := range d.Employees {
			t := e.Totals
			rows = append(rows, []any{
				e.Name, e.Card, e.EmployeeID, e.Days,
				num(t.WorkOvertimeHours), num(e.Overtime), num(t.LateEarlyHours),
				num(t.ApprovedOvertimeHours), num(t.NightWorkHours), num(t.HolidayBonusHours),
				num(t.MealAllowanceAmount), num(t.TransportAllowanceAmount),
			})
		}
		if err := wb.addTable(d.Department, summaryHeader, rows); err != nil {
			return nil, err
		}
	}
	return wb.finish("summary", summaryHeader)
}

// WriteMonthlySummary writes the summary workbook to w.
func WriteMonthlySummary(w io.Writer, depts []attendance.DepartmentSummary) error {
	f, err := MonthlySummaryWorkbook(depts)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// =============================================================================
// DAILY DETAIL
// =============================================================================

// employeeDays is one employee's records in date order.
type employeeDays struct {
	card    string
	name    string
	records []attendance.Record
}

func groupByEmployee(records []attendance.Record, roster *attendance.Roster) []employeeDays {
	byCard := make(map[string]*employeeDays)
	for _, r := range records {
		g, ok := byCard[r.Card]
		if !ok {
			name := r.Card
			if e, found := roster.Lookup(r.Card); found && e.Name != "" {
				name = e.Name
			}
			g = &employeeDays{card: r.Card, name: name}
			byCard[r.Card] = g
		}
		g.records = append(g.records, r)
	}

	out := make([]employeeDays, 0, len(byCard))
	for _, g := range byCard {
		slices.SortFunc(g.records, func(a, b attendance.Record) int {
			return a.Date.Time().Compare(b.Date.Time())
		})
		out = append(out, *g)
	}
	slices.SortFunc(out, func(a, b employeeDays) int {
		if c := cmp.Compare(a.name, b.name); c != 0 {
			return c
		}
		return cmp.Compare(a.card, b.card)
	})
	return out
}

func dailyRow(name string, r attendance.Record) []any {
	m := r.Metrics
	review := ""
	if r.OvertimeReview {
		review = ReviewMark
	}
	return []any{
		name, r.Date.String(), clockText(r.CheckIn), clockText(r.CheckOut),
		num(m.WorkOvertimeHours), num(r.Overtime), num(m.LateEarlyHours),
		num(m.ApprovedOvertimeHours), num(m.NightWorkHours), num(m.HolidayBonusHours),
		num(m.MealAllowanceAmount), num(m.TransportAllowanceAmount), review,
	}
}

// DailyDetailWorkbook builds the per-employee detail workbook.
func DailyDetailWorkbook(records []attendance.Record, roster *attendance.Roster) (*excelize.File, error) {
	wb, err := newWorkbook()
	if err != nil {
		return nil, err
	}
	for _, g := range groupByEmployee(records, roster) {
		rows := make([][]any, 0, len(g.records))
		for _, r := range g.records {
			rows = append(rows, dailyRow(g.name, r))
		}
		if err := wb.addTable(g.name, dailyHeader, rows); err != nil {
			return nil, err
		}
	}
	return wb.finish("detail", dailyHeader)
}

// WriteDailyDetail writes the detail workbook to w.
func WriteDailyDetail(w io.Writer, records []attendance.Record, roster *attendance.Roster) error {
	f, err := DailyDetailWorkbook(records, roster)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// =============================================================================
// WORKBOOK HELPERS
// =============================================================================

type workbook struct {
	f           *excelize.File
	headerStyle int
	cellStyle   int
	names       map[string]bool
	sheets      int
}

func newWorkbook() (*workbook, error) {
	f := excelize.NewFile()
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"D3D3D3"}, Pattern: 1},
		Alignment: center,
		Border:    border,
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}
	cellStyle, err := f.NewStyle(&excelize.Style{Alignment: center, Border: border})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("cell style: %w", err)
	}
	return &workbook{f: f, headerStyle: headerStyle, cellStyle: cellStyle, names: make(map[string]bool)}, nil
}

// addTable writes header and rows to a new sheet. The first table reuses the
// default sheet.
func (wb *workbook) addTable(title string, header []string, rows [][]any) error {
	name := wb.uniqueName(title)
	if wb.sheets == 0 {
		if err := wb.f.SetSheetName(defaultSheet, name); err != nil {
			return fmt.Errorf("rename sheet %q: %w", name, err)
		}
	} else if _, err := wb.f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %q: %w", name, err)
	}
	wb.sheets++

	widths := make([]int, len(header))
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
		widths[i] = utf8.RuneCountInString(h)
	}
	if err := wb.f.SetSheetRow(name, "A1", &headerRow); err != nil {
		return err
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := wb.f.SetSheetRow(name, cell, &row); err != nil {
			return err
		}
		for c, v := range row {
			if c < len(widths) {
				widths[c] = max(widths[c], utf8.RuneCountInString(fmt.Sprint(v)))
			}
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := wb.f.SetCellStyle(name, "A1", lastCol+"1", wb.headerStyle); err != nil {
		return err
	}
	if len(rows) > 0 {
		if err := wb.f.SetCellStyle(name, "A2", fmt.Sprintf("%s%d", lastCol, len(rows)+1), wb.cellStyle); err != nil {
			return err
		}
	}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := wb.f.SetColWidth(name, col, col, float64(min(w+2, maxColumnWidth))); err != nil {
			return err
		}
	}
	return nil
}

// finish leaves a header-only sheet in an otherwise empty workbook.
func (wb *workbook) finish(emptyTitle string, header []string) (*excelize.File, error) {
	if wb.sheets == 0 {
		if err := wb.addTable(emptyTitle, header, nil); err != nil {
			wb.f.Close()
			return nil, err
		}
	}
	wb.f.SetActiveSheet(0)
	return wb.f, nil
}

// uniqueName makes title a legal sheet name not used yet in this workbook.
func (wb *workbook) uniqueName(title string) string {
	base := SheetName(title)
	name := base
	for n := 2; wb.names[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf("~%d", n)
		name = truncateRunes(base, maxSheetName-len(suffix)) + suffix
	}
	wb.names[strings.ToLower(name)] = true
	return name
}

// SheetName replaces characters Excel forbids in sheet names and cuts the
// result to 31 characters.
func SheetName(title string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	name = strings.Trim(name, "'")
	if name == "" {
		name = "Sheet"
	}
	return truncateRunes(name, maxSheetName)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func num(d decimal.Decimal) float64 { return d.InexactFloat64() }

func clockText(c *clock.ClockTime) string {
	if c == nil {
		return ""
	}
	return c.String()
}
