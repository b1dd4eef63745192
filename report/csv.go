package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/warp/attendance-engine/attendance"
)

// utf8BOM lets spreadsheet tools detect UTF-8 Korean text.
const utf8BOM = "\ufeff"

// WriteDailyCSV writes one line per employee-day, employees by name and days
// by date, behind a UTF-8 byte order mark.
func WriteDailyCSV(w io.Writer, records []attendance.Record, roster *attendance.Roster) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	header := append([]string{"카드번호"}, dailyHeader...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, g := range groupByEmployee(records, roster) {
		for _, r := range g.records {
			m := r.Metrics
			review := ""
			if r.OvertimeReview {
				review = ReviewMark
			}
			line := []string{
				g.card, g.name, r.Date.String(), clockText(r.CheckIn), clockText(r.CheckOut),
				text(m.WorkOvertimeHours), text(r.Overtime), text(m.LateEarlyHours),
				text(m.ApprovedOvertimeHours), text(m.NightWorkHours), text(m.HolidayBonusHours),
				text(m.MealAllowanceAmount), text(m.TransportAllowanceAmount), review,
			}
			if err := cw.Write(line); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func text(d decimal.Decimal) string { return d.String() }

// =============================================================================
// FILE OUTPUT
// =============================================================================

// Paths lists the files written by SaveAll.
type Paths struct {
	MonthlySummary string `json:"monthly_summary"`
	DailyDetail    string `json:"daily_detail"`
	DailyCSV       string `json:"daily_csv"`
}

// SaveAll writes the three reports for ym into dir, creating dir if needed.
func SaveAll(dir string, ym YearMonth, records []attendance.Record, roster *attendance.Roster) (Paths, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create output directory: %w", err)
	}
	paths := Paths{
		MonthlySummary: filepath.Join(dir, MonthlySummaryName(ym)),
		DailyDetail:    filepath.Join(dir, DailyDetailName(ym)),
		DailyCSV:       filepath.Join(dir, DailyCSVName(ym)),
	}

	writers := []struct {
		path  string
		write func(io.Writer) error
	}{
		{paths.MonthlySummary, func(w io.Writer) error {
			return WriteMonthlySummary(w, attendance.Summarize(records, roster))
		}},
		{paths.DailyDetail, func(w io.Writer) error { return WriteDailyDetail(w, records, roster) }},
		{paths.DailyCSV, func(w io.Writer) error { return WriteDailyCSV(w, records, roster) }},
	}
	for _, out := range writers {
		if err := writeFile(out.path, out.write); err != nil {
			return Paths{}, err
		}
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
