/*
Package attendance holds the collaborators around the rule engine: the
punch-log parser, the employee roster, the daily record builder, period
aggregation and the persistence contract.

PUNCH LOG FORMAT:
  One event per line, fixed width, no separators:

    20250901075918 1 0002   ->  "2025090107591810002"
    ^date   ^time  ^code ^card

    [0:8]   date YYYYMMDD
    [8:14]  time HHMMSS
    [14]    code: 1 = check-in, 2 = check-out
    [15:]   card number (left-padded with zeros to 4 digits)

  Per card and date the earliest check-in and the latest check-out are kept.
  A day with only one kind of event yields a punch with the other side
  missing, which the engine treats as a neutral input.

PIPELINE:
  ParseLog -> Builder.Build -> Store.SaveRecords -> Summarize -> report

SEE ALSO:
  - engine: metric computation
  - report: workbook and CSV rendering
*/
package attendance

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/warp/attendance-engine/clock"
	"github.com/warp/attendance-engine/engine"
)

const (
	// CodeCheckIn marks a check-in event.
	CodeCheckIn = '1'
	// CodeCheckOut marks a check-out event.
	CodeCheckOut = '2'

	minLineLength = 16
	cardWidth     = 4
)

// PunchRow is one card's punches for one date.
type PunchRow struct {
	Card  string
	Punch engine.DailyPunch
}

// ParseResult is the outcome of reading a punch log.
type ParseResult struct {
	Rows     []PunchRow
	Rejected []*LineError
	Lines    int // non-blank lines read
	Events   int // lines accepted
}

// ParseLog reads a fixed-width punch log. Malformed lines are collected in
// Rejected and skipped; only read failures are returned as errors.
func ParseLog(r io.Reader) (*ParseResult, error) {
	type dayKey struct {
		card string
		date string
	}

	res := &ParseResult{}
	days := make(map[dayKey]*PunchRow)

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		text := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff"))
		if text == "" {
			continue
		}
		res.Lines++

		card, date, at, code, reason := parseLine(text)
		if reason != "" {
			res.Rejected = append(res.Rejected, &LineError{Line: lineNo, Text: text, Reason: reason})
			continue
		}
		res.Events++

		k := dayKey{card: card, date: date.String()}
		row, ok := days[k]
		if !ok {
			row = &PunchRow{Card: card, Punch: engine.DailyPunch{Date: date}}
			days[k] = row
		}
		switch code {
		case CodeCheckIn:
			if row.Punch.CheckIn == nil || at.Before(*row.Punch.CheckIn) {
				row.Punch.CheckIn = at.Ptr()
			}
		case CodeCheckOut:
			if row.Punch.CheckOut == nil || at.After(*row.Punch.CheckOut) {
				row.Punch.CheckOut = at.Ptr()
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read punch log: %w", err)
	}

	res.Rows = make([]PunchRow, 0, len(days))
	for _, row := range days {
		res.Rows = append(res.Rows, *row)
	}
	slices.SortFunc(res.Rows, func(a, b PunchRow) int {
		if c := cmp.Compare(a.Card, b.Card); c != 0 {
			return c
		}
		return a.Punch.Date.Time().Compare(b.Punch.Date.Time())
	})
	return res, nil
}

func parseLine(text string) (card string, date clock.Date, at clock.ClockTime, code byte, reason string) {
	if len(text) < minLineLength {
		return "", clock.Date{}, clock.ClockTime{}, 0, "line too short"
	}
	var err error
	if date, err = clock.ParseDate(text[0:8]); err != nil {
		return "", clock.Date{}, clock.ClockTime{}, 0, "invalid date"
	}
	if at, err = clock.ParseClockTime(text[8:14]); err != nil {
		return "", clock.Date{}, clock.ClockTime{}, 0, "invalid time"
	}
	code = text[14]
	if code != CodeCheckIn && code != CodeCheckOut {
		return "", clock.Date{}, clock.ClockTime{}, 0, fmt.Sprintf("unknown event code %q", code)
	}
	card = strings.TrimSpace(text[15:])
	if card == "" {
		return "", clock.Date{}, clock.ClockTime{}, 0, "missing card number"
	}
	return PadCard(card), date, at, code, ""
}

// PadCard left-pads a numeric card number with zeros to four digits.
func PadCard(card string) string {
	return padDigits(strings.TrimSpace(card), cardWidth)
}

// padDigits left-pads s with zeros to width when s is all digits. Spreadsheet
// cells holding integers may come back as "12.0"; the fraction is dropped.
func padDigits(s string, width int) string {
	if whole, frac, ok := strings.Cut(s, "."); ok && strings.Trim(frac, "0") == "" {
		s = whole
	}
	if s == "" || strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return s
	}
	if len(s) < width {
		s = strings.Repeat("0", width-len(s)) + s
	}
	return s
}
