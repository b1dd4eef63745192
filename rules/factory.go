package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/clock"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RuleSetJSON is the on-disk rule format. Key names follow the historical
// rules.json so existing files load unchanged; the newer keys are optional.
type RuleSetJSON struct {
	Name               string            `json:"name,omitempty"`
	Version            int               `json:"version,omitempty"`
	WorkHours          *WorkHoursJSON    `json:"work_hours"`
	OvertimeExclusions []WindowJSON      `json:"overtime_exclusion_periods"`
	NightWork          *NightWorkJSON    `json:"night_work_period,omitempty"`
	HolidayBonus       *HolidayBonusJSON `json:"holiday_bonus"`
	Meal               *MealJSON         `json:"meal_allowance"`
	Transport          *TransportJSON    `json:"transport_allowance"`
	WeekendDays        []string          `json:"weekend_days,omitempty"`
}

type WorkHoursJSON struct {
	StandardStart string           `json:"standard_start"`
	StandardEnd   string           `json:"standard_end"`
	StandardHours *decimal.Decimal `json:"standard_hours"`
}

type WindowJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type NightWorkJSON struct {
	Start      string       `json:"start,omitempty"` // default 22:00
	End        string       `json:"end,omitempty"`   // default 06:00
	Exclusions []WindowJSON `json:"exclusion_periods"`
}

type HolidayBonusJSON struct {
	MinApprovedOTHours *decimal.Decimal `json:"min_approved_ot_hours"`
	BonusHours         *decimal.Decimal `json:"bonus_hours,omitempty"` // default 8
	RestDay            string           `json:"rest_day,omitempty"`    // default sunday
}

type MealJSON struct {
	WeekdayPeriods  []WindowJSON     `json:"weekday_periods"`
	WeekendPeriods  []WindowJSON     `json:"weekend_periods"`
	AmountPerPeriod *decimal.Decimal `json:"amount_per_period"`
}

type TransportJSON struct {
	WeekdayAmount         *decimal.Decimal `json:"weekday_amount"`
	WeekendAmount         *decimal.Decimal `json:"weekend_amount"`
	WeekdayCheckoutCutoff string           `json:"weekday_checkout_cutoff,omitempty"` // default 22:00
}

// Defaults for keys absent from older rule files.
var (
	DefaultNightWindow        = clock.MustTimeWindow("22:00", "06:00")
	DefaultBonusHours         = decimal.NewFromInt(8)
	DefaultRestDay            = time.Sunday
	DefaultLateCheckoutCutoff = clock.MustClockTime(22, 0, 0)
	DefaultWeekendDays        = []time.Weekday{time.Saturday, time.Sunday}
)

// =============================================================================
// FACTORY
// =============================================================================

// Factory converts rule JSON into validated RuleSets.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

// Load reads and validates a rule file.
func (f *Factory) Load(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules %s: %w", path, err)
	}
	rs, err := f.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("rules %s: %w", path, err)
	}
	return rs, nil
}

// Parse decodes a JSON document and validates it.
func (f *Factory) Parse(data []byte) (*RuleSet, error) {
	var rj RuleSetJSON
	if err := json.Unmarshal(data, &rj); err != nil {
		return nil, &ConfigurationError{Field: "$", Reason: "malformed JSON: " + err.Error()}
	}
	return f.FromJSON(rj)
}

// FromJSON validates rj field by field. Every problem found is reported, not
// just the first, joined into one error.
func (f *Factory) FromJSON(rj RuleSetJSON) (*RuleSet, error) {
	v := &validator{}
	rs := &RuleSet{
		Name:    rj.Name,
		Version: rj.Version,
	}
	if rs.Version == 0 {
		rs.Version = 1
	}

	if rj.WorkHours == nil {
		v.missing("work_hours")
	} else {
		rs.StandardStart = v.clockTime("work_hours.standard_start", rj.WorkHours.StandardStart)
		rs.StandardEnd = v.clockTime("work_hours.standard_end", rj.WorkHours.StandardEnd)
		rs.StandardDailyHours = v.hours("work_hours.standard_hours", rj.WorkHours.StandardHours, true)
	}

	rs.OvertimeExclusions = v.windows("overtime_exclusion_periods", rj.OvertimeExclusions)

	rs.Night.Window = DefaultNightWindow
	if rj.NightWork != nil {
		if rj.NightWork.Start != "" || rj.NightWork.End != "" {
			rs.Night.Window = v.window("night_work_period", WindowJSON{Start: rj.NightWork.Start, End: rj.NightWork.End})
		}
		rs.Night.Exclusions = v.windows("night_work_period.exclusion_periods", rj.NightWork.Exclusions)
	}

	if rj.HolidayBonus == nil {
		v.missing("holiday_bonus")
	} else {
		hb := rj.HolidayBonus
		rs.HolidayBonus.ThresholdHours = v.hours("holiday_bonus.min_approved_ot_hours", hb.MinApprovedOTHours, false)
		rs.HolidayBonus.AmountHours = DefaultBonusHours
		if hb.BonusHours != nil {
			rs.HolidayBonus.AmountHours = v.hours("holiday_bonus.bonus_hours", hb.BonusHours, false)
		}
		rs.HolidayBonus.RestDay = DefaultRestDay
		if hb.RestDay != "" {
			rs.HolidayBonus.RestDay = v.weekday("holiday_bonus.rest_day", hb.RestDay)
		}
	}

	if rj.Meal == nil {
		v.missing("meal_allowance")
	} else {
		rs.Meal.WeekdayWindows = v.windows("meal_allowance.weekday_periods", rj.Meal.WeekdayPeriods)
		rs.Meal.WeekendWindows = v.windows("meal_allowance.weekend_periods", rj.Meal.WeekendPeriods)
		rs.Meal.AmountPerWindow = v.amount("meal_allowance.amount_per_period", rj.Meal.AmountPerPeriod)
	}

	if rj.Transport == nil {
		v.missing("transport_allowance")
	} else {
		rs.Transport.WeekdayAmount = v.amount("transport_allowance.weekday_amount", rj.Transport.WeekdayAmount)
		rs.Transport.WeekendAmount = v.amount("transport_allowance.weekend_amount", rj.Transport.WeekendAmount)
		rs.Transport.LateCheckoutCutoff = DefaultLateCheckoutCutoff
		if rj.Transport.WeekdayCheckoutCutoff != "" {
			rs.Transport.LateCheckoutCutoff = v.clockTime("transport_allowance.weekday_checkout_cutoff", rj.Transport.WeekdayCheckoutCutoff)
		}
	}

	rs.WeekendDays = DefaultWeekendDays
	if len(rj.WeekendDays) > 0 {
		rs.WeekendDays = nil
		for i, d := range rj.WeekendDays {
			rs.WeekendDays = append(rs.WeekendDays, v.weekday(fmt.Sprintf("weekend_days[%d]", i), d))
		}
	}

	if err := v.err(); err != nil {
		return nil, err
	}
	return rs.Clone(), nil
}

// ToJSON renders rs back into the file schema.
func ToJSON(rs *RuleSet) RuleSetJSON {
	windows := func(ws []clock.TimeWindow) []WindowJSON {
		out := make([]WindowJSON, len(ws))
		for i, w := range ws {
			out[i] = WindowJSON{Start: w.Start.String(), End: w.End.String()}
		}
		return out
	}
	ptr := func(d decimal.Decimal) *decimal.Decimal { return &d }

	weekend := make([]string, len(rs.WeekendDays))
	for i, d := range rs.WeekendDays {
		weekend[i] = strings.ToLower(d.String())
	}

	return RuleSetJSON{
		Name:    rs.Name,
		Version: rs.Version,
		WorkHours: &WorkHoursJSON{
			StandardStart: rs.StandardStart.String(),
			StandardEnd:   rs.StandardEnd.String(),
			StandardHours: ptr(rs.StandardDailyHours),
		},
		OvertimeExclusions: windows(rs.OvertimeExclusions),
		NightWork: &NightWorkJSON{
			Start:      rs.Night.Window.Start.String(),
			End:        rs.Night.Window.End.String(),
			Exclusions: windows(rs.Night.Exclusions),
		},
		HolidayBonus: &HolidayBonusJSON{
			MinApprovedOTHours: ptr(rs.HolidayBonus.ThresholdHours),
			BonusHours:         ptr(rs.HolidayBonus.AmountHours),
			RestDay:            strings.ToLower(rs.HolidayBonus.RestDay.String()),
		},
		Meal: &MealJSON{
			WeekdayPeriods:  windows(rs.Meal.WeekdayWindows),
			WeekendPeriods:  windows(rs.Meal.WeekendWindows),
			AmountPerPeriod: ptr(rs.Meal.AmountPerWindow),
		},
		Transport: &TransportJSON{
			WeekdayAmount:         ptr(rs.Transport.WeekdayAmount),
			WeekendAmount:         ptr(rs.Transport.WeekendAmount),
			WeekdayCheckoutCutoff: rs.Transport.LateCheckoutCutoff.String(),
		},
		WeekendDays: weekend,
	}
}

// =============================================================================
// FIELD VALIDATION
// =============================================================================

// validator accumulates field errors so a bad rule file is reported in one
// pass.
type validator struct {
	errs []error
}

func (v *validator) fail(field, value, reason string) {
	v.errs = append(v.errs, &ConfigurationError{Field: field, Value: value, Reason: reason})
}

func (v *validator) missing(field string) {
	v.fail(field, "", "is required")
}

func (v *validator) err() error {
	return errors.Join(v.errs...)
}

func (v *validator) clockTime(field, raw string) clock.ClockTime {
	if raw == "" {
		v.missing(field)
		return clock.ClockTime{}
	}
	ct, err := clock.ParseClockTime(raw)
	if err != nil {
		v.fail(field, raw, "not a valid time of day (HH:MM or HH:MM:SS)")
	}
	return ct
}

func (v *validator) window(field string, wj WindowJSON) clock.TimeWindow {
	return clock.TimeWindow{
		Start: v.clockTime(field+".start", wj.Start),
		End:   v.clockTime(field+".end", wj.End),
	}
}

func (v *validator) windows(field string, wjs []WindowJSON) []clock.TimeWindow {
	out := make([]clock.TimeWindow, 0, len(wjs))
	for i, wj := range wjs {
		out = append(out, v.window(fmt.Sprintf("%s[%d]", field, i), wj))
	}
	return out
}

// hours checks a non-negative hour quantity no longer than a day.
func (v *validator) hours(field string, d *decimal.Decimal, positive bool) decimal.Decimal {
	if d == nil {
		v.missing(field)
		return decimal.Zero
	}
	switch {
	case d.IsNegative():
		v.fail(field, d.String(), "must not be negative")
	case positive && d.IsZero():
		v.fail(field, d.String(), "must be greater than zero")
	case d.GreaterThan(decimal.NewFromInt(24)):
		v.fail(field, d.String(), "must not exceed 24 hours")
	}
	return *d
}

func (v *validator) amount(field string, d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		v.missing(field)
		return decimal.Zero
	}
	if d.IsNegative() {
		v.fail(field, d.String(), "must not be negative")
	}
	return *d
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

func (v *validator) weekday(field, raw string) time.Weekday {
	wd, ok := weekdays[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		v.fail(field, raw, "not a weekday name")
	}
	return wd
}
