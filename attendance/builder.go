package attendance

import (
	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/clock"
	"github.com/warp/attendance-engine/engine"
)

// =============================================================================
// RECORD - One computed employee-day
// =============================================================================

// Record is the flat per-employee-day row handed to storage and reports.
type Record struct {
	Card     string              `json:"card"`
	Date     clock.Date          `json:"date"`
	CheckIn  *clock.ClockTime    `json:"check_in,omitempty"`
	CheckOut *clock.ClockTime    `json:"check_out,omitempty"`
	Metrics  engine.DailyMetrics `json:"metrics"`

	// Overtime is the extension hours carried to payroll; it equals the work
	// overtime.
	Overtime decimal.Decimal `json:"overtime"`

	// OvertimeReview marks days with overtime that must be matched against
	// the overtime approval list.
	OvertimeReview bool `json:"overtime_review"`
}

// Punch rebuilds the engine input the record was computed from.
func (r Record) Punch() engine.DailyPunch {
	return engine.DailyPunch{Date: r.Date, CheckIn: r.CheckIn, CheckOut: r.CheckOut}
}

// =============================================================================
// BUILDER
// =============================================================================

// Builder turns punch rows into records.
type Builder struct {
	engine *engine.Engine

	// ReviewOvertime flags every day with overtime for manual matching. Set
	// it when an overtime approval list accompanies the punch log.
	ReviewOvertime bool
}

// NewBuilder returns a builder over e.
func NewBuilder(e *engine.Engine) *Builder {
	return &Builder{engine: e}
}

// Engine returns the engine the builder computes with.
func (b *Builder) Engine() *engine.Engine { return b.engine }

// BuildOne computes a single record.
func (b *Builder) BuildOne(row PunchRow) Record {
	p := row.Punch
	m := b.engine.Compute(p)

	return Record{
		Card:           row.Card,
		Date:           p.Date,
		CheckIn:        p.CheckIn,
		CheckOut:       p.CheckOut,
		Metrics:        m,
		Overtime:       m.WorkOvertimeHours,
		OvertimeReview: b.ReviewOvertime && m.WorkOvertimeHours.IsPositive(),
	}
}

// Build computes one record per row, preserving order.
func (b *Builder) Build(rows []PunchRow) []Record {
	out := make([]Record, len(rows))
	for i, row := range rows {
		out[i] = b.BuildOne(row)
	}
	return out
}
