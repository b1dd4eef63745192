package attendance

import (
	"cmp"
	"slices"

	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/engine"
)

// UnassignedDepartment groups cards missing from the roster.
const UnassignedDepartment = "Unassigned"

// EmployeeSummary is one employee's totals over a period.
type EmployeeSummary struct {
	Card       string              `json:"card"`
	EmployeeID string              `json:"employee_id,omitempty"`
	Name       string              `json:"name"`
	Department string              `json:"department"`
	Location   string              `json:"location,omitempty"`
	Days       int                 `json:"days"`
	Totals     engine.DailyMetrics `json:"totals"`
	Overtime   decimal.Decimal     `json:"overtime"`
	Review     int                 `json:"overtime_review_days"`
}

// DepartmentSummary lists the employees of one department.
type DepartmentSummary struct {
	Department string            `json:"department"`
	Employees  []EmployeeSummary `json:"employees"`
}

// Summarize sums every metric per employee and groups employees by
// department. Departments are ordered by name with Unassigned last;
// employees by name then card. A nil roster puts everyone in Unassigned.
func Summarize(records []Record, roster *Roster) []DepartmentSummary {
	byCard := make(map[string]*EmployeeSummary)
	for _, r := range records {
		s, ok := byCard[r.Card]
		if !ok {
			s = newEmployeeSummary(r.Card, roster)
			byCard[r.Card] = s
		}
		s.Days++
		s.Totals = s.Totals.Add(r.Metrics)
		s.Overtime = s.Overtime.Add(r.Overtime)
		if r.OvertimeReview {
			s.Review++
		}
	}

	byDept := make(map[string][]EmployeeSummary)
	for _, s := range byCard {
		byDept[s.Department] = append(byDept[s.Department], *s)
	}

	out := make([]DepartmentSummary, 0, len(byDept))
	for dept, emps := range byDept {
		slices.SortFunc(emps, func(a, b EmployeeSummary) int {
			if c := cmp.Compare(a.Name, b.Name); c != 0 {
				return c
			}
			return cmp.Compare(a.Card, b.Card)
		})
		out = append(out, DepartmentSummary{Department: dept, Employees: emps})
	}
	slices.SortFunc(out, func(a, b DepartmentSummary) int {
		switch {
		case a.Department == UnassignedDepartment:
			return 1
		case b.Department == UnassignedDepartment:
			return -1
		}
		return cmp.Compare(a.Department, b.Department)
	})
	return out
}

func newEmployeeSummary(card string, roster *Roster) *EmployeeSummary {
	e, ok := roster.Lookup(card)
	if !ok {
		return &EmployeeSummary{Card: card, Name: card, Department: UnassignedDepartment}
	}
	dept := e.Department
	if dept == "" {
		dept = UnassignedDepartment
	}
	return &EmployeeSummary{
		Card:       card,
		EmployeeID: e.EmployeeID,
		Name:       e.Name,
		Department: dept,
		Location:   e.Location,
	}
}

// Total sums every employee of a department.
func (d DepartmentSummary) Total() engine.DailyMetrics {
	var t engine.DailyMetrics
	for _, e := range d.Employees {
		t = t.Add(e.Totals)
	}
	return t
}
