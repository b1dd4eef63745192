package attendance

import (
	"cmp"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"
)

// DefaultLocation is used for employees whose department name carries no
// site in parentheses.
const DefaultLocation = "화성"

const employeeIDWidth = 9
const departmentCodeWidth = 4

// Employee is one roster entry. Card links the employee to punch-log rows.
type Employee struct {
	Card           string `json:"card"`
	EmployeeID     string `json:"employee_id"`
	Name           string `json:"name"`
	DepartmentCode string `json:"department_code"`
	Department     string `json:"department"`
	Position       string `json:"position"`
	Location       string `json:"location"`
}

// =============================================================================
// ROSTER - Card-indexed employee lookup
// =============================================================================

// Roster indexes employees by card number.
type Roster struct {
	byCard map[string]Employee
	list   []Employee
}

// NewRoster builds a roster. A later entry for the same card replaces an
// earlier one.
func NewRoster(employees []Employee) *Roster {
	r := &Roster{byCard: make(map[string]Employee, len(employees))}
	for _, e := range employees {
		e.Card = PadCard(e.Card)
		r.byCard[e.Card] = e
	}
	r.list = make([]Employee, 0, len(r.byCard))
	for _, e := range r.byCard {
		r.list = append(r.list, e)
	}
	slices.SortFunc(r.list, func(a, b Employee) int { return cmp.Compare(a.Card, b.Card) })
	return r
}

// Lookup finds the employee holding card. A nil roster finds nothing.
func (r *Roster) Lookup(card string) (Employee, bool) {
	if r == nil {
		return Employee{}, false
	}
	e, ok := r.byCard[PadCard(card)]
	return e, ok
}

// Employees returns every employee ordered by card.
func (r *Roster) Employees() []Employee {
	if r == nil {
		return nil
	}
	return slices.Clone(r.list)
}

// Len is the number of employees.
func (r *Roster) Len() int {
	if r == nil {
		return 0
	}
	return len(r.list)
}

// =============================================================================
// WORKBOOK LOADING
// =============================================================================

type rosterColumn int

const (
	colCard rosterColumn = iota
	colEmployeeID
	colName
	colDepartmentCode
	colDepartment
	colPosition
)

// headerAliases maps normalized header text to a roster column. The Korean
// headers are those of the HR system export.
var headerAliases = map[string]rosterColumn{
	"카드번호":            colCard,
	"card":            colCard,
	"card_no":         colCard,
	"card_number":     colCard,
	"사원코드":            colEmployeeID,
	"사번":              colEmployeeID,
	"employee_id":     colEmployeeID,
	"사원명":             colName,
	"성명":              colName,
	"name":            colName,
	"부서코드":            colDepartmentCode,
	"department_code": colDepartmentCode,
	"부서명":             colDepartment,
	"부서":              colDepartment,
	"department":      colDepartment,
	"직급":              colPosition,
	"position":        colPosition,
}

var locationPattern = regexp.MustCompile(`\(([^)]+)\)`)

// LocationOf returns the text inside the first parentheses of a department
// name, or fallback.
func LocationOf(department, fallback string) string {
	if m := locationPattern.FindStringSubmatch(department); m != nil {
		return strings.TrimSpace(m[1])
	}
	return fallback
}

// LoadRosterFile reads an employee workbook from disk.
func LoadRosterFile(path, defaultLocation string) (*Roster, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open roster %s: %w", path, err)
	}
	defer f.Close()
	return readRoster(f, defaultLocation)
}

// LoadRoster reads an employee workbook. The first sheet must start with a
// header row naming at least the card number and employee name columns.
// Rows without a card number are skipped.
func LoadRoster(r io.Reader, defaultLocation string) (*Roster, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoster, err)
	}
	defer f.Close()
	return readRoster(f, defaultLocation)
}

func readRoster(f *excelize.File, defaultLocation string) (*Roster, error) {
	if defaultLocation == "" {
		defaultLocation = DefaultLocation
	}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidRoster)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read roster sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %s is empty", ErrInvalidRoster, sheets[0])
	}

	index := make(map[rosterColumn]int)
	for i, h := range rows[0] {
		if col, ok := headerAliases[strings.ToLower(strings.TrimSpace(h))]; ok {
			if _, seen := index[col]; !seen {
				index[col] = i
			}
		}
	}
	for _, required := range []rosterColumn{colCard, colName} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("%w: header row needs card number and employee name columns", ErrInvalidRoster)
		}
	}

	cell := func(row []string, col rosterColumn) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var employees []Employee
	for _, row := range rows[1:] {
		card := cell(row, colCard)
		if card == "" {
			continue
		}
		dept := cell(row, colDepartment)
		employees = append(employees, Employee{
			Card:           PadCard(card),
			EmployeeID:     padDigits(cell(row, colEmployeeID), employeeIDWidth),
			Name:           cell(row, colName),
			DepartmentCode: padDigits(cell(row, colDepartmentCode), departmentCodeWidth),
			Department:     dept,
			Position:       cell(row, colPosition),
			Location:       LocationOf(dept, defaultLocation),
		})
	}
	return NewRoster(employees), nil
}
