/*
dto.go - Data Transfer Objects for API requests and responses

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *DTO / *Response: Types returned to clients

Domain types (attendance.Record, attendance.Employee, attendance.Import,
engine.DailyMetrics) already carry JSON tags and are returned as they are.
Decimal fields serialize as strings ("1.5") to keep half-hour values exact.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/engine"
	"github.com/warp/attendance-engine/rules"
)

// MetricsRequest is one punch to evaluate. Empty check_in or check_out means
// the punch is missing.
type MetricsRequest struct {
	Date     string `json:"date"`
	CheckIn  string `json:"check_in,omitempty"`
	CheckOut string `json:"check_out,omitempty"`
}

// MetricsResponse is the evaluated punch.
type MetricsResponse struct {
	Date     string              `json:"date"`
	CheckIn  string              `json:"check_in,omitempty"`
	CheckOut string              `json:"check_out,omitempty"`
	Weekend  bool                `json:"weekend"`
	Metrics  engine.DailyMetrics `json:"metrics"`
}

// RulesResponse is the active rule set in its file form.
type RulesResponse struct {
	Rules rules.RuleSetJSON `json:"rules"`
}

// RosterResponse reports a roster upload.
type RosterResponse struct {
	Count     int                   `json:"count"`
	Employees []attendance.Employee `json:"employees"`
}

// SummaryResponse is the period summary grouped by department.
type SummaryResponse struct {
	From        string                         `json:"from,omitempty"`
	To          string                         `json:"to,omitempty"`
	Departments []attendance.DepartmentSummary `json:"departments"`
}

// ScanResponse reports a manual inbox scan.
type ScanResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// HealthResponse is returned by the health check.
type HealthResponse struct {
	Status string `json:"status"`
	Rules  string `json:"rules"`
}

// ErrorResponse is returned on errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
