/*
handlers.go - HTTP API handlers for the attendance engine

PURPOSE:
  Exposes punch-log import, metric evaluation and payroll reports over REST.
  Handles HTTP request/response and JSON serialization, and delegates to the
  attendance, engine and report packages.

ENDPOINTS:
  Rules:
    GET    /api/health                 Liveness and active rule set
    GET    /api/rules                  Active rule set
    POST   /api/metrics                Evaluate one punch

  Imports:
    POST   /api/imports?source=NAME    Import a raw punch log (request body)
    GET    /api/imports                Import history, newest first
    POST   /api/imports/scan           Scan the inbox now

  Records:
    GET    /api/records?card=&from=&to=   Stored employee-days
    GET    /api/records/{card}/{date}     One employee-day
    GET    /api/summary?from=&to=         Totals per department

  Employees:
    POST   /api/employees              Upload the HR roster workbook
    GET    /api/employees              List the roster
    GET    /api/employees/{card}       One employee

  Reports (same filters as /api/records):
    GET    /api/reports/monthly.xlsx
    GET    /api/reports/daily.xlsx
    GET    /api/reports/daily.csv

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed input, invalid dates or clock times, bad roster
  - 404: Record or employee not found
  - 409: Punch log already imported
  - 500: Internal errors

SECURITY NOTE:
  No authentication. Intended for a payroll office network.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/clock"
	"github.com/warp/attendance-engine/engine"
	"github.com/warp/attendance-engine/report"
	"github.com/warp/attendance-engine/rules"
)

// DefaultMaxUpload caps punch-log and roster uploads.
const DefaultMaxUpload = 32 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store           attendance.Store
	Engine          *engine.Engine
	Importer        *attendance.Importer
	Scheduler       *ImportScheduler // optional, enables /api/imports/scan
	Logger          *log.Logger
	DefaultLocation string
	MaxUpload       int64
}

// NewHandler creates a handler computing with builder's engine and saving to
// store.
func NewHandler(store attendance.Store, builder *attendance.Builder, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Handler{
		Store:           store,
		Engine:          builder.Engine(),
		Importer:        attendance.NewImporter(store, builder, logger),
		Logger:          logger,
		DefaultLocation: attendance.DefaultLocation,
		MaxUpload:       DefaultMaxUpload,
	}
}

// =============================================================================
// RULES AND METRICS
// =============================================================================

// Health reports liveness. The store is pinged when it supports it.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Store.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Store unavailable", err)
			return
		}
	}
	rs := h.Engine.Rules()
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Rules: fmt.Sprintf("%s v%d", rs.Name, rs.Version)})
}

// GetRules returns the active rule set.
func (h *Handler) GetRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RulesResponse{Rules: rules.ToJSON(h.Engine.Rules())})
}

// ComputeMetrics evaluates a single punch without storing it.
func (h *Handler) ComputeMetrics(w http.ResponseWriter, r *http.Request) {
	var req MetricsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := clock.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}
	punch := engine.DailyPunch{Date: date}
	if punch.CheckIn, err = optionalClock(req.CheckIn); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid check_in (use HH:MM:SS)", err)
		return
	}
	if punch.CheckOut, err = optionalClock(req.CheckOut); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid check_out (use HH:MM:SS)", err)
		return
	}

	writeJSON(w, http.StatusOK, MetricsResponse{
		Date:     date.String(),
		CheckIn:  clockString(punch.CheckIn),
		CheckOut: clockString(punch.CheckOut),
		Weekend:  h.Engine.Rules().IsWeekend(date),
		Metrics:  h.Engine.Compute(punch),
	})
}

// =============================================================================
// IMPORTS
// =============================================================================

// CreateImport imports the raw punch log in the request body.
func (h *Handler) CreateImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.MaxUpload))
	if err != nil {
		status := http.StatusBadRequest
		if tooLarge(err) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, "Failed to read punch log", err)
		return
	}
	if len(bytes.TrimSpace(data)) == 0 {
		writeError(w, http.StatusBadRequest, "Empty punch log", nil)
		return
	}

	source := r.URL.Query().Get("source")
	if source == "" {
		source = "upload-" + time.Now().Format("20060102-150405")
	}

	result, err := h.Importer.Import(r.Context(), source, data)
	if err != nil {
		h.handleError(w, "Failed to import punch log", err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// ListImports returns the import history.
func (h *Handler) ListImports(w http.ResponseWriter, r *http.Request) {
	imports, err := h.Store.ListImports(r.Context())
	if err != nil {
		h.handleError(w, "Failed to list imports", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(imports))
}

// ScanInbox runs the inbox scheduler once.
func (h *Handler) ScanInbox(w http.ResponseWriter, r *http.Request) {
	if h.Scheduler == nil {
		writeError(w, http.StatusNotFound, "Inbox scanning is not configured", nil)
		return
	}
	res := h.Scheduler.RunNow()
	writeJSON(w, http.StatusOK, ScanResponse{Imported: res.Imported, Skipped: res.Skipped, Failed: res.Failed})
}

// =============================================================================
// RECORDS
// =============================================================================

// ListRecords returns stored employee-days matching the query filter.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	filter, err := recordFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return
	}
	records, err := h.Store.ListRecords(r.Context(), filter)
	if err != nil {
		h.handleError(w, "Failed to list records", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(records))
}

// GetRecord returns one employee-day.
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	date, err := clock.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
		return
	}
	card := attendance.PadCard(chi.URLParam(r, "card"))

	rec, err := h.Store.GetRecord(r.Context(), card, date)
	if err != nil {
		h.handleError(w, "Failed to get record", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// GetSummary returns per-department totals for the filtered records.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	filter, err := recordFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return
	}
	records, roster, err := h.loadPeriod(r.Context(), filter)
	if err != nil {
		h.handleError(w, "Failed to load records", err)
		return
	}
	resp := SummaryResponse{Departments: nonNil(attendance.Summarize(records, roster))}
	if !filter.From.IsZero() {
		resp.From = filter.From.String()
	}
	if !filter.To.IsZero() {
		resp.To = filter.To.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// UploadRoster replaces roster entries with those of the uploaded workbook.
func (h *Handler) UploadRoster(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	if location == "" {
		location = h.DefaultLocation
	}
	roster, err := attendance.LoadRoster(http.MaxBytesReader(w, r.Body, h.MaxUpload), location)
	if err != nil {
		h.handleError(w, "Failed to read roster", err)
		return
	}
	employees := roster.Employees()
	if err := h.Store.SaveEmployees(r.Context(), employees); err != nil {
		h.handleError(w, "Failed to save roster", err)
		return
	}
	h.Logger.Info("roster loaded", "employees", len(employees))
	writeJSON(w, http.StatusCreated, RosterResponse{Count: len(employees), Employees: nonNil(employees)})
}

// ListEmployees returns the stored roster.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		h.handleError(w, "Failed to list employees", err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(employees))
}

// GetEmployee returns a single employee by card.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.GetEmployee(r.Context(), attendance.PadCard(chi.URLParam(r, "card")))
	if err != nil {
		h.handleError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, emp)
}

// =============================================================================
// REPORTS
// =============================================================================

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeCSV  = "text/csv; charset=utf-8"
)

// MonthlyReport downloads the per-department summary workbook.
func (h *Handler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	h.serveReport(w, r, contentTypeXLSX, report.MonthlySummaryName,
		func(out io.Writer, records []attendance.Record, roster *attendance.Roster) error {
			return report.WriteMonthlySummary(out, attendance.Summarize(records, roster))
		})
}

// DailyReport downloads the per-employee detail workbook.
func (h *Handler) DailyReport(w http.ResponseWriter, r *http.Request) {
	h.serveReport(w, r, contentTypeXLSX, report.DailyDetailName, report.WriteDailyDetail)
}

// DailyCSV downloads every employee-day as CSV.
func (h *Handler) DailyCSV(w http.ResponseWriter, r *http.Request) {
	h.serveReport(w, r, contentTypeCSV, report.DailyCSVName, report.WriteDailyCSV)
}

type reportWriter func(io.Writer, []attendance.Record, *attendance.Roster) error

// serveReport renders into memory first so a failure still yields a JSON error.
func (h *Handler) serveReport(w http.ResponseWriter, r *http.Request, contentType string, name func(report.YearMonth) string, write reportWriter) {
	filter, err := recordFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return
	}
	records, roster, err := h.loadPeriod(r.Context(), filter)
	if err != nil {
		h.handleError(w, "Failed to load records", err)
		return
	}

	var buf bytes.Buffer
	if err := write(&buf, records, roster); err != nil {
		h.handleError(w, "Failed to render report", err)
		return
	}

	ym, ok := report.MonthOf(records)
	if !ok && !filter.From.IsZero() {
		ym = report.YearMonth{Year: filter.From.Year(), Month: filter.From.Month()}
	}
	filename := "attendance_" + name(ym)
	if !ym.IsZero() {
		filename = name(ym)
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) loadPeriod(ctx context.Context, filter attendance.RecordFilter) ([]attendance.Record, *attendance.Roster, error) {
	records, err := h.Store.ListRecords(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	employees, err := h.Store.ListEmployees(ctx)
	if err != nil {
		return nil, nil, err
	}
	return records, attendance.NewRoster(employees), nil
}

func recordFilter(r *http.Request) (attendance.RecordFilter, error) {
	q := r.URL.Query()
	filter := attendance.RecordFilter{}
	if card := q.Get("card"); card != "" {
		filter.Card = attendance.PadCard(card)
	}
	for _, p := range []struct {
		key string
		dst *clock.Date
	}{{"from", &filter.From}, {"to", &filter.To}} {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		d, err := clock.ParseDate(raw)
		if err != nil {
			return filter, fmt.Errorf("%s: %w", p.key, err)
		}
		*p.dst = d
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return filter, errors.New("to is before from")
	}
	return filter, nil
}

func optionalClock(raw string) (*clock.ClockTime, error) {
	if raw == "" {
		return nil, nil
	}
	c, err := clock.ParseClockTime(raw)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func clockString(c *clock.ClockTime) string {
	if c == nil {
		return ""
	}
	return c.String()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// handleError maps domain errors to HTTP status codes.
func (h *Handler) handleError(w http.ResponseWriter, message string, err error) {
	switch {
	case tooLarge(err):
		writeError(w, http.StatusRequestEntityTooLarge, message, err)
	case attendance.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case attendance.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case attendance.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	default:
		h.Logger.Error(message, "err", err)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

// tooLarge reports whether err came from a body cut off at MaxUpload.
func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
