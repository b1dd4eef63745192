/*
Package sqlite provides a SQLite-backed implementation of attendance.Store.

PURPOSE:
  Persists computed employee-day records, the employee roster and the
  punch-log import history so reports can be rebuilt for any period without
  re-reading the original logs.

KEY TABLES:
  records:    One row per (card, date); re-imports overwrite the day
  employees:  Roster entries keyed by card number
  imports:    Processed punch logs, unique by content checksum

VALUE ENCODING:
  Dates are stored as YYYY-MM-DD text so range filters compare as strings.
  Clock times are HH:MM:SS text, NULL when the punch is missing. Hours and
  amounts are decimal strings; nothing is stored as a float.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/attendance.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - attendance/store.go: Store interface
  - attendance/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/clock"
	"github.com/warp/attendance-engine/engine"
)

// Store implements attendance.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ attendance.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		card TEXT NOT NULL,
		date TEXT NOT NULL,
		check_in TEXT,
		check_out TEXT,
		work_overtime_hours TEXT NOT NULL,
		late_early_hours TEXT NOT NULL,
		approved_overtime_hours TEXT NOT NULL,
		night_work_hours TEXT NOT NULL,
		holiday_bonus_hours TEXT NOT NULL,
		meal_allowance_amount TEXT NOT NULL,
		transport_allowance_amount TEXT NOT NULL,
		overtime_hours TEXT NOT NULL,
		overtime_review INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (card, date)
	);

	CREATE INDEX IF NOT EXISTS idx_records_date ON records(date);

	CREATE TABLE IF NOT EXISTS employees (
		card TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		department_code TEXT NOT NULL DEFAULT '',
		department TEXT NOT NULL DEFAULT '',
		position TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS imports (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		checksum TEXT NOT NULL UNIQUE,
		lines INTEGER NOT NULL,
		records INTEGER NOT NULL,
		rejected INTEGER NOT NULL,
		imported_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_imports_imported_at ON imports(imported_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RECORDS
// =============================================================================

const recordColumns = `card, date, check_in, check_out,
	work_overtime_hours, late_early_hours, approved_overtime_hours, night_work_hours,
	holiday_bonus_hours, meal_allowance_amount, transport_allowance_amount,
	overtime_hours, overtime_review`

// SaveRecords upserts records by (card, date) in one transaction.
func (s *Store) SaveRecords(ctx context.Context, records []attendance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := upsertRecords(ctx, sqlTx, records); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func upsertRecords(ctx context.Context, sqlTx *sql.Tx, records []attendance.Record) error {
	stmt, err := sqlTx.PrepareContext(ctx, `
		INSERT INTO records (`+recordColumns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(card, date) DO UPDATE SET
			check_in = excluded.check_in,
			check_out = excluded.check_out,
			work_overtime_hours = excluded.work_overtime_hours,
			late_early_hours = excluded.late_early_hours,
			approved_overtime_hours = excluded.approved_overtime_hours,
			night_work_hours = excluded.night_work_hours,
			holiday_bonus_hours = excluded.holiday_bonus_hours,
			meal_allowance_amount = excluded.meal_allowance_amount,
			transport_allowance_amount = excluded.transport_allowance_amount,
			overtime_hours = excluded.overtime_hours,
			overtime_review = excluded.overtime_review,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare record upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range records {
		m := r.Metrics
		_, err := stmt.ExecContext(ctx,
			r.Card,
			r.Date.String(),
			nullClock(r.CheckIn),
			nullClock(r.CheckOut),
			m.WorkOvertimeHours.String(),
			m.LateEarlyHours.String(),
			m.ApprovedOvertimeHours.String(),
			m.NightWorkHours.String(),
			m.HolidayBonusHours.String(),
			m.MealAllowanceAmount.String(),
			m.TransportAllowanceAmount.String(),
			r.Overtime.String(),
			r.OvertimeReview,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to save record %s/%s: %w", r.Card, r.Date, err)
		}
	}
	return nil
}

// GetRecord retrieves one employee-day.
func (s *Store) GetRecord(ctx context.Context, card string, date clock.Date) (*attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+recordColumns+" FROM records WHERE card = ? AND date = ?",
		attendance.PadCard(card), date.String(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, attendance.ErrRecordNotFound
	}
	r, err := scanRecord(rows)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRecords returns matching records ordered by card then date.
func (s *Store) ListRecords(ctx context.Context, filter attendance.RecordFilter) ([]attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var where []string
	var args []any
	if filter.Card != "" {
		where = append(where, "card = ?")
		args = append(args, attendance.PadCard(filter.Card))
	}
	if !filter.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, filter.From.String())
	}
	if !filter.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, filter.To.String())
	}

	query := "SELECT " + recordColumns + " FROM records"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY card, date"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []attendance.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func scanRecord(rows *sql.Rows) (attendance.Record, error) {
	var (
		r                 attendance.Record
		date              string
		checkIn, checkOut sql.NullString
		values            [8]string
	)
	err := rows.Scan(&r.Card, &date, &checkIn, &checkOut,
		&values[0], &values[1], &values[2], &values[3],
		&values[4], &values[5], &values[6], &values[7],
		&r.OvertimeReview,
	)
	if err != nil {
		return r, err
	}

	if r.Date, err = clock.ParseDate(date); err != nil {
		return r, err
	}
	if r.CheckIn, err = parseNullClock(checkIn); err != nil {
		return r, err
	}
	if r.CheckOut, err = parseNullClock(checkOut); err != nil {
		return r, err
	}

	var dec [8]decimal.Decimal
	for i, v := range values {
		if dec[i], err = decimal.NewFromString(v); err != nil {
			return r, fmt.Errorf("record %s/%s: %w", r.Card, date, err)
		}
	}
	r.Metrics = engine.DailyMetrics{
		WorkOvertimeHours:        dec[0],
		LateEarlyHours:           dec[1],
		ApprovedOvertimeHours:    dec[2],
		NightWorkHours:           dec[3],
		HolidayBonusHours:        dec[4],
		MealAllowanceAmount:      dec[5],
		TransportAllowanceAmount: dec[6],
	}
	r.Overtime = dec[7]
	return r, nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// SaveEmployees upserts employees by card.
func (s *Store) SaveEmployees(ctx context.Context, employees []attendance.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	query := `
		INSERT INTO employees (card, employee_id, name, department_code, department, position, location, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(card) DO UPDATE SET
			employee_id = excluded.employee_id,
			name = excluded.name,
			department_code = excluded.department_code,
			department = excluded.department,
			position = excluded.position,
			location = excluded.location,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC().Format(time.RFC3339)
	for _, e := range employees {
		_, err := sqlTx.ExecContext(ctx, query,
			attendance.PadCard(e.Card), e.EmployeeID, e.Name,
			e.DepartmentCode, e.Department, e.Position, e.Location, now,
		)
		if err != nil {
			return fmt.Errorf("failed to save employee %s: %w", e.Card, err)
		}
	}

	return sqlTx.Commit()
}

const employeeColumns = "card, employee_id, name, department_code, department, position, location"

// GetEmployee retrieves an employee by card.
func (s *Store) GetEmployee(ctx context.Context, card string) (*attendance.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var e attendance.Employee
	err := s.db.QueryRowContext(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE card = ?",
		attendance.PadCard(card),
	).Scan(&e.Card, &e.EmployeeID, &e.Name, &e.DepartmentCode, &e.Department, &e.Position, &e.Location)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, attendance.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListEmployees returns all employees ordered by card.
func (s *Store) ListEmployees(ctx context.Context) ([]attendance.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+employeeColumns+" FROM employees ORDER BY card")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := []attendance.Employee{}
	for rows.Next() {
		var e attendance.Employee
		if err := rows.Scan(&e.Card, &e.EmployeeID, &e.Name, &e.DepartmentCode, &e.Department, &e.Position, &e.Location); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// =============================================================================
// IMPORTS
// =============================================================================

// SaveImport claims the import's checksum and stores its records in one
// transaction. A known checksum fails with ErrDuplicateImport and writes
// nothing.
func (s *Store) SaveImport(ctx context.Context, imp attendance.Import, records []attendance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO imports (id, source, checksum, lines, records, rejected, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		imp.ID, imp.Source, imp.Checksum, imp.Lines, imp.Records, imp.Rejected,
		imp.ImportedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return attendance.ErrDuplicateImport
		}
		return fmt.Errorf("failed to save import: %w", err)
	}

	if err := upsertRecords(ctx, sqlTx, records); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// ListImports returns imports newest first.
func (s *Store) ListImports(ctx context.Context) ([]attendance.Import, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, checksum, lines, records, rejected, imported_at
		FROM imports ORDER BY imported_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	imports := []attendance.Import{}
	for rows.Next() {
		var imp attendance.Import
		var importedAt string
		if err := rows.Scan(&imp.ID, &imp.Source, &imp.Checksum, &imp.Lines, &imp.Records, &imp.Rejected, &importedAt); err != nil {
			return nil, err
		}
		imp.ImportedAt, _ = time.Parse(time.RFC3339Nano, importedAt)
		imports = append(imports, imp)
	}
	return imports, rows.Err()
}

// HasChecksum reports whether a log with this checksum was imported.
func (s *Store) HasChecksum(ctx context.Context, checksum string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM imports WHERE checksum = ?", checksum).Scan(&n)
	return n > 0, err
}

// =============================================================================
// HELPERS
// =============================================================================

func nullClock(c *clock.ClockTime) sql.NullString {
	if c == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: c.String(), Valid: true}
}

func parseNullClock(ns sql.NullString) (*clock.ClockTime, error) {
	if !ns.Valid {
		return nil, nil
	}
	c, err := clock.ParseClockTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
