package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/warp/attendance-engine/api"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/attendance/store"
	"github.com/warp/attendance-engine/clock"
	"github.com/warp/attendance-engine/engine"
	"github.com/warp/attendance-engine/report"
	"github.com/warp/attendance-engine/rules"
	"github.com/warp/attendance-engine/store/sqlite"
)

const defaultRulesPath = "config/rules.json"

// loadRules reads the rule file. Only the default path may be missing; the
// built-in rules are used then.
func loadRules(g *Globals, logger *log.Logger) (*rules.RuleSet, error) {
	rs, err := rules.NewFactory().Load(g.Rules)
	if err == nil {
		logger.Info("rules loaded", "file", g.Rules, "name", rs.Name, "version", rs.Version)
		return rs, nil
	}
	if errors.Is(err, fs.ErrNotExist) && filepath.Clean(g.Rules) == filepath.Clean(defaultRulesPath) {
		logger.Warn("rule file not found, using built-in rules", "file", g.Rules)
		return rules.Standard(), nil
	}
	for _, fe := range rules.FieldErrors(err) {
		logger.Error("invalid rule", "field", fe.Field, "value", fe.Value, "reason", fe.Reason)
	}
	return nil, err
}

// =============================================================================
// SERVE
// =============================================================================

// ServeCmd runs the HTTP API.
type ServeCmd struct {
	Port            int           `help:"HTTP server port." default:"8080" env:"ATTENDANCE_PORT"`
	DB              string        `help:"SQLite database path, \":memory:\" for in-memory." default:"attendance.db" env:"ATTENDANCE_DB"`
	Inbox           string        `help:"Directory scanned for punch logs. Empty disables scanning." env:"ATTENDANCE_INBOX"`
	ScanInterval    time.Duration `help:"Inbox scan interval." default:"1m" env:"ATTENDANCE_SCAN_INTERVAL"`
	Out             string        `help:"Directory for reports written after inbox imports." env:"ATTENDANCE_OUT"`
	DefaultLocation string        `help:"Work site for departments without one." default:"화성" env:"ATTENDANCE_DEFAULT_LOCATION"`
	ReviewOvertime  bool          `help:"Flag every day with overtime for manual review." env:"ATTENDANCE_REVIEW_OVERTIME"`
	CORSOrigins     []string      `name:"cors-origin" help:"Allowed CORS origins." default:"http://localhost:5173,http://localhost:8080" env:"ATTENDANCE_CORS_ORIGINS"`
	RateLimit       int           `help:"Requests per minute per client IP, 0 disables." default:"300" env:"ATTENDANCE_RATE_LIMIT"`
}

func (c *ServeCmd) Run(ctx *Context) error {
	logger := ctx.Logger
	rs, err := loadRules(ctx.Globals, logger)
	if err != nil {
		return err
	}

	db, err := sqlite.New(c.DB)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer db.Close()

	builder := attendance.NewBuilder(engine.New(rs))
	builder.ReviewOvertime = c.ReviewOvertime

	handler := api.NewHandler(db, builder, logger)
	handler.DefaultLocation = c.DefaultLocation

	if c.Inbox != "" {
		scheduler := api.NewImportScheduler(handler.Importer, db, c.Inbox, logger)
		scheduler.CheckInterval = c.ScanInterval
		scheduler.OutDir = c.Out
		handler.Scheduler = scheduler
		scheduler.Start()
		defer scheduler.Stop()
	}

	router := api.NewRouter(handler, api.RouterConfig{
		AllowedOrigins:    c.CORSOrigins,
		RequestsPerMinute: c.RateLimit,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", c.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr, "db", c.DB)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// =============================================================================
// PROCESS
// =============================================================================

// ProcessCmd turns one punch log into the three payroll reports.
type ProcessCmd struct {
	Log             string `help:"Punch log file." required:"" type:"existingfile"`
	Roster          string `help:"HR roster workbook (.xlsx)." type:"existingfile"`
	Out             string `help:"Output directory." default:"out" env:"ATTENDANCE_OUT"`
	Month           string `help:"Report month as YYYY-MM. Defaults to the file name, then to the punch dates."`
	DefaultLocation string `help:"Work site for departments without one." default:"화성" env:"ATTENDANCE_DEFAULT_LOCATION"`
	ReviewOvertime  bool   `help:"Flag every day with overtime for manual review." env:"ATTENDANCE_REVIEW_OVERTIME"`
}

func (c *ProcessCmd) Run(ctx *Context) error {
	logger := ctx.Logger
	rs, err := loadRules(ctx.Globals, logger)
	if err != nil {
		return err
	}

	var roster *attendance.Roster
	if c.Roster != "" {
		roster, err = attendance.LoadRosterFile(c.Roster, c.DefaultLocation)
		if err != nil {
			return err
		}
		logger.Info("roster loaded", "file", c.Roster, "employees", roster.Len())
	} else {
		logger.Warn("no roster given, employees are reported by card number")
	}

	data, err := os.ReadFile(c.Log)
	if err != nil {
		return fmt.Errorf("read punch log: %w", err)
	}

	builder := attendance.NewBuilder(engine.New(rs))
	builder.ReviewOvertime = c.ReviewOvertime
	result, err := attendance.NewImporter(store.NewMemory(), builder, logger).Import(context.Background(), filepath.Base(c.Log), data)
	if err != nil {
		return err
	}
	if len(result.Records) == 0 {
		return fmt.Errorf("%w: no usable punches in %s", attendance.ErrMalformedLine, c.Log)
	}

	ym, err := c.month(result.Records)
	if err != nil {
		return err
	}

	paths, err := report.SaveAll(c.Out, ym, result.Records, roster)
	if err != nil {
		return err
	}
	logger.Info("reports written",
		"month", ym, "summary", paths.MonthlySummary, "detail", paths.DailyDetail, "csv", paths.DailyCSV)
	return nil
}

func (c *ProcessCmd) month(records []attendance.Record) (report.YearMonth, error) {
	if c.Month != "" {
		t, err := time.Parse("2006-01", c.Month)
		if err != nil {
			return report.YearMonth{}, fmt.Errorf("invalid --month %q (use YYYY-MM)", c.Month)
		}
		return report.YearMonth{Year: t.Year(), Month: t.Month()}, nil
	}
	if ym, ok := report.MonthFromName(c.Log); ok {
		return ym, nil
	}
	ym, _ := report.MonthOf(records)
	return ym, nil
}

// =============================================================================
// CALC
// =============================================================================

// CalcCmd evaluates one punch and prints the metrics as JSON.
type CalcCmd struct {
	Date string `help:"Work date (YYYY-MM-DD)." required:""`
	In   string `help:"Check-in time (HH:MM[:SS]). Omit when missing."`
	Out  string `help:"Check-out time (HH:MM[:SS]). Omit when missing."`
}

func (c *CalcCmd) Run(ctx *Context) error {
	rs, err := loadRules(ctx.Globals, ctx.Logger)
	if err != nil {
		return err
	}

	date, err := clock.ParseDate(c.Date)
	if err != nil {
		return err
	}
	punch := engine.DailyPunch{Date: date}
	for _, p := range []struct {
		raw string
		dst **clock.ClockTime
	}{{c.In, &punch.CheckIn}, {c.Out, &punch.CheckOut}} {
		if p.raw == "" {
			continue
		}
		t, err := clock.ParseClockTime(p.raw)
		if err != nil {
			return err
		}
		*p.dst = &t
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(engine.New(rs).Compute(punch))
}

// =============================================================================
// RULES
// =============================================================================

// RulesCmd prints the built-in rule set, a starting point for a rule file.
type RulesCmd struct{}

func (c *RulesCmd) Run(ctx *Context) error {
	_, err := os.Stdout.WriteString(rules.StandardJSON)
	return err
}
