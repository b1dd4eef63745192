/*
scheduler.go - Inbox import scheduler

PURPOSE:
  Periodically scans an inbox directory for punch logs (*.txt) dropped by the
  card-reader export and imports each one that has not been imported before.
  When an output directory is set, the three payroll reports of every month
  touched by a new import are regenerated there.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Runs one scan immediately on start
  - Files are processed in name order
  - Already-imported files are recognized by content checksum, so renaming or
    re-copying a file does not import it twice

CONFIGURATION:
  - CheckInterval: How often to scan (default: 1 minute)
  - Enabled: Whether scheduler is active (default: true)
  - OutDir: Report directory, empty disables report output

USAGE:
  scheduler := NewImportScheduler(importer, store, "./inbox", logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: CreateImport endpoint (manual import)
  - attendance/importer.go: Import pipeline
*/
package api

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/report"
)

// ScanResult counts the files handled by one scan.
type ScanResult struct {
	Imported int
	Skipped  int
	Failed   int
}

// ImportScheduler handles automated inbox imports.
type ImportScheduler struct {
	Importer      *attendance.Importer
	Store         attendance.Store
	Inbox         string
	OutDir        string
	CheckInterval time.Duration
	Enabled       bool
	Logger        *log.Logger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
	scan   sync.Mutex
}

// NewImportScheduler creates a new scheduler.
func NewImportScheduler(importer *attendance.Importer, store attendance.Store, inbox string, logger *log.Logger) *ImportScheduler {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &ImportScheduler{
		Importer:      importer,
		Store:         store,
		Inbox:         inbox,
		CheckInterval: time.Minute,
		Enabled:       true,
		Logger:        logger.WithPrefix("inbox"),
	}
}

// Start begins the scheduler.
func (s *ImportScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled || s.Inbox == "" {
		s.Logger.Info("disabled, not starting")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.stop = make(chan struct{})
	s.wg.Add(1)

	go s.run()

	s.Logger.Info("started", "inbox", s.Inbox, "interval", s.CheckInterval)
}

// Stop stops the scheduler and waits for a running scan to finish.
func (s *ImportScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.stop)
		s.wg.Wait()
		s.ticker = nil
		s.Logger.Info("stopped")
	}
}

func (s *ImportScheduler) run() {
	defer s.wg.Done()

	// Run immediately on start
	s.checkAndImport()

	for {
		select {
		case <-s.ticker.C:
			s.checkAndImport()
		case <-s.stop:
			return
		}
	}
}

// RunNow triggers an immediate scan.
func (s *ImportScheduler) RunNow() ScanResult {
	return s.checkAndImport()
}

func (s *ImportScheduler) checkAndImport() ScanResult {
	s.scan.Lock()
	defer s.scan.Unlock()

	var res ScanResult
	ctx := context.Background()

	files, err := filepath.Glob(filepath.Join(s.Inbox, "*.txt"))
	if err != nil {
		s.Logger.Error("listing inbox", "err", err)
		return res
	}
	sort.Strings(files)

	months := make(map[report.YearMonth]bool)
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			s.Logger.Error("reading punch log", "file", path, "err", err)
			res.Failed++
			continue
		}

		result, err := s.Importer.Import(ctx, filepath.Base(path), data)
		switch {
		case attendance.IsConflict(err):
			res.Skipped++
			continue
		case err != nil:
			s.Logger.Error("importing punch log", "file", path, "err", err)
			res.Failed++
			continue
		}
		res.Imported++

		if ym, ok := report.MonthFromName(path); ok {
			months[ym] = true
		} else if ym, ok := report.MonthOf(result.Records); ok {
			months[ym] = true
		}
	}

	if s.OutDir != "" {
		for ym := range months {
			if err := s.writeReports(ctx, ym); err != nil {
				s.Logger.Error("writing reports", "month", ym, "err", err)
			}
		}
	}

	if res.Imported > 0 || res.Failed > 0 {
		s.Logger.Info("scan complete", "imported", res.Imported, "skipped", res.Skipped, "failed", res.Failed)
	}
	return res
}

func (s *ImportScheduler) writeReports(ctx context.Context, ym report.YearMonth) error {
	records, err := s.Store.ListRecords(ctx, attendance.RecordFilter{From: ym.First(), To: ym.Last()})
	if err != nil {
		return err
	}
	employees, err := s.Store.ListEmployees(ctx)
	if err != nil {
		return err
	}
	paths, err := report.SaveAll(s.OutDir, ym, records, attendance.NewRoster(employees))
	if err != nil {
		return err
	}
	s.Logger.Info("reports written", "month", ym, "summary", paths.MonthlySummary)
	return nil
}
