// Package logging builds the process logger: leveled key/value output on
// stderr and a size-rotated daily file attendance_YYYYMMDD.log.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logger configuration.
type Config struct {
	Dir        string // log directory; empty disables the file
	Debug      bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	Console io.Writer        // defaults to os.Stderr
	Now     func() time.Time // names the file; defaults to time.Now
}

// FileName is the log file name for the day of t.
func FileName(t time.Time) string {
	return fmt.Sprintf("attendance_%s.log", t.Format("20060102"))
}

// New returns a logger and a closer for its file. Close it on shutdown.
func New(cfg Config) (*log.Logger, io.Closer, error) {
	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	writer := console
	var closer io.Closer = nopCloser{}
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		file := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Dir, FileName(now())),
			MaxSize:    orDefault(cfg.MaxSizeMB, 10), // megabytes
			MaxBackups: orDefault(cfg.MaxBackups, 3),
			MaxAge:     orDefault(cfg.MaxAgeDays, 28), // days
			Compress:   true,
		}
		writer = io.MultiWriter(console, file)
		closer = file
	}

	level := log.InfoLevel
	if cfg.Debug {
		level = log.DebugLevel
	}

	logger := log.NewWithOptions(writer, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           level,
		Prefix:          "attendance",
	})
	return logger, closer, nil
}

// Discard returns a logger that drops everything, for tests.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
