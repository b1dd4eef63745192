package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesConsoleAndDailyFile(t *testing.T) {
	// GIVEN: A log directory and a fixed clock
	dir := t.TempDir()
	var console bytes.Buffer
	day := time.Date(2025, 9, 30, 10, 0, 0, 0, time.UTC)

	// WHEN: Logging one line
	logger, closer, err := New(Config{
		Dir:     dir,
		Console: &console,
		Now:     func() time.Time { return day },
	})
	require.NoError(t, err)
	logger.Info("punch log imported", "records", 3)
	require.NoError(t, closer.Close())

	// THEN: Both sinks hold it
	assert.Contains(t, console.String(), "punch log imported")
	data, err := os.ReadFile(filepath.Join(dir, "attendance_20250930.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "records=3")
}

func TestNew_DebugLevel(t *testing.T) {
	var console bytes.Buffer

	quiet, _, err := New(Config{Console: &console})
	require.NoError(t, err)
	quiet.Debug("hidden")
	assert.Empty(t, console.String())

	loud, _, err := New(Config{Console: &console, Debug: true})
	require.NoError(t, err)
	loud.Debug("shown")
	assert.Contains(t, console.String(), "shown")
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "attendance_20251015.log", FileName(time.Date(2025, 10, 15, 23, 0, 0, 0, time.UTC)))
}
