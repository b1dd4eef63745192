package attendance

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/warp/attendance-engine/clock"
)

// =============================================================================
// STORE - Persistence contract
// =============================================================================

// Store persists computed records, the roster and the import history.
//
// Records are keyed by (card, date): saving a record for an existing key
// replaces it, so re-importing a corrected log overwrites earlier results.
// Implementations must be safe for concurrent use.
type Store interface {
	SaveRecords(ctx context.Context, records []Record) error
	GetRecord(ctx context.Context, card string, date clock.Date) (*Record, error)
	ListRecords(ctx context.Context, filter RecordFilter) ([]Record, error)

	SaveEmployees(ctx context.Context, employees []Employee) error
	GetEmployee(ctx context.Context, card string) (*Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)

	// SaveImport stores an import and the records it produced atomically.
	// It fails with ErrDuplicateImport, writing nothing, when the checksum
	// is known.
	SaveImport(ctx context.Context, imp Import, records []Record) error
	ListImports(ctx context.Context) ([]Import, error)
	HasChecksum(ctx context.Context, checksum string) (bool, error)
}

// RecordFilter selects records. Zero fields match everything; From and To
// are inclusive.
type RecordFilter struct {
	Card string
	From clock.Date
	To   clock.Date
}

// Match reports whether r passes the filter.
func (f RecordFilter) Match(r Record) bool {
	if f.Card != "" && PadCard(f.Card) != r.Card {
		return false
	}
	if !f.From.IsZero() && r.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.Date.After(f.To) {
		return false
	}
	return true
}

// Import is one processed punch log.
type Import struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Checksum   string    `json:"checksum"`
	Lines      int       `json:"lines"`
	Records    int       `json:"records"`
	Rejected   int       `json:"rejected"`
	ImportedAt time.Time `json:"imported_at"`
}

// Checksum is the hex SHA-256 of a punch log, used to detect re-imports.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
