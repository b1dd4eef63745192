package attendance

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// ImportResult reports one import.
type ImportResult struct {
	Import   Import       `json:"import"`
	Records  []Record     `json:"-"`
	Rejected []*LineError `json:"rejected,omitempty"`
}

// Importer runs the parse, build and save steps for a punch log.
type Importer struct {
	store   Store
	builder *Builder
	logger  *log.Logger
	now     func() time.Time
}

// NewImporter wires an importer. A nil logger discards output.
func NewImporter(store Store, builder *Builder, logger *log.Logger) *Importer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Importer{store: store, builder: builder, logger: logger, now: time.Now}
}

// Import parses data, computes a record per employee-day and stores the
// records. A log whose checksum was already imported is refused with
// ErrDuplicateImport before anything is written.
func (im *Importer) Import(ctx context.Context, source string, data []byte) (*ImportResult, error) {
	sum := Checksum(data)
	seen, err := im.store.HasChecksum(ctx, sum)
	if err != nil {
		return nil, fmt.Errorf("check import history: %w", err)
	}
	if seen {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateImport, source)
	}

	parsed, err := ParseLog(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	for _, le := range parsed.Rejected {
		im.logger.Warn("skipping punch line", "source", source, "line", le.Line, "reason", le.Reason)
	}

	records := im.builder.Build(parsed.Rows)

	imp := Import{
		ID:         uuid.New().String(),
		Source:     source,
		Checksum:   sum,
		Lines:      parsed.Lines,
		Records:    len(records),
		Rejected:   len(parsed.Rejected),
		ImportedAt: im.now().UTC(),
	}
	// A concurrent import of the same bytes passes HasChecksum too; it is
	// refused here with nothing written.
	if err := im.store.SaveImport(ctx, imp, records); err != nil {
		return nil, fmt.Errorf("save import: %w", err)
	}

	im.logger.Info("punch log imported",
		"source", source, "id", imp.ID, "lines", imp.Lines, "records", imp.Records, "rejected", imp.Rejected)

	return &ImportResult{Import: imp, Records: records, Rejected: parsed.Rejected}, nil
}
