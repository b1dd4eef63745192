package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
	"github.com/warp/attendance-engine/clock"
	"github.com/warp/attendance-engine/engine"
	"github.com/warp/attendance-engine/rules"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func buildRecord(card, date, in, out string) attendance.Record {
	p := engine.DailyPunch{Date: clock.MustParseDate(date)}
	if in != "" {
		p.CheckIn = clock.MustParseClockTime(in).Ptr()
	}
	if out != "" {
		p.CheckOut = clock.MustParseClockTime(out).Ptr()
	}
	b := attendance.NewBuilder(engine.New(rules.Standard()))
	b.ReviewOvertime = true
	return b.BuildOne(attendance.PunchRow{Card: card, Punch: p})
}

func TestRecords_RoundTripExactly(t *testing.T) {
	// GIVEN: A record with decimal metrics and a missing check-out
	store := newTestStore(t)
	ctx := context.Background()
	full := buildRecord("0002", "2025-09-07", "04:00:00", "23:30:00")
	half := buildRecord("0002", "2025-09-08", "08:00:00", "")

	// WHEN: Saving and reading back
	require.NoError(t, store.SaveRecords(ctx, []attendance.Record{full, half}))
	got, err := store.GetRecord(ctx, "2", clock.MustParseDate("2025-09-07"))
	require.NoError(t, err)

	// THEN: Every value survives unchanged
	assert.Equal(t, full.Card, got.Card)
	assert.Equal(t, full.CheckIn, got.CheckIn)
	assert.True(t, got.Metrics.ApprovedOvertimeHours.Equal(full.Metrics.ApprovedOvertimeHours))
	assert.True(t, got.Metrics.HolidayBonusHours.Equal(decimal.NewFromInt(8)))
	assert.True(t, got.Metrics.MealAllowanceAmount.Equal(full.Metrics.MealAllowanceAmount))
	assert.True(t, got.Overtime.Equal(full.Overtime))
	assert.True(t, got.OvertimeReview)

	other, err := store.GetRecord(ctx, "0002", clock.MustParseDate("2025-09-08"))
	require.NoError(t, err)
	assert.Nil(t, other.CheckOut)
	assert.True(t, other.Metrics.IsZero())
}

func TestRecords_UpsertByCardAndDate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRecords(ctx, []attendance.Record{buildRecord("0002", "2025-09-01", "08:00:00", "17:00:00")}))
	require.NoError(t, store.SaveRecords(ctx, []attendance.Record{buildRecord("0002", "2025-09-01", "08:00:00", "22:00:00")}))

	all, err := store.ListRecords(ctx, attendance.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "22:00:00", all[0].CheckOut.String())
}

func TestRecords_Filter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.SaveRecords(ctx, []attendance.Record{
		buildRecord("0017", "2025-09-01", "08:00:00", "17:00:00"),
		buildRecord("0002", "2025-09-30", "08:00:00", "17:00:00"),
		buildRecord("0002", "2025-10-01", "08:00:00", "17:00:00"),
		buildRecord("0002", "2025-09-01", "08:00:00", "17:00:00"),
	}))

	sept, err := store.ListRecords(ctx, attendance.RecordFilter{
		From: clock.MustParseDate("2025-09-01"),
		To:   clock.MustParseDate("2025-09-30"),
	})
	require.NoError(t, err)
	require.Len(t, sept, 3)
	assert.Equal(t, "0002", sept[0].Card)
	assert.Equal(t, "2025-09-01", sept[0].Date.String())
	assert.Equal(t, "0017", sept[2].Card)

	one, err := store.ListRecords(ctx, attendance.RecordFilter{Card: "17"})
	require.NoError(t, err)
	assert.Len(t, one, 1)

	_, err = store.GetRecord(ctx, "0017", clock.MustParseDate("2025-09-02"))
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound)
}

func TestEmployees_Upsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveEmployees(ctx, []attendance.Employee{
		{Card: "2", Name: "홍길동", Department: "생산1팀(평택)", Location: "평택"},
		{Card: "0017", Name: "김철수"},
	}))
	require.NoError(t, store.SaveEmployees(ctx, []attendance.Employee{{Card: "0017", Name: "김철수", Position: "대리"}}))

	list, err := store.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "0002", list[0].Card)
	assert.Equal(t, "대리", list[1].Position)

	_, err = store.GetEmployee(ctx, "9999")
	assert.ErrorIs(t, err, attendance.ErrEmployeeNotFound)
}

func TestImports_UniqueChecksum(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := attendance.Import{ID: "a", Source: "2025년 9월.txt", Checksum: "abc", Lines: 10, Records: 3, Rejected: 1,
		ImportedAt: time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)}
	require.NoError(t, store.SaveImport(ctx, first, []attendance.Record{buildRecord("0002", "2025-09-01", "08:00:00", "17:00:00")}))
	err := store.SaveImport(ctx, attendance.Import{ID: "b", Checksum: "abc", ImportedAt: time.Now()},
		[]attendance.Record{buildRecord("0017", "2025-09-01", "08:00:00", "17:00:00")})
	assert.ErrorIs(t, err, attendance.ErrDuplicateImport)

	_, err = store.GetRecord(ctx, "0002", clock.MustParseDate("2025-09-01"))
	require.NoError(t, err, "records committed with the import")
	_, err = store.GetRecord(ctx, "0017", clock.MustParseDate("2025-09-01"))
	assert.ErrorIs(t, err, attendance.ErrRecordNotFound, "refused import rolled back its records")

	seen, err := store.HasChecksum(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, seen)
	seen, err = store.HasChecksum(ctx, "def")
	require.NoError(t, err)
	assert.False(t, seen)

	list, err := store.ListImports(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, first, list[0])
}

func TestNew_FileDatabasePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attendance.db")
	ctx := context.Background()

	store, err := New(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveEmployees(ctx, []attendance.Employee{{Card: "1", Name: "A"}}))
	require.NoError(t, store.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	defer reopened.Close()
	e, err := reopened.GetEmployee(ctx, "0001")
	require.NoError(t, err)
	assert.Equal(t, "A", e.Name)
}
