package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/criteria"
)

// openSQLiteStore opens a throwaway sqlite store under t.TempDir.
func openSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "evaluations.db")
	store, err := OpenSQL(context.Background(), DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("opening sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLStore_AppendAndGet(t *testing.T) {
	ctx := context.Background()
	store := openSQLiteStore(t)

	rec := sampleRecord("eval-1", "ps-1", 58.35)
	if err := store.Append(ctx, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Get(ctx, "eval-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.ID != rec.ID || got.TeamName != rec.TeamName || got.ProblemStatementID != rec.ProblemStatementID {
		t.Errorf("identity fields did not round-trip: %+v", got)
	}
	if !got.Timestamp.Equal(rec.Timestamp) {
		t.Errorf("timestamp did not round-trip: want %v, got %v", rec.Timestamp, got.Timestamp)
	}
	if got.Timestamp.Location() != rec.Timestamp.Location() {
		t.Errorf("timestamp not returned in UTC: %v", got.Timestamp.Location())
	}
	if got.PercentageScore != rec.PercentageScore || got.Grade != rec.Grade {
		t.Errorf("scores did not round-trip: %+v", got)
	}
}

func TestSQLStore_VectorRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openSQLiteStore(t)

	rec := sampleRecord("eval-1", "ps-1", 58.35)
	rec.Degraded = true
	if err := store.Append(ctx, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Get(ctx, "eval-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, c := range criteria.All() {
		if got.Raw[c].Value != rec.Raw[c].Value || got.Raw[c].Valid != rec.Raw[c].Valid {
			t.Errorf("raw vector differs at %s: %+v vs %+v", c, got.Raw[c], rec.Raw[c])
		}
		if got.Normalized[c] != rec.Normalized[c] {
			t.Errorf("normalized vector differs at %s", c)
		}
		if got.Weights.Weight(c) != rec.Weights.Weight(c) {
			t.Errorf("weight snapshot differs at %s", c)
		}
	}
	if !got.Degraded {
		t.Error("degraded flag did not round-trip")
	}
	if len(got.Strengths) != 1 || got.Strengths[0] != "ps_similarity" {
		t.Errorf("strengths did not round-trip: %v", got.Strengths)
	}
	if len(got.Recommendations) != 1 {
		t.Errorf("recommendations did not round-trip: %v", got.Recommendations)
	}
}

func TestSQLStore_DuplicateID(t *testing.T) {
	ctx := context.Background()
	store := openSQLiteStore(t)

	if err := store.Append(ctx, sampleRecord("eval-1", "ps-1", 50)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := store.Append(ctx, sampleRecord("eval-1", "ps-2", 70))
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	got, err := store.Get(ctx, "eval-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ProblemStatementID != "ps-1" {
		t.Errorf("duplicate append overwrote the record: %s", got.ProblemStatementID)
	}
	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}
}

func TestSQLStore_GetNotFound(t *testing.T) {
	ctx := context.Background()
	store := openSQLiteStore(t)

	_, err := store.Get(ctx, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLStore_ListOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	store := openSQLiteStore(t)

	for i, cohort := range []string{"ps-1", "ps-2", "ps-1"} {
		rec := sampleRecord(fmt.Sprintf("eval-%d", i), cohort, float64(40+i))
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	all, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
	for i, rec := range all {
		if want := fmt.Sprintf("eval-%d", i); rec.ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, rec.ID)
		}
	}

	cohort, err := store.List(ctx, "ps-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cohort) != 2 {
		t.Fatalf("expected 2 cohort records, got %d", len(cohort))
	}
	if cohort[0].ID != "eval-0" || cohort[1].ID != "eval-2" {
		t.Errorf("cohort filter broke insertion order: %s %s", cohort[0].ID, cohort[1].ID)
	}

	empty, err := store.List(ctx, "ps-none")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty cohort, got %d records", len(empty))
	}
}

func TestSQLStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "evaluations.db")

	store, err := OpenSQL(ctx, DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("opening sqlite store: %v", err)
	}
	if err := store.Append(ctx, sampleRecord("eval-1", "ps-1", 58.35)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("closing store: %v", err)
	}

	reopened, err := OpenSQL(ctx, DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("reopening sqlite store: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	got, err := reopened.Get(ctx, "eval-1")
	if err != nil {
		t.Fatalf("record lost across reopen: %v", err)
	}
	if got.PercentageScore != 58.35 {
		t.Errorf("expected percentage 58.35, got %f", got.PercentageScore)
	}

	// A duplicate of a persisted id is still rejected.
	if err := reopened.Append(ctx, sampleRecord("eval-1", "ps-1", 10)); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID after reopen, got %v", err)
	}
}

func TestOpen_Drivers(t *testing.T) {
	ctx := context.Background()

	mem, err := Open(ctx, DriverMemory, "")
	if err != nil {
		t.Fatalf("opening memory store: %v", err)
	}
	if _, ok := mem.(*MemoryStore); !ok {
		t.Errorf("expected *MemoryStore, got %T", mem)
	}

	lite, err := Open(ctx, DriverSQLite, "file:"+filepath.Join(t.TempDir(), "e.db"))
	if err != nil {
		t.Fatalf("opening sqlite store: %v", err)
	}
	if _, ok := lite.(*SQLStore); !ok {
		t.Errorf("expected *SQLStore, got %T", lite)
	}
	_ = lite.Close()

	if _, err := Open(ctx, "cassandra", ""); !errors.Is(err, ErrUnknownDriver) {
		t.Fatalf("expected ErrUnknownDriver, got %v", err)
	}
}
