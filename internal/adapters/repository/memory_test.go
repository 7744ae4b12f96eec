package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/criteria"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/model"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/weights"
)

// sampleRecord builds a fully populated record for store tests.
func sampleRecord(id, cohort string, pct float64) model.EvaluationRecord {
	raw := make(model.RawScoreVector, criteria.Count())
	normalized := make(model.NormalizedVector, criteria.Count())
	for _, c := range criteria.All() {
		raw[c] = model.RawScore{Value: 0.5, Valid: true}
		normalized[c] = 0.5
	}
	raw[criteria.ImageAnalysis] = model.RawScore{
		Value:    0.5,
		Valid:    true,
		Metadata: map[string]any{"images": 4.0},
	}

	return model.EvaluationRecord{
		ID:                 id,
		TeamName:           "team-" + id,
		ProblemStatementID: cohort,
		Timestamp:          time.Date(2025, 6, 1, 10, 0, 0, 123456789, time.UTC),
		Raw:                raw,
		Normalized:         normalized,
		Weights:            weights.Default(),
		TotalScore:         pct / 100,
		NormalizedScore:    pct / 100,
		PercentageScore:    pct,
		Grade:              "C",
		Strengths:          []string{"ps_similarity"},
		Weaknesses:         []string{"link_analysis"},
		Recommendations:    []string{"Cite working, relevant references that back up the core claims."},
		Degraded:           false,
	}
}

func TestMemoryStore_AppendAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	rec := sampleRecord("eval-1", "ps-1", 58.35)
	if err := store.Append(ctx, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if count := store.Count(ctx); count != 1 {
		t.Errorf("expected count 1, got %d", count)
	}

	got, err := store.Get(ctx, "eval-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TeamName != "team-eval-1" {
		t.Errorf("expected team-eval-1, got %s", got.TeamName)
	}
	if got.PercentageScore != 58.35 {
		t.Errorf("expected percentage 58.35, got %f", got.PercentageScore)
	}
	if got.Weights.Weight(criteria.PSSimilarity) != 0.25 {
		t.Errorf("weight snapshot not preserved, got %f", got.Weights.Weight(criteria.PSSimilarity))
	}
}

func TestMemoryStore_DuplicateID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Append(ctx, sampleRecord("eval-1", "ps-1", 50)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := store.Append(ctx, sampleRecord("eval-1", "ps-2", 70))
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	// The original record must be untouched.
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

func TestMemoryStore_GetNotFound(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_ListOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for i, cohort := range []string{"ps-1", "ps-2", "ps-1", "ps-1"} {
		rec := sampleRecord(fmt.Sprintf("eval-%d", i), cohort, float64(40+i))
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	all, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 records, got %d", len(all))
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
	if len(cohort) != 3 {
		t.Fatalf("expected 3 cohort records, got %d", len(cohort))
	}
	if cohort[0].ID != "eval-0" || cohort[1].ID != "eval-2" || cohort[2].ID != "eval-3" {
		t.Errorf("cohort filter broke insertion order: %s %s %s",
			cohort[0].ID, cohort[1].ID, cohort[2].ID)
	}
}

func TestMemoryStore_CloneIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	rec := sampleRecord("eval-1", "ps-1", 50)
	if err := store.Append(ctx, rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Mutating the appended value must not reach the store.
	rec.Raw[criteria.PSSimilarity] = model.RawScore{Value: 99, Valid: true}
	rec.Strengths[0] = "tampered"

	got, err := store.Get(ctx, "eval-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Raw[criteria.PSSimilarity].Value != 0.5 {
		t.Errorf("append shared the raw vector with the caller")
	}
	if got.Strengths[0] != "ps_similarity" {
		t.Errorf("append shared the strengths slice with the caller")
	}

	// Mutating a read result must not reach the store either.
	got.Normalized[criteria.Feasibility] = 0.99

	again, err := store.Get(ctx, "eval-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Normalized[criteria.Feasibility] != 0.5 {
		t.Errorf("get shared the normalized vector with the caller")
	}
}

func TestMemoryStore_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	const goroutines = 8
	const perGoroutine = 50

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				id := fmt.Sprintf("eval-%d-%d", g, i)
				if err := store.Append(ctx, sampleRecord(id, "ps-1", 50)); err != nil {
					t.Errorf("append %s: %v", id, err)
				}
			}
		}(g)
	}
	wg.Wait()

	if count := store.Count(ctx); count != goroutines*perGoroutine {
		t.Errorf("expected %d records, got %d", goroutines*perGoroutine, count)
	}
}
