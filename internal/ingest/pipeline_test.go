package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/recurzes/taskstore/internal/deduplication"
	"github.com/recurzes/taskstore/internal/embedding"
	"github.com/recurzes/taskstore/internal/storage"
	"github.com/recurzes/taskstore/internal/storage/sqlite"
	"github.com/recurzes/taskstore/internal/types"
)

const testDims = 3

func newTestPipeline(t *testing.T) (*Pipeline, *embedding.StaticGateway, storage.Storage) {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "tasks.db"), testDims)
	if err != nil {
		t.Fatalf("sqlite.New() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	gateway := embedding.NewStaticGateway(testDims)
	policy, err := deduplication.NewPolicy(deduplication.DefaultConfig())
	if err != nil {
		t.Fatalf("NewPolicy() failed: %v", err)
	}

	pipeline, err := New(gateway, store, policy, DefaultConfig())
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return pipeline, gateway, store
}

func candidate(name string) types.Candidate {
	return types.Candidate{Name: name, Priority: types.PriorityMedium, DueDate: "2026-09-15"}
}

func TestIngestIntoEmptyStore(t *testing.T) {
	pipeline, gateway, store := newTestPipeline(t)
	ctx := context.Background()

	gateway.Set("Submit quarterly report", []float32{1, 0, 0})
	gateway.Set("Buy groceries", []float32{0, 1, 0})

	result, err := pipeline.Ingest(ctx, []types.Candidate{
		candidate("Submit quarterly report"),
		candidate("Buy groceries"),
	})
	if err != nil {
		t.Fatalf("Ingest() failed: %v", err)
	}
	if len(result.Accepted) != 2 || len(result.Rejected) != 0 {
		t.Fatalf("accepted=%d rejected=%d, want 2/0", len(result.Accepted), len(result.Rejected))
	}
	if err := result.Validate(); err != nil {
		t.Errorf("Result.Validate() failed: %v", err)
	}

	// Insertion order is observable via ids.
	if result.Accepted[0].ID >= result.Accepted[1].ID {
		t.Errorf("ids not in candidate order: %d, %d", result.Accepted[0].ID, result.Accepted[1].ID)
	}
	for _, task := range result.Accepted {
		if task.SimilarityDistance != nil {
			t.Error("insert results must not carry similarity distances")
		}
	}

	count, err := store.CountTasks(ctx)
	if err != nil {
		t.Fatalf("CountTasks() failed: %v", err)
	}
	if count != 2 {
		t.Errorf("store count = %d, want 2", count)
	}
}

func TestIngestRejectsNearDuplicate(t *testing.T) {
	pipeline, gateway, store := newTestPipeline(t)
	ctx := context.Background()

	// cos(E1,E2) = 0.95, so distance is 0.05 — inside the 0.1 threshold.
	gateway.Set("Submit quarterly report", []float32{1, 0, 0})
	gateway.Set("Submit the quarterly report", []float32{0.95, 0.31224990, 0})

	seed, err := pipeline.Ingest(ctx, []types.Candidate{candidate("Submit quarterly report")})
	if err != nil {
		t.Fatalf("seeding Ingest() failed: %v", err)
	}
	existing := seed.Accepted[0]

	result, err := pipeline.Ingest(ctx, []types.Candidate{candidate("Submit the quarterly report")})
	if err != nil {
		t.Fatalf("Ingest() failed: %v", err)
	}
	if len(result.Accepted) != 0 || len(result.Rejected) != 1 {
		t.Fatalf("accepted=%d rejected=%d, want 0/1", len(result.Accepted), len(result.Rejected))
	}

	rej := result.Rejected[0]
	if rej.Name != "Submit the quarterly report" {
		t.Errorf("rejected name = %q", rej.Name)
	}
	if rej.DuplicateOf != existing.ID {
		t.Errorf("DuplicateOf = %d, want %d", rej.DuplicateOf, existing.ID)
	}
	if rej.Distance >= 0.1 || rej.Distance <= 0.04 {
		t.Errorf("distance = %v, want ~0.05", rej.Distance)
	}

	count, _ := store.CountTasks(ctx)
	if count != 1 {
		t.Errorf("store count = %d, want unchanged 1", count)
	}
}

func TestIngestAcceptsDistinctTask(t *testing.T) {
	pipeline, gateway, store := newTestPipeline(t)
	ctx := context.Background()

	// cos = 0.58, distance 0.42 — well outside the threshold.
	gateway.Set("Submit quarterly report", []float32{1, 0, 0})
	gateway.Set("Buy groceries", []float32{0.58, 0.81461033, 0})

	seed, err := pipeline.Ingest(ctx, []types.Candidate{candidate("Submit quarterly report")})
	if err != nil {
		t.Fatalf("seeding Ingest() failed: %v", err)
	}

	result, err := pipeline.Ingest(ctx, []types.Candidate{candidate("Buy groceries")})
	if err != nil {
		t.Fatalf("Ingest() failed: %v", err)
	}
	if len(result.Accepted) != 1 || len(result.Rejected) != 0 {
		t.Fatalf("accepted=%d rejected=%d, want 1/0", len(result.Accepted), len(result.Rejected))
	}
	if result.Accepted[0].ID == seed.Accepted[0].ID {
		t.Error("accepted task reused an existing id")
	}
	if result.Accepted[0].SimilarityDistance != nil {
		t.Error("insert result must not carry a similarity distance")
	}

	count, _ := store.CountTasks(ctx)
	if count != 2 {
		t.Errorf("store count = %d, want 2", count)
	}
}

func TestIngestWithinBatchDuplicate(t *testing.T) {
	pipeline, gateway, _ := newTestPipeline(t)

	gateway.Set("Pay the electricity bill", []float32{0, 1, 0})
	gateway.Set("Pay electricity bill", []float32{0.0436, 0.99904853, 0}) // distance ~0.001

	result, err := pipeline.Ingest(context.Background(), []types.Candidate{
		candidate("Pay the electricity bill"),
		candidate("Pay electricity bill"),
	})
	if err != nil {
		t.Fatalf("Ingest() failed: %v", err)
	}
	if len(result.Accepted) != 1 || len(result.Rejected) != 1 {
		t.Fatalf("accepted=%d rejected=%d, want 1/1", len(result.Accepted), len(result.Rejected))
	}
	// The first occurrence wins; the second is rejected against it.
	if result.Accepted[0].Name != "Pay the electricity bill" {
		t.Errorf("accepted = %q, want first occurrence", result.Accepted[0].Name)
	}
	if result.Rejected[0].DuplicateOf != result.Accepted[0].ID {
		t.Errorf("rejection should point at the in-batch insert")
	}
}

func TestIngestProviderFailureTerminatesRun(t *testing.T) {
	pipeline, gateway, store := newTestPipeline(t)
	ctx := context.Background()

	// First run: everything works, two tasks land.
	gateway.Set("Alpha", []float32{1, 0, 0})
	gateway.Set("Beta", []float32{0, 1, 0})
	first, err := pipeline.Ingest(ctx, []types.Candidate{
		candidate("Alpha"), candidate("Beta"),
	})
	if err != nil {
		t.Fatalf("first Ingest() failed: %v", err)
	}
	if len(first.Accepted) != 2 {
		t.Fatalf("first run accepted = %d, want 2", len(first.Accepted))
	}

	// Second run: the provider goes down.
	gateway.Fail(embedding.ErrProviderUnavailable)
	result, err := pipeline.Ingest(ctx, []types.Candidate{
		candidate("Gamma"), candidate("Delta"),
	})
	if !errors.Is(err, embedding.ErrProviderUnavailable) {
		t.Fatalf("Ingest() error = %v, want ErrProviderUnavailable", err)
	}
	if result == nil {
		t.Fatal("Ingest() must return the partial result alongside the error")
	}
	if result.Stats.Processed != 0 {
		t.Errorf("Processed = %d, want 0", result.Stats.Processed)
	}

	// Earlier accepted inserts stay committed.
	count, _ := store.CountTasks(ctx)
	if count != 2 {
		t.Errorf("store count = %d, want 2 (prior inserts retained)", count)
	}
}

func TestIngestEmptyCandidateNameTerminatesRun(t *testing.T) {
	pipeline, _, store := newTestPipeline(t)
	ctx := context.Background()

	result, err := pipeline.Ingest(ctx, []types.Candidate{
		candidate("Valid task"),
		{Name: "   ", Priority: 2, DueDate: "2026-01-01"},
		candidate("Never reached"),
	})
	if !errors.Is(err, embedding.ErrEmptyInput) {
		t.Fatalf("Ingest() error = %v, want ErrEmptyInput", err)
	}
	if result.Stats.Processed != 1 {
		t.Errorf("Processed = %d, want 1", result.Stats.Processed)
	}
	if len(result.Accepted) != 1 {
		t.Errorf("accepted = %d, want the candidate before the failure", len(result.Accepted))
	}

	count, _ := store.CountTasks(ctx)
	if count != 1 {
		t.Errorf("store count = %d, want 1", count)
	}
}

func TestIngestRecordsRunHistory(t *testing.T) {
	pipeline, _, store := newTestPipeline(t)
	ctx := context.Background()

	result, err := pipeline.Ingest(ctx, []types.Candidate{candidate("History")})
	if err != nil {
		t.Fatalf("Ingest() failed: %v", err)
	}

	runs, err := store.GetIngestionRuns(ctx, 10)
	if err != nil {
		t.Fatalf("GetIngestionRuns() failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(runs))
	}
	if runs[0].ID != result.RunID {
		t.Errorf("run id = %q, want %q", runs[0].ID, result.RunID)
	}
	if runs[0].AcceptedCount != 1 || runs[0].TotalCount != 1 {
		t.Errorf("run counts = %+v", runs[0])
	}
}

func TestIngestEmptyBatch(t *testing.T) {
	pipeline, _, _ := newTestPipeline(t)

	result, err := pipeline.Ingest(context.Background(), nil)
	if err != nil {
		t.Fatalf("Ingest(nil) failed: %v", err)
	}
	if result.Stats.TotalCandidates != 0 || len(result.Accepted) != 0 || len(result.Rejected) != 0 {
		t.Errorf("empty batch result = %+v", result)
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	gateway := embedding.NewStaticGateway(testDims)
	policy, _ := deduplication.NewPolicy(deduplication.DefaultConfig())

	if _, err := New(nil, nil, policy, Config{}); err == nil {
		t.Error("New() expected error without gateway")
	}
	if _, err := New(gateway, nil, policy, Config{}); err == nil {
		t.Error("New() expected error without storage")
	}
}
