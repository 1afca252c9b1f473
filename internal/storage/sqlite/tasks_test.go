package sqlite

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/recurzes/taskstore/internal/types"
)

func TestAddTaskAssignsFields(t *testing.T) {
	store := newTestStore(t, 3)

	task := mustAdd(t, store, "Submit quarterly report", []float32{1, 0, 0})
	if task.ID == 0 {
		t.Error("AddTask() did not assign an id")
	}
	if task.CreatedAt.IsZero() {
		t.Error("AddTask() did not assign created_at")
	}
	if task.SimilarityDistance != nil {
		t.Error("AddTask() result must not carry a similarity distance")
	}

	second := mustAdd(t, store, "Another task", []float32{0, 1, 0})
	if second.ID <= task.ID {
		t.Errorf("ids not monotonically increasing: %d then %d", task.ID, second.ID)
	}
}

func TestAddTaskRejectsWrongDimensions(t *testing.T) {
	store := newTestStore(t, 3)
	_, err := store.AddTask(context.Background(), &types.Task{
		Name: "Too wide", Priority: 2, DueDate: "2026-01-01",
		Embedding: []float32{1, 0, 0, 0},
	})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("AddTask() error = %v, want ErrInvalidArgument", err)
	}

	count, _ := store.CountTasks(context.Background())
	if count != 0 {
		t.Errorf("rejected insert left %d rows", count)
	}
}

func TestAddTaskRejectsInvalidTask(t *testing.T) {
	store := newTestStore(t, 3)
	_, err := store.AddTask(context.Background(), &types.Task{
		Name: "", Priority: 2, DueDate: "2026-01-01", Embedding: []float32{1, 0, 0},
	})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("AddTask() error = %v, want ErrInvalidArgument", err)
	}
}

func TestFindSimilarSelfMatch(t *testing.T) {
	store := newTestStore(t, 3)
	embedding := []float32{0.5, -0.25, 0.75}
	inserted := mustAdd(t, store, "Self match", embedding)

	got, err := store.FindSimilar(context.Background(), embedding, 1)
	if err != nil {
		t.Fatalf("FindSimilar() failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("FindSimilar() length = %d, want 1", len(got))
	}
	if got[0].ID != inserted.ID {
		t.Errorf("FindSimilar() id = %d, want %d", got[0].ID, inserted.ID)
	}
	if got[0].SimilarityDistance == nil {
		t.Fatal("FindSimilar() result missing similarity distance")
	}
	if math.Abs(*got[0].SimilarityDistance) > 1e-9 {
		t.Errorf("self distance = %v, want 0", *got[0].SimilarityDistance)
	}
}

func TestFindSimilarEmptyStore(t *testing.T) {
	store := newTestStore(t, 3)
	got, err := store.FindSimilar(context.Background(), []float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatalf("FindSimilar() on empty store failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("FindSimilar() on empty store = %d results, want 0", len(got))
	}
}

func TestFindSimilarInvalidK(t *testing.T) {
	store := newTestStore(t, 3)
	for _, k := range []int{0, -1} {
		if _, err := store.FindSimilar(context.Background(), []float32{1, 0, 0}, k); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("FindSimilar(k=%d) error = %v, want ErrInvalidArgument", k, err)
		}
	}
}

func TestFindSimilarQueryDimensionMismatch(t *testing.T) {
	store := newTestStore(t, 3)
	if _, err := store.FindSimilar(context.Background(), []float32{1, 0}, 1); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("FindSimilar() error = %v, want ErrInvalidArgument", err)
	}
}

func TestFindSimilarOrdering(t *testing.T) {
	store := newTestStore(t, 3)
	ctx := context.Background()

	// Five vectors at increasing angles from the query direction.
	vectors := [][]float32{
		{1, 0, 0},
		{0.9, 0.436, 0},
		{0.6, 0.8, 0},
		{0, 1, 0},
		{-1, 0, 0},
	}
	for _, v := range vectors {
		mustAdd(t, store, "task", v)
	}

	got, err := store.FindSimilar(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("FindSimilar() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("FindSimilar(k=2) length = %d, want 2", len(got))
	}
	if *got[0].SimilarityDistance > *got[1].SimilarityDistance {
		t.Errorf("distances not non-decreasing: %v then %v",
			*got[0].SimilarityDistance, *got[1].SimilarityDistance)
	}

	all, err := store.FindSimilar(ctx, []float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatalf("FindSimilar() failed: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("FindSimilar(k=10) length = %d, want 5", len(all))
	}
	for i := 1; i < len(all); i++ {
		if *all[i-1].SimilarityDistance > *all[i].SimilarityDistance {
			t.Errorf("distances not non-decreasing at %d", i)
		}
	}
}

func TestFindSimilarTieBreaksBySmallerID(t *testing.T) {
	store := newTestStore(t, 3)
	embedding := []float32{0.5, 0.5, 0}

	first := mustAdd(t, store, "first", embedding)
	second := mustAdd(t, store, "second", embedding)

	got, err := store.FindSimilar(context.Background(), embedding, 2)
	if err != nil {
		t.Fatalf("FindSimilar() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("FindSimilar() length = %d, want 2", len(got))
	}
	if got[0].ID != first.ID || got[1].ID != second.ID {
		t.Errorf("tie-break order = [%d, %d], want [%d, %d]",
			got[0].ID, got[1].ID, first.ID, second.ID)
	}
}

func TestFindSimilarImmediatelyAfterInsert(t *testing.T) {
	store := newTestStore(t, 3)
	ctx := context.Background()

	// No indexing lag: each insert must be queryable as soon as
	// AddTask returns.
	for i := 0; i < 10; i++ {
		v := []float32{float32(i + 1), 1, 0}
		inserted := mustAdd(t, store, "task", v)
		got, err := store.FindSimilar(ctx, v, 1)
		if err != nil {
			t.Fatalf("FindSimilar() failed: %v", err)
		}
		if len(got) != 1 || got[0].ID != inserted.ID {
			t.Fatalf("insert %d not immediately queryable", i)
		}
	}
}

func TestGetRecentTasksOrdering(t *testing.T) {
	store := newTestStore(t, 3)

	a := mustAdd(t, store, "A", []float32{1, 0, 0})
	b := mustAdd(t, store, "B", []float32{0, 1, 0})
	c := mustAdd(t, store, "C", []float32{0, 0, 1})
	_ = a

	got, err := store.GetRecentTasks(context.Background(), 2)
	if err != nil {
		t.Fatalf("GetRecentTasks() failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("GetRecentTasks(2) length = %d, want 2", len(got))
	}
	if got[0].ID != c.ID || got[1].ID != b.ID {
		t.Errorf("GetRecentTasks(2) = [%s, %s], want [C, B]", got[0].Name, got[1].Name)
	}
	if got[0].SimilarityDistance != nil {
		t.Error("recency listing must not carry similarity distances")
	}
}

func TestGetRecentTasksInvalidLimit(t *testing.T) {
	store := newTestStore(t, 3)
	if _, err := store.GetRecentTasks(context.Background(), 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("GetRecentTasks(0) error = %v, want ErrInvalidArgument", err)
	}
}

func TestEmailContextRoundTrip(t *testing.T) {
	store := newTestStore(t, 3)
	ctx := context.Background()

	_, err := store.AddTask(ctx, &types.Task{
		Name: "Reply to vendor", Priority: 1, DueDate: "2026-02-01",
		EmailContext: "Invoice attached",
		Embedding:    []float32{1, 0, 0},
	})
	if err != nil {
		t.Fatalf("AddTask() failed: %v", err)
	}
	mustAdd(t, store, "No context", []float32{0, 1, 0})

	got, err := store.GetRecentTasks(ctx, 10)
	if err != nil {
		t.Fatalf("GetRecentTasks() failed: %v", err)
	}
	byName := map[string]*types.Task{}
	for _, task := range got {
		byName[task.Name] = task
	}
	if byName["Reply to vendor"].EmailContext != "Invoice attached" {
		t.Errorf("email context not round-tripped: %+v", byName["Reply to vendor"])
	}
	if byName["No context"].EmailContext != "" {
		t.Errorf("empty email context came back as %q", byName["No context"].EmailContext)
	}
}

func TestEmbeddingRoundTripBitIdentical(t *testing.T) {
	store := newTestStore(t, 4)
	embedding := []float32{1.5, -2.25, math.MaxFloat32, math.SmallestNonzeroFloat32}
	mustAdd(t, store, "bits", embedding)

	got, err := store.GetRecentTasks(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetRecentTasks() failed: %v", err)
	}
	for i := range embedding {
		if math.Float32bits(got[0].Embedding[i]) != math.Float32bits(embedding[i]) {
			t.Errorf("embedding component %d not bit-identical", i)
		}
	}
}
