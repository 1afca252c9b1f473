// Package ingest runs candidate tasks through the embed → nearest
// neighbor → dedup policy → insert sequence and reports what was
// accepted and what was rejected.
package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/recurzes/taskstore/internal/deduplication"
	"github.com/recurzes/taskstore/internal/embedding"
	"github.com/recurzes/taskstore/internal/storage"
	"github.com/recurzes/taskstore/internal/types"
)

// Config holds pipeline configuration
type Config struct {
	// EmbedConcurrency is how many embedding calls may run ahead of the
	// sequential dedup/insert stage. Default: 4. Embedding is the only
	// external-I/O-bound step with no ordering dependency on the store,
	// so it is safe to overlap; everything after it runs strictly in
	// candidate order.
	EmbedConcurrency int
}

// DefaultConfig returns the default pipeline configuration
func DefaultConfig() Config {
	return Config{EmbedConcurrency: 4}
}

// Pipeline consumes candidate tasks and feeds accepted ones into the store
type Pipeline struct {
	gateway embedding.Gateway
	store   storage.Storage
	policy  *deduplication.Policy
	cfg     Config
}

// New creates an ingestion pipeline
func New(gateway embedding.Gateway, store storage.Storage, policy *deduplication.Policy, cfg Config) (*Pipeline, error) {
	if gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if policy == nil {
		return nil, fmt.Errorf("policy is required")
	}
	if cfg.EmbedConcurrency <= 0 {
		cfg.EmbedConcurrency = DefaultConfig().EmbedConcurrency
	}
	return &Pipeline{gateway: gateway, store: store, policy: policy, cfg: cfg}, nil
}

// embedResult is the outcome of the concurrent embedding stage for one candidate
type embedResult struct {
	vec []float32
	err error
}

// Ingest processes candidates in the order supplied.
//
// Each accepted insert commits independently; a provider or storage
// failure terminates the run immediately, and the returned Result
// still carries everything accomplished before the failure (with
// Stats.Processed saying how far the run got). Prior inserts are never
// rolled back.
func (p *Pipeline) Ingest(ctx context.Context, candidates []types.Candidate) (*Result, error) {
	startTime := time.Now()
	result := &Result{
		RunID:    uuid.New().String(),
		Accepted: []*types.Task{},
		Rejected: []Rejection{},
		Stats:    Stats{TotalCandidates: len(candidates)},
	}

	// Embed ahead, bounded, preserving candidate order. Failures are
	// captured per candidate so the sequential stage below can stop at
	// the first failing position with everything before it intact.
	embedded := make([]embedResult, len(candidates))
	var eg errgroup.Group
	eg.SetLimit(p.cfg.EmbedConcurrency)
	for i := range candidates {
		i := i
		eg.Go(func() error {
			input := embedding.BuildInput(candidates[i].Name, candidates[i].EmailContext)
			vec, err := p.gateway.Embed(ctx, input)
			embedded[i] = embedResult{vec: vec, err: err}
			return nil
		})
	}
	_ = eg.Wait() // per-candidate errors are kept in embedded

	var runErr error
	for i, candidate := range candidates {
		// Embed errors first: an empty name surfaces as ErrEmptyInput,
		// not as a generic validation failure.
		if embedded[i].err != nil {
			runErr = fmt.Errorf("candidate %d (%q): %w", i, candidate.Name, embedded[i].err)
			break
		}
		if err := candidate.Validate(); err != nil {
			runErr = fmt.Errorf("candidate %d (%q): %w", i, candidate.Name, err)
			break
		}

		nearest, err := p.nearestMatch(ctx, embedded[i].vec)
		if err != nil {
			runErr = fmt.Errorf("candidate %d (%q): %w", i, candidate.Name, err)
			break
		}

		eval := p.policy.Evaluate(candidate.Name, nearest)
		if eval.Decision == deduplication.Rejected {
			result.Rejected = append(result.Rejected, Rejection{
				Name:          candidate.Name,
				DuplicateOf:   eval.DuplicateOf,
				DuplicateName: eval.DuplicateName,
				Distance:      eval.Distance,
			})
			result.Stats.RejectedCount++
			result.Stats.Processed++
			continue
		}

		task, err := p.store.AddTask(ctx, candidate.Task(embedded[i].vec))
		if err != nil {
			runErr = fmt.Errorf("candidate %d (%q): %w", i, candidate.Name, err)
			break
		}
		result.Accepted = append(result.Accepted, task)
		result.Stats.AcceptedCount++
		result.Stats.Processed++
	}

	result.Stats.ProcessingTimeMs = time.Since(startTime).Milliseconds()
	p.recordRun(ctx, result, startTime, runErr)

	if runErr != nil {
		log.Printf("[INGEST] run %s aborted after %d/%d candidates: %v",
			result.RunID, result.Stats.Processed, result.Stats.TotalCandidates, runErr)
		return result, runErr
	}

	log.Printf("[INGEST] run %s: %d accepted, %d rejected of %d candidates in %dms",
		result.RunID, result.Stats.AcceptedCount, result.Stats.RejectedCount,
		result.Stats.TotalCandidates, result.Stats.ProcessingTimeMs)
	return result, nil
}

// nearestMatch asks the store for the single nearest neighbor.
// An empty store yields a nil match, the policy's named accept branch.
func (p *Pipeline) nearestMatch(ctx context.Context, vec []float32) (*deduplication.Match, error) {
	similar, err := p.store.FindSimilar(ctx, vec, 1)
	if err != nil {
		return nil, err
	}
	if len(similar) == 0 {
		return nil, nil
	}
	return &deduplication.Match{
		Task:     similar[0],
		Distance: *similar[0].SimilarityDistance,
	}, nil
}

// recordRun persists the run summary. Reporting is best-effort: a
// summary write failure is logged, never surfaced over the run's own
// outcome.
func (p *Pipeline) recordRun(ctx context.Context, result *Result, startTime time.Time, runErr error) {
	run := &types.IngestionRun{
		ID:            result.RunID,
		StartedAt:     startTime,
		FinishedAt:    time.Now(),
		TotalCount:    result.Stats.TotalCandidates,
		AcceptedCount: result.Stats.AcceptedCount,
		RejectedCount: result.Stats.RejectedCount,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	if err := p.store.RecordIngestionRun(ctx, run); err != nil {
		log.Printf("[INGEST] failed to record run %s: %v", result.RunID, err)
	}
}
