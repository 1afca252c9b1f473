package ingest

import (
	"fmt"

	"github.com/recurzes/taskstore/internal/types"
)

// Rejection records a candidate that was refused as a near-duplicate
type Rejection struct {
	// Name is the candidate's task name
	Name string `json:"name"`

	// DuplicateOf is the ID of the existing task it duplicates
	DuplicateOf int64 `json:"duplicate_of"`

	// DuplicateName is that task's name, for reporting
	DuplicateName string `json:"duplicate_name"`

	// Distance is the cosine distance between the two embeddings
	Distance float64 `json:"distance"`
}

// Stats provides metrics about an ingestion run
type Stats struct {
	// TotalCandidates is the number of candidates supplied
	TotalCandidates int `json:"total_candidates"`

	// AcceptedCount is the number of candidates inserted
	AcceptedCount int `json:"accepted_count"`

	// RejectedCount is the number of candidates refused as duplicates
	RejectedCount int `json:"rejected_count"`

	// Processed is how many candidates completed the dedup/insert
	// stage. Less than TotalCandidates when the run terminated early.
	Processed int `json:"processed"`

	// ProcessingTimeMs is the run duration in milliseconds
	ProcessingTimeMs int64 `json:"processing_time_ms"`
}

// Result is what an ingestion run hands to the reporting layer
type Result struct {
	// RunID identifies this run in the ingestion_runs history
	RunID string `json:"run_id"`

	// Accepted are the tasks inserted, in candidate order
	Accepted []*types.Task `json:"accepted"`

	// Rejected are the candidates refused, in candidate order
	Rejected []Rejection `json:"rejected"`

	// Stats summarizes the run
	Stats Stats `json:"stats"`
}

// Validate checks if the result has consistent values
func (r *Result) Validate() error {
	if r.RunID == "" {
		return fmt.Errorf("run_id is required")
	}
	if len(r.Accepted) != r.Stats.AcceptedCount {
		return fmt.Errorf("stats.accepted_count (%d) does not match accepted length (%d)",
			r.Stats.AcceptedCount, len(r.Accepted))
	}
	if len(r.Rejected) != r.Stats.RejectedCount {
		return fmt.Errorf("stats.rejected_count (%d) does not match rejected length (%d)",
			r.Stats.RejectedCount, len(r.Rejected))
	}
	if r.Stats.Processed != r.Stats.AcceptedCount+r.Stats.RejectedCount {
		return fmt.Errorf("stats.processed (%d) does not match accepted (%d) + rejected (%d)",
			r.Stats.Processed, r.Stats.AcceptedCount, r.Stats.RejectedCount)
	}
	if r.Stats.Processed > r.Stats.TotalCandidates {
		return fmt.Errorf("stats.processed (%d) exceeds total_candidates (%d)",
			r.Stats.Processed, r.Stats.TotalCandidates)
	}
	return nil
}
