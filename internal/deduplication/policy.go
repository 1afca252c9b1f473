package deduplication

import (
	"fmt"
	"log"

	"github.com/recurzes/taskstore/internal/types"
)

// Decision is the terminal outcome for a candidate
type Decision int

const (
	// Accepted means the candidate should be inserted into the store
	Accepted Decision = iota
	// Rejected means the candidate is a near-duplicate and must not be inserted
	Rejected
)

func (d Decision) String() string {
	switch d {
	case Accepted:
		return "ACCEPTED"
	case Rejected:
		return "REJECTED"
	default:
		return fmt.Sprintf("Unknown(%d)", int(d))
	}
}

// Match is the nearest existing task to a candidate, with its cosine
// distance to the candidate's embedding. A nil *Match means the store
// had no tasks to compare against.
type Match struct {
	Task     *types.Task
	Distance float64
}

// Evaluation is the result of checking one candidate
type Evaluation struct {
	// Decision is the accept/reject outcome
	Decision Decision `json:"decision"`

	// DuplicateOf is the ID of the existing task the candidate
	// duplicates. Only set when Decision is Rejected.
	DuplicateOf int64 `json:"duplicate_of,omitempty"`

	// DuplicateName is the name of that task, for reporting
	DuplicateName string `json:"duplicate_name,omitempty"`

	// Distance is the cosine distance to the nearest existing task.
	// Meaningless when no match existed; check HadMatch.
	Distance float64 `json:"distance"`

	// HadMatch records whether any existing task was compared against
	HadMatch bool `json:"had_match"`
}

// Validate checks if the evaluation has consistent values
func (e *Evaluation) Validate() error {
	if e.Decision != Accepted && e.Decision != Rejected {
		return fmt.Errorf("invalid decision: %d", int(e.Decision))
	}
	if e.Decision == Rejected && e.DuplicateOf == 0 {
		return fmt.Errorf("duplicate_of must be set when rejected")
	}
	if e.Decision == Accepted && e.DuplicateOf != 0 {
		return fmt.Errorf("duplicate_of should not be set when accepted")
	}
	if e.Decision == Rejected && !e.HadMatch {
		return fmt.Errorf("cannot reject without a match")
	}
	if e.Distance < 0 || e.Distance > 2 {
		return fmt.Errorf("distance must be in [0, 2] (got %v)", e.Distance)
	}
	return nil
}

// Policy applies the distance-threshold duplicate rule
type Policy struct {
	threshold float64
}

// NewPolicy creates a policy from the given configuration
func NewPolicy(cfg Config) (*Policy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid deduplication config: %w", err)
	}
	return &Policy{threshold: cfg.DistanceThreshold}, nil
}

// Threshold returns the configured distance threshold
func (p *Policy) Threshold() float64 {
	return p.threshold
}

// Evaluate decides whether the candidate may be inserted.
//
// A candidate is rejected only when a nearest match exists and its
// distance is strictly below the threshold. Distance exactly at the
// threshold accepts.
func (p *Policy) Evaluate(candidate string, nearest *Match) Evaluation {
	if nearest == nil {
		return Evaluation{Decision: Accepted}
	}

	eval := Evaluation{
		Distance: nearest.Distance,
		HadMatch: true,
	}
	if nearest.Distance < p.threshold {
		eval.Decision = Rejected
		eval.DuplicateOf = nearest.Task.ID
		eval.DuplicateName = nearest.Task.Name
		log.Printf("[DEDUP] rejecting %q: duplicate of #%d %q (distance %.4f < %.4f)",
			candidate, nearest.Task.ID, nearest.Task.Name, nearest.Distance, p.threshold)
		return eval
	}

	eval.Decision = Accepted
	return eval
}
