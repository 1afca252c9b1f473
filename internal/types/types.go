package types

import (
	"fmt"
	"strings"
	"time"
)

// Task priorities. The producer uses 1 for the most urgent work.
const (
	PriorityHigh   = 1
	PriorityMedium = 2
	PriorityLow    = 3
)

// PriorityLabel returns the human-readable label for a priority value.
// Unknown values map to "UNKNOWN" rather than an error so report
// formatting never fails on bad data.
func PriorityLabel(p int) string {
	switch p {
	case PriorityHigh:
		return "HIGH"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityLow:
		return "LOW"
	default:
		return "UNKNOWN"
	}
}

// Task represents a stored task and its embedding.
//
// SimilarityDistance is only populated on tasks returned from a
// similarity search; it is the cosine distance to the query vector.
// Tasks returned from inserts or recency listings carry nil.
type Task struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Priority           int       `json:"priority"`
	DueDate            string    `json:"due_date"`
	CreatedAt          time.Time `json:"created_at"`
	EmailContext       string    `json:"email_context,omitempty"`
	Embedding          []float32 `json:"embedding,omitempty"`
	SimilarityDistance *float64  `json:"similarity_distance,omitempty"`
}

// Validate checks if the task has valid field values
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if t.Priority < PriorityHigh || t.Priority > PriorityLow {
		return fmt.Errorf("priority must be between %d and %d (got %d)",
			PriorityHigh, PriorityLow, t.Priority)
	}
	if t.DueDate == "" {
		return fmt.Errorf("due_date is required")
	}
	return nil
}

// Candidate is a task proposal supplied by the producer, before it has
// been embedded or checked against the store.
type Candidate struct {
	Name         string `json:"name"`
	Priority     int    `json:"priority"`
	DueDate      string `json:"due_date"`
	EmailContext string `json:"email_context,omitempty"`
}

// Validate checks if the candidate has valid field values
func (c *Candidate) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if c.Priority < PriorityHigh || c.Priority > PriorityLow {
		return fmt.Errorf("priority must be between %d and %d (got %d)",
			PriorityHigh, PriorityLow, c.Priority)
	}
	if c.DueDate == "" {
		return fmt.Errorf("due_date is required")
	}
	return nil
}

// Task converts the candidate into a task ready for insertion.
// The store assigns ID and CreatedAt.
func (c *Candidate) Task(embedding []float32) *Task {
	return &Task{
		Name:         c.Name,
		Priority:     c.Priority,
		DueDate:      c.DueDate,
		EmailContext: c.EmailContext,
		Embedding:    embedding,
	}
}

// IngestionRun summarizes one pipeline run for the reporting layer.
type IngestionRun struct {
	ID            string    `json:"id"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	TotalCount    int       `json:"total_count"`
	AcceptedCount int       `json:"accepted_count"`
	RejectedCount int       `json:"rejected_count"`
	Error         string    `json:"error,omitempty"`
}

// Validate checks if the run summary has consistent counts
func (r *IngestionRun) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("id is required")
	}
	if r.TotalCount < 0 || r.AcceptedCount < 0 || r.RejectedCount < 0 {
		return fmt.Errorf("counts cannot be negative")
	}
	if r.AcceptedCount+r.RejectedCount > r.TotalCount {
		return fmt.Errorf("accepted (%d) + rejected (%d) exceeds total (%d)",
			r.AcceptedCount, r.RejectedCount, r.TotalCount)
	}
	return nil
}
