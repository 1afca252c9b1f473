// Package deduplication decides whether a candidate task is a
// near-duplicate of a task already in the store.
//
// # Overview
//
// The ingestion pipeline embeds each candidate, asks the store for the
// nearest existing task by cosine distance, and hands both to this
// package's Policy. The policy accepts the candidate when there is no
// existing task at all, or when the nearest one sits at or beyond the
// configured distance threshold; otherwise it rejects the candidate.
//
// Rejection never deletes or alters the matched task. It only prevents
// the candidate from being inserted.
//
// # The "no existing record" branch
//
// An empty store is a named case here, not an implicit truthiness
// check: Evaluate takes a nullable *Match, and a nil match always
// accepts. Callers therefore never have to guard against indexing into
// an empty result list.
//
// # Configuration
//
// The distance threshold defaults to 0.1 and is an explicit Config
// field rather than a constant, so the policy is independently testable
// and tunable per deployment:
//
//	policy, err := deduplication.NewPolicy(deduplication.DefaultConfig())
//	eval := policy.Evaluate("Submit the quarterly report", &deduplication.Match{
//		Task:     nearest,
//		Distance: 0.05,
//	})
//	if eval.Decision == deduplication.Rejected {
//		// skip insert, report eval.DuplicateOf
//	}
//
// Distances live in [0, 2]: 0 means identical direction, 1 means
// unrelated, 2 means opposite. A threshold of 0.1 therefore only
// rejects candidates whose embeddings point almost exactly where an
// existing task's embedding points.
package deduplication
