// Package embedding wraps the external embedding provider behind a
// narrow gateway interface so the rest of the task store never sees
// provider-specific failure modes.
package embedding

import (
	"context"
	"errors"
)

// ErrProviderUnavailable is returned when the provider cannot be
// reached or rejects the request (network, auth, rate limits after
// retries are exhausted). The ingestion pipeline treats this as
// run-terminating.
var ErrProviderUnavailable = errors.New("embedding provider unavailable")

// ErrEmptyInput is returned when the input text is empty after
// trimming. It is detected before any network I/O.
var ErrEmptyInput = errors.New("embedding input is empty")

// Gateway generates embedding vectors from text.
type Gateway interface {
	// Embed returns the embedding vector for the given text.
	// The returned vector always has Dimensions() components.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the dimensionality of the output vectors.
	Dimensions() int
}

// BuildInput constructs the canonical embedding input for a task.
//
// The exact concatenation matters: embeddings already stored by
// earlier versions of this system were generated from this format, so
// changing the separator would silently shift every new vector away
// from the existing ones.
func BuildInput(name, emailContext string) string {
	if emailContext == "" {
		return name
	}
	return name + " Context: " + emailContext
}
