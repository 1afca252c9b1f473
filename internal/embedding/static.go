package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"
)

// StaticGateway is an in-process Gateway for tests and offline use.
//
// Texts registered via Set return their fixed vector; anything else
// gets a deterministic unit vector derived from a hash of the text, so
// identical inputs always embed identically and distinct inputs are
// very unlikely to collide.
type StaticGateway struct {
	dims int
	err  error

	mu      sync.RWMutex
	vectors map[string][]float32
	calls   int
}

var _ Gateway = (*StaticGateway)(nil)

// NewStaticGateway creates a static gateway producing vectors of the
// given dimensionality
func NewStaticGateway(dims int) *StaticGateway {
	return &StaticGateway{
		dims:    dims,
		vectors: make(map[string][]float32),
	}
}

// Set registers a fixed vector for a text
func (g *StaticGateway) Set(text string, vec []float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.vectors[text] = vec
}

// Fail makes every subsequent Embed call return err
func (g *StaticGateway) Fail(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

// Calls returns the number of Embed calls made
func (g *StaticGateway) Calls() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.calls
}

// Dimensions returns the configured vector dimensionality
func (g *StaticGateway) Dimensions() int {
	return g.dims
}

// Embed returns the registered or derived vector for the text
func (g *StaticGateway) Embed(_ context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	if vec, ok := g.vectors[text]; ok {
		return vec, nil
	}

	vec := make([]float32, g.dims)
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()
	var norm2 float64
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		// Map to (-1, 1)
		vec[i] = float32(int64(seed>>11)) / float32(1<<52)
		norm2 += float64(vec[i]) * float64(vec[i])
	}
	if norm2 > 0 {
		inv := float32(1 / math.Sqrt(norm2))
		for i := range vec {
			vec[i] *= inv
		}
	}
	g.vectors[text] = vec
	return vec, nil
}
