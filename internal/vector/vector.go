// Package vector provides the persisted embedding representation and
// cosine distance calculations for the task store.
//
// Embeddings are stored as a sequence of little-endian IEEE-754
// single-precision floats, four bytes per component. Encode and Decode
// round-trip bit-for-bit, so vectors written by one process are read
// back identically by another.
package vector

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch is returned when two vectors of different
// lengths are compared. This indicates a wiring bug (mixed embedding
// models or a corrupted row) and is never silently truncated.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Encode serializes a float vector into its storage representation.
func Encode(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Decode deserializes a storage blob back into a float vector.
// The blob length must be a multiple of four bytes.
func Decode(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid vector blob length %d: not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// CosineDistance returns 1 - cosine_similarity(a, b), in [0, 2].
//
// Identical vectors have distance exactly 0. If either vector has zero
// magnitude the distance is defined as 1.0 (maximally dissimilar under
// this metric) rather than dividing by zero.
func CosineDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	identical := true
	var dot, normA, normB float64
	for i := range a {
		if a[i] != b[i] {
			identical = false
		}
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if identical {
		return 0, nil
	}
	if normA == 0 || normB == 0 {
		return 1.0, nil
	}

	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)), nil
}

// Normalize returns an L2-normalized copy of v, or false if v has zero
// norm and cannot be normalized.
func Normalize(v []float32) ([]float32, bool) {
	var norm2 float64
	for _, f := range v {
		norm2 += float64(f) * float64(f)
	}
	if norm2 == 0 {
		return nil, false
	}
	inv := 1 / math.Sqrt(norm2)
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(float64(f) * inv)
	}
	return out, true
}
