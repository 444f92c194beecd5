package rng

import (
	"context"
	"math/rand/v2"
)

// PCGAdapter implements ports.RNGPort with PCG streams. The stream name is
// folded into the second PCG word so that different operations seeded with
// the same value do not share a sequence.
type PCGAdapter struct{}

// NewPCGAdapter creates the default RNG adapter.
func NewPCGAdapter() *PCGAdapter {
	return &PCGAdapter{}
}

// SeededStream creates a deterministic source for a named operation
func (a *PCGAdapter) SeededStream(ctx context.Context, name string, seed int64) (rand.Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.NewPCG(uint64(seed), uint64(hashString(name))), nil
}

// FreshSeed draws a non-negative seed from the runtime-seeded global source.
func (a *PCGAdapter) FreshSeed(ctx context.Context) int64 {
	return rand.Int64()
}

// hashString creates a simple hash for deterministic seeding (djb2)
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c)
	}
	return hash
}
