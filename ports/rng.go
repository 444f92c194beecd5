package ports

import (
	"context"
	"math/rand/v2"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// SeededStream creates a deterministic source for a named operation.
	// The same (name, seed) pair always yields the same stream.
	SeededStream(ctx context.Context, name string, seed int64) (rand.Source, error)

	// FreshSeed draws a seed for callers that did not supply one, so the run
	// can still be replayed later.
	FreshSeed(ctx context.Context) int64
}
