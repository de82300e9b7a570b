// Package generator defines the one opaque structured-output generator
// boundary shared by pattern analysis (internal/memory) and review
// generation (internal/review): a single call in, a single text blob
// out, with structure imposed by the caller rather than the interface.
// Concrete providers (a specific model API, a local test double) live
// behind this boundary and are never depended on directly by domain code.
package generator

import "context"

// Generator issues one prompt-completion call and returns the model's raw
// text output. Callers parse that text according to whatever schema they
// asked the prompt to produce; the boundary itself carries no structure.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
