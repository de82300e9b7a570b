// Package memory implements the codebase memory layer: a rendered
// outline and a small set of durable patterns the generator can draw on
// across runs, plus the small state machine that tracks whether an
// analysis is current.
package memory

import "github.com/argus-review/argus/internal/ids"

// OutlineScope selects which files an outline render covers.
type OutlineScope string

const (
	ScopeFull   OutlineScope = "full"
	ScopeScoped OutlineScope = "scoped"
)

// FileOutline is one file's rendered symbol summary.
type FileOutline struct {
	FilePath    ids.FilePath `json:"path"`
	SymbolsText string       `json:"symbols_text"`
}

// CodebaseOutline is the structured form of a render, used both to produce
// the flattened text sent to a generator and to persist alongside memory.
type CodebaseOutline struct {
	Files []FileOutline `json:"files"`
}

// PatternCategory classifies a stored pattern.
type PatternCategory string

const (
	CategoryStyle         PatternCategory = "style"
	CategoryNaming        PatternCategory = "naming"
	CategoryArchitecture  PatternCategory = "architecture"
	CategoryTesting       PatternCategory = "testing"
	CategoryErrorHandling PatternCategory = "error_handling"
	CategoryConcurrency   PatternCategory = "concurrency"
)

// PatternEntry is one durable observation about the codebase's
// conventions, surfaced to the generator on deep review runs.
type PatternEntry struct {
	Category   PatternCategory `json:"category"`
	Description string         `json:"description"`
	Confidence float64         `json:"confidence"`
	Examples   []string        `json:"examples"` // "file_path:start-end"
}

// CodebaseMemory is the persisted memory artifact: an outline plus a
// pattern set, stamped with the commit it was last analyzed against
// independently of when the map itself was last indexed.
type CodebaseMemory struct {
	AnalyzedAt ids.CommitSHA   `json:"analyzed_at"`
	Outline    CodebaseOutline `json:"outline"`
	Patterns   []PatternEntry  `json:"patterns"`
}
