package memory

import (
	"context"

	"github.com/argus-review/argus/internal/codemap"
	"github.com/argus-review/argus/internal/ids"
)

// Bootstrap re-renders the full outline, analyzes it in full, and sets
// analyzed_at to head unconditionally.
func Bootstrap(ctx context.Context, analyzer *PatternAnalyzer, renderer *Renderer, m *codemap.CodebaseMap, head ids.CommitSHA) (CodebaseMemory, error) {
	text, outline := renderer.RenderFull(m)
	patterns, err := analyzer.Analyze(ctx, text)
	if err != nil {
		return CodebaseMemory{}, err
	}
	return CodebaseMemory{
		AnalyzedAt: head,
		Outline:    outline,
		Patterns:   PrunePatterns(patterns),
	}, nil
}

// IncrementalAnalysisBase is the diff base an index-path incremental
// analysis call must use: analyzed_at, falling back to indexed_at —
// never just indexed_at — so no change is missed.
func IncrementalAnalysisBase(mem CodebaseMemory, indexedAt ids.CommitSHA) ids.CommitSHA {
	if mem.AnalyzedAt != "" {
		return mem.AnalyzedAt
	}
	return indexedAt
}

// Incremental performs an index-path analysis pass: the scoped outline
// (changed files plus one-hop neighbors) is used only for the LLM call;
// the persisted outline remains the full outline already on existing.
// Candidate patterns are merged into existing.Patterns and analyzed_at
// advances to targetSHA.
func Incremental(ctx context.Context, analyzer *PatternAnalyzer, renderer *Renderer, m *codemap.CodebaseMap, existing CodebaseMemory, changedFiles []ids.FilePath, targetSHA ids.CommitSHA) (CodebaseMemory, error) {
	scopedText, _ := renderer.RenderScoped(m, changedFiles)
	candidates, err := analyzer.AnalyzeIncremental(ctx, scopedText, existing.Patterns)
	if err != nil {
		return CodebaseMemory{}, err
	}

	merged := MergePatterns(existing.Patterns, candidates)

	outline := existing.Outline
	if len(outline.Files) == 0 {
		// No persisted outline yet (first-ever index-path run before any
		// bootstrap): fall back to a full render so the persisted memory
		// is never left without one.
		_, full := renderer.RenderFull(m)
		outline = full
	}

	return CodebaseMemory{
		AnalyzedAt: targetSHA,
		Outline:    outline,
		Patterns:   merged,
	}, nil
}
