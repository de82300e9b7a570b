// Package retrieval implements hybrid context retrieval: structural,
// lexical, semantic and agentic strategies funneled through a single
// ranker with a strict token budget.
package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/argus-review/argus/internal/codemap"
	"github.com/argus-review/argus/internal/ids"
)

// Depth mirrors query.depth: it gates how much of the memory layer and
// (indirectly, via callers) how aggressive retrieval is allowed to be.
type Depth string

const (
	DepthQuick    Depth = "quick"
	DepthStandard Depth = "standard"
	DepthDeep     Depth = "deep"
)

// TokenBudget splits a run's max_tokens between retrieval and generation,
// per config.Config's RetrievalBudget/GenerationBudget split.
type TokenBudget struct {
	Retrieval  int
	Generation int
}

// CodeChunk is a coherent, symbol-bounded slice of source text produced by
// splitting a file around its symbol boundaries.
type CodeChunk struct {
	FilePath     ids.FilePath
	LineRange    codemap.LineRange
	Text         string
	AnchorSymbol string // qualified name of the symbol this chunk is centered on, if any
}

// RetrievalQuery is the input every strategy receives.
type RetrievalQuery struct {
	ChangedFiles   []ids.FilePath
	ChangedSymbols []string
	DiffText       string
	Depth          Depth
	Budget         TokenBudget
}

// ContextItem is one retrieved unit of context, tagged with the strategy
// that produced it and a fingerprint used for cross-strategy dedup.
type ContextItem struct {
	SourceStrategy string
	FilePath       ids.FilePath
	LineRange      codemap.LineRange
	Text           string
	Score          float64
}

// Fingerprint is a stable hash of (file_path, line_range), used by the
// ranker to deduplicate items surfaced by more than one strategy.
func Fingerprint(path ids.FilePath, lr codemap.LineRange) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d-%d", path, lr.Start, lr.End)))
	return hex.EncodeToString(sum[:])[:16]
}

// EstimateTokens is the ceil(chars/4) fallback estimator used when no
// encoder is supplied.
func EstimateTokens(text string) int {
	n := len([]rune(text))
	if n == 0 {
		return 0
	}
	return (n + 3) / 4
}

// RetrievalResult is the orchestrator's final output.
type RetrievalResult struct {
	Items        []ContextItem
	TokensUsed   int
	DroppedCount int
}

// Strategy is implemented by every retrieval strategy; a strategy must
// never panic and must degrade to a nil slice rather than propagate most
// errors (only truly structural failures — e.g. a malformed query — should
// return an error).
type Strategy interface {
	Name() string
	Retrieve(ctx context.Context, m *codemap.CodebaseMap, chunks []CodeChunk, query RetrievalQuery) ([]ContextItem, error)
}
