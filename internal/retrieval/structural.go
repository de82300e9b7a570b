package retrieval

import (
	"context"
	"strings"

	"github.com/argus-review/argus/internal/codemap"
)

// StructuralStrategy walks the loaded dependency graph directly from the
// query's changed symbols: direct dependents and dependencies up to depth
// 1, plus every other symbol in the same file. It never calls out and
// never suspends.
type StructuralStrategy struct{}

func NewStructuralStrategy() *StructuralStrategy { return &StructuralStrategy{} }

func (s *StructuralStrategy) Name() string { return "structural" }

const (
	scoreDirectEdge  = 1.0
	scoreSameFile    = 0.7
)

func (s *StructuralStrategy) Retrieve(_ context.Context, m *codemap.CodebaseMap, chunks []CodeChunk, query RetrievalQuery) ([]ContextItem, error) {
	if m == nil || len(query.ChangedSymbols) == 0 {
		return nil, nil
	}

	byAnchor := make(map[string][]CodeChunk)
	for _, c := range chunks {
		if c.AnchorSymbol != "" {
			byAnchor[c.AnchorSymbol] = append(byAnchor[c.AnchorSymbol], c)
		}
	}

	var items []ContextItem
	seen := make(map[string]bool)
	add := func(qualified string, score float64) {
		for _, c := range byAnchor[qualified] {
			fp := Fingerprint(c.FilePath, c.LineRange)
			if seen[fp] {
				continue
			}
			seen[fp] = true
			items = append(items, ContextItem{
				SourceStrategy: s.Name(),
				FilePath:       c.FilePath,
				LineRange:      c.LineRange,
				Text:           c.Text,
				Score:          score,
			})
		}
	}

	for _, symbol := range query.ChangedSymbols {
		for _, e := range m.Graph.Dependents(symbol) {
			add(e.Source, scoreDirectEdge)
		}
		for _, e := range m.Graph.Dependencies(symbol) {
			add(e.Target, scoreDirectEdge)
		}

		filePath := symbolFile(symbol)
		if filePath == "" {
			continue
		}
		for anchor, cs := range byAnchor {
			if symbolFile(anchor) == filePath && anchor != symbol {
				for _, c := range cs {
					fp := Fingerprint(c.FilePath, c.LineRange)
					if seen[fp] {
						continue
					}
					seen[fp] = true
					items = append(items, ContextItem{
						SourceStrategy: s.Name(),
						FilePath:       c.FilePath,
						LineRange:      c.LineRange,
						Text:           c.Text,
						Score:          scoreSameFile,
					})
				}
			}
		}
	}
	return items, nil
}

// symbolFile extracts the file-path portion of a qualified name of the
// form "path/to/file.go#Symbol", or "" when it carries no such suffix.
func symbolFile(qualified string) string {
	idx := strings.IndexByte(qualified, '#')
	if idx < 0 {
		return ""
	}
	return qualified[:idx]
}
