package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/argus-review/argus/internal/codemap"
	"github.com/argus-review/argus/internal/ids"
)

func TestStructuralStrategy_DirectEdgesAndSameFile(t *testing.T) {
	m := codemap.NewCodebaseMap(ids.CommitSHA(""))
	m.Upsert(codemap.FileEntry{
		Path: ids.NewFilePath("main.go"),
		Symbols: []codemap.Symbol{
			{Name: "main", QualifiedName: "main.go#main", LineRange: codemap.LineRange{Start: 1, End: 3}},
			{Name: "helper", QualifiedName: "main.go#helper", LineRange: codemap.LineRange{Start: 5, End: 7}},
		},
	})
	m.Upsert(codemap.FileEntry{
		Path: ids.NewFilePath("other.go"),
		Symbols: []codemap.Symbol{
			{Name: "dependent", QualifiedName: "other.go#dependent", LineRange: codemap.LineRange{Start: 1, End: 2}},
		},
	})
	m.Graph.AddEdge(codemap.Edge{Source: "main.go#main", Target: "main.go#helper", Kind: codemap.EdgeCalls})
	m.Graph.AddEdge(codemap.Edge{Source: "other.go#dependent", Target: "main.go#main", Kind: codemap.EdgeCalls})

	chunks := []CodeChunk{
		{FilePath: ids.NewFilePath("main.go"), LineRange: codemap.LineRange{Start: 1, End: 3}, Text: "func main() {}", AnchorSymbol: "main.go#main"},
		{FilePath: ids.NewFilePath("main.go"), LineRange: codemap.LineRange{Start: 5, End: 7}, Text: "func helper() {}", AnchorSymbol: "main.go#helper"},
		{FilePath: ids.NewFilePath("other.go"), LineRange: codemap.LineRange{Start: 1, End: 2}, Text: "func dependent() {}", AnchorSymbol: "other.go#dependent"},
	}

	s := NewStructuralStrategy()
	items, err := s.Retrieve(nil, m, chunks, RetrievalQuery{ChangedSymbols: []string{"main.go#main"}})
	assert.NoError(t, err)

	assert.Len(t, items, 2) // helper (dependency) and dependent (dependent)
	for _, it := range items {
		assert.Equal(t, 1.0, it.Score)
	}
}

func TestStructuralStrategy_EmptyQueryYieldsNoItems(t *testing.T) {
	m := codemap.NewCodebaseMap(ids.CommitSHA(""))
	s := NewStructuralStrategy()
	items, err := s.Retrieve(nil, m, nil, RetrievalQuery{})
	assert.NoError(t, err)
	assert.Empty(t, items)
}
