package memory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argus-review/argus/internal/codemap"
	"github.com/argus-review/argus/internal/ids"
)

func buildMapForOutline() *codemap.CodebaseMap {
	m := codemap.NewCodebaseMap(ids.CommitSHA(""))
	m.Upsert(codemap.FileEntry{
		Path: ids.NewFilePath("b.go"),
		Symbols: []codemap.Symbol{
			{Name: "Run", Kind: codemap.KindFunction, QualifiedName: "b.go#Run"},
		},
	})
	m.Upsert(codemap.FileEntry{
		Path: ids.NewFilePath("a.go"),
		Symbols: []codemap.Symbol{
			{Name: "Helper", Kind: codemap.KindFunction, QualifiedName: "a.go#Helper"},
		},
	})
	m.Graph.AddEdge(codemap.Edge{Source: "a.go#Helper", Target: "b.go#Run", Kind: codemap.EdgeCalls})
	return m
}

func TestRenderFull_LexicographicOrder(t *testing.T) {
	m := buildMapForOutline()
	r := NewRenderer(10_000)
	text, outline := r.RenderFull(m)

	require.Len(t, outline.Files, 2)
	assert.Equal(t, ids.NewFilePath("a.go"), outline.Files[0].FilePath)
	assert.Equal(t, ids.NewFilePath("b.go"), outline.Files[1].FilePath)
	assert.True(t, strings.Index(text, "a.go") < strings.Index(text, "b.go"))
}

func TestRenderFull_TruncatesAfterMaxSymbols(t *testing.T) {
	m := codemap.NewCodebaseMap(ids.CommitSHA(""))
	var syms []codemap.Symbol
	for i := 0; i < maxSymbolsPerFile+3; i++ {
		syms = append(syms, codemap.Symbol{Name: "s", Kind: codemap.KindFunction})
	}
	m.Upsert(codemap.FileEntry{Path: ids.NewFilePath("big.go"), Symbols: syms})

	r := NewRenderer(10_000)
	_, outline := r.RenderFull(m)
	require.Len(t, outline.Files, 1)
	assert.Contains(t, outline.Files[0].SymbolsText, "…(+3 more)")
}

func TestRenderFull_StopsAtCharBudget(t *testing.T) {
	m := codemap.NewCodebaseMap(ids.CommitSHA(""))
	m.Upsert(codemap.FileEntry{Path: ids.NewFilePath("a.go"), Symbols: []codemap.Symbol{{Name: "A", Kind: codemap.KindFunction}}})
	m.Upsert(codemap.FileEntry{Path: ids.NewFilePath("z.go"), Symbols: []codemap.Symbol{{Name: "Z", Kind: codemap.KindFunction}}})

	r := NewRenderer(1) // 4 chars, smaller than either file's rendered line
	_, outline := r.RenderFull(m)
	assert.Empty(t, outline.Files)
}

func TestRenderScoped_IncludesOneHopNeighbors(t *testing.T) {
	m := buildMapForOutline()
	r := NewRenderer(10_000)
	_, outline := r.RenderScoped(m, []ids.FilePath{ids.NewFilePath("a.go")})

	var paths []string
	for _, f := range outline.Files {
		paths = append(paths, string(f.FilePath))
	}
	assert.Contains(t, paths, "a.go")
	assert.Contains(t, paths, "b.go")
}
