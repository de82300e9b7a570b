package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argus-review/argus/internal/codemap"
	"github.com/argus-review/argus/internal/ids"
)

func buildMapForPipeline() *codemap.CodebaseMap {
	m := codemap.NewCodebaseMap(ids.CommitSHA(""))
	m.Upsert(codemap.FileEntry{
		Path: ids.NewFilePath("a.go"),
		Symbols: []codemap.Symbol{
			{Name: "Foo", Kind: codemap.KindFunction, QualifiedName: "a.go#Foo"},
		},
	})
	return m
}

func TestBootstrap_SetsAnalyzedAtToHead(t *testing.T) {
	gen := &fakeGenerator{response: `{"patterns":[{"category":"style","description":"x","confidence":0.6}]}`}
	analyzer := NewPatternAnalyzer(gen, nil)
	renderer := NewRenderer(10_000)
	m := buildMapForPipeline()
	head := ids.CommitSHA("abc123")

	mem, err := Bootstrap(context.Background(), analyzer, renderer, m, head)
	require.NoError(t, err)
	assert.Equal(t, head, mem.AnalyzedAt)
	require.Len(t, mem.Outline.Files, 1)
	require.Len(t, mem.Patterns, 1)
}

func TestBootstrap_PropagatesGeneratorError(t *testing.T) {
	gen := &fakeGenerator{err: assertErr}
	analyzer := NewPatternAnalyzer(gen, nil)
	renderer := NewRenderer(10_000)
	m := buildMapForPipeline()

	_, err := Bootstrap(context.Background(), analyzer, renderer, m, ids.CommitSHA("abc"))
	assert.Error(t, err)
}

func TestIncrementalAnalysisBase_PrefersAnalyzedAt(t *testing.T) {
	mem := CodebaseMemory{AnalyzedAt: ids.CommitSHA("analyzed")}
	base := IncrementalAnalysisBase(mem, ids.CommitSHA("indexed"))
	assert.Equal(t, ids.CommitSHA("analyzed"), base)
}

func TestIncrementalAnalysisBase_FallsBackToIndexedAt(t *testing.T) {
	mem := CodebaseMemory{}
	base := IncrementalAnalysisBase(mem, ids.CommitSHA("indexed"))
	assert.Equal(t, ids.CommitSHA("indexed"), base)
}

func TestIncremental_PreservesExistingOutline(t *testing.T) {
	gen := &fakeGenerator{response: `{"patterns":[{"category":"testing","description":"new pattern","confidence":0.7}]}`}
	analyzer := NewPatternAnalyzer(gen, nil)
	renderer := NewRenderer(10_000)
	m := buildMapForPipeline()

	existingOutline := CodebaseOutline{Files: []FileOutline{{FilePath: ids.NewFilePath("old.go"), SymbolsText: "Old(function)"}}}
	existing := CodebaseMemory{
		AnalyzedAt: ids.CommitSHA("old-sha"),
		Outline:    existingOutline,
		Patterns:   []PatternEntry{{Category: CategoryStyle, Description: "existing", Confidence: 0.9}},
	}

	mem, err := Incremental(context.Background(), analyzer, renderer, m, existing, []ids.FilePath{ids.NewFilePath("a.go")}, ids.CommitSHA("new-sha"))
	require.NoError(t, err)
	assert.Equal(t, ids.CommitSHA("new-sha"), mem.AnalyzedAt)
	assert.Equal(t, existingOutline, mem.Outline)
	require.Len(t, mem.Patterns, 2)
}

func TestIncremental_FallsBackToFullOutlineWhenExistingEmpty(t *testing.T) {
	gen := &fakeGenerator{response: `{"patterns":[]}`}
	analyzer := NewPatternAnalyzer(gen, nil)
	renderer := NewRenderer(10_000)
	m := buildMapForPipeline()

	mem, err := Incremental(context.Background(), analyzer, renderer, m, CodebaseMemory{}, []ids.FilePath{ids.NewFilePath("a.go")}, ids.CommitSHA("new-sha"))
	require.NoError(t, err)
	require.Len(t, mem.Outline.Files, 1)
}

var assertErr = errTest{}

type errTest struct{}

func (errTest) Error() string { return "boom" }
