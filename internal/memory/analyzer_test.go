package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestPatternAnalyzer_Analyze_ParsesAndClamps(t *testing.T) {
	gen := &fakeGenerator{response: `{"patterns":[
		{"category":"naming","description":"uses camelCase","confidence":1.4,"examples":["a.go:1-5"]},
		{"category":"style","description":"tabs","confidence":-0.2,"examples":[]}
	]}`}
	a := NewPatternAnalyzer(gen, nil)

	out, err := a.Analyze(context.Background(), "a.go: Foo(function)")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 1.0, out[0].Confidence)
	assert.Equal(t, 0.0, out[1].Confidence)
	assert.Len(t, gen.prompts, 1)
}

func TestPatternAnalyzer_Analyze_UnknownCategoryDefaultsToStyle(t *testing.T) {
	gen := &fakeGenerator{response: `{"patterns":[{"category":"dependency","description":"x","confidence":0.5}]}`}
	a := NewPatternAnalyzer(gen, nil)

	out, err := a.Analyze(context.Background(), "outline")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, CategoryStyle, out[0].Category)
}

func TestPatternAnalyzer_Analyze_GeneratorError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("boom")}
	a := NewPatternAnalyzer(gen, nil)

	_, err := a.Analyze(context.Background(), "outline")
	assert.Error(t, err)
}

func TestPatternAnalyzer_Analyze_MalformedJSON(t *testing.T) {
	gen := &fakeGenerator{response: "not json"}
	a := NewPatternAnalyzer(gen, nil)

	_, err := a.Analyze(context.Background(), "outline")
	assert.Error(t, err)
}

func TestPatternAnalyzer_AnalyzeIncremental_DegradesToFullWhenExistingEmpty(t *testing.T) {
	gen := &fakeGenerator{response: `{"patterns":[]}`}
	a := NewPatternAnalyzer(gen, nil)

	_, err := a.AnalyzeIncremental(context.Background(), "outline", nil)
	require.NoError(t, err)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "codebase analyst")
	assert.NotContains(t, gen.prompts[0], "Existing Patterns")
}

func TestPatternAnalyzer_AnalyzeIncremental_IncludesExisting(t *testing.T) {
	gen := &fakeGenerator{response: `{"patterns":[]}`}
	a := NewPatternAnalyzer(gen, nil)
	existing := []PatternEntry{{Category: CategoryStyle, Description: "uses gofmt", Confidence: 0.8}}

	_, err := a.AnalyzeIncremental(context.Background(), "outline", existing)
	require.NoError(t, err)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Existing Patterns")
	assert.Contains(t, gen.prompts[0], "uses gofmt")
}
