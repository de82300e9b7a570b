package retrieval

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/argus-review/argus/internal/codemap"
	"github.com/argus-review/argus/internal/ids"
)

type scriptedGenerator struct {
	steps []AgentStep
	i     int
}

func (g *scriptedGenerator) Step(_ context.Context, _ []ToolResult, _ RetrievalQuery) (AgentStep, error) {
	s := g.steps[g.i]
	g.i++
	return s, nil
}

func TestAgenticStrategy_DispatchesToolAndClampsRelevance(t *testing.T) {
	m := codemap.NewCodebaseMap(ids.CommitSHA(""))
	chunks := []CodeChunk{{FilePath: ids.NewFilePath("a.go"), AnchorSymbol: "a.go#foo", Text: "func foo() {}"}}

	callArgs, _ := json.Marshal(map[string]string{"name": "foo"})
	gen := &scriptedGenerator{steps: []AgentStep{
		{Call: &ToolCall{Tool: "find_symbol", Args: callArgs}},
		{Done: true, Items: []AgentItem{
			{FilePath: ids.NewFilePath("a.go"), Text: "func foo() {}", Relevance: 1.4},
			{FilePath: ids.NewFilePath("b.go"), Text: "x", Relevance: 0.1},
		}},
	}}

	s := NewAgenticStrategy(gen)
	items, err := s.Retrieve(context.Background(), m, chunks, RetrievalQuery{})
	assert.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 1.0, items[0].Score) // clamped down from 1.4
	assert.Equal(t, 0.5, items[1].Score) // clamped up from 0.1
}

func TestAgenticStrategy_NilGeneratorYieldsNoItems(t *testing.T) {
	s := NewAgenticStrategy(nil)
	items, err := s.Retrieve(context.Background(), nil, nil, RetrievalQuery{})
	assert.NoError(t, err)
	assert.Empty(t, items)
}

func TestAgenticStrategy_IterationCapStopsWithoutDone(t *testing.T) {
	var steps []AgentStep
	for i := 0; i < agenticMaxIterations+2; i++ {
		steps = append(steps, AgentStep{Call: &ToolCall{Tool: "list_dependents", Args: json.RawMessage(`{"symbol":"x"}`)}})
	}
	gen := &scriptedGenerator{steps: steps}
	s := NewAgenticStrategy(gen)
	m := codemap.NewCodebaseMap(ids.CommitSHA(""))
	items, err := s.Retrieve(context.Background(), m, nil, RetrievalQuery{})
	assert.NoError(t, err)
	assert.Nil(t, items)
}
