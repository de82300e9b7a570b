package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/argus-review/argus/internal/codemap"
	"github.com/argus-review/argus/internal/generator"
	"github.com/argus-review/argus/internal/ids"
	"github.com/argus-review/argus/internal/retrieval"
)

// toolCallingGenerator adapts an opaque generator.Generator into the
// retrieval.ToolCallingGenerator the agentic strategy drives, the same
// structured-JSON-over-a-text-completion shape internal/review uses to
// turn generator.Generator output into review.Output.
type toolCallingGenerator struct {
	gen generator.Generator
}

func newToolCallingGenerator(gen generator.Generator) *toolCallingGenerator {
	return &toolCallingGenerator{gen: gen}
}

type toolStepCall struct {
	Tool string          `json:"tool"`
	Args json.RawMessage `json:"args"`
}

type toolStepItem struct {
	FilePath  string  `json:"file_path"`
	StartLine int     `json:"start_line"`
	EndLine   int     `json:"end_line"`
	Text      string  `json:"text"`
	Relevance float64 `json:"relevance"`
}

type toolStepResponse struct {
	Done  bool           `json:"done"`
	Call  *toolStepCall  `json:"call"`
	Items []toolStepItem `json:"items"`
}

const toolSystemPrompt = `You are investigating a pull request's diff using three tools: find_symbol, read_file, list_dependents.

Respond with JSON only: either { "done": false, "call": { "tool": "...", "args": { ... } } } to request one more tool call, or { "done": true, "items": [ { "file_path": "...", "start_line": N, "end_line": N, "text": "...", "relevance": 0.0-1.0 } ] } once you have enough context. Stop as soon as you have what you need.`

// Step renders the accumulated transcript and the query into one prompt,
// calls the generator, and parses its JSON response into an AgentStep. A
// malformed response degrades to a terminal "done, nothing found" step
// rather than aborting the whole retrieval run.
func (t *toolCallingGenerator) Step(ctx context.Context, transcript []retrieval.ToolResult, query retrieval.RetrievalQuery) (retrieval.AgentStep, error) {
	prompt := renderToolPrompt(transcript, query)

	raw, err := t.gen.Generate(ctx, prompt)
	if err != nil {
		return retrieval.AgentStep{}, err
	}

	var resp toolStepResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return retrieval.AgentStep{Done: true}, nil
	}

	if !resp.Done && resp.Call != nil {
		return retrieval.AgentStep{Call: &retrieval.ToolCall{Tool: resp.Call.Tool, Args: resp.Call.Args}}, nil
	}

	items := make([]retrieval.AgentItem, 0, len(resp.Items))
	for _, it := range resp.Items {
		items = append(items, retrieval.AgentItem{
			FilePath:  ids.NewFilePath(it.FilePath),
			LineRange: codemap.LineRange{Start: it.StartLine, End: it.EndLine},
			Text:      it.Text,
			Relevance: it.Relevance,
		})
	}
	return retrieval.AgentStep{Done: true, Items: items}, nil
}

func renderToolPrompt(transcript []retrieval.ToolResult, query retrieval.RetrievalQuery) string {
	var sb strings.Builder
	sb.WriteString(toolSystemPrompt)
	sb.WriteString("\n\nDiff:\n")
	sb.WriteString(query.DiffText)
	if len(transcript) > 0 {
		sb.WriteString("\n\nTool results so far:\n")
		for _, r := range transcript {
			fmt.Fprintf(&sb, "- %s: %s\n", r.Tool, r.Output)
		}
	}
	return sb.String()
}
