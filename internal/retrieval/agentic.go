package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/argus-review/argus/internal/codemap"
	"github.com/argus-review/argus/internal/errs"
	"github.com/argus-review/argus/internal/ids"
)

const (
	agenticMaxIterations = 8
	agenticMinScore      = 0.5
	agenticMaxScore      = 1.0
)

// ToolCall is one tool invocation a ToolCallingGenerator session requests.
type ToolCall struct {
	Tool string          `json:"tool"`
	Args json.RawMessage `json:"args"`
}

// ToolResult is fed back into the session after a ToolCall is dispatched.
type ToolResult struct {
	Tool   string `json:"tool"`
	Output string `json:"output"`
}

// AgentStep is one turn of the session: either a ToolCall to dispatch, or
// a terminal decision to stop with a self-reported relevance per item.
type AgentStep struct {
	Done     bool
	Call     *ToolCall
	Items    []AgentItem
}

// AgentItem is a context item the session itself proposes, with its own
// self-reported relevance (clamped to [0.5, 1.0] by the caller).
type AgentItem struct {
	FilePath   ids.FilePath
	LineRange  codemap.LineRange
	Text       string
	Relevance  float64
}

// ToolCallingGenerator is the opaque structured-output generator boundary:
// a session that, given an accumulating transcript, either requests
// another tool call or reports it is done with a set of items. Concrete
// generator implementations are a boundary concern; the
// core only depends on this interface, mirroring the review-generation
// boundary in internal/review.
type ToolCallingGenerator interface {
	Step(ctx context.Context, transcript []ToolResult, query RetrievalQuery) (AgentStep, error)
}

// toolHandler dispatches one named tool against a loaded CodebaseMap,
// mirroring CKB's tool-name-to-typed-handler dispatch table
// (internal/mcp/tool_impls.go) adapted from an MCP server to an in-process
// agent loop.
type toolHandler func(m *codemap.CodebaseMap, chunks []CodeChunk, args json.RawMessage) (string, error)

// AgenticStrategy drives a ToolCallingGenerator session against the
// find_symbol / read_file / list_dependents tool set with a hard
// iteration cap.
type AgenticStrategy struct {
	Generator ToolCallingGenerator
	tools     map[string]toolHandler
}

func NewAgenticStrategy(generator ToolCallingGenerator) *AgenticStrategy {
	a := &AgenticStrategy{Generator: generator}
	a.tools = map[string]toolHandler{
		"find_symbol":     a.toolFindSymbol,
		"read_file":       a.toolReadFile,
		"list_dependents": a.toolListDependents,
	}
	return a
}

func (a *AgenticStrategy) Name() string { return "agentic" }

func (a *AgenticStrategy) Retrieve(ctx context.Context, m *codemap.CodebaseMap, chunks []CodeChunk, query RetrievalQuery) ([]ContextItem, error) {
	if a.Generator == nil {
		return nil, nil
	}

	var transcript []ToolResult
	for i := 0; i < agenticMaxIterations; i++ {
		step, err := a.Generator.Step(ctx, transcript, query)
		if err != nil {
			return nil, nil // a failed session degrades to zero items, same as semantic
		}
		if step.Done {
			return agentItemsToContext(a.Name(), step.Items), nil
		}
		if step.Call == nil {
			return nil, nil
		}
		handler, ok := a.tools[step.Call.Tool]
		if !ok {
			return nil, &errs.Error{Code: errs.CodeInternal, Stage: errs.StageRetrieve, Target: step.Call.Tool, Cause: fmt.Errorf("unknown tool")}
		}
		output, err := handler(m, chunks, step.Call.Args)
		if err != nil {
			output = "error: " + err.Error()
		}
		transcript = append(transcript, ToolResult{Tool: step.Call.Tool, Output: output})
	}
	return nil, nil // iteration cap reached without a terminal decision
}

func agentItemsToContext(strategyName string, items []AgentItem) []ContextItem {
	out := make([]ContextItem, 0, len(items))
	for _, it := range items {
		score := it.Relevance
		if score < agenticMinScore {
			score = agenticMinScore
		}
		if score > agenticMaxScore {
			score = agenticMaxScore
		}
		out = append(out, ContextItem{
			SourceStrategy: strategyName,
			FilePath:       it.FilePath,
			LineRange:      it.LineRange,
			Text:           it.Text,
			Score:          score,
		})
	}
	return out
}

func (a *AgenticStrategy) toolFindSymbol(m *codemap.CodebaseMap, chunks []CodeChunk, args json.RawMessage) (string, error) {
	var req struct{ Name string `json:"name"` }
	if err := json.Unmarshal(args, &req); err != nil {
		return "", err
	}
	var matches []CodeChunk
	for _, c := range chunks {
		if c.AnchorSymbol != "" && strings.HasSuffix(c.AnchorSymbol, "#"+req.Name) {
			matches = append(matches, c)
		}
	}
	data, err := json.Marshal(matches)
	return string(data), err
}

func (a *AgenticStrategy) toolReadFile(m *codemap.CodebaseMap, chunks []CodeChunk, args json.RawMessage) (string, error) {
	var req struct {
		Path  string `json:"path"`
		Start int    `json:"start"`
		End   int    `json:"end"`
	}
	if err := json.Unmarshal(args, &req); err != nil {
		return "", err
	}
	var lines []string
	for _, c := range chunks {
		if string(c.FilePath) != req.Path {
			continue
		}
		if req.Start != 0 && c.LineRange.End < req.Start {
			continue
		}
		if req.End != 0 && c.LineRange.Start > req.End {
			continue
		}
		lines = append(lines, c.Text)
	}
	return strings.Join(lines, "\n"), nil
}

func (a *AgenticStrategy) toolListDependents(m *codemap.CodebaseMap, chunks []CodeChunk, args json.RawMessage) (string, error) {
	var req struct{ Symbol string `json:"symbol"` }
	if err := json.Unmarshal(args, &req); err != nil {
		return "", err
	}
	var names []string
	for _, e := range m.Graph.Dependents(req.Symbol) {
		names = append(names, e.Source)
	}
	data, err := json.Marshal(names)
	return string(data), err
}
