// Package review glues prompt assembly, the opaque generator, and the
// (external) comment filter into one review pass that produces a
// structured ReviewOutput.
package review

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/argus-review/argus/internal/errs"
	"github.com/argus-review/argus/internal/generator"
	"github.com/argus-review/argus/internal/ids"
	"github.com/argus-review/argus/internal/logging"
	"github.com/argus-review/argus/internal/prompt"
)

// Comment is one review finding, located in the diff and classified by
// severity and category.
type Comment struct {
	FilePath   ids.FilePath `json:"file_path"`
	Line       int          `json:"line"`
	Severity   ids.Severity `json:"severity"`
	Category   ids.Category `json:"category"`
	Body       string       `json:"body"`
	Confidence float64      `json:"confidence"`
}

// Output is the generator's structured result: the diff, PR context,
// retrieved items, outline and patterns distilled into a summary plus a
// list of located comments.
type Output struct {
	Summary  string    `json:"summary"`
	Comments []Comment `json:"comments"`
}

// generatorOutput is the raw JSON shape a Generator call is prompted to
// produce; Output is parsed from it directly.
type generatorOutput struct {
	Summary  string `json:"summary"`
	Comments []struct {
		FilePath   string  `json:"file_path"`
		Line       int     `json:"line"`
		Severity   string  `json:"severity"`
		Category   string  `json:"category"`
		Body       string  `json:"body"`
		Confidence float64 `json:"confidence"`
	} `json:"comments"`
}

const systemPrompt = `You are an automated pull-request reviewer. You are given a diff, optional PR context, retrieved supporting code, a codebase outline, and known codebase patterns.

Respond with a JSON object: { "summary": "...", "comments": [ { "file_path": "...", "line": N, "severity": "critical|warning|suggestion|praise", "category": "bug|security|performance|style|architecture|testing|documentation", "body": "...", "confidence": 0.0-1.0 } ] }

Only comment on what the diff actually changes. Do not restate the diff. An empty comments list is a valid response when the diff warrants no feedback.`

// CommentFilter is the noise-filter contract treated as an external
// collaborator. No implementation lives in this module; the pipeline
// below invokes whatever concrete filter the boundary wires in.
type CommentFilter interface {
	Filter(comments []Comment, confidenceThreshold float64) []Comment
}

// Reviewer runs one review pass: assemble prompt, call the generator, parse
// and filter the result.
type Reviewer struct {
	Assembler           *prompt.Assembler
	Generator           generator.Generator
	Filter              CommentFilter // optional; nil skips filtering
	ConfidenceThreshold float64
	logger              *logging.Logger
}

func NewReviewer(assembler *prompt.Assembler, gen generator.Generator, filter CommentFilter, confidenceThreshold float64, logger *logging.Logger) *Reviewer {
	return &Reviewer{
		Assembler:           assembler,
		Generator:           gen,
		Filter:              filter,
		ConfidenceThreshold: confidenceThreshold,
		logger:              logger,
	}
}

// Review assembles in into a prompt, calls the generator, and returns the
// parsed, filtered Output. A prompt.Assemble failure (diff alone over
// budget) propagates unchanged as *errs.PromptTooLargeError.
func (r *Reviewer) Review(ctx context.Context, in prompt.Input) (Output, error) {
	assembled, err := r.Assembler.Assemble(in)
	if err != nil {
		return Output{}, err
	}
	if r.logger != nil {
		for _, d := range assembled.Dropped {
			r.logger.Warn("prompt section dropped", map[string]interface{}{"section": string(d.Section), "tokens": d.Tokens})
		}
	}

	text := systemPrompt + "\n\n" + assembled.Prompt
	raw, err := r.Generator.Generate(ctx, text)
	if err != nil {
		return Output{}, errs.New(errs.CodeProvider, errs.StageGenerate, "", err)
	}

	out, err := parseOutput(raw)
	if err != nil {
		return Output{}, errs.New(errs.CodeParse, errs.StageGenerate, "", err)
	}

	if r.Filter != nil {
		out.Comments = r.Filter.Filter(out.Comments, r.ConfidenceThreshold)
	}
	return out, nil
}

func parseOutput(raw string) (Output, error) {
	var g generatorOutput
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return Output{}, fmt.Errorf("malformed generator output: %w", err)
	}

	out := Output{Summary: g.Summary, Comments: make([]Comment, 0, len(g.Comments))}
	for _, c := range g.Comments {
		out.Comments = append(out.Comments, Comment{
			FilePath:   ids.NewFilePath(c.FilePath),
			Line:       c.Line,
			Severity:   resolveSeverity(c.Severity),
			Category:   resolveCategory(c.Category),
			Body:       c.Body,
			Confidence: clamp01(c.Confidence),
		})
	}
	return out, nil
}

func resolveSeverity(raw string) ids.Severity {
	s := ids.Severity(raw)
	if s.Rank() < 0 {
		return ids.SeveritySuggestion
	}
	return s
}

func resolveCategory(raw string) ids.Category {
	switch ids.Category(raw) {
	case ids.CategoryBug, ids.CategorySecurity, ids.CategoryPerformance, ids.CategoryStyle,
		ids.CategoryArchitecture, ids.CategoryTesting, ids.CategoryDocumentation:
		return ids.Category(raw)
	default:
		return ids.CategoryStyle
	}
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
