package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/argus-review/argus/internal/generator"
	"github.com/argus-review/argus/internal/logging"
)

const systemPromptFull = `You are a codebase analyst. Given a structural outline of a codebase, identify recurring patterns, conventions, and architectural decisions.

For each pattern, provide:
- category: one of style, naming, architecture, testing, error_handling, concurrency
- description: a concise description of the pattern
- confidence: how confident you are (0.0-1.0) that this is a deliberate, project-specific convention
- examples: 1-2 brief "file_path:start-end" examples from the outline

Do not give high confidence to patterns that are just language idioms or framework defaults.`

const systemPromptIncremental = `You are a codebase analyst. You are given a structural outline and a list of patterns already known about this codebase.

Report ONLY patterns that are genuinely new — not a rephrasing of an existing entry. If nothing new stands out, return an empty patterns list.

For each new pattern, provide:
- category: one of style, naming, architecture, testing, error_handling, concurrency
- description: a concise description of the pattern
- confidence: how confident you are (0.0-1.0)
- examples: 1-2 brief "file_path:start-end" examples`

// analysisOutput is the structured JSON a Generator call is prompted to
// produce; PatternAnalyzer parses it directly rather than trusting free text.
type analysisOutput struct {
	Patterns []struct {
		Category    string   `json:"category"`
		Description string   `json:"description"`
		Confidence  float64  `json:"confidence"`
		Examples    []string `json:"examples"`
	} `json:"patterns"`
}

// PatternAnalyzer is a thin adapter over the shared opaque generator
// boundary (internal/generator.Generator) — the same boundary review
// generation uses, not a new one. Grounded on original_source's
// LLMPatternAnalyzer (analyze / analyze_incremental split, confidence
// clamping, unknown-category fallback).
type PatternAnalyzer struct {
	Generator generator.Generator
	logger    *logging.Logger
}

func NewPatternAnalyzer(g generator.Generator, logger *logging.Logger) *PatternAnalyzer {
	return &PatternAnalyzer{Generator: g, logger: logger}
}

// Analyze runs a full pattern discovery pass against outlineText.
func (a *PatternAnalyzer) Analyze(ctx context.Context, outlineText string) ([]PatternEntry, error) {
	prompt := systemPromptFull + "\n\n## Codebase Outline\n```\n" + outlineText + "\n```"
	return a.run(ctx, prompt)
}

// AnalyzeIncremental runs a novelty-gated pass: only patterns not already
// covered by existing are returned. When existing is empty this degrades
// to a full Analyze call, matching original_source's analyze_incremental.
func (a *PatternAnalyzer) AnalyzeIncremental(ctx context.Context, outlineText string, existing []PatternEntry) ([]PatternEntry, error) {
	if len(existing) == 0 {
		return a.Analyze(ctx, outlineText)
	}
	prompt := systemPromptIncremental + "\n\n## Existing Patterns\n" + formatExisting(existing) +
		"\n\n## Codebase Outline\n```\n" + outlineText + "\n```"
	return a.run(ctx, prompt)
}

func (a *PatternAnalyzer) run(ctx context.Context, prompt string) ([]PatternEntry, error) {
	raw, err := a.Generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("pattern analysis failed: %w", err)
	}
	var out analysisOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("pattern analysis returned malformed output: %w", err)
	}

	entries := make([]PatternEntry, 0, len(out.Patterns))
	for _, p := range out.Patterns {
		entries = append(entries, PatternEntry{
			Category:    a.resolveCategory(p.Category),
			Description: p.Description,
			Confidence:  clamp01(p.Confidence),
			Examples:    p.Examples,
		})
	}
	return entries, nil
}

func (a *PatternAnalyzer) resolveCategory(raw string) PatternCategory {
	switch PatternCategory(strings.ToLower(strings.TrimSpace(raw))) {
	case CategoryStyle, CategoryNaming, CategoryArchitecture, CategoryTesting, CategoryErrorHandling, CategoryConcurrency:
		return PatternCategory(strings.ToLower(strings.TrimSpace(raw)))
	default:
		if a.logger != nil {
			a.logger.Warn("unknown pattern category, defaulting to style", map[string]interface{}{"category": raw})
		}
		return CategoryStyle
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

func formatExisting(patterns []PatternEntry) string {
	var sb strings.Builder
	for _, p := range patterns {
		sb.WriteString("- [" + string(p.Category) + "] " + p.Description + "\n")
	}
	return sb.String()
}
