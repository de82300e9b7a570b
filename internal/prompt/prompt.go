// Package prompt assembles the final review prompt from its fixed-priority
// sections. Grounded on CKB's internal/compression package
// (budget.go, truncation.go): the same top-down, budget-gated, drop-and-log
// shape, generalized from compressing MCP tool responses to assembling
// whole prompt sections instead of truncating item lists within one section.
package prompt

import (
	"strconv"
	"strings"

	"github.com/argus-review/argus/internal/errs"
	"github.com/argus-review/argus/internal/logging"
	"github.com/argus-review/argus/internal/memory"
	"github.com/argus-review/argus/internal/retrieval"
)

// SectionName identifies one of the five fixed prompt sections.
type SectionName string

const (
	SectionDiff      SectionName = "diff"
	SectionPRContext SectionName = "pr_context"
	SectionRetrieved SectionName = "retrieved_items"
	SectionOutline   SectionName = "outline"
	SectionPatterns  SectionName = "patterns"
)

// order is the fixed assembly priority: diff (mandatory) > PR
// context > retrieved items > outline > patterns.
var order = []SectionName{SectionDiff, SectionPRContext, SectionRetrieved, SectionOutline, SectionPatterns}

// Section is one candidate block of prompt text, already rendered to its
// final form before Assemble ever sees it.
type Section struct {
	Name SectionName
	Text string
}

// Input collects the raw material for every section; Assemble renders each
// present, non-empty field into its Section and runs the fixed priority
// order over them. A zero-value field simply contributes no section.
type Input struct {
	DiffText        string
	PRContextText   string
	RetrievalResult retrieval.RetrievalResult
	Outline         memory.CodebaseOutline
	Patterns        []memory.PatternEntry
}

// Result is Assemble's output: the final prompt text plus a record of what
// was dropped, for the run's summary log.
type Result struct {
	Prompt  string
	Dropped []Drop
}

// Drop records one section dropped wholly for exceeding the remaining
// budget; the drop itself is logged, never silent.
type Drop struct {
	Section SectionName
	Tokens  int
}

// Assembler assembles prompt sections within a fixed total token budget.
type Assembler struct {
	BudgetTokens int
	logger       *logging.Logger
}

func NewAssembler(budgetTokens int, logger *logging.Logger) *Assembler {
	return &Assembler{BudgetTokens: budgetTokens, logger: logger}
}

// Assemble renders in.DiffText and the other sections, admitting each in
// fixed priority order and dropping whichever section would overflow the
// remaining budget. The diff is never truncated or dropped: if the diff
// alone exceeds the budget, Assemble returns an *errs.PromptTooLargeError
// and no prompt.
func (a *Assembler) Assemble(in Input) (Result, error) {
	sections := a.renderSections(in)

	diffTokens := retrieval.EstimateTokens(sectionText(sections, SectionDiff))
	if diffTokens > a.BudgetTokens {
		return Result{}, &errs.PromptTooLargeError{DiffTokens: diffTokens, BudgetTokens: a.BudgetTokens}
	}

	var sb strings.Builder
	var dropped []Drop
	used := 0

	for _, name := range order {
		text, ok := sections[name]
		if !ok || text == "" {
			continue
		}
		tokens := retrieval.EstimateTokens(text)
		if name != SectionDiff && used+tokens > a.BudgetTokens {
			dropped = append(dropped, Drop{Section: name, Tokens: tokens})
			if a.logger != nil {
				a.logger.Warn("dropping prompt section over budget", map[string]interface{}{
					"section": string(name), "tokens": tokens, "used": used, "budget": a.BudgetTokens,
				})
			}
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
		used += tokens
	}

	return Result{Prompt: sb.String(), Dropped: dropped}, nil
}

func sectionText(sections map[SectionName]string, name SectionName) string {
	return sections[name]
}

func (a *Assembler) renderSections(in Input) map[SectionName]string {
	sections := map[SectionName]string{
		SectionDiff: renderDiff(in.DiffText),
	}
	if in.PRContextText != "" {
		sections[SectionPRContext] = renderPRContext(in.PRContextText)
	}
	if len(in.RetrievalResult.Items) > 0 {
		sections[SectionRetrieved] = renderRetrieved(in.RetrievalResult)
	}
	if len(in.Outline.Files) > 0 {
		sections[SectionOutline] = renderOutline(in.Outline)
	}
	if len(in.Patterns) > 0 {
		sections[SectionPatterns] = renderPatterns(in.Patterns)
	}
	return sections
}

func renderDiff(diff string) string {
	if diff == "" {
		return ""
	}
	return "## Diff\n```diff\n" + diff + "\n```"
}

func renderPRContext(text string) string {
	return "## PR Context\n" + text
}

func renderRetrieved(result retrieval.RetrievalResult) string {
	var sb strings.Builder
	sb.WriteString("## Retrieved Context\n")
	for _, item := range result.Items {
		sb.WriteString("### " + string(item.FilePath))
		sb.WriteString(" (lines ")
		sb.WriteString(rangeString(item.LineRange.Start, item.LineRange.End))
		sb.WriteString(", via ")
		sb.WriteString(item.SourceStrategy)
		sb.WriteString(")\n```\n")
		sb.WriteString(item.Text)
		sb.WriteString("\n```\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderOutline(outline memory.CodebaseOutline) string {
	var sb strings.Builder
	sb.WriteString("## Codebase Outline\n")
	for _, f := range outline.Files {
		sb.WriteString(string(f.FilePath))
		sb.WriteString(": ")
		sb.WriteString(f.SymbolsText)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderPatterns(patterns []memory.PatternEntry) string {
	var sb strings.Builder
	sb.WriteString("## Known Patterns\n")
	for _, p := range patterns {
		sb.WriteString("- [" + string(p.Category) + "] " + p.Description + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func rangeString(start, end int) string {
	if start == end {
		return strconv.Itoa(start)
	}
	return strconv.Itoa(start) + "-" + strconv.Itoa(end)
}
