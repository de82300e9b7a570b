package memory

import (
	"sort"
	"strconv"
	"strings"

	"github.com/argus-review/argus/internal/codemap"
	"github.com/argus-review/argus/internal/ids"
)

const (
	charsPerToken     = 4 // matches retrieval.EstimateTokens's ceil(chars/4)
	maxSymbolsPerFile = 12
)

// Renderer produces a CodebaseOutline within a character budget derived
// from a token budget. Grounded on original_source's
// OutlineRenderer (render/render_full split, budget-gated accumulation)
// but following a "path: sym(kind), ..." line format and lexicographic
// (not blast-radius-priority) file ordering.
type Renderer struct {
	TokenBudget int
}

func NewRenderer(tokenBudget int) *Renderer {
	return &Renderer{TokenBudget: tokenBudget}
}

// RenderFull renders every file in m, in lexicographic order.
func (r *Renderer) RenderFull(m *codemap.CodebaseMap) (string, CodebaseOutline) {
	return r.render(m, m.SortedFiles())
}

// RenderScoped renders changedFiles plus their one-hop graph neighbors,
// still in lexicographic order, so repeated calls stay deterministic.
func (r *Renderer) RenderScoped(m *codemap.CodebaseMap, changedFiles []ids.FilePath) (string, CodebaseOutline) {
	scope := make(map[ids.FilePath]bool)
	for _, f := range changedFiles {
		if _, ok := m.Get(f); ok {
			scope[f] = true
		}
	}
	// One-hop file-level neighbors: edges are keyed by qualified symbol
	// (or bare-path, for unresolved imports), not by file path, so the
	// hop is computed directly off the edge list rather than via
	// DependencyGraph.Neighbors (which operates on graph node keys).
	changed := make(map[ids.FilePath]bool, len(changedFiles))
	for _, f := range changedFiles {
		changed[f] = true
	}
	for _, e := range m.Graph.Edges() {
		srcFile := ids.FilePath(fileOf(e.Source))
		dstFile := ids.FilePath(fileOf(e.Target))
		if changed[srcFile] {
			if _, ok := m.Get(dstFile); ok {
				scope[dstFile] = true
			}
		}
		if changed[dstFile] {
			if _, ok := m.Get(srcFile); ok {
				scope[srcFile] = true
			}
		}
	}

	var files []ids.FilePath
	for f := range scope {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i] < files[j] })
	return r.render(m, files)
}

func (r *Renderer) render(m *codemap.CodebaseMap, files []ids.FilePath) (string, CodebaseOutline) {
	budgetChars := r.TokenBudget * charsPerToken
	var sb strings.Builder
	var outline CodebaseOutline
	used := 0

	for _, path := range files {
		entry, ok := m.Get(path)
		if !ok {
			continue
		}
		line, body := renderFileLine(path, entry)
		if used+len(line) > budgetChars {
			break
		}
		sb.WriteString(line)
		used += len(line)
		outline.Files = append(outline.Files, FileOutline{FilePath: path, SymbolsText: body})
	}
	return sb.String(), outline
}

// renderFileLine renders one "path: sym1(kind), sym2(kind), ...(+K more)"
// line, truncating the symbol list after maxSymbolsPerFile entries.
func renderFileLine(path ids.FilePath, entry codemap.FileEntry) (line, body string) {
	syms := entry.Symbols
	shown := syms
	more := 0
	if len(syms) > maxSymbolsPerFile {
		shown = syms[:maxSymbolsPerFile]
		more = len(syms) - maxSymbolsPerFile
	}

	parts := make([]string, 0, len(shown))
	for _, s := range shown {
		parts = append(parts, s.Name+"("+string(s.Kind)+")")
	}
	body = strings.Join(parts, ", ")
	if more > 0 {
		if body != "" {
			body += ", "
		}
		body += "…(+" + strconv.Itoa(more) + " more)"
	}
	return string(path) + ": " + body + "\n", body
}

// fileOf extracts the file-path portion of a graph endpoint, which is
// either a qualified symbol name ("path#Symbol") or a bare file path (for
// unresolved-import edges).
func fileOf(node string) string {
	idx := strings.IndexByte(node, '#')
	if idx < 0 {
		return node
	}
	return node[:idx]
}
