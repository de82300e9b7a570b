package indexing

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/argus-review/argus/internal/codemap"
	"github.com/argus-review/argus/internal/errs"
	"github.com/argus-review/argus/internal/ids"
	"github.com/argus-review/argus/internal/logging"
	"github.com/argus-review/argus/internal/parser"
)

// rawEdge holds one file's unresolved edges, pending name/import resolution
// once the full map is known.
type rawEdge struct {
	path  ids.FilePath
	edges []codemap.Edge
}

// Builder produces and incrementally updates a codemap.CodebaseMap by
// parsing files with a parser.Adapter and resolving local edges into
// qualified targets. Grounded on CKB's internal/incremental
// extractor.go (per-file extraction) and updater.go (delta application),
// collapsed into one service since Argus has no on-disk SCIP index to
// keep in sync — the CodebaseMap itself is the index.
type Builder struct {
	repoRoot string
	adapter  *parser.Adapter
	ignored  []string
	logger   *logging.Logger
}

// NewBuilder constructs a Builder rooted at repoRoot.
func NewBuilder(repoRoot string, adapter *parser.Adapter, ignored []string, logger *logging.Logger) *Builder {
	return &Builder{repoRoot: repoRoot, adapter: adapter, ignored: ignored, logger: logger}
}

// BuildFull performs a full index: every recognized file under repoRoot is
// parsed and the resulting entries and edges placed into a fresh map
// stamped at headSHA. A per-file parse failure degrades that
// file's entry to empty symbols/edges and is logged, but does not abort the
// build; a failure to read the root directory itself raises IndexingError.
func (b *Builder) BuildFull(ctx context.Context, headSHA ids.CommitSHA) (*codemap.CodebaseMap, Stats, error) {
	if _, err := os.Stat(b.repoRoot); err != nil {
		return nil, Stats{}, &errs.IndexingError{Path: b.repoRoot, Stage: "stat-root", Cause: err}
	}

	m := codemap.NewCodebaseMap(headSHA)
	stats := Stats{}
	var pending []rawEdge

	err := filepath.WalkDir(b.repoRoot, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(b.repoRoot, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if MatchIgnored(rel+"/", b.ignored) {
				return filepath.SkipDir
			}
			return nil
		}
		if MatchIgnored(rel, b.ignored) {
			stats.FilesSkipped++
			return nil
		}
		stats.FilesScanned++

		fp := ids.NewFilePath(rel)
		content, err := os.ReadFile(p)
		if err != nil {
			stats.FilesErrored++
			if b.logger != nil {
				b.logger.Warn("skipping unreadable file", map[string]interface{}{"path": string(fp), "error": err.Error()})
			}
			return nil
		}

		entry, parseErr := b.adapter.Parse(ctx, fp, content)
		if parseErr != nil {
			stats.FilesErrored++
			if b.logger != nil {
				b.logger.Warn("parse failed, recording empty entry", map[string]interface{}{"path": string(fp), "error": parseErr.Error()})
			}
			m.Upsert(codemap.FileEntry{Path: fp})
			return nil
		}
		entry.LastIndexedSHA = headSHA
		m.Upsert(entry)
		stats.FilesParsed++
		stats.SymbolsIndexed += len(entry.Symbols)

		if edges, err := b.adapter.LocalEdges(fp, content); err == nil {
			pending = append(pending, rawEdge{path: fp, edges: edges})
		}
		return nil
	})
	if err != nil {
		return nil, stats, &errs.IndexingError{Path: b.repoRoot, Stage: "walk", Cause: err}
	}

	resolved := b.resolveEdges(m, pending)
	for _, e := range resolved {
		m.Graph.AddEdge(e)
	}
	stats.EdgesResolved = len(resolved)

	return m, stats, nil
}

// resolveEdges resolves each raw (source-file, bare-name) edge first against
// symbol names known anywhere in the map, then against import statements
// matched to a file present in the map: a two-stage resolution.
// A call edge whose bare name matches no known symbol is dropped. An
// import edge is always kept: it points at the matched file when one is
// found, and at the bare import path otherwise (see resolveImportPath).
func (b *Builder) resolveEdges(m *codemap.CodebaseMap, pending []rawEdge) []codemap.Edge {
	symbolIndex := make(map[string]string) // bare name -> qualified name
	for _, fp := range m.SortedFiles() {
		e, _ := m.Get(fp)
		for _, s := range e.Symbols {
			if _, exists := symbolIndex[s.Name]; !exists {
				symbolIndex[s.Name] = s.QualifiedName
			}
		}
	}

	var out []codemap.Edge
	for _, group := range pending {
		for _, e := range group.edges {
			switch e.Kind {
			case codemap.EdgeCalls:
				if qn, ok := symbolIndex[e.Target]; ok {
					out = append(out, codemap.Edge{Source: e.Source, Target: qn, Kind: codemap.EdgeCalls})
				}
			case codemap.EdgeImports:
				if target := b.resolveImportPath(m, group.path, e.Target); target != "" {
					out = append(out, codemap.Edge{Source: string(group.path), Target: target, Kind: codemap.EdgeImports})
				}
			default:
				out = append(out, e)
			}
		}
	}
	codemap.SortEdges(out)
	return out
}

// resolveImportPath matches a bare import string to a file already present
// in the map, trying the literal string, then "<import>.ext" for a fixed
// list of extensions (.go .py .js .ts .jsx .tsx .rb .rs) whatever the
// source file's language, then an index-file guess for directory-style
// imports (util/index.js, util/index.ts, util/__init__.py). When nothing
// matches, the bare import path is returned unchanged.
func (b *Builder) resolveImportPath(m *codemap.CodebaseMap, from ids.FilePath, raw string) string {
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, ".") {
		dir := filepath.ToSlash(filepath.Dir(string(from)))
		raw = filepath.ToSlash(filepath.Join(dir, raw))
	}
	if _, ok := m.Get(ids.NewFilePath(raw)); ok {
		return raw
	}
	candidates := []string{
		raw + ".go", raw + ".py", raw + ".js", raw + ".ts", raw + ".jsx", raw + ".tsx",
		raw + ".rb", raw + ".rs", raw + "/index.js", raw + "/index.ts", raw + "/__init__.py",
	}
	for _, c := range candidates {
		if _, ok := m.Get(ids.NewFilePath(c)); ok {
			return c
		}
	}
	return raw // unresolved within the map; kept as a bare path target
}
