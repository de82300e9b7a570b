package indexing

import (
	"context"
	"os"
	"path/filepath"

	"github.com/argus-review/argus/internal/codemap"
	"github.com/argus-review/argus/internal/ids"
)

// ApplyChanges mutates m in place to reflect changes: deleted files and
// their edges are removed, added/modified files are reparsed and their
// entries replaced, and the outgoing edges of every added or modified file
// are re-resolved against the post-change map; edges sourced in untouched
// files are kept as they are. Grounded on CKB's internal/incremental/updater.go
// delta-application flow, simplified because CodebaseMap has no on-disk
// SCIP document to patch — the map itself is the artifact being mutated.
func (b *Builder) ApplyChanges(ctx context.Context, m *codemap.CodebaseMap, changes []ChangedFile, newSHA ids.CommitSHA) (Stats, error) {
	stats := Stats{}
	touched := make(map[string]bool, len(changes))
	removedEndpoints := make(map[string]bool)
	staleSources := make(map[string]bool, len(changes))

	for _, c := range changes {
		touched[string(c.Path)] = true
		staleSources[string(c.Path)] = true
		if old, ok := m.Get(c.Path); ok {
			for _, s := range old.Symbols {
				staleSources[s.QualifiedName] = true
			}
		}
		if c.ChangeType == ChangeDeleted {
			if old, ok := m.Get(c.Path); ok {
				removedEndpoints[string(c.Path)] = true
				for _, s := range old.Symbols {
					removedEndpoints[s.QualifiedName] = true
				}
			}
			m.Remove(c.Path)
			continue
		}

		abs := filepath.Join(b.repoRoot, string(c.Path))
		content, err := os.ReadFile(abs)
		if err != nil {
			stats.FilesErrored++
			if b.logger != nil {
				b.logger.Warn("skipping unreadable changed file", map[string]interface{}{"path": string(c.Path), "error": err.Error()})
			}
			continue
		}

		entry, parseErr := b.adapter.Parse(ctx, c.Path, content)
		if parseErr != nil {
			stats.FilesErrored++
			if b.logger != nil {
				b.logger.Warn("parse failed on changed file, recording empty entry", map[string]interface{}{"path": string(c.Path), "error": parseErr.Error()})
			}
			m.Upsert(codemap.FileEntry{Path: c.Path})
			continue
		}
		entry.LastIndexedSHA = newSHA
		m.Upsert(entry)
		stats.FilesParsed++
		stats.SymbolsIndexed += len(entry.Symbols)
	}

	// Caller-owned edges: drop every edge sourced from a touched file (the
	// file path itself or any symbol the file held before the change) before
	// re-adding its freshly resolved set, so a file's outgoing edges never
	// go stale. Edges whose source or target resolves into a removed file
	// are dropped outright too.
	if len(removedEndpoints) > 0 {
		m.Graph.RemoveWhereEndpointIn(removedEndpoints)
	}
	m.Graph.RemoveWhereSourceIn(staleSources)

	var pending []rawEdge
	for path := range touched {
		fp := ids.FilePath(path)
		if _, ok := m.Get(fp); !ok {
			continue // deleted
		}
		abs := filepath.Join(b.repoRoot, path)
		content, err := os.ReadFile(abs)
		if err != nil {
			continue
		}
		if edges, err := b.adapter.LocalEdges(fp, content); err == nil {
			pending = append(pending, rawEdge{path: fp, edges: edges})
		}
	}

	resolved := b.resolveEdges(m, pending)
	for _, e := range resolved {
		m.Graph.AddEdge(e)
	}
	stats.EdgesResolved = len(resolved)
	m.IndexedAt = newSHA

	return stats, nil
}

// incrementalThreshold mirrors CKB's IncrementalThreshold config:
// above this fraction of changed files relative to map size, a full
// rebuild is cheaper and more reliable than patching edges file by file.
const incrementalThreshold = 0.5

// ShouldFullRebuild reports whether changes is large enough, relative to
// the current map's size, that a full rebuild should run instead of an
// incremental update.
func ShouldFullRebuild(changes []ChangedFile, mapSize int) bool {
	if mapSize == 0 {
		return true
	}
	return float64(len(changes))/float64(mapSize) > incrementalThreshold
}
