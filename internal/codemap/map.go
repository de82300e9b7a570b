// Package codemap holds the CodebaseMap aggregate: the in-memory index of
// files, symbols and the dependency graph between them that every other
// subsystem in Argus (sharded persistence, retrieval, memory) is built on.
package codemap

import (
	"sort"

	"github.com/argus-review/argus/internal/ids"
)

// CodebaseMap is the aggregate root for a repository's parsed structure.
// It is created by a full index, mutated only by the indexing service
// (upsert/remove of whole entries) and destroyed only by a fresh full index.
// Partial maps — those assembled from a subset of shards — are structurally
// identical to full ones; consumers must tolerate entries whose edges
// reference targets that are not present.
type CodebaseMap struct {
	IndexedAt ids.CommitSHA
	entries   map[ids.FilePath]FileEntry
	Graph     *DependencyGraph
}

// NewCodebaseMap creates an empty map stamped at indexedAt.
func NewCodebaseMap(indexedAt ids.CommitSHA) *CodebaseMap {
	return &CodebaseMap{
		IndexedAt: indexedAt,
		entries:   make(map[ids.FilePath]FileEntry),
		Graph:     NewDependencyGraph(nil),
	}
}

// Upsert inserts or replaces the entry for entry.Path.
func (m *CodebaseMap) Upsert(entry FileEntry) {
	m.entries[entry.Path] = entry.Clone()
}

// Remove deletes the entry for path, if present, and reports whether it was.
func (m *CodebaseMap) Remove(path ids.FilePath) bool {
	if _, ok := m.entries[path]; !ok {
		return false
	}
	delete(m.entries, path)
	return true
}

// Get returns the entry for path and whether it exists.
func (m *CodebaseMap) Get(path ids.FilePath) (FileEntry, bool) {
	e, ok := m.entries[path]
	return e, ok
}

// Files returns every file path in the map, in no particular order.
func (m *CodebaseMap) Files() []ids.FilePath {
	out := make([]ids.FilePath, 0, len(m.entries))
	for p := range m.entries {
		out = append(out, p)
	}
	return out
}

// SortedFiles returns every file path in lexicographic order.
func (m *CodebaseMap) SortedFiles() []ids.FilePath {
	out := m.Files()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of file entries in the map.
func (m *CodebaseMap) Len() int { return len(m.entries) }

// Entries returns a defensive copy of the full path-to-entry index.
// Callers that only need to iterate should prefer Files+Get.
func (m *CodebaseMap) Entries() map[ids.FilePath]FileEntry {
	out := make(map[ids.FilePath]FileEntry, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out
}

// Merge layers other's entries and edges on top of m, used when assembling
// a partial map from multiple loaded shards. other's IndexedAt replaces m's
// when it is non-empty.
func (m *CodebaseMap) Merge(other *CodebaseMap) {
	for _, p := range other.Files() {
		e, _ := other.Get(p)
		m.Upsert(e)
	}
	for _, e := range other.Graph.Edges() {
		m.Graph.AddEdge(e)
	}
	if other.IndexedAt != "" {
		m.IndexedAt = other.IndexedAt
	}
}
