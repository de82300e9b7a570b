package codemap

import "sort"

// EdgeKind classifies the relationship an Edge records.
type EdgeKind string

const (
	EdgeImports    EdgeKind = "imports"
	EdgeCalls      EdgeKind = "calls"
	EdgeExtends    EdgeKind = "extends"
	EdgeImplements EdgeKind = "implements"
	EdgeReferences EdgeKind = "references"
)

// Edge is a directed dependency relationship. Target may name either a
// qualified symbol or a bare file path when the reference could only be
// resolved to a file (e.g. an unresolved import).
type Edge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   EdgeKind `json:"kind"`
}

// Less orders edges by (source, kind, target) so that repeated builds over
// identical inputs serialize identically.
func (e Edge) Less(o Edge) bool {
	if e.Source != o.Source {
		return e.Source < o.Source
	}
	if e.Kind != o.Kind {
		return e.Kind < o.Kind
	}
	return e.Target < o.Target
}

// SortEdges sorts edges in place by (source, kind, target).
func SortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool { return edges[i].Less(edges[j]) })
}
