package codemap

import "sort"

// DependencyGraph is an adjacency index over a sorted edge list. It is
// rebuilt whenever the owning CodebaseMap's edge set changes; callers never
// mutate it directly.
type DependencyGraph struct {
	edges []Edge

	forward map[string][]Edge // source -> outgoing edges
	reverse map[string][]Edge // target -> incoming edges
}

// NewDependencyGraph builds a graph from an edge list, sorting it
// deterministically and indexing it for O(1) neighbor lookups.
func NewDependencyGraph(edges []Edge) *DependencyGraph {
	g := &DependencyGraph{
		edges:   append([]Edge(nil), edges...),
		forward: make(map[string][]Edge),
		reverse: make(map[string][]Edge),
	}
	SortEdges(g.edges)
	g.reindex()
	return g
}

func (g *DependencyGraph) reindex() {
	g.forward = make(map[string][]Edge, len(g.edges))
	g.reverse = make(map[string][]Edge, len(g.edges))
	for _, e := range g.edges {
		g.forward[e.Source] = append(g.forward[e.Source], e)
		g.reverse[e.Target] = append(g.reverse[e.Target], e)
	}
}

// Edges returns the full sorted edge list. The returned slice must not be
// mutated by the caller.
func (g *DependencyGraph) Edges() []Edge {
	return g.edges
}

// AddEdge inserts e, re-sorting and re-indexing. Used while assembling a
// map from shards, where edges arrive shard-by-shard.
func (g *DependencyGraph) AddEdge(e Edge) {
	g.edges = append(g.edges, e)
	SortEdges(g.edges)
	g.reindex()
}

// Dependencies returns the direct out-edges of node (what node depends on).
func (g *DependencyGraph) Dependencies(node string) []Edge {
	return g.forward[node]
}

// Dependents returns the direct in-edges of node (what depends on node).
func (g *DependencyGraph) Dependents(node string) []Edge {
	return g.reverse[node]
}

// Neighbors performs a breadth-first expansion out to depth hops in both
// directions, returning the distinct set of neighboring node keys
// (excluding node itself).
func (g *DependencyGraph) Neighbors(node string, depth int) []string {
	if depth <= 0 {
		return nil
	}
	visited := map[string]bool{node: true}
	frontier := []string{node}
	var result []string

	for d := 0; d < depth; d++ {
		var next []string
		for _, n := range frontier {
			for _, e := range g.forward[n] {
				if !visited[e.Target] {
					visited[e.Target] = true
					result = append(result, e.Target)
					next = append(next, e.Target)
				}
			}
			for _, e := range g.reverse[n] {
				if !visited[e.Source] {
					visited[e.Source] = true
					result = append(result, e.Source)
					next = append(next, e.Source)
				}
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}

	sort.Strings(result)
	return result
}

// RemoveWhereSourceIn drops every edge whose source is in sources, returning
// the number removed. Used when reparsing or removing a file's own edges.
func (g *DependencyGraph) RemoveWhereSourceIn(sources map[string]bool) int {
	return g.removeWhere(func(e Edge) bool { return sources[e.Source] })
}

// RemoveWhereEndpointIn drops every edge whose source or target is in nodes,
// returning the number removed. Used when a file is deleted from the map.
func (g *DependencyGraph) RemoveWhereEndpointIn(nodes map[string]bool) int {
	return g.removeWhere(func(e Edge) bool { return nodes[e.Source] || nodes[e.Target] })
}

func (g *DependencyGraph) removeWhere(match func(Edge) bool) int {
	kept := g.edges[:0:0]
	removed := 0
	for _, e := range g.edges {
		if match(e) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	g.edges = kept
	g.reindex()
	return removed
}
