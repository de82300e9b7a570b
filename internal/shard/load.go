package shard

import (
	"github.com/argus-review/argus/internal/codemap"
	"github.com/argus-review/argus/internal/ids"
)

// RequiredShards resolves the set of shard ids directly implied by
// requiredPaths: the first step of a selective load.
func RequiredShards(requiredPaths []ids.FilePath) map[string]bool {
	out := make(map[string]bool, len(requiredPaths))
	for _, p := range requiredPaths {
		out[string(ids.ShardFor(p))] = true
	}
	return out
}

// ExpandOneHop extends required by one hop across m's cross-edges (step 2):
// for every cross-edge with an endpoint's shard already in required, the
// shard of its other endpoint is added. The input set is not mutated.
func ExpandOneHop(required map[string]bool, m Manifest) map[string]bool {
	out := make(map[string]bool, len(required))
	for k := range required {
		out[k] = true
	}
	for _, e := range m.CrossEdges {
		srcShard := string(ids.ShardFor(ids.FilePath(filePart(e.Source))))
		dstShard := string(ids.ShardFor(ids.FilePath(filePart(e.Target))))
		if required[srcShard] {
			out[dstShard] = true
		}
		if required[dstShard] {
			out[srcShard] = true
		}
	}
	return out
}

// Assemble builds a partial CodebaseMap from the given blobs plus m's
// cross-edges, per step 4 of load_selected: entries and internal edges come
// from the fetched blobs, and every cross-edge is added regardless of
// whether both its endpoints were fetched — unresolved edge targets remain
// unresolved, which downstream consumers must tolerate.
func Assemble(m Manifest, blobs []Blob) *codemap.CodebaseMap {
	out := codemap.NewCodebaseMap(ids.CommitSHA(m.IndexedAt))
	for _, b := range blobs {
		for _, e := range b.Entries {
			out.Upsert(e)
		}
		for _, e := range b.InternalEdges {
			out.Graph.AddEdge(e)
		}
	}
	for _, e := range m.CrossEdges {
		out.Graph.AddEdge(e)
	}
	return out
}
