package shard

import (
	"sort"
	"strings"

	"github.com/argus-review/argus/internal/codemap"
	"github.com/argus-review/argus/internal/ids"
)

// Split performs the sharding operation: group m's entries by shard id,
// recompute each shard's blob and content hash, carry a prior descriptor
// unchanged when its hash still matches, and recompute cross_edges from
// scratch. It returns the new Manifest and the set of Blobs whose content
// hash changed (or is new) — callers only need to write those.
func Split(m *codemap.CodebaseMap, prior Manifest) (Manifest, []Blob) {
	byShard := make(map[string][]codemap.FileEntry)
	shardOf := make(map[string]string, m.Len())

	for _, fp := range m.SortedFiles() {
		e, _ := m.Get(fp)
		sid := string(ids.ShardFor(fp))
		byShard[sid] = append(byShard[sid], e)
		shardOf[string(fp)] = sid
	}

	var internal, cross []codemap.Edge
	for _, e := range m.Graph.Edges() {
		srcShard, srcOK := shardOf[filePart(e.Source)]
		dstShard, dstOK := shardOf[filePart(e.Target)]
		switch {
		case srcOK && dstOK && srcShard == dstShard:
			internal = append(internal, e)
		case srcOK:
			// Target is outside the map (unresolved) or in another shard:
			// both cases cross the shard boundary from the source's point
			// of view. Unresolved targets remain unresolved but the edge
			// itself is still recorded.
			cross = append(cross, e)
		}
	}
	codemap.SortEdges(cross)

	internalByShard := make(map[string][]codemap.Edge)
	for _, e := range internal {
		sid := shardOf[filePart(e.Source)]
		internalByShard[sid] = append(internalByShard[sid], e)
	}

	shardIds := make([]string, 0, len(byShard))
	for sid := range byShard {
		shardIds = append(shardIds, sid)
	}
	sort.Strings(shardIds)

	newManifest := Manifest{
		IndexedAt: string(m.IndexedAt),
		Shards:    make(map[string]Descriptor, len(shardIds)),
	}
	var changed []Blob

	for _, sid := range shardIds {
		entries := byShard[sid]
		edges := internalByShard[sid]
		codemap.SortEdges(edges)

		blob := Blob{ShardId: sid, Entries: entries, InternalEdges: edges}
		_, hash, blobName, err := MarshalBlob(blob)
		if err != nil {
			continue // unreachable for well-formed entries; blob simply omitted
		}

		paths := make([]string, len(entries))
		for i, e := range entries {
			paths[i] = string(e.Path)
		}

		desc := Descriptor{
			ShardId:     sid,
			BlobName:    blobName,
			ContentHash: hash,
			FileCount:   len(entries),
			FilePaths:   paths,
		}
		newManifest.Shards[sid] = desc

		if prevDesc, ok := prior.Shards[sid]; !ok || prevDesc.ContentHash != hash {
			changed = append(changed, blob)
		}
	}
	newManifest.CrossEdges = cross

	return newManifest, changed
}

// filePart strips a qualified-symbol suffix ("path#Symbol") down to the
// bare file path, since codemap.Edge endpoints may name either a file or a
// symbol qualified by its file.
func filePart(endpoint string) string {
	if i := strings.IndexByte(endpoint, '#'); i >= 0 {
		return endpoint[:i]
	}
	return endpoint
}
