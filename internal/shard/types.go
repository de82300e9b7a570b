// Package shard implements sharded DAG persistence: splitting a
// codemap.CodebaseMap into directory-keyed blobs plus a manifest holding
// cross-shard edges, and reassembling a partial map from a selected subset
// of blobs. Grounded on CKB's content-hashed, versioned-blob
// pattern in internal/hotspots/persistence.go, and on
// original_source/infrastructure/storage/shard_serializer.py for the exact
// split/assemble semantics this generalizes.
package shard

import "github.com/argus-review/argus/internal/codemap"

// Descriptor describes one shard blob in a Manifest.
type Descriptor struct {
	ShardId     string   `json:"shard_id"`
	BlobName    string   `json:"blob_name"`
	ContentHash string   `json:"content_hash"`
	FileCount   int      `json:"file_count"`
	FilePaths   []string `json:"file_paths"`
}

// Manifest is the single entry point for selective loading: it maps every
// shard id to its descriptor and carries every edge that crosses a shard
// boundary. Invariant: the union of every descriptor's FilePaths equals the
// full set of indexed files exactly once; cross_edges' endpoints always
// belong to different shards.
type Manifest struct {
	IndexedAt  string                `json:"indexed_at"`
	Shards     map[string]Descriptor `json:"shards"`
	CrossEdges []codemap.Edge        `json:"cross_edges"`
}

// Blob is the on-disk/on-branch representation of one shard: every file
// entry whose ShardId(path) equals ShardId, plus every edge whose source
// and target both belong to this shard.
type Blob struct {
	ShardId       string             `json:"shard_id"`
	Entries       []codemap.FileEntry `json:"entries"`
	InternalEdges []codemap.Edge      `json:"internal_edges"`
}
