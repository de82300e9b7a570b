package shard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argus-review/argus/internal/codemap"
	"github.com/argus-review/argus/internal/ids"
)

func buildMap() *codemap.CodebaseMap {
	m := codemap.NewCodebaseMap(ids.CommitSHA("a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4e5f6a1b2"))
	m.Upsert(codemap.FileEntry{Path: ids.NewFilePath("pkg/a/a.go")})
	m.Upsert(codemap.FileEntry{Path: ids.NewFilePath("pkg/a/b.go")})
	m.Upsert(codemap.FileEntry{Path: ids.NewFilePath("pkg/c/c.go")})
	m.Graph.AddEdge(codemap.Edge{Source: "pkg/a/a.go", Target: "pkg/a/b.go", Kind: codemap.EdgeImports})
	m.Graph.AddEdge(codemap.Edge{Source: "pkg/a/a.go", Target: "pkg/c/c.go", Kind: codemap.EdgeImports})
	return m
}

func TestSplit_PartitionsEntriesByShard(t *testing.T) {
	m := buildMap()
	manifest, blobs := Split(m, Manifest{})

	require.Len(t, manifest.Shards, 2)
	require.Contains(t, manifest.Shards, "pkg/a")
	require.Contains(t, manifest.Shards, "pkg/c")
	assert.Equal(t, 2, manifest.Shards["pkg/a"].FileCount)
	assert.Equal(t, 1, manifest.Shards["pkg/c"].FileCount)
	assert.Len(t, blobs, 2)
}

func TestSplit_InternalVsCrossEdges(t *testing.T) {
	m := buildMap()
	manifest, blobs := Split(m, Manifest{})

	var aBlob Blob
	for _, b := range blobs {
		if b.ShardId == "pkg/a" {
			aBlob = b
		}
	}
	require.Len(t, aBlob.InternalEdges, 1)
	assert.Equal(t, "pkg/a/b.go", aBlob.InternalEdges[0].Target)

	require.Len(t, manifest.CrossEdges, 1)
	assert.Equal(t, "pkg/c/c.go", manifest.CrossEdges[0].Target)
}

func TestSplit_ReusesPriorDescriptorWhenHashUnchanged(t *testing.T) {
	m := buildMap()
	manifest1, blobs1 := Split(m, Manifest{})
	require.Len(t, blobs1, 2)

	// Second split with no changes: identical content hashes, so nothing
	// should be reported as changed even though prior is now supplied.
	manifest2, blobs2 := Split(m, manifest1)
	assert.Empty(t, blobs2)
	assert.Equal(t, manifest1.Shards["pkg/a"].ContentHash, manifest2.Shards["pkg/a"].ContentHash)
}

func TestSplit_DetectsChangedShard(t *testing.T) {
	m := buildMap()
	manifest1, _ := Split(m, Manifest{})

	m.Upsert(codemap.FileEntry{Path: ids.NewFilePath("pkg/a/a.go"), Summary: "now has a summary"})
	manifest2, changed := Split(m, manifest1)

	require.Len(t, changed, 1)
	assert.Equal(t, "pkg/a", changed[0].ShardId)
	assert.NotEqual(t, manifest1.Shards["pkg/a"].ContentHash, manifest2.Shards["pkg/a"].ContentHash)
}

func TestAssemble_RoundTripsEntriesAndCrossEdges(t *testing.T) {
	m := buildMap()
	manifest, blobs := Split(m, Manifest{})

	partial := Assemble(manifest, blobs)
	assert.Equal(t, m.Len(), partial.Len())
	assert.NotEmpty(t, partial.Graph.Dependencies("pkg/a/a.go"))
}

func TestExpandOneHop_AddsOtherEndpointShard(t *testing.T) {
	m := buildMap()
	manifest, _ := Split(m, Manifest{})

	required := RequiredShards([]ids.FilePath{ids.NewFilePath("pkg/a/a.go")})
	require.True(t, required["pkg/a"])
	require.False(t, required["pkg/c"])

	expanded := ExpandOneHop(required, manifest)
	assert.True(t, expanded["pkg/c"])
}

func TestMarshalBlob_StableHashAcrossCalls(t *testing.T) {
	b := Blob{ShardId: "pkg/a", Entries: []codemap.FileEntry{{Path: ids.NewFilePath("pkg/a/a.go")}}}
	_, h1, name1, err := MarshalBlob(b)
	require.NoError(t, err)
	_, h2, name2, err := MarshalBlob(b)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Equal(t, name1, name2)
	assert.Equal(t, "shard_"+h1+".json", name1)
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	small := []byte("short")
	data, compressed, err := Compress(small)
	require.NoError(t, err)
	assert.False(t, compressed)
	back, err := Decompress(data, compressed)
	require.NoError(t, err)
	assert.Equal(t, small, back)

	large := make([]byte, 4096)
	for i := range large {
		large[i] = byte(i % 7)
	}
	data, compressed, err = Compress(large)
	require.NoError(t, err)
	assert.True(t, compressed)
	back, err = Decompress(data, compressed)
	require.NoError(t, err)
	assert.Equal(t, large, back)
}
