package retrieval

import (
	"encoding/json"

	"github.com/argus-review/argus/internal/ids"
)

// EmbeddingIndex is a persisted set of per-chunk vectors, keyed by
// Fingerprint(chunk.FilePath, chunk.LineRange). It is computed once per
// indexing pass and pushed alongside the shard manifest, so SemanticStrategy
// never re-embeds the codebase inside a review run — only the live query
// text is embedded at review time.
type EmbeddingIndex map[string][]float32

// BuildEmbeddings computes one vector per chunk in a single batched Embed
// call and keys the result by Fingerprint.
func BuildEmbeddings(provider EmbeddingProvider, chunks []CodeChunk) (EmbeddingIndex, error) {
	if provider == nil || len(chunks) == 0 {
		return EmbeddingIndex{}, nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vecs, err := provider.Embed(texts)
	if err != nil {
		return nil, err
	}
	out := make(EmbeddingIndex, len(chunks))
	for i, c := range chunks {
		if i < len(vecs) {
			out[Fingerprint(c.FilePath, c.LineRange)] = vecs[i]
		}
	}
	return out, nil
}

// UpdateEmbeddings recomputes vectors only for chunks belonging to
// changedFiles and merges them into existing, leaving every unchanged
// file's vectors untouched. Stale fingerprints left behind by a changed
// file's old chunk boundaries are harmless: they are never looked up again
// since the new chunk set no longer produces those fingerprints, and a
// full bootstrap naturally drops them by rebuilding the index from scratch.
func UpdateEmbeddings(provider EmbeddingProvider, existing EmbeddingIndex, allChunks []CodeChunk, changedFiles []ids.FilePath) (EmbeddingIndex, error) {
	if provider == nil {
		return existing, nil
	}
	changed := make(map[ids.FilePath]bool, len(changedFiles))
	for _, f := range changedFiles {
		changed[f] = true
	}

	merged := make(EmbeddingIndex, len(existing))
	for k, v := range existing {
		merged[k] = v
	}

	var toEmbed []CodeChunk
	for _, c := range allChunks {
		if changed[c.FilePath] {
			toEmbed = append(toEmbed, c)
		}
	}
	fresh, err := BuildEmbeddings(provider, toEmbed)
	if err != nil {
		return nil, err
	}
	for k, v := range fresh {
		merged[k] = v
	}
	return merged, nil
}

// MarshalEmbeddings and UnmarshalEmbeddings round-trip an EmbeddingIndex as
// the JSON payload of the "embeddings.json" extra blob.
func MarshalEmbeddings(idx EmbeddingIndex) ([]byte, error) {
	return json.Marshal(idx)
}

func UnmarshalEmbeddings(data []byte) (EmbeddingIndex, error) {
	var idx EmbeddingIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, err
	}
	return idx, nil
}
