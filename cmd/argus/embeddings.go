package main

import (
	"context"

	"github.com/argus-review/argus/internal/ids"
	"github.com/argus-review/argus/internal/retrieval"
	"github.com/argus-review/argus/internal/syncbranch"
)

const embeddingsBlobPath = "embeddings.json"

// embeddingProviderFor gates semantic retrieval on config.EmbeddingModel
// being set, returning nil otherwise. Shared by the review path (which
// embeds the live query) and the index/bootstrap paths (which persist
// per-chunk vectors), so both sides agree on whether semantic retrieval
// is enabled for a given repository.
func embeddingProviderFor(embeddingModel string) retrieval.EmbeddingProvider {
	if embeddingModel == "" {
		return nil
	}
	return retrieval.NewLocalEmbeddingProvider()
}

// loadEmbeddings reads the persisted per-chunk embedding index from pulled.
// A nil result means no embeddings blob has ever been pushed, either
// because the branch is new or because semantic retrieval was disabled
// during every prior indexing run.
func loadEmbeddings(ctx context.Context, store *syncbranch.Store, pulled *syncbranch.Pulled) (retrieval.EmbeddingIndex, error) {
	if pulled == nil || !pulled.BranchExists {
		return nil, nil
	}
	data, ok, err := store.FetchExtra(ctx, pulled, embeddingsBlobPath)
	if err != nil || !ok {
		return nil, err
	}
	return retrieval.UnmarshalEmbeddings(data)
}

// bootstrapEmbeddingsExtra computes and marshals the full per-chunk
// embedding index for PushSet.Extra, or returns (nil, nil) when provider
// is nil (semantic retrieval disabled).
func bootstrapEmbeddingsExtra(provider retrieval.EmbeddingProvider, chunks []retrieval.CodeChunk) ([]byte, error) {
	if provider == nil {
		return nil, nil
	}
	idx, err := retrieval.BuildEmbeddings(provider, chunks)
	if err != nil {
		return nil, err
	}
	return retrieval.MarshalEmbeddings(idx)
}

// incrementalEmbeddingsExtra recomputes vectors for changedFiles only,
// merges them into existing, and marshals the result, or returns (nil, nil)
// when provider is nil.
func incrementalEmbeddingsExtra(provider retrieval.EmbeddingProvider, existing retrieval.EmbeddingIndex, chunks []retrieval.CodeChunk, changedFiles []ids.FilePath) ([]byte, error) {
	if provider == nil {
		return nil, nil
	}
	idx, err := retrieval.UpdateEmbeddings(provider, existing, chunks, changedFiles)
	if err != nil {
		return nil, err
	}
	return retrieval.MarshalEmbeddings(idx)
}
