package main

import (
	"context"
	"encoding/json"

	"github.com/argus-review/argus/internal/memory"
	"github.com/argus-review/argus/internal/syncbranch"
)

// memoryBlobPath is the extra blob name memory is pushed under, alongside
// the shard manifest, per PushSet.Extra's "memory, embeddings" comment.
const memoryBlobPath = "memory.json"

// loadMemory reads the persisted CodebaseMemory from pulled, if any.
func loadMemory(ctx context.Context, store *syncbranch.Store, pulled *syncbranch.Pulled) (memory.CodebaseMemory, bool, error) {
	if pulled == nil || !pulled.BranchExists {
		return memory.CodebaseMemory{}, false, nil
	}
	data, ok, err := store.FetchExtra(ctx, pulled, memoryBlobPath)
	if err != nil || !ok {
		return memory.CodebaseMemory{}, false, err
	}
	var mem memory.CodebaseMemory
	if err := json.Unmarshal(data, &mem); err != nil {
		return memory.CodebaseMemory{}, false, err
	}
	return mem, true, nil
}

// outlineTokenBudget returns the share of the retrieval budget the memory
// outline may occupy; the rest stays free for retrieved context items,
// which rank above the outline in prompt assembly priority.
func outlineTokenBudget(retrievalBudget int) int {
	return retrievalBudget / 4
}
