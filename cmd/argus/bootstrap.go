package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/argus-review/argus/internal/codemap"
	"github.com/argus-review/argus/internal/generator"
	"github.com/argus-review/argus/internal/ids"
	"github.com/argus-review/argus/internal/memory"
	"github.com/argus-review/argus/internal/retrieval"
	"github.com/argus-review/argus/internal/shard"
	"github.com/argus-review/argus/internal/syncbranch"
	"github.com/spf13/cobra"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Build a full codebase map and memory, then push them to the data branch",
	RunE:  runBootstrap,
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, err := wire(repoRootFlag, branchFlag)
	if err != nil {
		return err
	}

	head, err := headSHA(repoRootFlag)
	if err != nil {
		return err
	}

	m, stats, err := svc.builder.BuildFull(ctx, head)
	if err != nil {
		return err
	}
	svc.logger.Info("full index built", map[string]interface{}{
		"files_scanned":   stats.FilesScanned,
		"files_parsed":    stats.FilesParsed,
		"symbols_indexed": stats.SymbolsIndexed,
	})

	mem, err := bootstrapMemory(ctx, svc, m, head)
	if err != nil {
		return err
	}
	memBytes, err := json.Marshal(mem)
	if err != nil {
		return err
	}

	chunks, err := retrieval.BuildChunks(repoRootFlag, m)
	if err != nil {
		return err
	}
	embBytes, err := bootstrapEmbeddingsExtra(embeddingProviderFor(svc.cfg.EmbeddingModel), chunks)
	if err != nil {
		return err
	}
	extra := map[string][]byte{}
	if embBytes != nil {
		extra[embeddingsBlobPath] = embBytes
	}

	pulled, err := svc.store.Pull(ctx)
	if err != nil {
		return err
	}

	set := buildPushSet(m, shard.Manifest{}, memBytes, "argus: bootstrap index", extra)
	rebuild := func(fresh *syncbranch.Pulled) (syncbranch.PushSet, error) {
		return buildPushSet(m, fresh.Manifest, memBytes, "argus: bootstrap index (retry)", extra), nil
	}
	if err := svc.store.Push(ctx, branchFlag, pulled, set, rebuild); err != nil {
		return err
	}

	fmt.Printf("bootstrapped %d files across %d shards at %s\n", m.Len(), len(set.Manifest.Shards), head)
	return nil
}

// buildPushSet splits m against prior and assembles the PushSet a bootstrap
// or index run pushes: every changed shard blob plus the
// persisted memory blob and any additional named blobs in extra (e.g. the
// precomputed embeddings index).
func buildPushSet(m *codemap.CodebaseMap, prior shard.Manifest, memBytes []byte, message string, extra map[string][]byte) syncbranch.PushSet {
	manifest, blobs := shard.Split(m, prior)
	all := map[string][]byte{memoryBlobPath: memBytes}
	for k, v := range extra {
		all[k] = v
	}
	return syncbranch.PushSet{
		Manifest: manifest,
		Blobs:    blobs,
		Extra:    all,
		Message:  message,
	}
}

// bootstrapMemory renders the full outline and, when index.analyze_patterns
// is enabled, runs a full pattern analysis pass against it.
func bootstrapMemory(ctx context.Context, svc *services, m *codemap.CodebaseMap, head ids.CommitSHA) (memory.CodebaseMemory, error) {
	renderer := memory.NewRenderer(outlineTokenBudget(svc.cfg.RetrievalBudget()))

	if !svc.cfg.Index.AnalyzePatterns {
		text, outline := renderer.RenderFull(m)
		_ = text
		return memory.CodebaseMemory{Outline: outline}, nil
	}

	gen := newPatternGenerator(svc)
	analyzer := memory.NewPatternAnalyzer(gen, svc.logger)
	return memory.Bootstrap(ctx, analyzer, renderer, m, head)
}

// newPatternGenerator builds the opaque generator.Generator memory's
// pattern analysis calls against, sharing the same HTTP provider review
// generation uses.
func newPatternGenerator(svc *services) generator.Generator {
	return newHTTPGenerator(svc.cfg.Model, svc.secrets.LLMAPIKey)
}
