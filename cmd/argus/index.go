package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/argus-review/argus/internal/codemap"
	"github.com/argus-review/argus/internal/ids"
	"github.com/argus-review/argus/internal/indexing"
	"github.com/argus-review/argus/internal/memory"
	"github.com/argus-review/argus/internal/retrieval"
	"github.com/argus-review/argus/internal/shard"
	"github.com/argus-review/argus/internal/syncbranch"
	"github.com/spf13/cobra"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Incrementally update the codebase map and memory against the current HEAD",
	RunE:  runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, err := wire(repoRootFlag, branchFlag)
	if err != nil {
		return err
	}

	head, err := headSHA(repoRootFlag)
	if err != nil {
		return err
	}

	pulled, err := svc.store.Pull(ctx)
	if err != nil {
		return err
	}
	if !pulled.BranchExists || len(pulled.Manifest.Shards) == 0 {
		return fmt.Errorf("no existing index on %q; run 'argus bootstrap' first", branchFlag)
	}

	m, changedFiles, stats, err := incrementalRebuild(ctx, svc, pulled, head)
	if err != nil {
		return err
	}
	if len(changedFiles) == 0 {
		fmt.Println("index already up to date at", head)
		return nil
	}
	svc.logger.Info("incremental update applied", map[string]interface{}{
		"files_parsed":    stats.FilesParsed,
		"edges_resolved":  stats.EdgesResolved,
		"files_changed":   len(changedFiles),
	})

	existingMem, _, err := loadMemory(ctx, svc.store, pulled)
	if err != nil {
		return err
	}
	mem, err := incrementalMemory(ctx, svc, m, existingMem, changedFiles, head)
	if err != nil {
		return err
	}
	memBytes, err := json.Marshal(mem)
	if err != nil {
		return err
	}

	provider := embeddingProviderFor(svc.cfg.EmbeddingModel)
	chunks, err := retrieval.BuildChunks(repoRootFlag, m)
	if err != nil {
		return err
	}
	existingEmb, err := loadEmbeddings(ctx, svc.store, pulled)
	if err != nil {
		return err
	}
	embBytes, err := incrementalEmbeddingsExtra(provider, existingEmb, chunks, changedFiles)
	if err != nil {
		return err
	}
	extra := map[string][]byte{}
	if embBytes != nil {
		extra[embeddingsBlobPath] = embBytes
	}

	set := buildPushSet(m, pulled.Manifest, memBytes, fmt.Sprintf("argus: index update to %s", head), extra)
	rebuild := func(fresh *syncbranch.Pulled) (syncbranch.PushSet, error) {
		return buildPushSet(m, fresh.Manifest, memBytes, fmt.Sprintf("argus: index update to %s (retry)", head), extra), nil
	}
	if err := svc.store.Push(ctx, branchFlag, pulled, set, rebuild); err != nil {
		return err
	}

	fmt.Printf("indexed %d changed files, map now at %s\n", len(changedFiles), head)
	return nil
}

// incrementalRebuild reassembles the full map from every shard, detects
// what changed since the map's indexed_at, and either patches the map in
// place or falls back to a full rebuild when the change set is large
// relative to the map, per indexing.ShouldFullRebuild.
func incrementalRebuild(ctx context.Context, svc *services, pulled *syncbranch.Pulled, head ids.CommitSHA) (*codemap.CodebaseMap, []ids.FilePath, indexing.Stats, error) {
	allShards := make(map[string]bool, len(pulled.Manifest.Shards))
	for sid := range pulled.Manifest.Shards {
		allShards[sid] = true
	}
	blobs, err := svc.store.FetchShards(ctx, pulled, allShards)
	if err != nil {
		return nil, nil, indexing.Stats{}, err
	}
	m := shard.Assemble(pulled.Manifest, blobs)

	detector := indexing.NewDetector(repoRootFlag, svc.cfg.IgnoredPaths, svc.logger)
	changes, err := detector.DetectChanges(m.IndexedAt, m)
	if err != nil {
		return nil, nil, indexing.Stats{}, err
	}
	if len(changes) == 0 {
		return m, nil, indexing.Stats{}, nil
	}

	changedFiles := make([]ids.FilePath, len(changes))
	for i, c := range changes {
		changedFiles[i] = c.Path
	}

	if indexing.ShouldFullRebuild(changes, m.Len()) {
		full, stats, err := svc.builder.BuildFull(ctx, head)
		return full, changedFiles, stats, err
	}

	stats, err := svc.builder.ApplyChanges(ctx, m, changes, head)
	return m, changedFiles, stats, err
}

// incrementalMemory runs the index-path analysis: an incremental pattern
// pass scoped to changedFiles when analyze_patterns is enabled, otherwise
// just a fresh full outline render with patterns carried over unchanged.
func incrementalMemory(ctx context.Context, svc *services, m *codemap.CodebaseMap, existing memory.CodebaseMemory, changedFiles []ids.FilePath, head ids.CommitSHA) (memory.CodebaseMemory, error) {
	renderer := memory.NewRenderer(outlineTokenBudget(svc.cfg.RetrievalBudget()))

	if !svc.cfg.Index.AnalyzePatterns {
		_, outline := renderer.RenderFull(m)
		return memory.CodebaseMemory{AnalyzedAt: existing.AnalyzedAt, Outline: outline, Patterns: existing.Patterns}, nil
	}

	if len(existing.Outline.Files) == 0 {
		analyzer := memory.NewPatternAnalyzer(newPatternGenerator(svc), svc.logger)
		return memory.Bootstrap(ctx, analyzer, renderer, m, head)
	}

	analyzer := memory.NewPatternAnalyzer(newPatternGenerator(svc), svc.logger)
	return memory.Incremental(ctx, analyzer, renderer, m, existing, changedFiles, head)
}
