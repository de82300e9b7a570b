package main

import (
	"fmt"

	"github.com/argus-review/argus/internal/codemap"
	"github.com/argus-review/argus/internal/diffutil"
	"github.com/argus-review/argus/internal/ids"
	"github.com/argus-review/argus/internal/indexing"
	"github.com/argus-review/argus/internal/prcontext"
	"github.com/argus-review/argus/internal/prompt"
	"github.com/argus-review/argus/internal/retrieval"
	"github.com/argus-review/argus/internal/review"
	"github.com/argus-review/argus/internal/shard"
	"github.com/spf13/cobra"
)

var (
	baseRefFlag string
	prNumberFlag int
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review the diff between --base and HEAD against the persisted codebase map",
	RunE:  runReview,
}

func init() {
	reviewCmd.Flags().StringVar(&baseRefFlag, "base", "", "base ref/sha to diff HEAD against (required)")
	reviewCmd.Flags().IntVar(&prNumberFlag, "pr", 0, "pull request number, for PR context and related-issue lookup (0 disables)")
}

func runReview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if baseRefFlag == "" {
		return fmt.Errorf("--base is required")
	}

	svc, err := wire(repoRootFlag, branchFlag)
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

	diffText, err := diffAgainst(repoRootFlag, baseRefFlag)
	if err != nil {
		return err
	}
	changedFiles, err := diffutil.ChangedFiles(diffText)
	if err != nil {
		return err
	}

	required := shard.ExpandOneHop(shard.RequiredShards(changedFiles), pulled.Manifest)
	blobs, err := svc.store.FetchShards(ctx, pulled, required)
	if err != nil {
		return err
	}
	m := shard.Assemble(pulled.Manifest, blobs)

	mem, _, err := loadMemory(ctx, svc.store, pulled)
	if err != nil {
		return err
	}

	var prCtxText string
	if prNumberFlag > 0 {
		prCtx, err := svc.prContext.Collect(ctx, prNumberFlag, string(m.IndexedAt), svc.cfg.SearchRelatedIssues)
		if err != nil {
			svc.logger.Warn("PR context collection failed, continuing without it", map[string]interface{}{"error": err.Error()})
		} else {
			prCtxText = prcontext.Render(prCtx)
		}
	}

	embeddings, err := loadEmbeddings(ctx, svc.store, pulled)
	if err != nil {
		return err
	}

	orchestrator := buildOrchestrator(svc, embeddings)
	depth := retrieval.Depth(svc.cfg.ReviewDepth)
	query := retrieval.RetrievalQuery{
		ChangedFiles:   changedFiles,
		ChangedSymbols: changedSymbolsFor(m, changedFiles),
		DiffText:       diffText,
		Depth:          depth,
		Budget: retrieval.TokenBudget{
			Retrieval:  svc.cfg.RetrievalBudget(),
			Generation: svc.cfg.GenerationBudget(),
		},
	}
	result, err := orchestrator.Retrieve(ctx, repoRootFlag, m, query)
	if err != nil {
		return err
	}

	assembler := prompt.NewAssembler(svc.cfg.RetrievalBudget(), svc.logger)
	reviewer := review.NewReviewer(assembler, newHTTPGenerator(svc.cfg.Model, svc.secrets.LLMAPIKey), nil, svc.cfg.ConfidenceThreshold, svc.logger)

	// review_depth gates how much of the memory layer reaches the prompt:
	// quick skips it entirely, standard adds the outline, deep adds patterns.
	input := prompt.Input{
		DiffText:        diffText,
		PRContextText:   prCtxText,
		RetrievalResult: result,
	}
	switch depth {
	case retrieval.DepthDeep:
		input.Outline = mem.Outline
		input.Patterns = mem.Patterns
	case retrieval.DepthStandard:
		input.Outline = mem.Outline
	}

	out, err := reviewer.Review(ctx, input)
	if err != nil {
		return err
	}
	out.Comments = dropIgnoredPathComments(out.Comments, svc.cfg.IgnoredPaths)

	return publisherFor(svc).Publish(out)
}

// changedSymbolsFor collects the qualified name of every symbol declared in
// a changed file, per m's already-parsed entries. Structural retrieval
// walks the dependency graph from exactly these qualified names, so a diff
// that touches a file but isn't resolved down to individual hunks still
// surfaces that file's direct dependents and dependencies.
func changedSymbolsFor(m *codemap.CodebaseMap, changedFiles []ids.FilePath) []string {
	var out []string
	for _, path := range changedFiles {
		entry, ok := m.Get(path)
		if !ok {
			continue
		}
		for _, sym := range entry.Symbols {
			out = append(out, sym.QualifiedName)
		}
	}
	return out
}

// dropIgnoredPathComments removes comments located in a file matching an
// ignored_paths glob, so a diff that touches an ignored path never produces
// published feedback even if the generator commented on it anyway.
func dropIgnoredPathComments(comments []review.Comment, ignoredPaths []string) []review.Comment {
	if len(ignoredPaths) == 0 {
		return comments
	}
	kept := make([]review.Comment, 0, len(comments))
	for _, c := range comments {
		if indexing.MatchIgnored(string(c.FilePath), ignoredPaths) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// buildOrchestrator wires the two always-on strategies plus the two
// config-gated ones (semantic on embedding_model, agentic on
// enable_agentic). embeddings is the precomputed per-chunk vector index
// loaded from the data branch; semantic retrieval is skipped when it's nil.
func buildOrchestrator(svc *services, embeddings retrieval.EmbeddingIndex) *retrieval.Orchestrator {
	var semantic retrieval.Strategy
	if provider := embeddingProviderFor(svc.cfg.EmbeddingModel); provider != nil {
		semantic = retrieval.NewSemanticStrategy(provider, embeddings)
	}

	var agentic retrieval.Strategy
	if svc.cfg.EnableAgentic {
		agentic = retrieval.NewAgenticStrategy(newToolCallingGenerator(newHTTPGenerator(svc.cfg.Model, svc.secrets.LLMAPIKey)))
	}

	return retrieval.NewOrchestrator(
		retrieval.NewStructuralStrategy(),
		retrieval.NewLexicalStrategy(),
		semantic,
		agentic,
		svc.logger,
	)
}

func publisherFor(svc *services) Publisher {
	return stdoutPublisher{}
}
