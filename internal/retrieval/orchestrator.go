package retrieval

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/argus-review/argus/internal/codemap"
	"github.com/argus-review/argus/internal/logging"
)

// Orchestrator runs every configured strategy over a loaded map and funnels
// their output through the ranker. Strategies run in the fixed order
// structural → lexical → semantic → agentic for reproducible logs; the
// three non-agentic strategies execute concurrently since their inputs
// (the map and the chunk set) are frozen for the run.
type Orchestrator struct {
	Structural Strategy
	Lexical    Strategy
	Semantic   Strategy // nil when embedding_model is unset
	Agentic    Strategy // nil when enable_agentic is false

	logger *logging.Logger
}

func NewOrchestrator(structural, lexical, semantic, agentic Strategy, logger *logging.Logger) *Orchestrator {
	return &Orchestrator{Structural: structural, Lexical: lexical, Semantic: semantic, Agentic: agentic, logger: logger}
}

// Retrieve builds the chunk set once and runs every configured strategy,
// ranking the combined output under query.Budget.
func (o *Orchestrator) Retrieve(ctx context.Context, repoRoot string, m *codemap.CodebaseMap, query RetrievalQuery) (RetrievalResult, error) {
	chunks, err := BuildChunks(repoRoot, m)
	if err != nil {
		return RetrievalResult{}, err
	}

	concurrent := []Strategy{o.Structural, o.Lexical}
	if o.Semantic != nil {
		concurrent = append(concurrent, o.Semantic)
	}

	results := make([][]ContextItem, len(concurrent))
	g, gctx := errgroup.WithContext(ctx)
	for i, strat := range concurrent {
		i, strat := i, strat
		g.Go(func() error {
			items, err := strat.Retrieve(gctx, m, chunks, query)
			if err != nil {
				return err
			}
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return RetrievalResult{}, err
	}

	var all []ContextItem
	for _, items := range results {
		all = append(all, items...)
	}

	// Agentic runs last and never concurrently with the others: it is
	// stateful and may itself issue the slowest calls of the run.
	if o.Agentic != nil {
		items, err := o.Agentic.Retrieve(ctx, m, chunks, query)
		if err != nil {
			return RetrievalResult{}, err
		}
		all = append(all, items...)
	}

	if o.logger != nil {
		o.logger.Info("retrieval strategies complete", map[string]interface{}{"raw_items": len(all)})
	}

	return Rank(all, query.Budget), nil
}
