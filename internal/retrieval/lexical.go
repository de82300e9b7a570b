package retrieval

import (
	"context"
	"math"
	"sort"

	"github.com/argus-review/argus/internal/codemap"
)

// bm25K1 and bm25B are the standard Okapi BM25 tuning constants. No BM25
// library fits this narrow need, so the scoring math is hand-implemented,
// in the same style as CKB's own ranking math
// (internal/graph/ppr.go, internal/query/ranking.go).
const (
	bm25K1 = 1.2
	bm25B  = 0.75

	lexicalTopK = 50
)

// LexicalStrategy indexes a run's code chunks into a BM25-style inverted
// index, built lazily per call and discarded afterward.
type LexicalStrategy struct{}

func NewLexicalStrategy() *LexicalStrategy { return &LexicalStrategy{} }

func (s *LexicalStrategy) Name() string { return "lexical" }

type bm25Index struct {
	docs    []CodeChunk
	docToks [][]string
	df      map[string]int // document frequency per term
	avgLen  float64
}

func buildBM25Index(chunks []CodeChunk) *bm25Index {
	idx := &bm25Index{docs: chunks, df: make(map[string]int)}
	var total int
	for _, c := range chunks {
		toks := tokenize(c.Text)
		idx.docToks = append(idx.docToks, toks)
		total += len(toks)
		seen := make(map[string]bool)
		for _, t := range toks {
			if !seen[t] {
				seen[t] = true
				idx.df[t]++
			}
		}
	}
	if len(chunks) > 0 {
		idx.avgLen = float64(total) / float64(len(chunks))
	}
	return idx
}

func (idx *bm25Index) score(query []string) []float64 {
	n := len(idx.docs)
	scores := make([]float64, n)
	if n == 0 {
		return scores
	}
	for i, toks := range idx.docToks {
		termFreq := make(map[string]int, len(toks))
		for _, t := range toks {
			termFreq[t]++
		}
		docLen := float64(len(toks))
		var score float64
		for _, q := range query {
			f, ok := termFreq[q]
			if !ok {
				continue
			}
			df := idx.df[q]
			if df == 0 {
				continue
			}
			idf := math.Log(1 + (float64(n)-float64(df)+0.5)/(float64(df)+0.5))
			tf := float64(f)
			denom := tf + bm25K1*(1-bm25B+bm25B*docLen/maxFloat(idx.avgLen, 1))
			score += idf * (tf * (bm25K1 + 1) / denom)
		}
		scores[i] = score
	}
	return scores
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func (s *LexicalStrategy) Retrieve(_ context.Context, _ *codemap.CodebaseMap, chunks []CodeChunk, query RetrievalQuery) ([]ContextItem, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	var queryTerms []string
	for _, sym := range query.ChangedSymbols {
		queryTerms = append(queryTerms, tokenize(sym)...)
	}
	queryTerms = append(queryTerms, tokenize(query.DiffText)...)
	if len(queryTerms) == 0 {
		return nil, nil
	}

	idx := buildBM25Index(chunks)
	scores := idx.score(queryTerms)

	type scored struct {
		chunk CodeChunk
		score float64
	}
	var ranked []scored
	var maxScore float64
	for i, sc := range scores {
		if sc <= 0 {
			continue
		}
		ranked = append(ranked, scored{chunk: chunks[i], score: sc})
		if sc > maxScore {
			maxScore = sc
		}
	}
	if maxScore == 0 {
		return nil, nil
	}

	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > lexicalTopK {
		ranked = ranked[:lexicalTopK]
	}

	items := make([]ContextItem, 0, len(ranked))
	for _, r := range ranked {
		items = append(items, ContextItem{
			SourceStrategy: s.Name(),
			FilePath:       r.chunk.FilePath,
			LineRange:      r.chunk.LineRange,
			Text:           r.chunk.Text,
			Score:          r.score / maxScore,
		})
	}
	return items, nil
}
