package retrieval

import (
	"context"
	"crypto/sha256"
	"math"
	"sort"

	"github.com/argus-review/argus/internal/codemap"
)

const (
	semanticTopK       = 30
	semanticMinSim     = 0.2
	semanticDimensions = 128
)

// EmbeddingProvider mirrors original_source's
// infrastructure/retrieval/embeddings factory: one interface behind which
// local, OpenAI and Google-backed providers can sit. Only the interface
// and LocalEmbeddingProvider are part of the core; network-backed
// providers are a boundary concern left to callers.
type EmbeddingProvider interface {
	Embed(texts []string) ([][]float32, error)
	Dimension() int
}

// LocalEmbeddingProvider produces deterministic hash-bucket vectors with
// no network egress, for tests and CI runs where no real embedding
// endpoint is reachable. It is not a semantic model: its purpose is to
// exercise the EmbeddingProvider boundary deterministically.
type LocalEmbeddingProvider struct{}

func NewLocalEmbeddingProvider() *LocalEmbeddingProvider { return &LocalEmbeddingProvider{} }

func (p *LocalEmbeddingProvider) Dimension() int { return semanticDimensions }

func (p *LocalEmbeddingProvider) Embed(texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = hashEmbed(t)
	}
	return out, nil
}

// hashEmbed maps text's tokens into a fixed-size vector via SHA-256
// bucket hashing, then L2-normalizes it so cosine similarity behaves
// sensibly.
func hashEmbed(text string) []float32 {
	vec := make([]float32, semanticDimensions)
	for _, tok := range tokenize(text) {
		sum := sha256.Sum256([]byte(tok))
		bucket := int(sum[0])<<8 | int(sum[1])
		bucket %= semanticDimensions
		sign := float32(1)
		if sum[2]%2 == 1 {
			sign = -1
		}
		vec[bucket] += sign
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// SemanticStrategy computes cosine similarity between a live query
// embedding and the per-chunk vectors an indexing pass precomputed into
// Embeddings. Gated, at the orchestrator level, on config.EmbeddingModel
// being set. When Provider.Embed fails on the query the strategy yields no
// items, and a chunk no precomputed vector covers is skipped; neither
// aborts the run.
type SemanticStrategy struct {
	Provider   EmbeddingProvider
	Embeddings EmbeddingIndex
}

func NewSemanticStrategy(provider EmbeddingProvider, embeddings EmbeddingIndex) *SemanticStrategy {
	return &SemanticStrategy{Provider: provider, Embeddings: embeddings}
}

func (s *SemanticStrategy) Name() string { return "semantic" }

func (s *SemanticStrategy) Retrieve(_ context.Context, _ *codemap.CodebaseMap, chunks []CodeChunk, query RetrievalQuery) ([]ContextItem, error) {
	if s.Provider == nil || len(s.Embeddings) == 0 || len(chunks) == 0 {
		return nil, nil
	}

	queryText := query.DiffText
	for _, sym := range query.ChangedSymbols {
		queryText += " " + sym
	}
	if queryText == "" {
		return nil, nil
	}

	qvecs, err := s.Provider.Embed([]string{queryText})
	if err != nil || len(qvecs) == 0 {
		return nil, nil // provider failure degrades to zero items, never aborts the run
	}
	qvec := qvecs[0]

	type scored struct {
		chunk CodeChunk
		sim   float64
	}
	var ranked []scored
	for _, c := range chunks {
		v, ok := s.Embeddings[Fingerprint(c.FilePath, c.LineRange)]
		if !ok {
			continue // chunk postdates the last embeddings push; picked up on the next index run
		}
		sim := cosineSimilarity(qvec, v)
		if sim < semanticMinSim {
			continue
		}
		ranked = append(ranked, scored{chunk: c, sim: sim})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].sim > ranked[j].sim })
	if len(ranked) > semanticTopK {
		ranked = ranked[:semanticTopK]
	}

	items := make([]ContextItem, 0, len(ranked))
	for _, r := range ranked {
		items = append(items, ContextItem{
			SourceStrategy: s.Name(),
			FilePath:       r.chunk.FilePath,
			LineRange:      r.chunk.LineRange,
			Text:           r.chunk.Text,
			Score:          r.sim,
		})
	}
	return items, nil
}
