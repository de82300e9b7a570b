package retrieval

import (
	"math"
	"sort"
)

const (
	consensusBonus       = 0.05
	structuralBudgetFrac = 0.4
)

type rankedItem struct {
	item         ContextItem
	contributors map[string]bool
	final        float64
}

// Rank implements the ranker algorithm: dedupe by fingerprint
// keeping the max score and tracking contributing strategies, a consensus
// bonus for items multiple strategies agree on, then greedy admission
// under budget.retrieval with structural items admitted first within
// their own 0.4*budget.retrieval sub-budget.
func Rank(all []ContextItem, budget TokenBudget) RetrievalResult {
	byFingerprint := make(map[string]*rankedItem)
	var order []string

	for _, it := range all {
		fp := Fingerprint(it.FilePath, it.LineRange)
		existing, ok := byFingerprint[fp]
		if !ok {
			r := &rankedItem{item: it, contributors: map[string]bool{it.SourceStrategy: true}}
			byFingerprint[fp] = r
			order = append(order, fp)
			continue
		}
		existing.contributors[it.SourceStrategy] = true
		if it.Score > existing.item.Score {
			existing.item = it
		}
	}

	for _, fp := range order {
		r := byFingerprint[fp]
		n := len(r.contributors)
		r.final = math.Min(1.0, r.item.Score+consensusBonus*float64(n-1))
		r.item.Score = r.final
	}

	ranked := make([]*rankedItem, 0, len(order))
	for _, fp := range order {
		ranked = append(ranked, byFingerprint[fp])
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].final > ranked[j].final })

	structuralCap := int(float64(budget.Retrieval) * structuralBudgetFrac)

	var result []ContextItem
	var tokensUsed, structuralTokens, dropped int

	admit := func(r *rankedItem) bool {
		cost := EstimateTokens(r.item.Text)
		if tokensUsed+cost > budget.Retrieval {
			return false
		}
		tokensUsed += cost
		if r.item.SourceStrategy == "structural" {
			structuralTokens += cost
		}
		result = append(result, r.item)
		return true
	}

	admittedFP := make(map[*rankedItem]bool)
	for _, r := range ranked {
		if r.item.SourceStrategy != "structural" {
			continue
		}
		cost := EstimateTokens(r.item.Text)
		if structuralTokens+cost > structuralCap {
			continue
		}
		if admit(r) {
			admittedFP[r] = true
		} else {
			dropped++
		}
	}

	for _, r := range ranked {
		if admittedFP[r] {
			continue
		}
		if admit(r) {
			admittedFP[r] = true
		} else {
			dropped++
		}
	}

	return RetrievalResult{Items: result, TokensUsed: tokensUsed, DroppedCount: dropped}
}
