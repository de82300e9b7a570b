package memory

import "sort"

const (
	minConfidence = 0.3
	maxPatterns   = 30
)

// PrunePatterns drops entries below minConfidence, keeps at most
// maxPatterns of the rest, and returns them sorted descending by
// confidence; entries of equal confidence keep their input order.
func PrunePatterns(entries []PatternEntry) []PatternEntry {
	kept := make([]PatternEntry, 0, len(entries))
	for _, e := range entries {
		if e.Confidence >= minConfidence {
			kept = append(kept, e)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Confidence > kept[j].Confidence })
	if len(kept) > maxPatterns {
		kept = kept[:maxPatterns]
	}
	return kept
}

// MergePatterns folds candidates from a fresh analysis into existing:
// entries sharing a
// (category, description) keep whichever has higher confidence; new
// entries are inserted outright. The result is pruned and re-sorted
// before being returned.
func MergePatterns(existing, candidates []PatternEntry) []PatternEntry {
	byKey := make(map[patternKey]PatternEntry, len(existing)+len(candidates))
	var order []patternKey

	upsert := func(e PatternEntry) {
		k := patternKey{e.Category, e.Description}
		if prior, ok := byKey[k]; ok {
			if e.Confidence > prior.Confidence {
				byKey[k] = e
			}
			return
		}
		byKey[k] = e
		order = append(order, k)
	}

	for _, e := range existing {
		upsert(e)
	}
	for _, e := range candidates {
		upsert(e)
	}

	merged := make([]PatternEntry, 0, len(order))
	for _, k := range order {
		merged = append(merged, byKey[k])
	}
	return PrunePatterns(merged)
}

type patternKey struct {
	category    PatternCategory
	description string
}
