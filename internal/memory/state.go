package memory

import "github.com/argus-review/argus/internal/ids"

// AnalysisState is the memory analysis state machine:
// Absent → Analyzing → Ready → Stale(behind_by). Stale is computed on
// load by comparing analyzed_at to the current HEAD; it never mutates
// storage.
type AnalysisState string

const (
	StateAbsent    AnalysisState = "absent"
	StateAnalyzing AnalysisState = "analyzing"
	StateReady     AnalysisState = "ready"
	StateStale     AnalysisState = "stale"
)

// Status is the read-only result of evaluating a CodebaseMemory against
// the current HEAD.
type Status struct {
	State    AnalysisState
	BehindBy int // 1 when State == StateStale (only SHA identity is compared, so the actual commit distance is not computed); 0 otherwise
}

// Evaluate computes mem's analysis status against head, without mutating
// mem. An empty AnalyzedAt means no analysis has ever completed.
func Evaluate(mem CodebaseMemory, head ids.CommitSHA) Status {
	if mem.AnalyzedAt == "" {
		return Status{State: StateAbsent}
	}
	if mem.AnalyzedAt == head {
		return Status{State: StateReady}
	}
	return Status{State: StateStale, BehindBy: 1}
}
