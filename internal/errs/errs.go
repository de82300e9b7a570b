// Package errs implements Argus's error taxonomy: every domain operation
// raises a typed error carrying {stage, target, cause}; pipeline glue
// catches at stage boundaries and decides {retry, degrade, abort}.
// Adapted from CKB's internal/errors/errors.go ErrorCode-keyed
// error type, generalized from backend/query failure codes to Argus's
// six-category taxonomy (Transient, Structural, Concurrency, Parse,
// Budget, Provider).
package errs

import "fmt"

// Code is a stable identifier for a failure mode, logged verbatim in the
// final summary line.
type Code string

const (
	CodeTransient    Code = "TRANSIENT"
	CodeStructural   Code = "STRUCTURAL"
	CodeConcurrency  Code = "CONCURRENCY"
	CodeParse        Code = "PARSE"
	CodeBudget       Code = "BUDGET"
	CodeProvider     Code = "PROVIDER"
	CodeInternal     Code = "INTERNAL"
)

// Stage names the pipeline step that raised the error, for the final
// summary log line.
type Stage string

const (
	StageIndex    Stage = "index"
	StageShard    Stage = "shard"
	StageSync     Stage = "sync"
	StageRetrieve Stage = "retrieve"
	StageMemory   Stage = "memory"
	StagePrompt   Stage = "prompt"
	StageGenerate Stage = "generate"
	StagePublish  Stage = "publish"
)

// Error is the single error type raised by Argus's domain operations.
type Error struct {
	Code   Code
	Stage  Stage
	Target string // a path, sha, or ref name identifying what failed
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s/%s %s: %v", e.Stage, e.Code, e.Target, e.Cause)
	}
	return fmt.Sprintf("%s/%s %s", e.Stage, e.Code, e.Target)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an Error.
func New(code Code, stage Stage, target string, cause error) *Error {
	return &Error{Code: code, Stage: stage, Target: target, Cause: cause}
}

// IndexingError reports a structural indexing failure: a missing root
// directory or an I/O error reading a file. This aborts the build;
// per-file parse failures do not use this type, they degrade in place.
type IndexingError struct {
	Path  string
	Stage string
	Cause error
}

func (e *IndexingError) Error() string {
	return fmt.Sprintf("indexing failed at %s (%s): %v", e.Stage, e.Path, e.Cause)
}

func (e *IndexingError) Unwrap() error { return e.Cause }

// ConcurrentWriteError is surfaced when a push's ref CAS update fails twice
// in a row.
type ConcurrentWriteError struct {
	Ref string
}

func (e *ConcurrentWriteError) Error() string {
	return fmt.Sprintf("concurrent write conflict updating ref %s", e.Ref)
}

// PromptTooLargeError is raised when the diff alone exceeds the prompt
// budget. The run must abort without truncating the diff.
type PromptTooLargeError struct {
	DiffTokens   int
	BudgetTokens int
}

func (e *PromptTooLargeError) Error() string {
	return fmt.Sprintf("diff alone (%d tokens) exceeds prompt budget (%d tokens)", e.DiffTokens, e.BudgetTokens)
}

// TimeoutError is raised when an external call exceeds its per-run-derived
// deadline. The caller strategy must contribute zero items, never a
// partial result.
type TimeoutError struct {
	Stage string
	After string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Stage, e.After)
}
