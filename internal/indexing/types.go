// Package indexing builds and incrementally updates a codemap.CodebaseMap
// by walking a repository tree, parsing each recognized file with
// internal/parser, and resolving edges first by symbol name then by import
// statement. Grounded on CKB's internal/incremental package
// (detector.go, extractor.go, indexer.go, updater.go), generalized from a
// Go-only, SCIP-backed pipeline to the closed eleven-language table and the
// in-memory codemap.CodebaseMap aggregate.
package indexing

import "github.com/argus-review/argus/internal/ids"

// ChangeType mirrors CKB's incremental.ChangeType, trimmed to the
// three cases an indexing run must distinguish; the sharded store
// handles renames as a delete-then-add pair rather than a first-class case.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeDeleted  ChangeType = "deleted"
)

// ChangedFile is one file the detector determined needs reindexing.
type ChangedFile struct {
	Path       ids.FilePath
	ChangeType ChangeType
}

// Stats summarizes one indexing run, logged at the end of the index mode.
type Stats struct {
	FilesScanned   int
	FilesParsed    int
	FilesSkipped   int
	FilesErrored   int
	SymbolsIndexed int
	EdgesResolved  int
	EdgesUnresolved int
}
