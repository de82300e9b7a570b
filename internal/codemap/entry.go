package codemap

import "github.com/argus-review/argus/internal/ids"

// FileEntry is the per-file record held by a CodebaseMap. ContentHash must
// match what was actually parsed; LastIndexedSHA is the commit at which this
// entry was last produced by the indexing service.
type FileEntry struct {
	Path            ids.FilePath   `json:"path"`
	Language        string         `json:"language"`
	ContentHash     string         `json:"content_hash"`
	LastIndexedSHA  ids.CommitSHA  `json:"last_indexed_sha"`
	Symbols         []Symbol       `json:"symbols"`
	Imports         []ids.FilePath `json:"imports"`
	Exports         []string       `json:"exports"`
	Summary         string         `json:"summary,omitempty"`
}

// Clone returns a deep-enough copy of e suitable for mutation-free storage
// in the map's entries index.
func (e FileEntry) Clone() FileEntry {
	out := e
	out.Symbols = append([]Symbol(nil), e.Symbols...)
	out.Imports = append([]ids.FilePath(nil), e.Imports...)
	out.Exports = append([]string(nil), e.Exports...)
	return out
}
