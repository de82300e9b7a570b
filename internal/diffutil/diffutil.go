// Package diffutil extracts the file-level shape of a unified diff that
// retrieval and sharding need: which files changed. Grounded on the
// teacher's internal/diff/gitdiff.go, narrowed from its full hunk/impact
// model down to just the changed-file list the review pipeline's
// RetrievalQuery and shard.RequiredShards need.
package diffutil

import (
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"

	"github.com/argus-review/argus/internal/ids"
)

// ChangedFiles returns the deduplicated set of files a unified diff
// touches, in first-seen order. An empty diff yields a nil slice and a nil
// error.
func ChangedFiles(diffText string) ([]ids.FilePath, error) {
	if strings.TrimSpace(diffText) == "" {
		return nil, nil
	}

	fileDiffs, err := godiff.ParseMultiFileDiff([]byte(diffText))
	if err != nil {
		return nil, err
	}

	seen := make(map[ids.FilePath]bool, len(fileDiffs))
	var out []ids.FilePath
	for _, fd := range fileDiffs {
		raw := fd.NewName
		if raw == "" || raw == "/dev/null" {
			raw = fd.OrigName
		}
		if raw == "" || raw == "/dev/null" {
			continue
		}
		raw = strings.TrimPrefix(raw, "a/")
		raw = strings.TrimPrefix(raw, "b/")
		fp := ids.NewFilePath(raw)
		if !seen[fp] {
			seen[fp] = true
			out = append(out, fp)
		}
	}
	return out, nil
}
