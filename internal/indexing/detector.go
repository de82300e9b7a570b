package indexing

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/argus-review/argus/internal/codemap"
	"github.com/argus-review/argus/internal/ids"
	"github.com/argus-review/argus/internal/logging"
)

// Detector finds files that need reindexing since a known commit. Grounded
// on CKB's internal/incremental.ChangeDetector: git diff first,
// content-hash walk as a fallback when git is unavailable or the base
// commit is unknown to the local history.
type Detector struct {
	repoRoot string
	ignored  []string
	logger   *logging.Logger
}

// NewDetector builds a Detector rooted at repoRoot.
func NewDetector(repoRoot string, ignored []string, logger *logging.Logger) *Detector {
	return &Detector{repoRoot: repoRoot, ignored: ignored, logger: logger}
}

// DetectChanges returns the files changed between since and the working
// tree's current state. An empty since forces a full walk (every
// recognized file reported as Added).
func (d *Detector) DetectChanges(since ids.CommitSHA, current *codemap.CodebaseMap) ([]ChangedFile, error) {
	if since == "" || !since.IsValid() {
		return d.fullWalk()
	}
	if d.isGitRepo() {
		changes, err := d.detectGitChanges(since)
		if err == nil {
			return changes, nil
		}
		if d.logger != nil {
			d.logger.Warn("git-based change detection failed, falling back to content hashing", map[string]interface{}{"error": err.Error()})
		}
	}
	return d.detectHashChanges(current)
}

func (d *Detector) isGitRepo() bool {
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = d.repoRoot
	return cmd.Run() == nil
}

func (d *Detector) detectGitChanges(since ids.CommitSHA) ([]ChangedFile, error) {
	cmd := exec.Command("git", "diff", "--name-status", "-z", string(since), "HEAD")
	cmd.Dir = d.repoRoot
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git diff failed: %w", err)
	}
	return d.parseNULStatus(out), nil
}

// parseNULStatus parses `git diff --name-status -z` output, matching
// CKB's NUL-separated parsing to tolerate paths containing spaces.
func (d *Detector) parseNULStatus(out []byte) []ChangedFile {
	var changes []ChangedFile
	parts := bytes.Split(bytes.TrimRight(out, "\x00"), []byte{0})
	for i := 0; i < len(parts); i++ {
		entry := string(parts[i])
		if entry == "" {
			continue
		}
		status := entry[0]
		// With -z each status field is followed by its path in the next NUL
		// field; a rename or copy carries the old path, then the new path.
		i++
		if i >= len(parts) {
			break
		}
		p := string(parts[i])
		if status == 'R' || status == 'C' {
			old := p
			i++
			if i >= len(parts) {
				break
			}
			p = string(parts[i])
			if status == 'R' && old != "" && !MatchIgnored(old, d.ignored) {
				changes = append(changes, ChangedFile{Path: ids.NewFilePath(old), ChangeType: ChangeDeleted})
			}
		}
		if p == "" || MatchIgnored(p, d.ignored) {
			continue
		}
		fp := ids.NewFilePath(p)
		var ct ChangeType
		switch status {
		case 'A', 'R', 'C':
			ct = ChangeAdded
		case 'D':
			ct = ChangeDeleted
		default:
			ct = ChangeModified
		}
		changes = append(changes, ChangedFile{Path: fp, ChangeType: ct})
	}
	return changes
}

// detectHashChanges walks the working tree and diffs content hashes
// against the entries already in current, reporting deletions for entries
// no longer present on disk.
func (d *Detector) detectHashChanges(current *codemap.CodebaseMap) ([]ChangedFile, error) {
	seen := map[ids.FilePath]bool{}
	var changes []ChangedFile

	err := filepath.WalkDir(d.repoRoot, func(p string, entryInfo os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(d.repoRoot, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if entryInfo.IsDir() {
			if MatchIgnored(rel+"/", d.ignored) {
				return filepath.SkipDir
			}
			return nil
		}
		if MatchIgnored(rel, d.ignored) {
			return nil
		}
		fp := ids.NewFilePath(rel)
		seen[fp] = true

		hash, hashErr := hashFile(p)
		if hashErr != nil {
			return hashErr
		}
		if existing, ok := current.Get(fp); ok {
			if existing.ContentHash != hash {
				changes = append(changes, ChangedFile{Path: fp, ChangeType: ChangeModified})
			}
		} else {
			changes = append(changes, ChangedFile{Path: fp, ChangeType: ChangeAdded})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, fp := range current.SortedFiles() {
		if !seen[fp] {
			changes = append(changes, ChangedFile{Path: fp, ChangeType: ChangeDeleted})
		}
	}
	return changes, nil
}

func (d *Detector) fullWalk() ([]ChangedFile, error) {
	var changes []ChangedFile
	err := filepath.WalkDir(d.repoRoot, func(p string, entryInfo os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(d.repoRoot, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if entryInfo.IsDir() {
			if MatchIgnored(rel+"/", d.ignored) {
				return filepath.SkipDir
			}
			return nil
		}
		if MatchIgnored(rel, d.ignored) {
			return nil
		}
		changes = append(changes, ChangedFile{Path: ids.NewFilePath(rel), ChangeType: ChangeAdded})
		return nil
	})
	return changes, err
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := bufio.NewReader(f)
	if _, err := io.Copy(h, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
