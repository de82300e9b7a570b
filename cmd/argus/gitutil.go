package main

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/argus-review/argus/internal/ids"
)

// headSHA resolves HEAD of the repository rooted at repoRoot, the same way
// indexing.Detector shells out to git rather than reimplementing a pack
// reader.
func headSHA(repoRoot string) (ids.CommitSHA, error) {
	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = repoRoot
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse HEAD: %w", err)
	}
	return ids.CommitSHA(strings.TrimSpace(string(out))), nil
}

// diffAgainst returns the unified diff between base and HEAD, used as the
// review mode's DiffText input.
func diffAgainst(repoRoot, base string) (string, error) {
	cmd := exec.Command("git", "diff", base, "HEAD")
	cmd.Dir = repoRoot
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git diff %s HEAD: %w", base, err)
	}
	return string(out), nil
}
