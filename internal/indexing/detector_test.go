package indexing

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/argus-review/argus/internal/codemap"
	"github.com/argus-review/argus/internal/ids"
)

func TestDetector_FullWalk_WhenNoSince(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\n")
	writeFile(t, dir, "vendor/b.go", "package b\n")

	d := NewDetector(dir, []string{"vendor/**"}, nil)
	changes, err := d.DetectChanges("", codemap.NewCodebaseMap(""))
	require.NoError(t, err)
	require.Len(t, changes, 1)
	require.Equal(t, ids.NewFilePath("a.go"), changes[0].Path)
	require.Equal(t, ChangeAdded, changes[0].ChangeType)
}

func TestDetector_HashFallback_DetectsModificationAndDeletion(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\n")
	writeFile(t, dir, "b.go", "package a\n")

	b := NewBuilder(dir, newAdapter(), nil, nil)
	m, _, err := b.BuildFull(context.Background(), validSHA())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\n// changed\n"), 0o644))
	require.NoError(t, os.Remove(filepath.Join(dir, "b.go")))

	d := NewDetector(dir, nil, nil)
	changes, err := d.detectHashChanges(m)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	require.Equal(t, ChangeModified, changes[0].ChangeType)
	require.Equal(t, ids.NewFilePath("b.go"), changes[1].Path)
	require.Equal(t, ChangeDeleted, changes[1].ChangeType)
}
