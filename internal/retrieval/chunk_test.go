package retrieval

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argus-review/argus/internal/codemap"
	"github.com/argus-review/argus/internal/ids"
)

func TestBuildChunks_SplitsAroundSymbolBoundaries(t *testing.T) {
	dir := t.TempDir()
	src := "package main\n\nfunc helper() {\n\treturn\n}\n\nfunc main() {\n\thelper()\n}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte(src), 0o644))

	m := codemap.NewCodebaseMap(ids.CommitSHA(""))
	m.Upsert(codemap.FileEntry{
		Path: ids.NewFilePath("main.go"),
		Symbols: []codemap.Symbol{
			{Name: "helper", QualifiedName: "main.go#helper", LineRange: codemap.LineRange{Start: 3, End: 5}},
			{Name: "main", QualifiedName: "main.go#main", LineRange: codemap.LineRange{Start: 7, End: 9}},
		},
	})

	chunks, err := BuildChunks(dir, m)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	var anchors []string
	for _, c := range chunks {
		if c.AnchorSymbol != "" {
			anchors = append(anchors, c.AnchorSymbol)
		}
	}
	assert.Contains(t, anchors, "main.go#helper")
	assert.Contains(t, anchors, "main.go#main")
}

func TestBuildChunks_SkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	m := codemap.NewCodebaseMap(ids.CommitSHA(""))
	m.Upsert(codemap.FileEntry{Path: ids.NewFilePath("missing.go")})

	chunks, err := BuildChunks(dir, m)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
