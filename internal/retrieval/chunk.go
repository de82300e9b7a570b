package retrieval

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"

	"github.com/argus-review/argus/internal/codemap"
	"github.com/argus-review/argus/internal/ids"
)

// BuildChunks splits every file in m around its symbol boundaries: each
// symbol becomes one chunk spanning its whole line range (a class chunk
// covers the full class body, not only its header), and each run of lines
// between symbols becomes a chunk of its own. Adjacent constants are not
// merged into one chunk, and a symbol nested inside another yields a chunk
// that overlaps its parent's. A file with no symbols is one chunk. Files the
// map references but that can no longer be read
// (deleted, outside repoRoot) are skipped —
// chunking degrades in place rather than aborting a retrieval run.
func BuildChunks(repoRoot string, m *codemap.CodebaseMap) ([]CodeChunk, error) {
	var out []CodeChunk
	for _, path := range m.SortedFiles() {
		entry, _ := m.Get(path)
		lines, err := readLines(repoRoot, path)
		if err != nil {
			continue
		}
		out = append(out, chunkFile(path, entry, lines)...)
	}
	return out, nil
}

func chunkFile(path ids.FilePath, entry codemap.FileEntry, lines []string) []CodeChunk {
	if len(entry.Symbols) == 0 {
		return []CodeChunk{{
			FilePath:  path,
			LineRange: codemap.LineRange{Start: 1, End: len(lines)},
			Text:      joinLines(lines, 1, len(lines)),
		}}
	}

	syms := append([]codemap.Symbol(nil), entry.Symbols...)
	sort.Slice(syms, func(i, j int) bool { return syms[i].LineRange.Start < syms[j].LineRange.Start })

	var chunks []CodeChunk
	cursor := 1
	for _, sym := range syms {
		if sym.LineRange.Start > cursor {
			chunks = append(chunks, CodeChunk{
				FilePath:  path,
				LineRange: codemap.LineRange{Start: cursor, End: sym.LineRange.Start - 1},
				Text:      joinLines(lines, cursor, sym.LineRange.Start-1),
			})
		}
		end := sym.LineRange.End
		if end < sym.LineRange.Start {
			end = sym.LineRange.Start
		}
		chunks = append(chunks, CodeChunk{
			FilePath:     path,
			LineRange:    codemap.LineRange{Start: sym.LineRange.Start, End: end},
			Text:         joinLines(lines, sym.LineRange.Start, end),
			AnchorSymbol: sym.QualifiedName,
		})
		cursor = end + 1
	}
	if cursor <= len(lines) {
		chunks = append(chunks, CodeChunk{
			FilePath:  path,
			LineRange: codemap.LineRange{Start: cursor, End: len(lines)},
			Text:      joinLines(lines, cursor, len(lines)),
		})
	}
	return chunks
}

func readLines(repoRoot string, path ids.FilePath) ([]string, error) {
	f, err := os.Open(filepath.Join(repoRoot, string(path)))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}

// joinLines returns lines[start-1:end] (1-indexed, inclusive) joined by
// newlines, clamped to the slice bounds.
func joinLines(lines []string, start, end int) string {
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return ""
	}
	out := lines[start-1]
	for i := start; i < end; i++ {
		out += "\n" + lines[i]
	}
	return out
}
