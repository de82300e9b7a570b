package indexing

import (
	"path"
	"strings"
)

// MatchIgnored reports whether p matches any of the ignored_paths globs.
// Patterns use "**" to match any number of path segments and "*" to match
// within one segment, following the shape of typical ignored_paths
// entries ("vendor/**", "node_modules/**"). No glob library fits this
// narrow need — CKB itself matches against a flat directory-name set
// (internal/incremental/detector.go skipDirs) rather than globs — so this
// is a small hand-rolled matcher
// rather than an added dependency. Exported so both indexing and the
// review-publishing path can apply the same ignored_paths filter.
func MatchIgnored(p string, patterns []string) bool {
	for _, pat := range patterns {
		if globMatch(pat, p) {
			return true
		}
	}
	return false
}

func globMatch(pattern, name string) bool {
	pSegs := strings.Split(pattern, "/")
	nSegs := strings.Split(name, "/")
	return matchSegs(pSegs, nSegs)
}

func matchSegs(pSegs, nSegs []string) bool {
	for len(pSegs) > 0 {
		if pSegs[0] == "**" {
			if len(pSegs) == 1 {
				return true
			}
			for i := 0; i <= len(nSegs); i++ {
				if matchSegs(pSegs[1:], nSegs[i:]) {
					return true
				}
			}
			return false
		}
		if len(nSegs) == 0 {
			return false
		}
		ok, err := path.Match(pSegs[0], nSegs[0])
		if err != nil || !ok {
			return false
		}
		pSegs = pSegs[1:]
		nSegs = nSegs[1:]
	}
	return len(nSegs) == 0
}
