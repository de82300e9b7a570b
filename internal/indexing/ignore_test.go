package indexing

import "testing"

func TestGlobMatch(t *testing.T) {
	cases := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"vendor/**", "vendor/lib.go", true},
		{"vendor/**", "vendor/nested/lib.go", true},
		{"vendor/**", "src/vendor/lib.go", false},
		{"**/node_modules/**", "src/node_modules/foo.js", true},
		{"*.lock", "go.sum.lock", true},
		{"*.lock", "a/b.lock", false},
		{".git/**", ".git/HEAD", true},
	}
	for _, c := range cases {
		got := globMatch(c.pattern, c.name)
		if got != c.want {
			t.Errorf("globMatch(%q, %q) = %v, want %v", c.pattern, c.name, got, c.want)
		}
	}
}

func TestMatchIgnored(t *testing.T) {
	patterns := []string{"vendor/**", "node_modules/**"}
	if !MatchIgnored("vendor/lib.go", patterns) {
		t.Error("expected vendor/lib.go to be ignored")
	}
	if MatchIgnored("internal/foo.go", patterns) {
		t.Error("did not expect internal/foo.go to be ignored")
	}
}
