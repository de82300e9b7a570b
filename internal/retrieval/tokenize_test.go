package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize_SplitsCamelSnakeAndDotPaths(t *testing.T) {
	assert.Equal(t, []string{"get", "user", "by", "id"}, tokenize("getUserByID"))
	assert.Equal(t, []string{"parse", "config", "file"}, tokenize("parse_config_file"))
	assert.Equal(t, []string{"pkg", "sub", "file", "go"}, tokenize("pkg.sub.file.go"))
	assert.Equal(t, []string{"http", "server"}, tokenize("HTTPServer"))
}
