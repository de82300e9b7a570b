package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 128_000, cfg.MaxTokens)
	assert.Equal(t, ".argus", cfg.StorageDir)
	assert.Equal(t, 0.7, cfg.ConfidenceThreshold)
	assert.Equal(t, "standard", cfg.ReviewDepth)
	assert.Contains(t, cfg.IgnoredPaths, "vendor/**")
	assert.False(t, cfg.EnableAgentic)
	assert.False(t, cfg.SearchRelatedIssues)
}

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().MaxTokens, cfg.MaxTokens)
}

func TestLoadConfig_ReadsTOMLFile(t *testing.T) {
	dir := t.TempDir()
	contents := `
model = "claude-3-5-sonnet"
max_tokens = 64000
storage_dir = ".argus-data"
embedding_model = "local"
search_related_issues = true
confidence_threshold = 0.5
review_depth = "deep"
ignored_paths = ["build/**"]
enable_agentic = true

[index]
analyze_patterns = true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "argus.toml"), []byte(contents), 0o644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "claude-3-5-sonnet", cfg.Model)
	assert.Equal(t, 64000, cfg.MaxTokens)
	assert.Equal(t, ".argus-data", cfg.StorageDir)
	assert.Equal(t, "local", cfg.EmbeddingModel)
	assert.True(t, cfg.SearchRelatedIssues)
	assert.Equal(t, 0.5, cfg.ConfidenceThreshold)
	assert.Equal(t, "deep", cfg.ReviewDepth)
	assert.Equal(t, []string{"build/**"}, cfg.IgnoredPaths)
	assert.True(t, cfg.EnableAgentic)
	assert.True(t, cfg.Index.AnalyzePatterns)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	contents := "max_tokens = 64000\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "argus.toml"), []byte(contents), 0o644))

	t.Setenv("ARGUS_MAX_TOKENS", "32000")
	t.Setenv("ARGUS_ENABLE_AGENTIC", "true")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 32000, cfg.MaxTokens)
	assert.True(t, cfg.EnableAgentic)
}

func TestConfig_Budgets(t *testing.T) {
	cfg := &Config{MaxTokens: 1000}
	assert.Equal(t, 600, cfg.RetrievalBudget())
	assert.Equal(t, 400, cfg.GenerationBudget())
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.MaxTokens = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.ConfidenceThreshold = 1.5
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.ReviewDepth = "exhaustive"
	assert.Error(t, cfg.Validate())
}

func TestIsTruthy(t *testing.T) {
	for _, s := range []string{"1", "true", "TRUE", "yes", "on"} {
		assert.True(t, isTruthy(s), s)
	}
	for _, s := range []string{"0", "false", "", "no"} {
		assert.False(t, isTruthy(s), s)
	}
}
