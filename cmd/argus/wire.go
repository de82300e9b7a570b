package main

import (
	"fmt"

	"github.com/argus-review/argus/internal/config"
	"github.com/argus-review/argus/internal/ghclient"
	"github.com/argus-review/argus/internal/indexing"
	"github.com/argus-review/argus/internal/logging"
	"github.com/argus-review/argus/internal/parser"
	"github.com/argus-review/argus/internal/prcontext"
	"github.com/argus-review/argus/internal/secretsenv"
	"github.com/argus-review/argus/internal/syncbranch"
)

// services bundles the wiring every mode shares: configuration, a
// correlation-scoped logger, the GitHub client and data-branch store, and
// the parser/indexing pair used to build or update the codebase map.
type services struct {
	cfg     *config.Config
	secrets secretsenv.Secrets
	logger  *logging.Logger

	client  *ghclient.Client
	store   *syncbranch.Store
	builder *indexing.Builder
	adapter *parser.Adapter

	prContext *prcontext.Collector
}

// wire constructs services for repoRoot using the process environment for
// secrets and repoRoot/argus.toml (plus ARGUS_* overrides) for config.
func wire(repoRoot, dataBranch string) (*services, error) {
	logger := logging.NewLogger(logging.Config{
		Format: logging.Format(logFormat),
		Level:  logging.Level(logLevel),
	})

	cfg, err := config.LoadConfig(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	secrets := secretsenv.Load()
	if secrets.Repository == "" {
		return nil, fmt.Errorf("GITHUB_REPOSITORY is not set")
	}

	client := ghclient.New(secrets.HostToken, secrets.Repository)
	store := syncbranch.New(client, dataBranch, logger)

	registry := parser.NewRegistry(cfg.ExtraExtensions)
	adapter := parser.NewAdapter(registry)
	builder := indexing.NewBuilder(repoRoot, adapter, cfg.IgnoredPaths, logger)

	return &services{
		cfg:       cfg,
		secrets:   secrets,
		logger:    logger,
		client:    client,
		store:     store,
		builder:   builder,
		adapter:   adapter,
		prContext: prcontext.NewCollector(client, logger),
	}, nil
}
