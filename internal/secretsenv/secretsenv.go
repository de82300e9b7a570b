// Package secretsenv is the only place Argus reads its process secrets
// from: the host API token, the LLM provider key, the repository
// identifier, and the event-payload path. No secret is ever written
// to disk or to any artifact — callers must not log the values this
// package returns.
package secretsenv

import "os"

// Secrets holds the process-environment values the pipeline glue needs
// but the core indexing/retrieval/memory packages never see.
type Secrets struct {
	HostToken       string
	LLMAPIKey       string
	Repository      string // "owner/name"
	EventPayloadPath string
}

// Load reads Secrets from the process environment.
func Load() Secrets {
	return Secrets{
		HostToken:        os.Getenv("GITHUB_TOKEN"),
		LLMAPIKey:        os.Getenv("ARGUS_LLM_API_KEY"),
		Repository:       os.Getenv("GITHUB_REPOSITORY"),
		EventPayloadPath: os.Getenv("GITHUB_EVENT_PATH"),
	}
}
