package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/argus-review/argus/internal/errs"
)

// httpGenerator is the one concrete generator.Generator this binary
// ships: a provider-agnostic HTTP completion call, mirroring
// original_source's llm_providers/factory.py, which builds a single
// pydantic_ai.Agent from a generic ModelConfig{model, api_key, base_url}
// rather than hardcoding any one vendor's SDK. Swapping providers here
// means pointing baseURL at a different OpenAI-compatible completion
// endpoint, not writing a new Generator.
type httpGenerator struct {
	model   string
	apiKey  string
	baseURL string
	client  *http.Client
}

func newHTTPGenerator(model, apiKey string) *httpGenerator {
	baseURL := os.Getenv("ARGUS_LLM_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &httpGenerator{
		model:   model,
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 90 * time.Second},
	}
}

type completionRequest struct {
	Model    string              `json:"model"`
	Messages []completionMessage `json:"messages"`
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message completionMessage `json:"message"`
	} `json:"choices"`
}

// Generate issues one chat-completion call and returns the model's raw
// text. A non-2xx or malformed response is reported as a provider-stage
// error so pipeline glue can decide retry/degrade/abort.
func (g *httpGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	payload := completionRequest{
		Model: g.model,
		Messages: []completionMessage{
			{Role: "user", Content: prompt},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", errs.New(errs.CodeInternal, errs.StageGenerate, g.model, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", errs.New(errs.CodeInternal, errs.StageGenerate, g.model, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", errs.New(errs.CodeTransient, errs.StageGenerate, g.model, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errs.New(errs.CodeTransient, errs.StageGenerate, g.model, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errs.New(errs.CodeProvider, errs.StageGenerate, g.model, fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody)))
	}

	var parsed completionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", errs.New(errs.CodeProvider, errs.StageGenerate, g.model, err)
	}
	if len(parsed.Choices) == 0 {
		return "", errs.New(errs.CodeProvider, errs.StageGenerate, g.model, fmt.Errorf("no choices in response"))
	}
	return parsed.Choices[0].Message.Content, nil
}
