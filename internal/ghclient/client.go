// Package ghclient is a minimal client for the Git Data API calls
// selective branch sync needs: get-ref, get-tree (recursive),
// get-blob, create-blob, create-tree, create-commit, and a CAS-checked
// update-ref. Mirrors the git_branch_store.py pull/push flow (which drives
// an equivalent GitHubClient) and CKB's internal/backends/limiter.go
// concurrency-guard shape for the retry wrapper — no HTTP retry/backoff
// library fits this narrow need, so the backoff loop itself is hand-rolled
// rather than imported.
package ghclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/argus-review/argus/internal/errs"
)

const defaultBaseURL = "https://api.github.com"

// Client wraps the Git Data API calls against one repository.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	repo       string // "owner/name"
}

// New builds a Client authenticated with token against repo ("owner/name").
func New(token, repo string) *Client {
	return &Client{httpClient: &http.Client{Timeout: 30 * time.Second}, baseURL: defaultBaseURL, token: token, repo: repo}
}

// NewWithBaseURL builds a Client against a non-default API base URL, for
// tests and GitHub Enterprise installations.
func NewWithBaseURL(token, repo, baseURL string) *Client {
	return &Client{httpClient: &http.Client{Timeout: 30 * time.Second}, baseURL: baseURL, token: token, repo: repo}
}

// Ref is a git reference.
type Ref struct {
	Ref    string `json:"ref"`
	Object struct {
		SHA string `json:"sha"`
	} `json:"object"`
}

// TreeEntry is one entry in a recursive tree listing.
type TreeEntry struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
	Type string `json:"type"` // "blob" | "tree"
	SHA  string `json:"sha"`
	Size int    `json:"size,omitempty"`
}

// Tree is a recursive tree listing, optionally truncated by the API.
type Tree struct {
	SHA       string      `json:"sha"`
	Tree      []TreeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

// Commit is the subset of a commit object this client needs.
type Commit struct {
	SHA  string `json:"sha"`
	Tree struct {
		SHA string `json:"sha"`
	} `json:"tree"`
	Parents []struct {
		SHA string `json:"sha"`
	} `json:"parents"`
}

// GetRef fetches the ref for branch, or (nil, nil) if it does not exist.
func (c *Client) GetRef(ctx context.Context, branch string) (*Ref, error) {
	path := fmt.Sprintf("/repos/%s/git/refs/heads/%s", c.repo, branch)
	var ref Ref
	status, err := c.doJSON(ctx, http.MethodGet, path, nil, &ref)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	return &ref, nil
}

// GetCommit fetches a commit object by SHA.
func (c *Client) GetCommit(ctx context.Context, sha string) (*Commit, error) {
	path := fmt.Sprintf("/repos/%s/git/commits/%s", c.repo, sha)
	var commit Commit
	if _, err := c.doJSON(ctx, http.MethodGet, path, nil, &commit); err != nil {
		return nil, err
	}
	return &commit, nil
}

// GetTreeRecursive fetches the full recursive tree rooted at treeSHA.
func (c *Client) GetTreeRecursive(ctx context.Context, treeSHA string) (*Tree, error) {
	path := fmt.Sprintf("/repos/%s/git/trees/%s?recursive=1", c.repo, treeSHA)
	var tree Tree
	if _, err := c.doJSON(ctx, http.MethodGet, path, nil, &tree); err != nil {
		return nil, err
	}
	return &tree, nil
}

// GetBlob fetches a blob's decoded content by SHA.
func (c *Client) GetBlob(ctx context.Context, sha string) ([]byte, error) {
	path := fmt.Sprintf("/repos/%s/git/blobs/%s", c.repo, sha)
	var body struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}
	if _, err := c.doJSON(ctx, http.MethodGet, path, nil, &body); err != nil {
		return nil, err
	}
	if body.Encoding != "base64" {
		return []byte(body.Content), nil
	}
	return base64.StdEncoding.DecodeString(body.Content)
}

// CreateBlob uploads content and returns its SHA.
func (c *Client) CreateBlob(ctx context.Context, content []byte) (string, error) {
	path := fmt.Sprintf("/repos/%s/git/blobs", c.repo)
	payload := map[string]string{
		"content":  base64.StdEncoding.EncodeToString(content),
		"encoding": "base64",
	}
	var resp struct {
		SHA string `json:"sha"`
	}
	if _, err := c.doJSON(ctx, http.MethodPost, path, payload, &resp); err != nil {
		return "", err
	}
	return resp.SHA, nil
}

// TreeEntryInput describes one entry to include in a created tree. SHA is a
// pointer so a nil value serializes as the JSON null the tree API requires
// to mark an existing path for deletion; a non-nil SHA sets or replaces the
// entry's content as usual.
type TreeEntryInput struct {
	Path string  `json:"path"`
	Mode string  `json:"mode"`
	Type string  `json:"type"`
	SHA  *string `json:"sha"`
}

// BlobEntry builds a TreeEntryInput that sets path's content to the blob
// identified by sha.
func BlobEntry(path, sha string) TreeEntryInput {
	return TreeEntryInput{Path: path, Mode: "100644", Type: "blob", SHA: &sha}
}

// DeleteEntry builds a TreeEntryInput that removes path from the tree being
// created, by carrying a null sha as the Git Trees API requires.
func DeleteEntry(path string) TreeEntryInput {
	return TreeEntryInput{Path: path, Mode: "100644", Type: "blob", SHA: nil}
}

// CreateTree creates a tree with baseTree (empty for none) plus entries:
// the previous commit's tree as base_tree, listing only changed or new
// blobs, plus any DeleteEntry paths to remove.
func (c *Client) CreateTree(ctx context.Context, baseTree string, entries []TreeEntryInput) (string, error) {
	path := fmt.Sprintf("/repos/%s/git/trees", c.repo)
	payload := map[string]interface{}{"tree": entries}
	if baseTree != "" {
		payload["base_tree"] = baseTree
	}
	var resp struct {
		SHA string `json:"sha"`
	}
	if _, err := c.doJSON(ctx, http.MethodPost, path, payload, &resp); err != nil {
		return "", err
	}
	return resp.SHA, nil
}

// CreateCommit creates a commit pointing at treeSHA with the given parents.
func (c *Client) CreateCommit(ctx context.Context, message, treeSHA string, parents []string) (string, error) {
	path := fmt.Sprintf("/repos/%s/git/commits", c.repo)
	payload := map[string]interface{}{
		"message": message,
		"tree":    treeSHA,
		"parents": parents,
	}
	var resp struct {
		SHA string `json:"sha"`
	}
	if _, err := c.doJSON(ctx, http.MethodPost, path, payload, &resp); err != nil {
		return "", err
	}
	return resp.SHA, nil
}

// CreateRef creates branch pointing at sha (used the first time the
// argus-data branch is created, as an orphan-style ref).
func (c *Client) CreateRef(ctx context.Context, branch, sha string) error {
	path := fmt.Sprintf("/repos/%s/git/refs", c.repo)
	payload := map[string]string{"ref": "refs/heads/" + branch, "sha": sha}
	_, err := c.doJSON(ctx, http.MethodPost, path, payload, nil)
	return err
}

// UpdateRef performs a CAS update of branch's ref to newSHA: it is only
// safe to call immediately after re-confirming expectedOldSHA via GetRef,
// since the GitHub API itself has no atomic expected-SHA precondition on
// this endpoint — the caller-side check-then-act is the CAS boundary
// here, and a conflicting concurrent push surfaces as a non-2xx
// response, which the caller maps to errs.ConcurrentWriteError.
func (c *Client) UpdateRef(ctx context.Context, branch, newSHA string, force bool) error {
	path := fmt.Sprintf("/repos/%s/git/refs/heads/%s", c.repo, branch)
	payload := map[string]interface{}{"sha": newSHA, "force": force}
	_, err := c.doJSON(ctx, http.MethodPatch, path, payload, nil)
	return err
}

// PullRequest is the subset of the Pulls API response PR context needs.
type PullRequest struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	State     string `json:"state"`
	CreatedAt string `json:"created_at"`
	BehindBy  int    `json:"behind_by"`
	User      struct {
		Login string `json:"login"`
	} `json:"user"`
	Labels []struct {
		Name string `json:"name"`
	} `json:"labels"`
	PullRequest *struct{} `json:"pull_request,omitempty"` // non-nil when an /issues/{n} lookup is actually a PR
}

// CheckRun is one entry of the Checks API response.
type CheckRun struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Conclusion string `json:"conclusion"`
	Output     struct {
		Summary string `json:"summary"`
	} `json:"output"`
}

// IssueComment is one entry of the issue-comments API response.
type IssueComment struct {
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
	User      struct {
		Login string `json:"login"`
	} `json:"user"`
}

// CommitInfo is one entry of the PR-commits API response.
type CommitInfo struct {
	Parents []struct {
		SHA string `json:"sha"`
	} `json:"parents"`
}

// GetPullRequest fetches a pull request (or issue, for related-item lookups
// by number — the two share the same REST representation).
func (c *Client) GetPullRequest(ctx context.Context, number int) (*PullRequest, error) {
	path := fmt.Sprintf("/repos/%s/pulls/%d", c.repo, number)
	var pr PullRequest
	if _, err := c.doJSON(ctx, http.MethodGet, path, nil, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// GetCheckRuns fetches the check runs reported against sha.
func (c *Client) GetCheckRuns(ctx context.Context, sha string) ([]CheckRun, error) {
	path := fmt.Sprintf("/repos/%s/commits/%s/check-runs", c.repo, sha)
	var resp struct {
		CheckRuns []CheckRun `json:"check_runs"`
	}
	if _, err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.CheckRuns, nil
}

// GetIssueComments fetches the issue-thread comments on pull request number.
func (c *Client) GetIssueComments(ctx context.Context, number int) ([]IssueComment, error) {
	path := fmt.Sprintf("/repos/%s/issues/%d/comments", c.repo, number)
	var comments []IssueComment
	if _, err := c.doJSON(ctx, http.MethodGet, path, nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// GetPRCommits fetches the commits that make up pull request number.
func (c *Client) GetPRCommits(ctx context.Context, number int) ([]CommitInfo, error) {
	path := fmt.Sprintf("/repos/%s/pulls/%d/commits", c.repo, number)
	var commits []CommitInfo
	if _, err := c.doJSON(ctx, http.MethodGet, path, nil, &commits); err != nil {
		return nil, err
	}
	return commits, nil
}

// SearchIssues searches issues and pull requests in repo by free-text query,
// used for the related-items lookup gated by search_related_issues.
func (c *Client) SearchIssues(ctx context.Context, query string) ([]PullRequest, error) {
	path := fmt.Sprintf("/search/issues?q=%s+repo:%s", url.QueryEscape(query), c.repo)
	var resp struct {
		Items []PullRequest `json:"items"`
	}
	if _, err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// doJSON issues one HTTP request with a correlation id header and decodes
// a JSON response, retrying transient failures per retryTransient.
func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) (int, error) {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return 0, err
		}
	}

	var status int
	err := retryTransient(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(bodyBytes))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-Argus-Correlation-Id", uuid.NewString())
		if bodyBytes != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return &errs.Error{Code: errs.CodeTransient, Stage: errs.StageSync, Target: path, Cause: err}
		}
		defer resp.Body.Close()
		status = resp.StatusCode

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return &errs.Error{Code: errs.CodeTransient, Stage: errs.StageSync, Target: path, Cause: err}
		}

		if status == http.StatusNotFound {
			return nil // caller interprets 404 explicitly (e.g. missing ref)
		}
		if status >= 500 {
			return &errs.Error{Code: errs.CodeTransient, Stage: errs.StageSync, Target: path, Cause: fmt.Errorf("http %d: %s", status, data)}
		}
		if status >= 400 {
			return &errs.Error{Code: errs.CodeProvider, Stage: errs.StageSync, Target: path, Cause: fmt.Errorf("http %d: %s", status, data)}
		}
		if out != nil && len(data) > 0 {
			if err := json.Unmarshal(data, out); err != nil {
				return &errs.Error{Code: errs.CodeProvider, Stage: errs.StageSync, Target: path, Cause: err}
			}
		}
		return nil
	})
	return status, err
}

// retryTransient retries fn up to three attempts with jittered exponential
// backoff (base 1s) when it fails with a CodeTransient error.
func retryTransient(ctx context.Context, fn func() error) error {
	const maxAttempts = 3
	const base = time.Second

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		var e *errs.Error
		if !asErrsError(lastErr, &e) || e.Code != errs.CodeTransient {
			return lastErr
		}
		if attempt == maxAttempts-1 {
			break
		}
		backoff := base * time.Duration(1<<attempt)
		jitter := time.Duration(rand.Int63n(int64(backoff) / 2))
		select {
		case <-time.After(backoff + jitter):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}

func asErrsError(err error, target **errs.Error) bool {
	e, ok := err.(*errs.Error)
	if ok {
		*target = e
	}
	return ok
}
