// Package prcontext gathers pull-request metadata, CI status, discussion,
// git health, and (optionally) related issues into the "PR context" prompt
// section. Grounded on original_source's
// infrastructure/github/pr_context_collector.py: same collect/CI-status/
// git-health/related-items split, same linked-issue-ref regex and the same
// summary/body truncation constants, re-expressed against ghclient.Client
// instead of a generic GitHubClient.
package prcontext

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/argus-review/argus/internal/ghclient"
	"github.com/argus-review/argus/internal/logging"
)

const (
	maxSummaryChars  = 200
	maxBodyChars     = 200
	maxRelatedItems  = 5
)

var issueRefPattern = regexp.MustCompile(`(?i)(?:fixes|closes|resolves|fix|close|resolve)\s+#(\d+)`)

// CheckRun is one CI check's reported outcome.
type CheckRun struct {
	Name       string
	Status     string
	Conclusion string
	Summary    string
}

// CIStatus summarizes a commit's check runs into one overall conclusion.
type CIStatus struct {
	Conclusion string // "success" | "failure" | "pending"
	Checks     []CheckRun
}

// Comment is one issue-thread comment on the pull request.
type Comment struct {
	Author    string
	Body      string
	CreatedAt string
}

// GitHealth summarizes how far behind base and how old the PR is.
type GitHealth struct {
	BehindBy        int
	HasMergeCommits bool
	DaysOpen        int
}

// RelatedItem is a linked or searched-up issue/PR surfaced for context.
type RelatedItem struct {
	Kind   string // "issue" | "pull_request"
	Number int
	Title  string
	State  string
	Body   string
}

// Context is the full collected PR context handed to prompt assembly.
type Context struct {
	Title        string
	Body         string
	Author       string
	CreatedAt    string
	Labels       []string
	Comments     []Comment
	CIStatus     CIStatus
	GitHealth    GitHealth
	RelatedItems []RelatedItem
}

// Collector gathers Context for one pull request.
type Collector struct {
	Client *ghclient.Client
	logger *logging.Logger
}

func NewCollector(client *ghclient.Client, logger *logging.Logger) *Collector {
	return &Collector{Client: client, logger: logger}
}

// Collect gathers the full PR context for number at headSHA. searchRelated
// gates the related-issues lookup, per config's search_related_issues.
func (c *Collector) Collect(ctx context.Context, number int, headSHA string, searchRelated bool) (Context, error) {
	pr, err := c.Client.GetPullRequest(ctx, number)
	if err != nil {
		return Context{}, err
	}

	labels := make([]string, 0, len(pr.Labels))
	for _, l := range pr.Labels {
		labels = append(labels, l.Name)
	}
	author := pr.User.Login
	if author == "" {
		author = "unknown"
	}

	ci, err := c.collectCIStatus(ctx, headSHA)
	if err != nil {
		return Context{}, err
	}
	comments, err := c.collectComments(ctx, number)
	if err != nil {
		return Context{}, err
	}
	health := c.computeGitHealth(ctx, number, pr.BehindBy, pr.CreatedAt)

	var related []RelatedItem
	if searchRelated {
		related = c.collectRelatedItems(ctx, pr.Title, pr.Body)
	}

	return Context{
		Title:        pr.Title,
		Body:         pr.Body,
		Author:       author,
		CreatedAt:    pr.CreatedAt,
		Labels:       labels,
		Comments:     comments,
		CIStatus:     ci,
		GitHealth:    health,
		RelatedItems: related,
	}, nil
}

func (c *Collector) collectCIStatus(ctx context.Context, headSHA string) (CIStatus, error) {
	raw, err := c.Client.GetCheckRuns(ctx, headSHA)
	if err != nil {
		return CIStatus{}, err
	}

	checks := make([]CheckRun, 0, len(raw))
	hasFailure, allComplete := false, true
	for _, r := range raw {
		summary := ""
		if r.Conclusion == "failure" {
			hasFailure = true
			summary = truncate(r.Output.Summary, maxSummaryChars)
		}
		if r.Status != "completed" {
			allComplete = false
		}
		checks = append(checks, CheckRun{Name: r.Name, Status: r.Status, Conclusion: r.Conclusion, Summary: summary})
	}

	conclusion := "pending"
	switch {
	case len(checks) == 0:
		conclusion = "pending"
	case hasFailure:
		conclusion = "failure"
	case allComplete:
		conclusion = "success"
	}
	return CIStatus{Conclusion: conclusion, Checks: checks}, nil
}

func (c *Collector) collectComments(ctx context.Context, number int) ([]Comment, error) {
	raw, err := c.Client.GetIssueComments(ctx, number)
	if err != nil {
		return nil, err
	}
	comments := make([]Comment, 0, len(raw))
	for _, r := range raw {
		author := r.User.Login
		if author == "" {
			author = "unknown"
		}
		comments = append(comments, Comment{Author: author, Body: r.Body, CreatedAt: r.CreatedAt})
	}
	return comments, nil
}

// computeGitHealth degrades to hasMergeCommits=false on a commits-fetch
// error rather than failing the whole collection, matching the original's
// best-effort try/except around the merge-commit check.
func (c *Collector) computeGitHealth(ctx context.Context, number, behindBy int, createdAt string) GitHealth {
	daysOpen := 0
	if createdAt != "" {
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			daysOpen = int(time.Since(t).Hours() / 24)
		}
	}

	hasMergeCommits := false
	commits, err := c.Client.GetPRCommits(ctx, number)
	if err != nil {
		if c.logger != nil {
			c.logger.Debug("could not fetch PR commits for merge commit check", map[string]interface{}{"pr": number, "error": err.Error()})
		}
	} else {
		for _, commit := range commits {
			if len(commit.Parents) > 1 {
				hasMergeCommits = true
				break
			}
		}
	}

	return GitHealth{BehindBy: behindBy, HasMergeCommits: hasMergeCommits, DaysOpen: daysOpen}
}

func (c *Collector) collectRelatedItems(ctx context.Context, title, body string) []RelatedItem {
	seen := make(map[int]bool)
	var numbers []int

	for _, m := range issueRefPattern.FindAllStringSubmatch(body, -1) {
		var n int
		fmt.Sscanf(m[1], "%d", &n)
		if !seen[n] {
			seen[n] = true
			numbers = append(numbers, n)
		}
	}

	results, err := c.Client.SearchIssues(ctx, title)
	if err != nil {
		if c.logger != nil {
			c.logger.Debug("issue search failed, continuing with linked refs only", map[string]interface{}{"error": err.Error()})
		}
	} else {
		for i, r := range results {
			if i >= maxRelatedItems {
				break
			}
			if !seen[r.Number] {
				seen[r.Number] = true
				numbers = append(numbers, r.Number)
			}
		}
	}

	var items []RelatedItem
	for i, n := range numbers {
		if i >= maxRelatedItems {
			break
		}
		issue, err := c.Client.GetPullRequest(ctx, n)
		if err != nil {
			if c.logger != nil {
				c.logger.Debug("could not fetch details for related item", map[string]interface{}{"number": n, "error": err.Error()})
			}
			continue
		}
		kind := "issue"
		if issue.PullRequest != nil {
			kind = "pull_request"
		}
		items = append(items, RelatedItem{
			Kind:   kind,
			Number: n,
			Title:  issue.Title,
			State:  issue.State,
			Body:   truncate(issue.Body, maxBodyChars),
		})
	}
	return items
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max])
}

// Render flattens Context into the plain text the prompt package embeds
// under the "PR Context" section.
func Render(c Context) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Title: %s\nAuthor: %s\n", c.Title, c.Author)
	if len(c.Labels) > 0 {
		fmt.Fprintf(&sb, "Labels: %s\n", strings.Join(c.Labels, ", "))
	}
	if c.Body != "" {
		fmt.Fprintf(&sb, "\n%s\n", c.Body)
	}
	fmt.Fprintf(&sb, "\nCI: %s\n", c.CIStatus.Conclusion)
	for _, check := range c.CIStatus.Checks {
		if check.Conclusion == "failure" {
			fmt.Fprintf(&sb, "- %s failed: %s\n", check.Name, check.Summary)
		}
	}
	if c.GitHealth.BehindBy > 0 {
		fmt.Fprintf(&sb, "\nBehind base by %d commits.\n", c.GitHealth.BehindBy)
	}
	for _, item := range c.RelatedItems {
		fmt.Fprintf(&sb, "\nRelated %s #%d: %s (%s)\n", item.Kind, item.Number, item.Title, item.State)
	}
	return strings.TrimSpace(sb.String())
}
