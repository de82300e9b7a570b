package main

import (
	"fmt"

	"github.com/argus-review/argus/internal/review"
)

// Publisher delivers a finished review Output somewhere a human will see
// it. Posting PR comments is a real side-effecting external action this
// binary does not take by default; stdoutPublisher is the only
// implementation wired in, so a run is inert until a caller supplies its
// own (e.g. one that calls ghclient to post review comments).
type Publisher interface {
	Publish(out review.Output) error
}

// stdoutPublisher prints the review result to stdout as the run's final
// output, leaving comment-posting to whatever wraps this binary.
type stdoutPublisher struct{}

func (stdoutPublisher) Publish(out review.Output) error {
	fmt.Println("Summary:", out.Summary)
	for _, c := range out.Comments {
		fmt.Printf("[%s/%s] %s:%d (confidence %.2f): %s\n", c.Severity, c.Category, c.FilePath, c.Line, c.Confidence, c.Body)
	}
	return nil
}
