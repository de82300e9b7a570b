package review

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argus-review/argus/internal/errs"
	"github.com/argus-review/argus/internal/prompt"
)

type fakeGenerator struct {
	response string
	err      error
}

func (f *fakeGenerator) Generate(ctx context.Context, p string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type stubFilter struct {
	calledWith          []Comment
	confidenceThreshold float64
	result              []Comment
}

func (s *stubFilter) Filter(comments []Comment, confidenceThreshold float64) []Comment {
	s.calledWith = comments
	s.confidenceThreshold = confidenceThreshold
	return s.result
}

func TestReviewer_Review_ParsesAndResolves(t *testing.T) {
	gen := &fakeGenerator{response: `{"summary":"looks fine","comments":[
		{"file_path":"a.go","line":10,"severity":"warning","category":"bug","body":"check nil","confidence":1.5}
	]}`}
	r := NewReviewer(prompt.NewAssembler(10_000, nil), gen, nil, 0, nil)

	out, err := r.Review(context.Background(), prompt.Input{DiffText: "diff --git a/a.go"})
	require.NoError(t, err)
	assert.Equal(t, "looks fine", out.Summary)
	require.Len(t, out.Comments, 1)
	assert.Equal(t, 1.0, out.Comments[0].Confidence)
}

func TestReviewer_Review_UnknownSeverityAndCategoryDefault(t *testing.T) {
	gen := &fakeGenerator{response: `{"summary":"s","comments":[
		{"file_path":"a.go","line":1,"severity":"urgent","category":"weird","body":"x","confidence":0.5}
	]}`}
	r := NewReviewer(prompt.NewAssembler(10_000, nil), gen, nil, 0, nil)

	out, err := r.Review(context.Background(), prompt.Input{DiffText: "diff"})
	require.NoError(t, err)
	require.Len(t, out.Comments, 1)
	assert.Equal(t, "suggestion", string(out.Comments[0].Severity))
	assert.Equal(t, "style", string(out.Comments[0].Category))
}

func TestReviewer_Review_AppliesFilter(t *testing.T) {
	gen := &fakeGenerator{response: `{"summary":"s","comments":[{"file_path":"a.go","line":1,"severity":"warning","category":"bug","body":"x","confidence":0.9}]}`}
	filtered := []Comment{{FilePath: "a.go", Body: "kept"}}
	filter := &stubFilter{result: filtered}
	r := NewReviewer(prompt.NewAssembler(10_000, nil), gen, filter, 0.4, nil)

	out, err := r.Review(context.Background(), prompt.Input{DiffText: "diff"})
	require.NoError(t, err)
	assert.Equal(t, filtered, out.Comments)
	assert.Equal(t, 0.4, filter.confidenceThreshold)
	require.Len(t, filter.calledWith, 1)
}

func TestReviewer_Review_PromptTooLargePropagates(t *testing.T) {
	gen := &fakeGenerator{response: `{}`}
	r := NewReviewer(prompt.NewAssembler(1, nil), gen, nil, 0, nil)

	_, err := r.Review(context.Background(), prompt.Input{DiffText: "a very long diff text that exceeds budget"})
	var tooLarge *errs.PromptTooLargeError
	assert.ErrorAs(t, err, &tooLarge)
}

func TestReviewer_Review_GeneratorErrorWrapped(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("provider down")}
	r := NewReviewer(prompt.NewAssembler(10_000, nil), gen, nil, 0, nil)

	_, err := r.Review(context.Background(), prompt.Input{DiffText: "diff"})
	require.Error(t, err)
	var domainErr *errs.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, errs.CodeProvider, domainErr.Code)
}

func TestReviewer_Review_MalformedOutputWrapped(t *testing.T) {
	gen := &fakeGenerator{response: "not json"}
	r := NewReviewer(prompt.NewAssembler(10_000, nil), gen, nil, 0, nil)

	_, err := r.Review(context.Background(), prompt.Input{DiffText: "diff"})
	require.Error(t, err)
	var domainErr *errs.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, errs.CodeParse, domainErr.Code)
}
