package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates a configuration value failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnsupportedType indicates an unknown file type, strategy or provider.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured or unreachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured or unreachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexUnavailable indicates the vector index has not been loaded or built.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrRateLimited indicates the provider rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrEmptyQuestion indicates a blank question was submitted.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrIndexExists indicates a persisted index appeared at the target
	// directory while a new one was being written.
	ErrIndexExists = errors.New("index already exists")

	// ErrIndexStale indicates a persisted index was built with a different
	// embedding model than the one configured.
	ErrIndexStale = errors.New("index built with a different embedding model")
)

// LoadError reports a source file that could not be read or parsed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// DataIngestionError reports malformed page content, such as a page
// for which no text was extracted.
type DataIngestionError struct {
	Source string
	Page   int
	Reason string
}

func (e *DataIngestionError) Error() string {
	return fmt.Sprintf("ingest %s page %d: %s", e.Source, e.Page, e.Reason)
}

// SegmentationError reports a splitter result that violates the size bound.
type SegmentationError struct {
	Source string
	Page   int
	Size   int
	Max    int
}

func (e *SegmentationError) Error() string {
	return fmt.Sprintf("segment %s page %d: chunk of %d chars exceeds max %d",
		e.Source, e.Page, e.Size, e.Max)
}

// AnswerGenerationError reports a failure while answering a question.
// Stage names the step that failed.
type AnswerGenerationError struct {
	Stage string
	Err   error
}

// Answer stages.
const (
	StageInput    = "input"
	StageCondense = "condense"
	StageRetrieve = "retrieve"
	StageGenerate = "generate"
)

func (e *AnswerGenerationError) Error() string {
	if errors.Is(e.Err, ErrRateLimited) {
		return fmt.Sprintf("answer (%s): provider rate limit reached, try again shortly: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("answer (%s): %v", e.Stage, e.Err)
}

func (e *AnswerGenerationError) Unwrap() error { return e.Err }

// RateLimited reports whether the failure came from a provider rate limit.
func (e *AnswerGenerationError) RateLimited() bool {
	return errors.Is(e.Err, ErrRateLimited)
}

// BuildError aggregates per-file ingestion failures from a corpus build.
type BuildError struct {
	Failures []error
}

func (e *BuildError) Error() string {
	msgs := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("%d source file(s) failed: %s", len(e.Failures), strings.Join(msgs, "; "))
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e *BuildError) Unwrap() []error { return e.Failures }
