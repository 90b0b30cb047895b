package core

import (
	"errors"
	"fmt"
)

var (
	// ErrUnrecognizedCategory is returned when a category label matches no alias.
	// No verdict is produced for such requests.
	ErrUnrecognizedCategory = errors.New("unrecognized category")

	// ErrEmptyReason is returned when the reason is empty after normalization.
	ErrEmptyReason = errors.New("request reason is empty")

	// ErrInsufficientEvidence signals that the rule table could not reach a conclusive verdict.
	// It is internal: it turns into a Held verdict and is never returned to callers.
	ErrInsufficientEvidence = errors.New("insufficient evidence")

	// ErrRetrieverUnavailable means similarity search failed after retries.
	ErrRetrieverUnavailable = errors.New("historical retriever unavailable")

	// ErrModelUnavailable means the language model failed after retries.
	ErrModelUnavailable = errors.New("language model unavailable")

	// ErrUnparsableModelResponse means the model output did not follow the decision grammar.
	ErrUnparsableModelResponse = errors.New("unparsable model response")

	// ErrPersistenceFailure means an audit record could not be written.
	ErrPersistenceFailure = errors.New("audit persistence failure")
)

// UnrecognizedCategoryError carries the label that could not be mapped.
type UnrecognizedCategoryError struct {
	Label string
}

func (e UnrecognizedCategoryError) Error() string {
	return fmt.Sprintf("unrecognized category '%s'", e.Label)
}

func (e UnrecognizedCategoryError) Is(target error) bool {
	return target == ErrUnrecognizedCategory
}

// UnparsableResponseError keeps the raw model output for manual review.
type UnparsableResponseError struct {
	Raw    string
	Reason string
}

func (e UnparsableResponseError) Error() string {
	return fmt.Sprintf("unparsable model response: %s", e.Reason)
}

func (e UnparsableResponseError) Is(target error) bool {
	return target == ErrUnparsableModelResponse
}
