// Package corroborate asks a generative model whether a brand is mentioned
// in a text and merges that judgment with the local engine's verdict.
package corroborate

import (
	"context"
	"fmt"

	blerrors "github.com/otherjamesbrown/brandlens/pkg/errors"
)

// Provider returns a model judgment for one text.
type Provider interface {
	// Name identifies the provider and model, e.g. "openai-gpt-4o-mini".
	Name() string

	// Judge asks whether target is mentioned in text.
	Judge(ctx context.Context, text, target string) (*Judgment, error)
}

// Judgment is a model's opinion of a single text.
type Judgment struct {
	Mentioned bool   `json:"mentioned"`
	Context   string `json:"context"`
	Score     int    `json:"score"`
}

// ErrorCode classifies provider failures.
type ErrorCode string

const (
	ErrTimeout      ErrorCode = "timeout"
	ErrUnavailable  ErrorCode = "unavailable"
	ErrRateLimited  ErrorCode = "rate_limited"
	ErrParseFailure ErrorCode = "parse_failure"
	ErrUnauthorized ErrorCode = "unauthorized"
)

// ProviderError is returned by providers for every failed call.
type ProviderError struct {
	Code    ErrorCode
	Message string
	// Details holds the raw model output for parse failures.
	Details string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap maps provider codes onto the shared sentinel errors.
func (e *ProviderError) Unwrap() error {
	switch e.Code {
	case ErrTimeout:
		return context.DeadlineExceeded
	case ErrUnavailable, ErrRateLimited:
		return blerrors.ErrUnavailable
	case ErrParseFailure:
		return blerrors.ErrClassification
	case ErrUnauthorized:
		return blerrors.ErrInvalidInput
	}
	return nil
}

func isCode(err error, code ErrorCode) bool {
	pe, ok := err.(*ProviderError)
	return ok && pe.Code == code
}
