package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UnitError is a classified failure of a single evaluation unit.
type UnitError struct {
	Code    ErrorCode
	Stage   string
	Message string
	Cause   error
}

func (e *UnitError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Stage, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *UnitError) Unwrap() error {
	return e.Cause
}

// ClassifyError inspects err and returns a *UnitError with the matching code.
// Errors that are already a *UnitError are returned unchanged.
func ClassifyError(err error, stage string) *UnitError {
	if err == nil {
		return nil
	}

	var ue *UnitError
	if errors.As(err, &ue) {
		return ue
	}

	msg := err.Error()
	ue = &UnitError{Stage: stage, Message: msg, Cause: err}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		ue.Code, ue.Message = CodeTimeout, "operation timed out"
		return ue
	case errors.Is(err, context.Canceled):
		ue.Code, ue.Message = CodeContextCancelled, "operation cancelled"
		return ue
	case errors.Is(err, ErrEncoding):
		ue.Code = CodeEncoding
		return ue
	case errors.Is(err, ErrInvalidInput):
		ue.Code = CodeInvalidInput
		return ue
	case errors.Is(err, ErrClassification):
		ue.Code = CodeClassificationFailed
		return ue
	}

	lower := strings.ToLower(msg)
	switch {
	case containsAny(lower, "rate limit", "429", "too many requests", "quota exceeded"):
		ue.Code = CodeRateLimit
	case containsAny(lower, "connection refused", "no such host", "503", "unavailable"):
		ue.Code = CodeProviderUnavailable
	case stage == StageFetch:
		ue.Code = CodeFetchFailed
	case stage == StageCorroborate:
		ue.Code = CodeCorroborationFailed
	case stage == StagePersist:
		ue.Code = CodePersistenceFailed
	default:
		ue.Code = CodeProcessingError
	}
	return ue
}

// Stages a unit passes through.
const (
	StageFetch       = "fetch"
	StageEvaluate    = "evaluate"
	StageCorroborate = "corroborate"
	StagePersist     = "persist"
)

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// IsTimeout returns true if err classifies as a timeout.
func IsTimeout(err error) bool {
	var ue *UnitError
	if errors.As(err, &ue) {
		return ue.Code == CodeTimeout
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// IsErrorRetryable returns true if err is a UnitError with a retryable code.
func IsErrorRetryable(err error) bool {
	var ue *UnitError
	if errors.As(err, &ue) {
		return IsRetryable(ue.Code)
	}
	return false
}
