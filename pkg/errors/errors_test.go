package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", ErrNotFound, IsNotFound},
		{"invalid input", ErrInvalidInput, IsInvalidInput},
		{"classification", ErrClassification, IsClassification},
		{"unavailable", ErrUnavailable, IsUnavailable},
		{"invalid state", ErrInvalidState, IsInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.True(t, tt.check(fmt.Errorf("loading run: %w", tt.err)))
			assert.False(t, tt.check(errors.New("other")))
			assert.False(t, tt.check(nil))
		})
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		stage string
		want  ErrorCode
	}{
		{"deadline", context.DeadlineExceeded, StageFetch, CodeTimeout},
		{"wrapped deadline", fmt.Errorf("calling model: %w", context.DeadlineExceeded), StageCorroborate, CodeTimeout},
		{"cancelled", context.Canceled, StageEvaluate, CodeContextCancelled},
		{"encoding", fmt.Errorf("unit 3: %w", ErrEncoding), StageEvaluate, CodeEncoding},
		{"invalid input", fmt.Errorf("unit has no text: %w", ErrInvalidInput), StageEvaluate, CodeInvalidInput},
		{"classification", ErrClassification, StageEvaluate, CodeClassificationFailed},
		{"rate limit", errors.New("HTTP 429 Too Many Requests"), StageCorroborate, CodeRateLimit},
		{"refused", errors.New("dial tcp: connection refused"), StageCorroborate, CodeProviderUnavailable},
		{"fetch stage", errors.New("unexpected status 404"), StageFetch, CodeFetchFailed},
		{"corroborate stage", errors.New("no JSON object in response"), StageCorroborate, CodeCorroborationFailed},
		{"persist stage", errors.New("disk I/O error"), StagePersist, CodePersistenceFailed},
		{"fallback", errors.New("boom"), StageEvaluate, CodeProcessingError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ue := ClassifyError(tt.err, tt.stage)
			require.NotNil(t, ue)
			assert.Equal(t, tt.want, ue.Code)
			assert.Equal(t, tt.stage, ue.Stage)
			assert.ErrorIs(t, ue, tt.err)
		})
	}
}

func TestClassifyError_Nil(t *testing.T) {
	assert.Nil(t, ClassifyError(nil, StageEvaluate))
}

func TestClassifyError_KeepsUnitError(t *testing.T) {
	orig := &UnitError{Code: CodeFetchFailed, Stage: StageFetch, Message: "404"}
	got := ClassifyError(fmt.Errorf("job 2: %w", orig), StageEvaluate)
	assert.Same(t, orig, got)
}

func TestUnitError_Error(t *testing.T) {
	ue := &UnitError{Code: CodeTimeout, Stage: StageFetch, Message: "operation timed out"}
	assert.Equal(t, "timeout: fetch: operation timed out", ue.Error())

	ue.Stage = ""
	assert.Equal(t, "timeout: operation timed out", ue.Error())
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(ClassifyError(context.DeadlineExceeded, StageFetch)))
	assert.True(t, IsTimeout(context.DeadlineExceeded))
	assert.False(t, IsTimeout(ClassifyError(errors.New("boom"), StageFetch)))
}

func TestIsErrorRetryable(t *testing.T) {
	assert.True(t, IsErrorRetryable(ClassifyError(errors.New("429"), StageCorroborate)))
	assert.False(t, IsErrorRetryable(ClassifyError(ErrEncoding, StageEvaluate)))
	assert.False(t, IsErrorRetryable(errors.New("plain")))
}
