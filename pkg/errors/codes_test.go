package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCodeRegistry_Complete(t *testing.T) {
	codes := []ErrorCode{
		CodeInvalidInput, CodeClassificationFailed, CodeEncoding, CodeFetchFailed,
		CodeCorroborationFailed, CodeTimeout, CodeContextCancelled, CodeRateLimit,
		CodeProviderUnavailable, CodePersistenceFailed, CodeProcessingError,
	}
	for _, code := range codes {
		info, ok := ErrorCodeRegistry[code]
		if assert.True(t, ok, "missing registry entry for %s", code) {
			assert.Equal(t, code, info.Code)
			assert.NotEmpty(t, info.Description)
			assert.NotEmpty(t, info.SuggestedAction)
		}
	}
}

func TestRegistryLookups(t *testing.T) {
	assert.True(t, IsRetryable(CodeRateLimit))
	assert.False(t, IsRetryable(CodeEncoding))
	assert.False(t, IsRetryable("no_such_code"))

	assert.Equal(t, "Unknown error", GetDescription("no_such_code"))
	assert.NotEmpty(t, GetSuggestedAction("no_such_code"))
	assert.Equal(t, "Unit text is not valid UTF-8", GetDescription(CodeEncoding))
}
