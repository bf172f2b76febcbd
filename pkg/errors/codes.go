package errors

// ErrorCode classifies a unit-level failure.
type ErrorCode string

const (
	CodeInvalidInput         ErrorCode = "invalid_input"
	CodeClassificationFailed ErrorCode = "classification_failed"
	CodeEncoding             ErrorCode = "encoding_error"
	CodeFetchFailed          ErrorCode = "fetch_failed"
	CodeCorroborationFailed  ErrorCode = "corroboration_failed"
	CodeTimeout              ErrorCode = "timeout"
	CodeContextCancelled     ErrorCode = "context_cancelled"
	CodeRateLimit            ErrorCode = "rate_limit"
	CodeProviderUnavailable  ErrorCode = "provider_unavailable"
	CodePersistenceFailed    ErrorCode = "persistence_failed"
	CodeProcessingError      ErrorCode = "processing_error"
)

// ErrorCodeInfo contains metadata about an error code.
type ErrorCodeInfo struct {
	Code            ErrorCode
	Retryable       bool
	Description     string
	SuggestedAction string
}

// ErrorCodeRegistry maps error codes to their metadata.
var ErrorCodeRegistry = map[ErrorCode]ErrorCodeInfo{
	CodeInvalidInput: {
		Code:            CodeInvalidInput,
		Description:     "Unit input is malformed",
		SuggestedAction: "Check the batch file: every unit needs text or a url",
	},
	CodeClassificationFailed: {
		Code:            CodeClassificationFailed,
		Description:     "Unit text could not be evaluated",
		SuggestedAction: "Re-run with --debug and inspect the unit text",
	},
	CodeEncoding: {
		Code:            CodeEncoding,
		Description:     "Unit text is not valid UTF-8",
		SuggestedAction: "Convert the source to UTF-8 before scoring",
	},
	CodeFetchFailed: {
		Code:            CodeFetchFailed,
		Retryable:       true,
		Description:     "Source page could not be fetched",
		SuggestedAction: "Check the URL is reachable: brandlens fetch <url> --target <target>",
	},
	CodeCorroborationFailed: {
		Code:            CodeCorroborationFailed,
		Description:     "Model judgment could not be parsed",
		SuggestedAction: "Try a different model or disable corroboration",
	},
	CodeTimeout: {
		Code:            CodeTimeout,
		Retryable:       true,
		Description:     "Operation exceeded time limit",
		SuggestedAction: "Raise --timeout or the corroboration timeout in config",
	},
	CodeContextCancelled: {
		Code:            CodeContextCancelled,
		Description:     "Operation cancelled by user or system",
		SuggestedAction: "Check if cancellation was intentional",
	},
	CodeRateLimit: {
		Code:            CodeRateLimit,
		Retryable:       true,
		Description:     "Provider rate limit exceeded",
		SuggestedAction: "Lower corroboration.rate_limit or wait for the quota to reset",
	},
	CodeProviderUnavailable: {
		Code:            CodeProviderUnavailable,
		Retryable:       true,
		Description:     "Model provider unavailable",
		SuggestedAction: "Check corroboration.base_url and provider health",
	},
	CodePersistenceFailed: {
		Code:            CodePersistenceFailed,
		Retryable:       true,
		Description:     "Run could not be stored",
		SuggestedAction: "Check store configuration: brandlens config show",
	},
	CodeProcessingError: {
		Code:            CodeProcessingError,
		Description:     "Unclassified processing error",
		SuggestedAction: "Re-run with --debug for details",
	},
}

// IsRetryable returns true if the code represents a transient failure.
func IsRetryable(code ErrorCode) bool {
	return ErrorCodeRegistry[code].Retryable
}

// GetSuggestedAction returns the suggested action for the given error code.
func GetSuggestedAction(code ErrorCode) string {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.SuggestedAction
	}
	return "Re-run with --debug for details"
}

// GetDescription returns the human-readable description for the given error code.
func GetDescription(code ErrorCode) string {
	if info, ok := ErrorCodeRegistry[code]; ok {
		return info.Description
	}
	return "Unknown error"
}
