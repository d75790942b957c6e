package analyses

import "errors"

var (
	// ErrInvalidJSON means the LLM output could not be parsed as JSON.
	ErrInvalidJSON = errors.New("llm returned invalid JSON")
	// ErrMissingField means a required result field is absent or mistyped.
	ErrMissingField = errors.New("llm response missing required field")
	// ErrUpstreamTimeout means the completion call exceeded its deadline.
	ErrUpstreamTimeout = errors.New("llm request timed out")
)

const (
	ErrorCodeValidation  = "validation_error"
	ErrorCodeLLMTimeout  = "llm_timeout"
	ErrorCodeLLMSchema   = "llm_schema_mismatch"
	ErrorCodeUpstream    = "upstream_error"
	ErrorCodeInternal    = "internal_error"
	ErrorCodeRateLimited = "rate_limited"
)
