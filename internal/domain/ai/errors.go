package ai

import "errors"

var (
	// ErrQuotaExceeded indicates the provider rejected the call with a quota/limit error (HTTP 429).
	ErrQuotaExceeded = errors.New("ai quota exceeded")
	// ErrEmptyResponse indicates the provider returned no choices.
	ErrEmptyResponse = errors.New("ai returned an empty response")
)
