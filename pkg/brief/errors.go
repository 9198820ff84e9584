package brief

import "errors"

var (
	// ErrInvalidAddress means the query holds no syntactically valid EVM address.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrResolutionFailure means the chain node could not be reached and no probe classified the target.
	ErrResolutionFailure = errors.New("target resolution failed")

	// ErrSourceUnavailable wraps any single provider failure or timeout.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrNarrativeDegraded marks an unusable LLM narrative.
	ErrNarrativeDegraded = errors.New("narrative degraded")
)
