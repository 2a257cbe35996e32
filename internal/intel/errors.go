package intel

import "errors"

// Failure modes of the core fetch. Core failures propagate to the caller;
// the deep fetch absorbs the same conditions into an empty result instead.
var (
	// ErrEmptyResponse means the reasoning service returned no text.
	ErrEmptyResponse = errors.New("empty response from reasoning service")

	// ErrMalformedResponse means text was present but contained no
	// parseable JSON object.
	ErrMalformedResponse = errors.New("no valid JSON object in response")

	// ErrInvalidTimeValues means the parsed object is missing required
	// drive or walk time estimates, or reports them as zero.
	ErrInvalidTimeValues = errors.New("missing or zero time values in response")
)
