package concert

import "errors"

var (
	// ErrSourceUnavailable marks a network, auth or decoding failure while
	// talking to an external service.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrNotFound marks a lookup that completed without a match. It is a
	// valid outcome that callers answer with a fallback.
	ErrNotFound = errors.New("not found")
)
