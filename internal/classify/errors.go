package classify

import "errors"

// Construction errors. The session must not start when any of these is returned.
var (
	ErrConfiguration = errors.New("invalid classifier configuration")
	ErrMalformedItem = errors.New("malformed item")
)

// Per-decision errors. Cursor and counts are left untouched.
var (
	ErrInvalidLabel = errors.New("invalid label")
	ErrSinkWrite    = errors.New("result row could not be written")
)

// ErrContentUnavailable is returned when a provider could not fetch or show
// an item. The item still becomes current.
var ErrContentUnavailable = errors.New("content unavailable")

// Lifecycle errors.
var (
	ErrNotStarted          = errors.New("session not started")
	ErrAlreadyStarted      = errors.New("session already started")
	ErrSessionComplete     = errors.New("session complete")
	ErrFallbackUnsupported = errors.New("content provider has no fallback source")
)
