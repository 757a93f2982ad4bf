package highlights

import "errors"

// Caller-correctable rejections returned by the registry. They cross the
// module boundary as result status codes, never as transport faults.
var (
	ErrAlreadyHighlighted = errors.New("highlights: already highlighted")
	ErrHighlightNotFound  = errors.New("highlights: highlight not found")
	ErrAccessDenied       = errors.New("highlights: access denied")
)

// Wire status codes for the rejections above. Zero is reserved for success.
const (
	CodeAlreadyHighlighted uint8 = 1
	CodeHighlightNotFound  uint8 = 2
	CodeAccessDenied       uint8 = 3
)

// StatusFromError maps a registry rejection to its wire code. The second
// return is false for errors that are not application-level rejections.
func StatusFromError(err error) (uint8, bool) {
	switch {
	case errors.Is(err, ErrAlreadyHighlighted):
		return CodeAlreadyHighlighted, true
	case errors.Is(err, ErrHighlightNotFound):
		return CodeHighlightNotFound, true
	case errors.Is(err, ErrAccessDenied):
		return CodeAccessDenied, true
	default:
		return 0, false
	}
}

// ErrorFromStatus is the inverse of StatusFromError, used by callers to
// rehydrate the registry error behind a nonzero result status.
func ErrorFromStatus(code uint8) error {
	switch code {
	case CodeAlreadyHighlighted:
		return ErrAlreadyHighlighted
	case CodeHighlightNotFound:
		return ErrHighlightNotFound
	case CodeAccessDenied:
		return ErrAccessDenied
	default:
		return errors.New("highlights: unknown status code")
	}
}
