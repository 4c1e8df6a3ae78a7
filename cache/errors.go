package cache

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a Cache wraps one of these sentinels,
// so callers classify failures with errors.Is instead of matching strings.
var (
	// ErrInvalidArgument marks malformed keys, malformed domain names and
	// values the codec cannot represent. Raised before any I/O happens.
	ErrInvalidArgument = errors.New("cache: invalid argument")

	// ErrOperationFailed marks failures the cache cannot absorb: the backend
	// refused a write, delete or clear, or the storage root was not writable
	// at construction. The cause is wrapped and stays matchable with
	// errors.Is; the operation is never retried internally.
	ErrOperationFailed = errors.New("cache: operation failed")

	// ErrNoLoader is returned by GetOrLoad when no Loader was configured.
	ErrNoLoader = errors.New("cache: no Loader provided")
)

// invalidf builds an ErrInvalidArgument with formatted detail.
func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// opFailed wraps a failure under ErrOperationFailed while keeping the cause
// matchable, so errors.Is(err, ErrOperationFailed) and
// errors.Is(err, fs.ErrPermission) can both hold for one error.
func opFailed(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrOperationFailed, op, err)
}
