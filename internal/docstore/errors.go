package docstore

import (
	"context"
	"errors"
	"fmt"
)

// Failure taxonomy. Backends and the adapter wrap one of these with %w so
// callers can match with errors.Is.
var (
	ErrInvalidRecord         = errors.New("invalid record")
	ErrNotFound              = errors.New("document not found")
	ErrStoreUnavailable      = errors.New("document store unavailable")
	ErrDeserializationFailed = errors.New("document deserialization failed")
)

// ErrWatchUnsupported is returned by Watch on backends that cannot observe external changes.
var ErrWatchUnsupported = errors.New("backend does not support watching")

// classify maps any error to the taxonomy. Errors already carrying a sentinel
// pass through; everything else, including context expiry, is a transport failure.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrInvalidRecord),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, ErrDeserializationFailed):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}

// IsTimeout reports whether err came from an expired or cancelled context.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// Kind returns a short label for an error, used in metrics and HTTP mapping.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidRecord):
		return "invalid_record"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrDeserializationFailed):
		return "deserialization_failed"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "error"
	}
}
