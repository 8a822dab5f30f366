package cache

import "errors"

var (
	// ErrNotFound means the key is absent or expired. Callers treat it as
	// a miss, not a failure.
	ErrNotFound = errors.New("cache: entry not found")
	// ErrClosed is returned by a memory cache after Close.
	ErrClosed = errors.New("cache: closed")

	ErrMarshal   = errors.New("cache: encode value")
	ErrUnmarshal = errors.New("cache: decode value")
)
