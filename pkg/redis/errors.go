package redis

import "errors"

// Errors returned by Open. Parse failures are not retried.
var (
	ErrEmptyConnectionURL = errors.New("redis: empty connection URL")
	ErrFailedToParseURL   = errors.New("redis: connection URL must be redis:// or rediss://")
	ErrConnectionFailed   = errors.New("redis: failed to establish connection")
)

// ErrHealthcheckFailed wraps a failed PING.
var ErrHealthcheckFailed = errors.New("redis: healthcheck failed")
