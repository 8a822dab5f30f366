package schedule

import "errors"

var (
	ErrInvalidDelay  = errors.New("invalid delay")
	ErrInvalidParams = errors.New("invalid schedule parameters")
	ErrNotPending    = errors.New("scheduled email is not pending")
)
