package domain

import "errors"

var (
	// ErrNotFound is returned by stores when an entity does not exist.
	ErrNotFound = errors.New("not found")

	ErrInvalidClient           = errors.New("invalid client")
	ErrInvalidTemplate         = errors.New("invalid template")
	ErrPrimaryLanguageRequired = errors.New("primary language must have subject and content")
)
