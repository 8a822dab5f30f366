package templates

import "errors"

var (
	ErrInvalidFileName    = errors.New("template file name must be <key>.<lang>.md")
	ErrMissingSubject     = errors.New("template file has no subject")
	ErrConflictingPrimary = errors.New("more than one language is marked primary")
	ErrNoTemplates        = errors.New("no template files found")
)
