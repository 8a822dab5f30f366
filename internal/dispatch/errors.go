package dispatch

import "errors"

// Error messages stored on failed records.
const (
	MsgNotFound           = "Client or template not found"
	MsgContentUnavailable = "Template content not available for language: %s"
	MsgSendFailed         = "Failed to send email"
)

var (
	ErrTransport = errors.New("transport failure")
	ErrPanic     = errors.New("dispatch panic")
)
