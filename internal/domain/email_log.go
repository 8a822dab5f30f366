package domain

import "time"

// LogStatus is the delivery state recorded in an EmailLog.
type LogStatus string

const (
	LogStatusSent      LogStatus = "sent"
	LogStatusDelivered LogStatus = "delivered"
	LogStatusOpened    LogStatus = "opened"
	LogStatusClicked   LogStatus = "clicked"
	LogStatusBounced   LogStatus = "bounced"
	LogStatusFailed    LogStatus = "failed"
)

// EmailLog is an audit entry for an email handed to the transport.
// TemplateID and ScheduledEmailID are weak references.
type EmailLog struct {
	ID               string     `json:"id"`
	ClientID         string     `json:"client_id"`
	TemplateID       *string    `json:"template_id,omitempty"`
	ScheduledEmailID *string    `json:"scheduled_email_id,omitempty"`
	Subject          string     `json:"subject"`
	Status           LogStatus  `json:"status"`
	Language         string     `json:"language"`
	SentAt           time.Time  `json:"sent_at"`
	DeliveredAt      *time.Time `json:"delivered_at,omitempty"`
	OpenedAt         *time.Time `json:"opened_at,omitempty"`
	ErrorMessage     *string    `json:"error_message,omitempty"`
}
