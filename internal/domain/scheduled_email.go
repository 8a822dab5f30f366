package domain

import "time"

// Status is the lifecycle state of a scheduled email.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusSent || s == StatusFailed || s == StatusCancelled
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPending || s.IsTerminal()
}

// ScheduledEmail is a single planned delivery of a template to a client.
// Subject and Content hold the rendered text and are set only on success.
type ScheduledEmail struct {
	ID           string     `json:"id"`
	ClientID     string     `json:"client_id"`
	TemplateID   string     `json:"template_id"`
	ScheduledAt  time.Time  `json:"scheduled_at"`
	Status       Status     `json:"status"`
	Language     string     `json:"language"`
	Subject      *string    `json:"subject,omitempty"`
	Content      *string    `json:"content,omitempty"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// IsDue reports whether the email is pending and due at now.
func (e ScheduledEmail) IsDue(now time.Time) bool {
	return e.Status == StatusPending && !e.ScheduledAt.After(now)
}

// MarkSent moves the email to sent with the rendered content.
func (e *ScheduledEmail) MarkSent(subject, content string, at time.Time) {
	e.Status = StatusSent
	e.Subject = &subject
	e.Content = &content
	e.SentAt = &at
	e.ErrorMessage = nil
}

// MarkFailed moves the email to failed with a reason.
func (e *ScheduledEmail) MarkFailed(reason string) {
	e.Status = StatusFailed
	e.ErrorMessage = &reason
}

// DueBefore orders due emails by scheduled time, then creation time, then
// id. It is the order a tick processes them in.
func DueBefore(a, b ScheduledEmail) int {
	if c := a.ScheduledAt.Compare(b.ScheduledAt); c != 0 {
		return c
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}
