package dispatch

import "time"

// SendMark records that the transport accepted a scheduled email. It
// carries what the bookkeeping needs so a crash between the send and the
// status update can be completed without sending again.
type SendMark struct {
	SentAt   time.Time `json:"sent_at"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body"`
	Language string    `json:"language"`
}

func markKey(scheduledEmailID string) string {
	return "sent:" + scheduledEmailID
}
