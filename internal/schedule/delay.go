package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Delay is a symbolic offset from the moment an email is scheduled.
type Delay string

const (
	DelayImmediate Delay = "immediate"
	DelayOneDay    Delay = "1day"
	DelayOneWeek   Delay = "1week"
	DelayOneMonth  Delay = "1month"
)

// immediateLead keeps an "immediate" email pending for at least one tick
// so it can still be cancelled.
const immediateLead = time.Minute

// Delays lists every accepted delay.
var Delays = []Delay{DelayImmediate, DelayOneDay, DelayOneWeek, DelayOneMonth}

// Valid reports whether d is a known delay.
func (d Delay) Valid() bool {
	switch d {
	case DelayImmediate, DelayOneDay, DelayOneWeek, DelayOneMonth:
		return true
	}
	return false
}

// ParseDelay accepts the delay symbols case-insensitively, with or without
// inner spaces ("1 day").
func ParseDelay(s string) (Delay, error) {
	d := Delay(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", ""))
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDelay, s)
	}
	return d, nil
}

// ResolveDueTime returns the due time for delay relative to now. Days and
// weeks are calendar arithmetic in now's location. A month keeps the day
// of month and clock; when the day does not exist in the next month the
// result is the end of that month's last day, which keeps the function
// monotonic. Unknown delays resolve like immediate; validate with
// ParseDelay first.
func ResolveDueTime(delay Delay, now time.Time) time.Time {
	switch delay {
	case DelayOneDay:
		return now.AddDate(0, 0, 1)
	case DelayOneWeek:
		return now.AddDate(0, 0, 7)
	case DelayOneMonth:
		return addMonthClamped(now)
	default:
		return now.Add(immediateLead)
	}
}

func addMonthClamped(now time.Time) time.Time {
	y, m, d := now.Date()
	// Day 0 of the month after next is the last day of next month.
	last := time.Date(y, m+2, 0, 0, 0, 0, 0, now.Location()).Day()
	if d > last {
		return time.Date(y, m+1, last, 23, 59, 59, int(time.Second-time.Nanosecond), now.Location())
	}
	h, mi, s := now.Clock()
	return time.Date(y, m+1, d, h, mi, s, now.Nanosecond(), now.Location())
}
