package presence

import (
	"strings"
	"time"
)

// ClearAfter is the policy for automatically clearing a status message.
type ClearAfter string

const (
	Never     ClearAfter = "never"
	Today     ClearAfter = "today"
	OneHour   ClearAfter = "1hour"
	FourHours ClearAfter = "4hours"
	ThisWeek  ClearAfter = "thisweek"
)

// ClearAfterOptions lists every policy in menu order.
var ClearAfterOptions = []ClearAfter{Never, Today, OneHour, FourHours, ThisWeek}

var clearAfterLabels = map[ClearAfter]string{
	Never:     "Never",
	Today:     "Today",
	OneHour:   "1 hour",
	FourHours: "4 hours",
	ThisWeek:  "This week",
}

// ParseClearAfter accepts a policy key or its label ("4 hours"). Empty means Never.
func ParseClearAfter(s string) (ClearAfter, bool) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if key == "" {
		return Never, true
	}
	for _, c := range ClearAfterOptions {
		if key == string(c) {
			return c, true
		}
	}
	return "", false
}

// Label returns the display text of the policy.
func (c ClearAfter) Label() string {
	if l, ok := clearAfterLabels[c]; ok {
		return l
	}
	return string(c)
}

// Expiry returns the instant a message set at t should be cleared, or the
// zero time for Never. Calendar policies use t's location.
func (c ClearAfter) Expiry(t time.Time) time.Time {
	switch c {
	case OneHour:
		return t.Add(time.Hour)
	case FourHours:
		return t.Add(4 * time.Hour)
	case Today:
		y, m, d := t.Date()
		return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
	case ThisWeek:
		// next Monday 00:00; a Monday rolls to the following one.
		days := (8 - int(t.Weekday())) % 7
		if days == 0 {
			days = 7
		}
		y, m, d := t.Date()
		return time.Date(y, m, d+days, 0, 0, 0, 0, t.Location())
	default:
		return time.Time{}
	}
}
