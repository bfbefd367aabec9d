// Package presence tracks the current user's availability status and status
// message, persisting both and announcing every change on the bus.
package presence

import "strings"

// Status is one of the fixed availability states.
type Status string

const (
	Available     Status = "Available"
	Busy          Status = "Busy"
	DoNotDisturb  Status = "Do not disturb"
	BeRightBack   Status = "Be right back"
	AppearAway    Status = "Appear away"
	AppearOffline Status = "Appear offline"
)

// Statuses lists every status in menu order.
var Statuses = []Status{Available, Busy, DoNotDisturb, BeRightBack, AppearAway, AppearOffline}

// statusColors maps each status to its indicator color.
var statusColors = map[Status]string{
	Available:     "#6BB700",
	Busy:          "#D92C2C",
	DoNotDisturb:  "#D92C2C",
	BeRightBack:   "#F8C73E",
	AppearAway:    "#F8C73E",
	AppearOffline: "#8A8886",
}

// ParseStatus accepts a status name in any case, or its slug form
// ("do-not-disturb").
func ParseStatus(s string) (Status, bool) {
	s = strings.TrimSpace(s)
	for _, st := range Statuses {
		if strings.EqualFold(s, string(st)) || strings.EqualFold(s, st.Slug()) {
			return st, true
		}
	}
	return "", false
}

// Color returns the indicator color, or "" for an unknown status.
func (s Status) Color() string {
	return statusColors[s]
}

// Slug returns the lower-case, hyphenated form used on the command line.
func (s Status) Slug() string {
	return strings.ReplaceAll(strings.ToLower(string(s)), " ", "-")
}
