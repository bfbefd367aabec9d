package chat

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// MinQueryLen is the shortest recipient query that triggers a directory search.
const MinQueryLen = 3

// Directory is a read-only table of users that can start a chat.
type Directory interface {
	Users() []UserRef
}

// SearchUsers returns the directory entries whose email contains query,
// ignoring case. Queries shorter than MinQueryLen (after trimming) match nothing.
func SearchUsers(dir Directory, query string) []UserRef {
	q := strings.TrimSpace(query)
	if dir == nil || utf8.RuneCountInString(q) < MinQueryLen {
		return nil
	}
	// A Caser is stateful; never share one across calls.
	fold := cases.Fold()
	needle := fold.String(q)

	var out []UserRef
	for _, u := range dir.Users() {
		if strings.Contains(fold.String(u.Email), needle) {
			out = append(out, u)
		}
	}
	return out
}
