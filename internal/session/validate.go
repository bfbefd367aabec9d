package session

import (
	"fmt"
	"regexp"
)

// NamePattern is the shape every session name must have. The name becomes a
// directory under the base dir, so path separators and dots are excluded.
const NamePattern = `^[a-z0-9_-]{1,64}$`

var nameRegexp = regexp.MustCompile(NamePattern)

// NameError reports a session name that does not match NamePattern.
type NameError struct {
	Name string
}

func (e *NameError) Error() string {
	return fmt.Sprintf("invalid session name %q: must match %s", e.Name, NamePattern)
}

// ValidateName returns a *NameError when name is not a valid session name.
func ValidateName(name string) error {
	if !nameRegexp.MatchString(name) {
		return &NameError{Name: name}
	}
	return nil
}
