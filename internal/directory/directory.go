// Package directory provides the read-only table of users a chat can be
// started with.
package directory

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/matheus3301/huddle/internal/chat"
)

// Directory is an immutable list of users.
type Directory struct {
	users []chat.UserRef
}

// file is the on-disk layout: a list of [[user]] tables.
type file struct {
	Users []chat.UserRef `toml:"user"`
}

// New builds a directory from users, dropping entries without an email and
// later duplicates of an email.
func New(users []chat.UserRef) *Directory {
	seen := make(map[string]bool, len(users))
	out := make([]chat.UserRef, 0, len(users))
	for _, u := range users {
		u.Name = strings.TrimSpace(u.Name)
		u.Email = strings.TrimSpace(u.Email)
		key := strings.ToLower(u.Email)
		if u.Email == "" || seen[key] {
			continue
		}
		seen[key] = true
		if u.Name == "" {
			u.Name = u.Email
		}
		out = append(out, u)
	}
	return &Directory{users: out}
}

// Load reads a directory file. An empty path yields the built-in directory.
func Load(path string) (*Directory, error) {
	if path == "" {
		return Builtin(), nil
	}
	var f file
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("load directory %s: %w", path, err)
	}
	return New(f.Users), nil
}

// Users returns a copy of the directory entries.
func (d *Directory) Users() []chat.UserRef {
	return append([]chat.UserRef(nil), d.users...)
}

// Len returns the number of entries.
func (d *Directory) Len() int { return len(d.users) }

// Lookup returns the entry with email, ignoring case.
func (d *Directory) Lookup(email string) (chat.UserRef, bool) {
	for _, u := range d.users {
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return chat.UserRef{}, false
}

var _ chat.Directory = (*Directory)(nil)
