// Package chat holds the chat session state: the chat list, the current
// selection, the new-chat draft flow and message sending.
package chat

import (
	"strings"
	"time"
)

// PlaceholderName is the display name of a draft chat with no recipient yet.
const PlaceholderName = "New chat"

// UserRef identifies a directory entry.
type UserRef struct {
	Name  string `json:"name" toml:"name"`
	Email string `json:"email" toml:"email"`
}

// Message is a single chat message. Reactions keeps the token list shape of
// the persisted layout; Reactors records which senders added each token.
type Message struct {
	ID        string              `json:"id,omitempty"`
	Message   string              `json:"message"`
	Sender    string              `json:"sender"`
	Timestamp time.Time           `json:"timestamp"`
	Reactions []string            `json:"reactions"`
	Reactors  map[string][]string `json:"reactors,omitempty"`
}

// Chat is a conversation thread with one counterpart or group.
type Chat struct {
	ID       int64     `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Image    *string   `json:"image"`
	Recent   bool      `json:"recent"`
	Selected bool      `json:"selected"`
	Messages []Message `json:"messages"`
}

// IsPlaceholder reports whether c is a draft created before a recipient was chosen.
func (c *Chat) IsPlaceholder() bool {
	return c.Email == "" && (c.Name == "" || c.Name == PlaceholderName)
}

// abandoned placeholders are garbage: no recipient and nothing sent.
func (c *Chat) abandoned() bool {
	return c.IsPlaceholder() && len(c.Messages) == 0
}

// Last returns the most recent message, or nil.
func (c *Chat) Last() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// Phase is the derived lifecycle state of a chat.
type Phase string

const (
	Draft         Phase = "DRAFT"          // unselected, no messages
	SelectedEmpty Phase = "SELECTED_EMPTY" // selected, no messages
	Active        Phase = "ACTIVE"         // selected, at least one message
	Idle          Phase = "IDLE"           // unselected, at least one message
)

// Phase derives the chat's lifecycle state.
func (c *Chat) Phase() Phase {
	switch {
	case len(c.Messages) == 0 && c.Selected:
		return SelectedEmpty
	case len(c.Messages) == 0:
		return Draft
	case c.Selected:
		return Active
	default:
		return Idle
	}
}

// Initials returns the upper-cased first letter of each space-separated part of name.
func Initials(name string) string {
	var b strings.Builder
	for _, part := range strings.Split(name, " ") {
		for _, r := range part {
			b.WriteRune(r)
			break
		}
	}
	return strings.ToUpper(b.String())
}

func (m Message) clone() Message {
	out := m
	out.Reactions = append([]string{}, m.Reactions...)
	if m.Reactors != nil {
		out.Reactors = make(map[string][]string, len(m.Reactors))
		for k, v := range m.Reactors {
			out.Reactors[k] = append([]string(nil), v...)
		}
	}
	return out
}

func (c Chat) clone() Chat {
	out := c
	out.Messages = make([]Message, len(c.Messages))
	for i, m := range c.Messages {
		out.Messages[i] = m.clone()
	}
	return out
}

func cloneAll(chats []Chat) []Chat {
	out := make([]Chat, len(chats))
	for i, c := range chats {
		out[i] = c.clone()
	}
	return out
}
