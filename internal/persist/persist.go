// Package persist maps the chat list, presence and preferences onto string
// keys of a store.Storage, JSON-encoding structured values. Nothing here
// returns an error to callers: corrupt data reads as absent and failed writes
// are logged, leaving the previously stored value in place.
package persist

import (
	"encoding/json"
	"time"

	"github.com/matheus3301/huddle/internal/chat"
	"github.com/matheus3301/huddle/internal/store"
	"go.uber.org/zap"
)

// Storage keys.
const (
	KeyChats         = "teams_chats"
	KeyNotifications = "teams_desktop_notifications_enabled"
	KeyStatus        = "teams_user_status"
	KeyStatusColor   = "teams_user_status_color"
	KeyStatusMessage = "teams_user_status_message"
)

// Defaults used when presence keys are absent.
const (
	DefaultStatus      = "Available"
	DefaultStatusColor = "#6BB700"
)

// StatusMessage is the persisted form of the user's status message.
type StatusMessage struct {
	Text       string    `json:"text"`
	ClearAfter string    `json:"clearAfter"`
	SetAt      time.Time `json:"setAt"`
	ExpiresAt  time.Time `json:"expiresAt,omitzero"`
}

// Store is the persisted store over a key-value medium.
type Store struct {
	kv     store.Storage
	logger *zap.Logger
}

// New creates a Store. A nil logger discards output.
func New(kv store.Storage, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kv: kv, logger: logger}
}

// LoadChats reads the chat list, returning an empty list when the key is
// missing or its value cannot be decoded.
func (s *Store) LoadChats() []chat.Chat {
	raw, ok := s.get(KeyChats)
	if !ok {
		return []chat.Chat{}
	}
	var chats []chat.Chat
	if err := json.Unmarshal([]byte(raw), &chats); err != nil {
		s.logger.Warn("corrupt chat list, starting empty", zap.String("key", KeyChats), zap.Error(err))
		return []chat.Chat{}
	}
	if chats == nil {
		return []chat.Chat{}
	}
	return chats
}

// SaveChats writes the chat list.
func (s *Store) SaveChats(chats []chat.Chat) {
	if chats == nil {
		chats = []chat.Chat{}
	}
	data, err := json.Marshal(chats)
	if err != nil {
		s.logger.Warn("encode chat list", zap.Error(err))
		return
	}
	s.set(KeyChats, string(data))
}

// ClearChats removes the chat list.
func (s *Store) ClearChats() {
	if err := s.kv.RemoveItem(KeyChats); err != nil {
		s.logger.Warn("clear chat list", zap.Error(err))
	}
}

// LoadStatus returns the stored status and color, falling back to the
// defaults for whichever key is absent or unreadable.
func (s *Store) LoadStatus() (status, color string) {
	status, color, err := s.ReadStatus()
	if err != nil {
		s.logger.Warn("storage read failed, using default status", zap.Error(err))
	}
	return status, color
}

// ReadStatus is LoadStatus for callers that must tell an absent key from a
// failed read. On error the defaults are returned alongside it.
func (s *Store) ReadStatus() (status, color string, err error) {
	status, color = DefaultStatus, DefaultStatusColor
	v, ok, err := s.kv.GetItem(KeyStatus)
	if err != nil {
		return DefaultStatus, DefaultStatusColor, err
	}
	if ok && v != "" {
		status = v
	}
	v, ok, err = s.kv.GetItem(KeyStatusColor)
	if err != nil {
		return DefaultStatus, DefaultStatusColor, err
	}
	if ok && v != "" {
		color = v
	}
	return status, color, nil
}

// SaveStatus writes the status and its color.
func (s *Store) SaveStatus(status, color string) {
	s.set(KeyStatus, status)
	s.set(KeyStatusColor, color)
}

// LoadStatusMessage returns the stored status message, or the zero value.
func (s *Store) LoadStatusMessage() StatusMessage {
	m, err := s.ReadStatusMessage()
	if err != nil {
		s.logger.Warn("storage read failed, ignoring status message", zap.Error(err))
	}
	return m
}

// ReadStatusMessage is LoadStatusMessage reporting storage read errors.
// A corrupt value is not an error; it reads as no message.
func (s *Store) ReadStatusMessage() (StatusMessage, error) {
	raw, ok, err := s.kv.GetItem(KeyStatusMessage)
	if err != nil {
		return StatusMessage{}, err
	}
	if !ok {
		return StatusMessage{}, nil
	}
	var m StatusMessage
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		s.logger.Warn("corrupt status message, ignoring", zap.String("key", KeyStatusMessage), zap.Error(err))
		return StatusMessage{}, nil
	}
	return m, nil
}

// SaveStatusMessage writes m, or removes the key when m has no text.
func (s *Store) SaveStatusMessage(m StatusMessage) {
	if m.Text == "" {
		if err := s.kv.RemoveItem(KeyStatusMessage); err != nil {
			s.logger.Warn("clear status message", zap.Error(err))
		}
		return
	}
	data, err := json.Marshal(m)
	if err != nil {
		s.logger.Warn("encode status message", zap.Error(err))
		return
	}
	s.set(KeyStatusMessage, string(data))
}

// ShouldShowNotificationPrompt reports whether the desktop notification
// banner should be offered: the preference is unset or was declined.
func (s *Store) ShouldShowNotificationPrompt() bool {
	v, ok := s.get(KeyNotifications)
	return !ok || v == "false"
}

// NotificationsEnabled reports whether notifications were turned on.
func (s *Store) NotificationsEnabled() bool {
	v, ok := s.get(KeyNotifications)
	return ok && v == "true"
}

// SetNotifications records the notification preference.
func (s *Store) SetNotifications(enabled bool) {
	v := "false"
	if enabled {
		v = "true"
	}
	s.set(KeyNotifications, v)
}

func (s *Store) get(key string) (string, bool) {
	v, ok, err := s.kv.GetItem(key)
	if err != nil {
		s.logger.Warn("storage read failed", zap.String("key", key), zap.Error(err))
		return "", false
	}
	return v, ok
}

func (s *Store) set(key, value string) {
	if err := s.kv.SetItem(key, value); err != nil {
		s.logger.Warn("storage write failed", zap.String("key", key), zap.Int("bytes", len(value)), zap.Error(err))
	}
}
