package bus

import "time"

// Event kinds. Subscribers filter by prefix, so "chat." receives every chat event.
const (
	KindChatsChanged    = "chat.changed"
	KindDraftChanged    = "chat.draft_changed"
	KindPhaseChanged    = "chat.phase_changed"
	KindPresenceChanged = "presence.changed"
	KindStatusCleared   = "presence.message_cleared"
	KindStoreChanged    = "store.changed"
)

// Event represents a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
