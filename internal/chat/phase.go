package chat

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// Discarded is the terminal phase of a chat removed from the list.
const Discarded Phase = "DISCARDED"

// validTransitions defines the phase changes a chat may go through.
// A new chat enters as Draft or SelectedEmpty.
var validTransitions = map[Phase][]Phase{
	Draft:         {SelectedEmpty, Discarded},
	SelectedEmpty: {Draft, Active, Discarded},
	Active:        {Idle, Discarded},
	Idle:          {Active, Discarded},
	Discarded:     nil,
}

// CheckTransition returns an error if a chat may not move from one phase to
// the other.
func CheckTransition(from, to Phase) error {
	if !slices.Contains(validTransitions[from], to) {
		return fmt.Errorf("invalid chat transition from %s to %s", from, to)
	}
	return nil
}

// PhaseChange is the payload of phase change events.
type PhaseChange struct {
	ChatID int64
	From   Phase
	To     Phase
}

// trackPhasesLocked records each chat's phase and returns the changes since
// the previous call. Chats no longer listed are reported as Discarded.
func (m *Manager) trackPhasesLocked() []PhaseChange {
	next := make(map[int64]Phase, len(m.chats))
	var changes []PhaseChange
	for i := range m.chats {
		c := &m.chats[i]
		to := c.Phase()
		next[c.ID] = to
		from, known := m.phases[c.ID]
		if !known || from == to {
			continue
		}
		if err := CheckTransition(from, to); err != nil {
			m.logger.Warn("unexpected chat transition", zap.Int64("chat_id", c.ID), zap.Error(err))
		}
		changes = append(changes, PhaseChange{ChatID: c.ID, From: from, To: to})
	}
	for id, from := range m.phases {
		if _, ok := next[id]; !ok {
			changes = append(changes, PhaseChange{ChatID: id, From: from, To: Discarded})
		}
	}
	m.phases = next
	return changes
}
