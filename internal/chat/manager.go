package chat

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/huddle/internal/bus"
	"go.uber.org/zap"
)

// Persister is the durable side of the chat list. Implementations fail soft:
// LoadChats returns an empty list on any problem and SaveChats logs errors.
type Persister interface {
	LoadChats() []Chat
	SaveChats(chats []Chat)
}

// View is a snapshot of the manager state for rendering.
type View struct {
	Chats              []Chat
	SelectedID         int64
	HasSelection       bool
	RecipientQuery     string
	DraftMessage       string
	GroupName          string
	ShowGroupNameField bool
	Candidates         []UserRef
	CanSend            bool
}

// Manager is the in-memory source of truth for the chat list. Every committed
// mutation is written through to the Persister and announced on the bus.
// All operations are total: unknown ids, blank text and the like are no-ops.
type Manager struct {
	mu sync.Mutex

	chats      []Chat
	selectedID int64
	hasSel     bool

	recipientQuery     string
	draftMessage       string
	groupName          string
	showGroupNameField bool
	candidates         []UserRef
	phases             map[int64]Phase

	self   UserRef
	store  Persister
	dir    Directory
	bus    *bus.Bus
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source used for ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithBus publishes change events on b.
func WithBus(b *bus.Bus) Option {
	return func(m *Manager) { m.bus = b }
}

// WithLogger sets the manager's logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager loads the persisted chat list and returns a manager acting as self.
func NewManager(self UserRef, store Persister, dir Directory, opts ...Option) *Manager {
	m := &Manager{
		self:   self,
		store:  store,
		dir:    dir,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	m.chats = normalize(store.LoadChats())
	m.trackPhasesLocked()
	for _, c := range m.chats {
		if c.Selected {
			m.selectedID, m.hasSel = c.ID, true
			break
		}
	}
	m.logger.Info("chat list loaded", zap.Int("chats", len(m.chats)), zap.Bool("selection", m.hasSel))
	return m
}

// normalize enforces the list invariants on data read back from storage:
// one selected chat at most, one chat per id and per email, no abandoned
// placeholders, non-nil reactions and an id on every message.
func normalize(chats []Chat) []Chat {
	out := make([]Chat, 0, len(chats))
	ids := make(map[int64]bool)
	emails := make(map[string]bool)
	seen := false
	for _, c := range chats {
		if ids[c.ID] {
			continue
		}
		ids[c.ID] = true
		if c.Email != "" {
			if emails[c.Email] {
				continue
			}
			emails[c.Email] = true
		}
		if c.Selected {
			if seen {
				c.Selected = false
			}
			seen = true
		}
		if c.abandoned() && !c.Selected {
			continue
		}
		for i := range c.Messages {
			if c.Messages[i].Reactions == nil {
				c.Messages[i].Reactions = []string{}
			}
			if c.Messages[i].ID == "" {
				c.Messages[i].ID = uuid.New().String()
			}
		}
		if c.Messages == nil {
			c.Messages = []Message{}
		}
		out = append(out, c)
	}
	return out
}

// CreateOrOpenChat opens the chat with u.Email if one exists, otherwise
// creates a selected chat for u at the top of the list. An empty u starts a
// placeholder draft. Returns the id of the opened or created chat.
func (m *Manager) CreateOrOpenChat(u UserRef) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u.Email != "" {
		if i := m.indexByEmail(u.Email); i >= 0 {
			id := m.chats[i].ID
			m.selectLocked(id)
			return id
		}
	}

	name := u.Name
	if name == "" {
		name = PlaceholderName
	}
	c := Chat{
		ID:       m.nextID(),
		Name:     name,
		Email:    u.Email,
		Recent:   true,
		Selected: true,
		Messages: []Message{},
	}

	rest := make([]Chat, 0, len(m.chats)+1)
	rest = append(rest, c)
	for _, existing := range m.chats {
		if existing.abandoned() {
			continue
		}
		existing.Selected = false
		rest = append(rest, existing)
	}
	m.chats = rest
	m.selectedID, m.hasSel = c.ID, true

	m.logger.Info("chat created", zap.Int64("chat_id", c.ID), zap.String("email", c.Email))
	m.commitLocked()
	return c.ID
}

// NewDraft starts the compose-new flow with a placeholder chat.
func (m *Manager) NewDraft() int64 {
	return m.CreateOrOpenChat(UserRef{})
}

// SelectChat makes id the single selected chat and drops other abandoned
// placeholders. Unknown ids are ignored.
func (m *Manager) SelectChat(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selectLocked(id)
}

func (m *Manager) selectLocked(id int64) {
	i := m.indexByID(id)
	if i < 0 {
		return
	}
	m.recipientQuery = ""
	if !m.chats[i].IsPlaceholder() {
		m.recipientQuery = m.chats[i].Name
	}
	m.candidates = nil

	kept := m.chats[:0]
	for _, c := range m.chats {
		c.Selected = c.ID == id
		if c.abandoned() && !c.Selected {
			continue
		}
		kept = append(kept, c)
	}
	m.chats = kept
	m.selectedID, m.hasSel = id, true
	m.commitLocked()
}

// CloseChat clears the selection without discarding anything. An abandoned
// placeholder that was selected is garbage-collected.
func (m *Manager) CloseChat() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasSel {
		return
	}
	kept := m.chats[:0]
	for _, c := range m.chats {
		c.Selected = false
		if c.abandoned() {
			continue
		}
		kept = append(kept, c)
	}
	m.chats = kept
	m.selectedID, m.hasSel = 0, false
	m.recipientQuery = ""
	m.commitLocked()
}

// DiscardChat removes the chat with id. Unknown ids are ignored.
func (m *Manager) DiscardChat(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexByID(id)
	if i < 0 {
		return
	}
	m.chats = append(m.chats[:i], m.chats[i+1:]...)
	if m.hasSel && m.selectedID == id {
		m.selectedID, m.hasSel = 0, false
	}
	m.recipientQuery = ""
	m.logger.Info("chat discarded", zap.Int64("chat_id", id))
	m.commitLocked()
}

// SendMessage appends text from self to the selected chat. It reports false,
// changing nothing, when text is blank or no chat is selected.
func (m *Manager) SendMessage(text string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.TrimSpace(text) == "" || !m.hasSel {
		return false
	}
	i := m.indexByID(m.selectedID)
	if i < 0 {
		return false
	}

	ts := m.now().UTC().Truncate(time.Millisecond)
	if last := m.chats[i].Last(); last != nil && ts.Before(last.Timestamp) {
		ts = last.Timestamp
	}
	m.chats[i].Messages = append(m.chats[i].Messages, Message{
		ID:        uuid.New().String(),
		Message:   text,
		Sender:    m.self.Name,
		Timestamp: ts,
		Reactions: []string{},
	})
	m.draftMessage = ""
	m.commitLocked()
	return true
}

// SendDraft sends the current draft message.
func (m *Manager) SendDraft() bool {
	m.mu.Lock()
	text := m.draftMessage
	m.mu.Unlock()
	return m.SendMessage(text)
}

// React adds token to a message on behalf of self. A sender adds a given
// token at most once; repeats and unknown targets report false.
func (m *Manager) React(chatID int64, messageID, token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	token = strings.TrimSpace(token)
	i := m.indexByID(chatID)
	if i < 0 || token == "" || messageID == "" {
		return false
	}
	msgs := m.chats[i].Messages
	for j := range msgs {
		if msgs[j].ID != messageID {
			continue
		}
		msg := &msgs[j]
		for _, who := range msg.Reactors[token] {
			if who == m.self.Name {
				return false
			}
		}
		if msg.Reactors == nil {
			msg.Reactors = make(map[string][]string)
		}
		if len(msg.Reactors[token]) == 0 {
			msg.Reactions = append(msg.Reactions, token)
		}
		msg.Reactors[token] = append(msg.Reactors[token], m.self.Name)
		m.commitLocked()
		return true
	}
	return false
}

// SearchUsers returns directory matches for query; see SearchUsers.
func (m *Manager) SearchUsers(query string) []UserRef {
	return SearchUsers(m.dir, query)
}

// SetRecipientQuery updates the recipient field and refreshes the candidates.
func (m *Manager) SetRecipientQuery(q string) {
	found := SearchUsers(m.dir, q)
	m.mu.Lock()
	m.recipientQuery = q
	m.candidates = found
	m.mu.Unlock()
	m.bus.Emit(bus.KindDraftChanged, nil)
}

// PickCandidate starts or opens a chat with u from the recipient search.
func (m *Manager) PickCandidate(u UserRef) int64 {
	id := m.CreateOrOpenChat(u)
	m.mu.Lock()
	m.recipientQuery = u.Name
	m.candidates = nil
	m.mu.Unlock()
	m.bus.Emit(bus.KindDraftChanged, nil)
	return id
}

// SetDraftMessage updates the composer text.
func (m *Manager) SetDraftMessage(text string) {
	m.mu.Lock()
	m.draftMessage = text
	m.mu.Unlock()
	m.bus.Emit(bus.KindDraftChanged, nil)
}

// SetGroupName updates the group name field of the new-chat form.
func (m *Manager) SetGroupName(name string) {
	m.mu.Lock()
	m.groupName = name
	m.mu.Unlock()
	m.bus.Emit(bus.KindDraftChanged, nil)
}

// ToggleGroupNameField shows or hides the group name field.
func (m *Manager) ToggleGroupNameField() {
	m.mu.Lock()
	m.showGroupNameField = !m.showGroupNameField
	m.mu.Unlock()
	m.bus.Emit(bus.KindDraftChanged, nil)
}

// RecipientQuery returns the recipient field of the new-chat form.
func (m *Manager) RecipientQuery() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recipientQuery
}

// DraftMessage returns the composer text.
func (m *Manager) DraftMessage() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draftMessage
}

// GroupName returns the group name field.
func (m *Manager) GroupName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.groupName
}

// ShowGroupNameField reports whether the group name field is shown.
func (m *Manager) ShowGroupNameField() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.showGroupNameField
}

// Candidates returns the directory matches for the recipient query.
func (m *Manager) Candidates() []UserRef {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]UserRef(nil), m.candidates...)
}

// Chats returns a copy of the chat list, newest first.
func (m *Manager) Chats() []Chat {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneAll(m.chats)
}

// Selected returns a copy of the selected chat.
func (m *Manager) Selected() (Chat, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasSel {
		return Chat{}, false
	}
	i := m.indexByID(m.selectedID)
	if i < 0 {
		return Chat{}, false
	}
	return m.chats[i].clone(), true
}

// View returns a snapshot of everything a rendering surface needs.
func (m *Manager) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return View{
		Chats:              cloneAll(m.chats),
		SelectedID:         m.selectedID,
		HasSelection:       m.hasSel,
		RecipientQuery:     m.recipientQuery,
		DraftMessage:       m.draftMessage,
		GroupName:          m.groupName,
		ShowGroupNameField: m.showGroupNameField,
		Candidates:         append([]UserRef(nil), m.candidates...),
		CanSend:            m.hasSel && strings.TrimSpace(m.draftMessage) != "",
	}
}

// commitLocked writes the list through to storage and announces the change.
func (m *Manager) commitLocked() {
	persisted := make([]Chat, 0, len(m.chats))
	for _, c := range m.chats {
		if c.abandoned() && !c.Selected {
			continue
		}
		persisted = append(persisted, c.clone())
	}
	m.store.SaveChats(persisted)
	for _, pc := range m.trackPhasesLocked() {
		m.logger.Debug("chat phase changed", zap.Int64("chat_id", pc.ChatID), zap.String("from", string(pc.From)), zap.String("to", string(pc.To)))
		m.bus.Emit(bus.KindPhaseChanged, pc)
	}
	m.bus.Emit(bus.KindChatsChanged, len(m.chats))
}

func (m *Manager) nextID() int64 {
	id := m.now().UnixMilli()
	for m.indexByID(id) >= 0 {
		id++
	}
	return id
}

func (m *Manager) indexByID(id int64) int {
	for i := range m.chats {
		if m.chats[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) indexByEmail(email string) int {
	for i := range m.chats {
		if m.chats[i].Email == email {
			return i
		}
	}
	return -1
}
