package presence

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/matheus3301/huddle/internal/bus"
	"github.com/matheus3301/huddle/internal/persist"
	"go.uber.org/zap"
)

// MaxMessageLength is the longest status message accepted, in code points.
const MaxMessageLength = 280

// Persister is the durable side of presence.
type Persister interface {
	ReadStatus() (status, color string, err error)
	SaveStatus(status, color string)
	ReadStatusMessage() (persist.StatusMessage, error)
	SaveStatusMessage(m persist.StatusMessage)
}

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Clock supplies the current time and schedules the status message clear.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Snapshot is the payload of presence events.
type Snapshot struct {
	Status  Status
	Color   string
	Message persist.StatusMessage
}

// Manager owns the current user's presence. Reads come from an in-memory
// cache seeded from the store; writes go through to the store and are
// published on the bus under the "presence." namespace.
type Manager struct {
	mu     sync.Mutex
	status Status
	msg    persist.StatusMessage
	gen    uint64
	timer  Timer
	closed bool

	store  Persister
	bus    *bus.Bus
	logger *zap.Logger
	clock  Clock
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// NewManager seeds a manager from st. A nil bus gets a private one so
// Subscribe always works; a nil logger discards output.
func NewManager(st Persister, b *bus.Bus, logger *zap.Logger, opts ...Option) *Manager {
	if b == nil {
		b = bus.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{store: st, bus: b, logger: logger, clock: systemClock{}}
	for _, opt := range opts {
		opt(m)
	}

	m.mu.Lock()
	var err error
	if m.status, err = m.loadStatusLocked(); err != nil {
		m.logger.Warn("storage read failed, using default status", zap.Error(err))
	}
	if m.msg, err = m.loadMessageLocked(); err != nil {
		m.logger.Warn("storage read failed, ignoring status message", zap.Error(err))
	}
	m.armLocked()
	m.mu.Unlock()

	m.logger.Info("presence loaded", zap.String("status", string(m.status)), zap.Bool("message", m.msg.Text != ""))
	return m
}

// loadStatusLocked reads the stored status. An unknown stored value reads as
// Available; the color is always derived from the status.
func (m *Manager) loadStatusLocked() (Status, error) {
	raw, color, err := m.store.ReadStatus()
	if err != nil {
		return Available, err
	}
	st, ok := ParseStatus(raw)
	if !ok {
		m.logger.Warn("unknown stored status, using default", zap.String("status", raw))
		return Available, nil
	}
	if color != st.Color() {
		m.logger.Debug("stored color disagrees with status", zap.String("status", raw), zap.String("color", color))
	}
	return st, nil
}

// loadMessageLocked reads the stored status message. A message longer than
// MaxMessageLength reads as no message.
func (m *Manager) loadMessageLocked() (persist.StatusMessage, error) {
	msg, err := m.store.ReadStatusMessage()
	if err != nil {
		return persist.StatusMessage{}, err
	}
	if n := utf8.RuneCountInString(msg.Text); n > MaxMessageLength {
		m.logger.Warn("stored status message too long, ignoring", zap.Int("length", n))
		return persist.StatusMessage{}, nil
	}
	return msg, nil
}

// SetStatus validates s against the fixed statuses, then persists and
// publishes it with its color. Unknown statuses are ignored and report false.
func (m *Manager) SetStatus(s string) bool {
	st, ok := ParseStatus(s)
	if !ok {
		m.logger.Debug("ignoring unknown status", zap.String("status", s))
		return false
	}

	m.mu.Lock()
	m.status = st
	m.store.SaveStatus(string(st), st.Color())
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.logger.Info("status set", zap.String("status", string(st)))
	m.bus.Emit(bus.KindPresenceChanged, snap)
	return true
}

// ResetStatus sets the status back to Available.
func (m *Manager) ResetStatus() {
	m.SetStatus(string(Available))
}

// SetStatusMessage stores text with its clear-after policy and schedules the
// clear. Text longer than MaxMessageLength code points, or an unknown policy,
// is rejected and reports false. Blank text clears the message.
func (m *Manager) SetStatusMessage(text string, clear ClearAfter) bool {
	if utf8.RuneCountInString(text) > MaxMessageLength {
		m.logger.Debug("status message too long", zap.Int("runes", utf8.RuneCountInString(text)))
		return false
	}
	policy, ok := ParseClearAfter(string(clear))
	if !ok {
		m.logger.Debug("unknown clear-after policy", zap.String("clear_after", string(clear)))
		return false
	}
	if strings.TrimSpace(text) == "" {
		m.ClearStatusMessage()
		return true
	}

	now := m.clock.Now()
	msg := persist.StatusMessage{
		Text:       text,
		ClearAfter: string(policy),
		SetAt:      now.UTC().Truncate(time.Millisecond),
	}
	if exp := policy.Expiry(now); !exp.IsZero() {
		msg.ExpiresAt = exp.UTC().Truncate(time.Millisecond)
	}

	m.mu.Lock()
	m.msg = msg
	m.store.SaveStatusMessage(msg)
	m.armLocked()
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.logger.Info("status message set", zap.String("clear_after", string(policy)), zap.Time("expires_at", msg.ExpiresAt))
	m.bus.Emit(bus.KindPresenceChanged, snap)
	return true
}

// ClearStatusMessage removes the status message and cancels any pending clear.
func (m *Manager) ClearStatusMessage() {
	m.mu.Lock()
	m.msg = persist.StatusMessage{}
	m.store.SaveStatusMessage(m.msg)
	m.armLocked()
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.bus.Emit(bus.KindPresenceChanged, snap)
}

// armLocked bumps the message generation, cancels the pending clear and
// schedules a new one for the current message. A message already past its
// expiry is cleared in place.
func (m *Manager) armLocked() {
	m.gen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if m.closed || m.msg.ExpiresAt.IsZero() {
		return
	}
	d := m.msg.ExpiresAt.Sub(m.clock.Now())
	if d <= 0 {
		m.logger.Info("status message expired", zap.Time("expires_at", m.msg.ExpiresAt))
		m.msg = persist.StatusMessage{}
		m.store.SaveStatusMessage(m.msg)
		return
	}
	gen := m.gen
	m.timer = m.clock.AfterFunc(d, func() { m.expire(gen) })
}

// expire clears the message scheduled under gen, unless it has since been
// replaced or cleared.
func (m *Manager) expire(gen uint64) {
	m.mu.Lock()
	if m.closed || gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	m.gen++
	m.msg = persist.StatusMessage{}
	m.store.SaveStatusMessage(m.msg)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.logger.Info("status message cleared after expiry")
	m.bus.Emit(bus.KindStatusCleared, snap)
	m.bus.Emit(bus.KindPresenceChanged, snap)
}

// Refresh re-reads the store, picking up writes made by another process.
// It publishes and reports true when anything changed. A failed read
// leaves the cached presence untouched.
func (m *Manager) Refresh() bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	st, err := m.loadStatusLocked()
	if err != nil {
		m.mu.Unlock()
		m.logger.Warn("storage read failed, keeping presence", zap.Error(err))
		return false
	}
	msg, err := m.loadMessageLocked()
	if err != nil {
		m.mu.Unlock()
		m.logger.Warn("storage read failed, keeping presence", zap.Error(err))
		return false
	}
	changed := st != m.status || !sameMessage(msg, m.msg)
	if !changed {
		m.mu.Unlock()
		return false
	}
	m.status = st
	if !sameMessage(msg, m.msg) {
		m.msg = msg
		m.armLocked()
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.logger.Debug("presence refreshed from store", zap.String("status", string(st)))
	m.bus.Emit(bus.KindPresenceChanged, snap)
	return true
}

func sameMessage(a, b persist.StatusMessage) bool {
	return a.Text == b.Text && a.ClearAfter == b.ClearAfter &&
		a.SetAt.Equal(b.SetAt) && a.ExpiresAt.Equal(b.ExpiresAt)
}

// Status returns the current status.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// StatusColor returns the color of the current status.
func (m *Manager) StatusColor() string {
	return m.Status().Color()
}

// StatusMessage returns the current status message.
func (m *Manager) StatusMessage() persist.StatusMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.msg
}

// Snapshot returns the status, color and message together.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{Status: m.status, Color: m.status.Color(), Message: m.msg}
}

// Subscribe returns presence events. Call the returned func to unsubscribe.
func (m *Manager) Subscribe(buf int) (<-chan bus.Event, func()) {
	return m.bus.Subscribe("presence.", buf)
}

// Close cancels the pending clear. The manager still answers reads.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}
