package persist

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/matheus3301/huddle/internal/chat"
	"github.com/matheus3301/huddle/internal/store"
)

func sampleChats() []chat.Chat {
	ts := time.Date(2025, 3, 1, 9, 30, 0, 123000000, time.UTC)
	return []chat.Chat{
		{
			ID: 1740821400123, Name: "Alice Doe", Email: "alice.doe@contoso.com",
			Recent: true, Selected: true,
			Messages: []chat.Message{
				{ID: "a1", Message: "hello", Sender: "Mohd Aasim", Timestamp: ts, Reactions: []string{}},
				{ID: "a2", Message: "again", Sender: "Mohd Aasim", Timestamp: ts.Add(time.Second),
					Reactions: []string{"👍"}, Reactors: map[string][]string{"👍": {"Mohd Aasim"}}},
			},
		},
		{ID: 1740821400001, Name: "Bob Ray", Email: "bob.ray@contoso.com", Recent: true, Messages: []chat.Message{}},
	}
}

func TestChatsRoundTrip(t *testing.T) {
	s := New(store.NewMemory(), nil)
	want := sampleChats()

	s.SaveChats(want)
	got := s.LoadChats()

	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestChatsRoundTripSQLite(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "huddle.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}

	s := New(db, nil)
	want := sampleChats()
	s.SaveChats(want)
	if got := s.LoadChats(); !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestPersistedLayout(t *testing.T) {
	kv := store.NewMemory()
	s := New(kv, nil)
	s.SaveChats(sampleChats()[1:])

	raw, _, _ := kv.GetItem(KeyChats)
	for _, field := range []string{`"id":1740821400001`, `"name":"Bob Ray"`, `"email":"bob.ray@contoso.com"`,
		`"image":null`, `"recent":true`, `"selected":false`, `"messages":[]`} {
		if !strings.Contains(raw, field) {
			t.Errorf("stored value %s missing %s", raw, field)
		}
	}
}

func TestLoadChatsCorrupt(t *testing.T) {
	for _, raw := range []string{"not json", "{", `{"id":1}`, ""} {
		kv := store.NewMemory()
		_ = kv.SetItem(KeyChats, raw)
		got := New(kv, nil).LoadChats()
		if got == nil || len(got) != 0 {
			t.Errorf("LoadChats(%q) = %v, want empty", raw, got)
		}
	}
}

func TestLoadChatsMissingAndNull(t *testing.T) {
	kv := store.NewMemory()
	s := New(kv, nil)
	if got := s.LoadChats(); got == nil || len(got) != 0 {
		t.Errorf("missing key = %v, want empty", got)
	}
	_ = kv.SetItem(KeyChats, "null")
	if got := s.LoadChats(); got == nil || len(got) != 0 {
		t.Errorf("null value = %v, want empty", got)
	}
}

func TestSaveChatsQuotaKeepsPrevious(t *testing.T) {
	kv := store.NewMemory()
	s := New(kv, nil)
	small := sampleChats()[1:]
	s.SaveChats(small)
	before, _, _ := kv.GetItem(KeyChats)

	kv.Quota = len(KeyChats) + len(before)
	s.SaveChats(sampleChats())

	after, _, _ := kv.GetItem(KeyChats)
	if after != before {
		t.Error("failed write replaced the stored value")
	}
}

func TestClearChats(t *testing.T) {
	kv := store.NewMemory()
	s := New(kv, nil)
	s.SaveChats(sampleChats())
	s.ClearChats()
	if _, ok, _ := kv.GetItem(KeyChats); ok {
		t.Error("key still present")
	}
}

func TestStatusDefaultsAndRoundTrip(t *testing.T) {
	kv := store.NewMemory()
	s := New(kv, nil)

	status, color := s.LoadStatus()
	if status != DefaultStatus || color != DefaultStatusColor {
		t.Errorf("defaults = %q %q", status, color)
	}

	s.SaveStatus("Busy", "#D92C2C")
	status, color = s.LoadStatus()
	if status != "Busy" || color != "#D92C2C" {
		t.Errorf("LoadStatus = %q %q", status, color)
	}

	_ = kv.RemoveItem(KeyStatusColor)
	if _, color = s.LoadStatus(); color != DefaultStatusColor {
		t.Errorf("color without key = %q", color)
	}
}

func TestStatusMessage(t *testing.T) {
	kv := store.NewMemory()
	s := New(kv, nil)

	if m := s.LoadStatusMessage(); m.Text != "" {
		t.Errorf("empty store message = %+v", m)
	}

	set := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	want := StatusMessage{Text: "heads down", ClearAfter: "1hour", SetAt: set, ExpiresAt: set.Add(time.Hour)}
	s.SaveStatusMessage(want)
	if got := s.LoadStatusMessage(); !reflect.DeepEqual(got, want) {
		t.Errorf("LoadStatusMessage = %+v, want %+v", got, want)
	}

	s.SaveStatusMessage(StatusMessage{})
	if _, ok, _ := kv.GetItem(KeyStatusMessage); ok {
		t.Error("empty message should remove the key")
	}

	_ = kv.SetItem(KeyStatusMessage, "###")
	if m := s.LoadStatusMessage(); m.Text != "" {
		t.Errorf("corrupt message = %+v", m)
	}
}

func TestNotificationPreference(t *testing.T) {
	kv := store.NewMemory()
	s := New(kv, nil)

	if !s.ShouldShowNotificationPrompt() || s.NotificationsEnabled() {
		t.Error("unset preference should prompt and be disabled")
	}
	s.SetNotifications(false)
	if !s.ShouldShowNotificationPrompt() {
		t.Error("declined preference should still prompt")
	}
	s.SetNotifications(true)
	if s.ShouldShowNotificationPrompt() || !s.NotificationsEnabled() {
		t.Error("enabled preference should not prompt")
	}
	if v, _, _ := kv.GetItem(KeyNotifications); v != "true" {
		t.Errorf("stored = %q, want true", v)
	}
}

// TestManagerOverStore exercises the chat manager against the real store and
// checks a reload sees the committed state.
func TestManagerOverStore(t *testing.T) {
	kv := store.NewMemory()
	self := chat.UserRef{Name: "Mohd Aasim", Email: "mfsi.aasim.m@gmail.com"}

	m := chat.NewManager(self, New(kv, nil), nil)
	id := m.CreateOrOpenChat(chat.UserRef{Name: "Alice Doe", Email: "alice.doe@contoso.com"})
	m.SendMessage("first")
	m.NewDraft()

	reloaded := chat.NewManager(self, New(kv, nil), nil)
	chats := reloaded.Chats()
	if len(chats) != 2 {
		t.Fatalf("reloaded %d chats, want alice and the selected draft", len(chats))
	}
	if chats[1].ID != id || len(chats[1].Messages) != 1 {
		t.Errorf("alice chat = %+v", chats[1])
	}
	if !chats[0].IsPlaceholder() || !chats[0].Selected {
		t.Errorf("draft = %+v, want selected placeholder", chats[0])
	}
}

// TestReactOnListWithoutMessageIDs loads a list in the reference layout,
// which carries no message ids, and reacts to its last message.
func TestReactOnListWithoutMessageIDs(t *testing.T) {
	kv := store.NewMemory()
	raw := `[{"id":1740821400123,"name":"Alice Doe","email":"alice.doe@contoso.com","recent":true,"selected":true,` +
		`"messages":[{"message":"hello","sender":"Alice Doe","timestamp":"2025-03-01T09:30:00.123Z","reactions":[]},` +
		`{"message":"again","sender":"Alice Doe","timestamp":"2025-03-01T09:31:00.000Z","reactions":[]}]}]`
	if err := kv.SetItem(KeyChats, raw); err != nil {
		t.Fatal(err)
	}

	m := chat.NewManager(chat.UserRef{Name: "Mohd Aasim", Email: "mfsi.aasim.m@gmail.com"}, New(kv, nil), nil)
	m.SelectChat(1740821400123)
	sel, ok := m.Selected()
	if !ok {
		t.Fatal("no selection")
	}
	if !m.React(sel.ID, sel.Last().ID, "👍") {
		t.Fatal("reaction to the last message refused")
	}

	msgs := New(kv, nil).LoadChats()[0].Messages
	if len(msgs[0].Reactions) != 0 {
		t.Errorf("first message reactions = %v", msgs[0].Reactions)
	}
	if strings.Join(msgs[1].Reactions, ",") != "👍" {
		t.Errorf("last message reactions = %v", msgs[1].Reactions)
	}
	if msgs[0].ID == "" || msgs[0].ID == msgs[1].ID {
		t.Errorf("saved ids = %q, %q", msgs[0].ID, msgs[1].ID)
	}
}

func TestReadErrorsSurface(t *testing.T) {
	kv := store.NewMemory()
	s := New(kv, nil)
	s.SaveStatus("Busy", "#D92C2C")
	kv.FailReads(errors.New("disk I/O error"))

	if _, _, err := s.ReadStatus(); err == nil {
		t.Error("ReadStatus hid the read error")
	}
	if _, err := s.ReadStatusMessage(); err == nil {
		t.Error("ReadStatusMessage hid the read error")
	}
	if status, _ := s.LoadStatus(); status != DefaultStatus {
		t.Errorf("LoadStatus = %q, want the default", status)
	}
}
