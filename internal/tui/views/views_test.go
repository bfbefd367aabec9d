package views

import (
	"strings"
	"testing"
	"time"

	"github.com/matheus3301/huddle/internal/chat"
	"github.com/matheus3301/huddle/internal/persist"
	"github.com/matheus3301/huddle/internal/presence"
	"github.com/matheus3301/huddle/internal/tui/ui"
)

func TestSanitizeForTerminal(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hello", "hello"},
		{"👍🏽", "👍"},
		{"👨‍👩‍👧", "👨👩👧"},
		{"❤️", "❤"},
	}
	for _, tt := range tests {
		if got := sanitizeForTerminal(tt.in); got != tt.want {
			t.Errorf("sanitizeForTerminal(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("one\ntwo"); got != "one …" {
		t.Errorf("firstLine = %q", got)
	}
	if got := firstLine("single"); got != "single" {
		t.Errorf("firstLine = %q", got)
	}
}

func sampleChats() []chat.Chat {
	ts := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	return []chat.Chat{
		{ID: 2, Name: "Alice Doe", Email: "alice.doe@contoso.com", Selected: true, Messages: []chat.Message{
			{ID: "m1", Message: "see you [tomorrow]", Sender: "Mohd Aasim", Timestamp: ts, Reactions: []string{"👍"},
				Reactors: map[string][]string{"👍": {"Mohd Aasim", "Alice Doe"}}},
		}},
		{ID: 1, Name: "Bob Ray", Email: "bob.ray@contoso.com", Messages: []chat.Message{}},
	}
}

func TestChatListUpdate(t *testing.T) {
	cl := NewChatList(ui.DefaultTheme())
	cl.Update(sampleChats())

	if got := cl.GetRowCount(); got != 3 {
		t.Fatalf("rows = %d, want header + 2", got)
	}
	if got := cl.GetCell(1, 0).Text; !strings.Contains(got, "▶") || !strings.Contains(got, "AD") {
		t.Errorf("selected marker cell = %q", got)
	}
	if got := cl.GetCell(2, 0).Text; strings.Contains(got, "▶") {
		t.Errorf("unselected row marked: %q", got)
	}
	if got := cl.GetCell(1, 2).Text; !strings.Contains(got, "see you") {
		t.Errorf("preview = %q", got)
	}
	if id, ok := cl.CursorChat(); !ok || id != 2 {
		t.Errorf("cursor = %d, %v; want the selected chat", id, ok)
	}
	if _, ok := cl.ChatAt(0); ok {
		t.Error("header row resolved to a chat")
	}
	if id, ok := cl.ChatAt(2); !ok || id != 1 {
		t.Errorf("ChatAt(2) = %d, %v", id, ok)
	}
}

func TestMessageThreadUpdate(t *testing.T) {
	mt := NewMessageThread(ui.DefaultTheme())
	mt.Update(sampleChats()[0], "Mohd Aasim")

	text := mt.Messages().GetText(true)
	if !strings.Contains(text, "You") {
		t.Errorf("own messages not labeled You: %q", text)
	}
	if !strings.Contains(text, "see you [tomorrow]") {
		t.Errorf("message text mangled: %q", text)
	}
	if !strings.Contains(text, "👍 2") {
		t.Errorf("reaction count missing: %q", text)
	}
	if mt.ChatID() != 2 {
		t.Errorf("ChatID = %d", mt.ChatID())
	}

	mt.Update(sampleChats()[1], "Mohd Aasim")
	if !strings.Contains(mt.Messages().GetText(true), "No messages yet") {
		t.Error("empty chat placeholder missing")
	}
}

func TestMessageThreadComposer(t *testing.T) {
	mt := NewMessageThread(ui.DefaultTheme())
	var changed string
	mt.SetOnChange(func(s string) { changed = s })

	mt.Composer().SetText("draft")
	if changed != "draft" {
		t.Errorf("change callback got %q", changed)
	}
	mt.SetDraft("")
	if mt.Composer().GetText() != "" {
		t.Error("SetDraft did not clear the composer")
	}
}

func TestNewChatUpdate(t *testing.T) {
	nc := NewNewChat(ui.DefaultTheme())
	var picked chat.UserRef
	nc.SetOnPick(func(u chat.UserRef) { picked = u })

	nc.Update(chat.View{
		RecipientQuery: "ali",
		Candidates:     []chat.UserRef{{Name: "Alice Doe", Email: "alice.doe@contoso.com"}},
	})
	if nc.Recipient().GetText() != "ali" {
		t.Errorf("recipient = %q", nc.Recipient().GetText())
	}
	if nc.Candidates().GetRowCount() != 1 {
		t.Fatalf("candidate rows = %d", nc.Candidates().GetRowCount())
	}
	if !strings.Contains(nc.Candidates().GetTitle(), "(1)") {
		t.Errorf("title = %q", nc.Candidates().GetTitle())
	}

	nc.Candidates().Select(0, 0)
	nc.onPick(nc.users[0])
	if picked.Email != "alice.doe@contoso.com" {
		t.Errorf("picked = %+v", picked)
	}

	nc.Update(chat.View{ShowGroupNameField: true})
	if nc.GetItemCount() != 3 {
		t.Errorf("items with group field = %d, want 3", nc.GetItemCount())
	}
	if nc.Candidates().GetRowCount() != 0 {
		t.Error("candidates not cleared")
	}
}

func TestStatusBarRender(t *testing.T) {
	sb := NewStatusBar(ui.DefaultTheme())
	sb.now = func() time.Time { return time.Date(2025, 3, 1, 9, 5, 0, 0, time.Local) }
	sb.SetSession("work")
	sb.SetPresence(presence.Snapshot{
		Status:  presence.Busy,
		Color:   presence.Busy.Color(),
		Message: persist.StatusMessage{Text: "heads down"},
	})
	sb.SetHints([]string{"q:quit"})

	text := sb.GetText(true)
	for _, want := range []string{"work", "Busy", "heads down", "09:05", "q:quit"} {
		if !strings.Contains(text, want) {
			t.Errorf("status bar %q missing %q", text, want)
		}
	}

	f := ui.NewFlashModel()
	f.Info("saved")
	sb.SetFlash(f.GetMessage())
	if text := sb.GetText(true); !strings.Contains(text, "saved") || strings.Contains(text, "q:quit") {
		t.Errorf("flash should replace hints: %q", text)
	}
}

func TestPresencePicker(t *testing.T) {
	pp := NewPresencePicker(ui.DefaultTheme())
	pp.Update(presence.Snapshot{Status: presence.AppearAway})

	// six statuses, reset, set message
	if pp.GetItemCount() != len(presence.Statuses)+2 {
		t.Errorf("items = %d", pp.GetItemCount())
	}
	main, _ := pp.GetItemText(4)
	if !strings.Contains(main, "✓") || !strings.Contains(main, "Appear away") {
		t.Errorf("current status row = %q", main)
	}

	pp.Update(presence.Snapshot{Status: presence.Available, Message: persist.StatusMessage{Text: "x"}})
	if pp.GetItemCount() != len(presence.Statuses)+3 {
		t.Errorf("items with message = %d", pp.GetItemCount())
	}
}
