package views

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/huddle/internal/chat"
	"github.com/matheus3301/huddle/internal/tui/ui"
	"github.com/rivo/tview"
)

// MessageThread displays the selected chat's messages and the composer.
type MessageThread struct {
	*tview.Flex
	theme    *ui.Theme
	messages *tview.TextView
	composer *tview.InputField
	chatID   int64
	onSend   func()
	onChange func(text string)
}

// NewMessageThread creates a new message thread view.
func NewMessageThread(theme *ui.Theme) *MessageThread {
	messages := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	messages.SetBorder(true)
	messages.SetBorderColor(theme.BorderColor)
	messages.SetBackgroundColor(theme.BgColor)
	messages.SetTextColor(theme.FgColor)
	messages.SetTitle(" Messages ")
	messages.SetTitleColor(theme.TitleColor)

	composer := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	composer.SetBorder(true)
	composer.SetBorderColor(theme.BorderColor)
	composer.SetBackgroundColor(theme.BgColor)
	composer.SetFieldBackgroundColor(theme.BgColor)
	composer.SetFieldTextColor(theme.FgColor)
	composer.SetLabelColor(theme.MutedColor)
	composer.SetTitle(" Type a message (i to focus) ")
	composer.SetTitleColor(theme.TitleColor)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(messages, 0, 1, true).
		AddItem(composer, 3, 0, false)

	mt := &MessageThread{
		Flex:     flex,
		theme:    theme,
		messages: messages,
		composer: composer,
	}

	composer.SetChangedFunc(func(text string) {
		if mt.onChange != nil {
			mt.onChange(text)
		}
	})
	composer.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && mt.onSend != nil {
			mt.onSend()
		}
	})

	return mt
}

// SetOnSend sets the callback for Enter in the composer.
func (mt *MessageThread) SetOnSend(fn func()) {
	mt.onSend = fn
}

// SetOnChange sets the callback for composer edits.
func (mt *MessageThread) SetOnChange(fn func(text string)) {
	mt.onChange = fn
}

// SetCanSend shows whether Enter would send the composer text.
func (mt *MessageThread) SetCanSend(ok bool) {
	if ok {
		mt.composer.SetLabelColor(mt.theme.MenuKeyColor)
	} else {
		mt.composer.SetLabelColor(mt.theme.MutedColor)
	}
}

// SetDraft replaces the composer text when it differs from draft.
func (mt *MessageThread) SetDraft(draft string) {
	if mt.composer.GetText() != draft {
		mt.composer.SetText(draft)
	}
}

// ChatID returns the id of the chat on display.
func (mt *MessageThread) ChatID() int64 {
	return mt.chatID
}

// Update renders c, oldest message first. self is the sender name shown as "You".
func (mt *MessageThread) Update(c chat.Chat, self string) {
	scroll := c.ID != mt.chatID
	mt.chatID = c.ID
	mt.messages.SetTitle(fmt.Sprintf(" %s ", display(c.Name)))
	mt.messages.Clear()

	if len(c.Messages) == 0 {
		_, _ = fmt.Fprintf(mt.messages, "\n  [%s]No messages yet. Press i and say hello to %s.[-]",
			ui.ColorTag(mt.theme.MutedColor), display(c.Name))
		return
	}

	for _, m := range c.Messages {
		sender, color := m.Sender, mt.theme.PeerColor
		if m.Sender == self {
			sender, color = "You", mt.theme.SelfColor
		}
		_, _ = fmt.Fprintf(mt.messages, "[%s::b]%s[-:-:-] [%s]%s[-]\n%s\n",
			ui.ColorTag(color), display(sender),
			ui.ColorTag(mt.theme.MutedColor), formatTimestamp(m.Timestamp),
			display(m.Message))
		if r := renderReactions(m); r != "" {
			_, _ = fmt.Fprintf(mt.messages, "%s\n", r)
		}
		_, _ = fmt.Fprint(mt.messages, "\n")
	}

	if scroll {
		mt.messages.ScrollToEnd()
	}
}

// renderReactions shows each token with its count, in first-use order.
func renderReactions(m chat.Message) string {
	parts := make([]string, 0, len(m.Reactions))
	for _, tok := range m.Reactions {
		n := len(m.Reactors[tok])
		if n <= 1 {
			parts = append(parts, display(tok))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %d", display(tok), n))
	}
	return strings.Join(parts, "  ")
}

// Messages returns the messages text view (for focus management).
func (mt *MessageThread) Messages() *tview.TextView {
	return mt.messages
}

// Composer returns the composer input field (for focus management).
func (mt *MessageThread) Composer() *tview.InputField {
	return mt.composer
}
