package views

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/huddle/internal/chat"
	"github.com/matheus3301/huddle/internal/tui/ui"
	"github.com/rivo/tview"
)

// ChatList is the chat list table, newest chat first.
type ChatList struct {
	*tview.Table
	theme *ui.Theme
	chats []chat.Chat
}

// NewChatList creates a new chat list table.
func NewChatList(theme *ui.Theme) *ChatList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitle(" Chats ")
	table.SetTitleColor(theme.TitleColor)

	return &ChatList{Table: table, theme: theme}
}

// Update refreshes the list. The cursor follows the selected chat when there is one.
func (cl *ChatList) Update(chats []chat.Chat) {
	cl.chats = chats
	cl.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{"", 0},
		{" NAME", 1},
		{" LAST MESSAGE", 2},
		{" TIME", 0},
	}
	for col, h := range headers {
		cl.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetBackgroundColor(cl.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp))
	}

	for i, c := range chats {
		row := i + 1
		marker := " "
		if c.Selected {
			marker = "▶"
		}
		preview, ts := "", ""
		if last := c.Last(); last != nil {
			preview = firstLine(last.Message)
			ts = formatTimestamp(last.Timestamp)
		}

		cl.SetCell(row, 0, tview.NewTableCell(fmt.Sprintf("%s %-2s", marker, chat.Initials(c.Name))).
			SetTextColor(cl.theme.PeerColor))
		cl.SetCell(row, 1, tview.NewTableCell(" "+display(c.Name)).SetExpansion(1).SetMaxWidth(30).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 2, tview.NewTableCell(" "+display(preview)).SetExpansion(2).SetMaxWidth(40).SetTextColor(cl.theme.MutedColor))
		cl.SetCell(row, 3, tview.NewTableCell(ts).SetAlign(tview.AlignRight).SetTextColor(cl.theme.MutedColor))

		if c.Selected {
			cl.Select(row, 0)
		}
	}

	cl.SetTitle(fmt.Sprintf(" Chats (%d) ", len(chats)))
}

// ChatAt returns the id of the chat on row.
func (cl *ChatList) ChatAt(row int) (int64, bool) {
	idx := row - 1 // account for header
	if idx < 0 || idx >= len(cl.chats) {
		return 0, false
	}
	return cl.chats[idx].ID, true
}

// CursorChat returns the id of the chat under the cursor.
func (cl *ChatList) CursorChat() (int64, bool) {
	row, _ := cl.GetSelection()
	return cl.ChatAt(row)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.Local()
	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("01/02")
}
