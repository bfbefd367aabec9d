package views

import (
	"fmt"

	"github.com/matheus3301/huddle/internal/presence"
	"github.com/matheus3301/huddle/internal/tui/ui"
	"github.com/rivo/tview"
)

// PresencePicker lists the statuses plus the reset and status message actions.
type PresencePicker struct {
	*tview.List
	theme *ui.Theme

	onStatus       func(s presence.Status)
	onReset        func()
	onSetMessage   func()
	onClearMessage func()
}

// NewPresencePicker creates the presence menu.
func NewPresencePicker(theme *ui.Theme) *PresencePicker {
	list := tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)
	list.SetBorder(true)
	list.SetBorderColor(theme.BorderFocusColor)
	list.SetBackgroundColor(theme.BgColor)
	list.SetMainTextColor(theme.FgColor)
	list.SetSelectedTextColor(theme.TableCursorFg)
	list.SetSelectedBackgroundColor(theme.TableCursorBg)
	list.SetTitle(" Status ")
	list.SetTitleColor(theme.TitleColor)

	pp := &PresencePicker{List: list, theme: theme}
	pp.Update(presence.Snapshot{})
	return pp
}

// SetOnStatus sets the callback when a status is chosen.
func (pp *PresencePicker) SetOnStatus(fn func(s presence.Status)) { pp.onStatus = fn }

// SetOnReset sets the callback for "Reset status".
func (pp *PresencePicker) SetOnReset(fn func()) { pp.onReset = fn }

// SetOnSetMessage sets the callback for "Set status message".
func (pp *PresencePicker) SetOnSetMessage(fn func()) { pp.onSetMessage = fn }

// SetOnClearMessage sets the callback for "Clear status message".
func (pp *PresencePicker) SetOnClearMessage(fn func()) { pp.onClearMessage = fn }

// Update rebuilds the menu, marking the current status.
func (pp *PresencePicker) Update(cur presence.Snapshot) {
	keep := pp.GetCurrentItem()
	pp.Clear()

	for i, st := range presence.Statuses {
		mark := " "
		if st == cur.Status {
			mark = "✓"
		}
		label := fmt.Sprintf("%s [%s]●[-] %s", mark, st.Color(), st)
		pp.AddItem(label, "", rune('1'+i), func() {
			if pp.onStatus != nil {
				pp.onStatus(st)
			}
		})
	}
	pp.AddItem("  Reset status", "", 'r', func() {
		if pp.onReset != nil {
			pp.onReset()
		}
	})
	pp.AddItem("  Set status message", "", 'm', func() {
		if pp.onSetMessage != nil {
			pp.onSetMessage()
		}
	})
	if cur.Message.Text != "" {
		pp.AddItem("  Clear status message", "", 'c', func() {
			if pp.onClearMessage != nil {
				pp.onClearMessage()
			}
		})
	}

	if keep < pp.GetItemCount() {
		pp.SetCurrentItem(keep)
	}
}
