package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/matheus3301/huddle/internal/presence"
	"github.com/matheus3301/huddle/internal/tui/ui"
	"github.com/rivo/tview"
)

// StatusBar shows the session, the user's presence and transient messages.
type StatusBar struct {
	*tview.TextView
	theme    *ui.Theme
	session  string
	presence presence.Snapshot
	hints    []string
	flash    *ui.FlashMessage
	now      func() time.Time
}

// NewStatusBar creates a new status bar.
func NewStatusBar(theme *ui.Theme) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.StatusBarBg)

	return &StatusBar{TextView: tv, theme: theme, now: time.Now}
}

// SetSession updates the session name display.
func (sb *StatusBar) SetSession(name string) {
	sb.session = name
	sb.render()
}

// SetPresence updates the presence segment.
func (sb *StatusBar) SetPresence(p presence.Snapshot) {
	sb.presence = p
	sb.render()
}

// SetHints updates the key hints.
func (sb *StatusBar) SetHints(hints []string) {
	sb.hints = hints
	sb.render()
}

// SetFlash sets a temporary message; nil clears it.
func (sb *StatusBar) SetFlash(msg *ui.FlashMessage) {
	sb.flash = msg
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()

	dot := ui.ColorTag(ui.HexColor(sb.presence.Color, sb.theme.MutedColor))
	line := fmt.Sprintf(" [::b]%s[-:-:-] | [%s]●[-] %s", display(sb.session), dot, display(string(sb.presence.Status)))
	if msg := sb.presence.Message; msg.Text != "" {
		line += fmt.Sprintf(" [%s]“%s”[-]", ui.ColorTag(sb.theme.MutedColor), display(firstLine(msg.Text)))
		if !msg.ExpiresAt.IsZero() {
			line += fmt.Sprintf(" [%s](until %s)[-]", ui.ColorTag(sb.theme.MutedColor), msg.ExpiresAt.Local().Format("Mon 15:04"))
		}
	}
	line += " | " + sb.now().Format("15:04")
	if f := sb.flash.Render(sb.theme); f != "" {
		line += " | " + f
	} else if len(sb.hints) > 0 {
		line += fmt.Sprintf(" | [%s]%s[-]", ui.ColorTag(sb.theme.MenuKeyColor), tview.Escape(strings.Join(sb.hints, " ")))
	}

	_, _ = fmt.Fprint(sb, line)
}
