package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/huddle/internal/tui/ui"
	"github.com/rivo/tview"
)

// HelpView displays key binding reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{
		TextView: tv,
		theme:    theme,
	}
	hv.render()
	return hv
}

var helpSections = []struct {
	title string
	keys  [][2]string
}{
	{"Global", [][2]string{
		{"n", "New chat"},
		{"p", "Status menu"},
		{"m", "Set status message"},
		{":", "Command mode"},
		{"Tab", "Switch between list and chat"},
		{"?", "Help"},
		{"q", "Quit"},
	}},
	{"Chat list", [][2]string{
		{"Enter", "Open chat"},
		{"d", "Discard chat"},
		{"Esc", "Close the open chat"},
	}},
	{"Chat", [][2]string{
		{"i", "Focus composer"},
		{"Enter", "Send (in composer)"},
		{"r", "React 👍 to the last message"},
		{"Esc", "Back to the list"},
	}},
	{"New chat", [][2]string{
		{"Enter", "Go to results / start chat"},
		{"/", "Focus the recipient search"},
		{"g", "Show or hide the group name"},
		{"Esc", "Cancel the new chat"},
	}},
	{"Commands", [][2]string{
		{":status <name>", "Set status (busy, do-not-disturb, ...)"},
		{":reset", "Reset status to Available"},
		{":message <text>", "Set status message (never clears)"},
		{":message until <p> <text>", "Clear after today, 1hour, 4hours, thisweek"},
		{":clear", "Clear status message"},
		{":notifications on|off", "Desktop notification preference"},
		{":new [query]", "New chat, opened directly on a single match"},
		{":react <emoji>", "React to the last message"},
		{":quit / :q", "Quit"},
	}},
}

func (hv *HelpView) render() {
	kc := ui.ColorTag(hv.theme.MenuKeyColor)
	var b strings.Builder
	for _, s := range helpSections {
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", s.title)
		for _, k := range s.keys {
			fmt.Fprintf(&b, "  [%s]%-28s[-] %s\n", kc, tview.Escape(k[0]), k[1])
		}
	}
	_, _ = fmt.Fprint(hv, b.String())
}
