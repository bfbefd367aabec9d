package ui

import (
	"fmt"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/huddle/internal/presence"
	"github.com/rivo/tview"
)

// PromptMode indicates what the prompt input is for.
type PromptMode int

const (
	PromptCommand PromptMode = iota
	PromptStatusMessage
)

// Prompt is a single-line input bar for commands and the status message.
type Prompt struct {
	*tview.InputField
	theme      *Theme
	mode       PromptMode
	clearAfter int // index into presence.ClearAfterOptions
	onSubmit   func(mode PromptMode, text string)
	onCancel   func()
}

// NewPrompt creates a new prompt input bar.
func NewPrompt(theme *Theme) *Prompt {
	input := tview.NewInputField()
	input.SetBorder(true)
	input.SetBorderColor(theme.PromptBorderColor)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)
	input.SetTitleColor(theme.TitleColor)

	p := &Prompt{
		InputField: input,
		theme:      theme,
	}

	// The status message refuses keystrokes past the limit.
	input.SetAcceptanceFunc(func(text string, _ rune) bool {
		return p.mode != PromptStatusMessage || utf8.RuneCountInString(text) <= presence.MaxMessageLength
	})

	input.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if p.mode == PromptStatusMessage && event.Key() == tcell.KeyTab {
			p.CycleClearAfter()
			return nil
		}
		return event
	})
	input.SetChangedFunc(func(string) {
		if p.mode == PromptStatusMessage {
			p.renderTitle()
		}
	})

	input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			p.submit()
		case tcell.KeyEscape:
			p.SetText("")
			if p.onCancel != nil {
				p.onCancel()
			}
		}
	})

	return p
}

func (p *Prompt) submit() {
	text := p.GetText()
	if p.onSubmit != nil && (text != "" || p.mode == PromptStatusMessage) {
		p.onSubmit(p.mode, text)
	}
	p.SetText("")
}

// SetOnSubmit sets the callback when the prompt is submitted.
func (p *Prompt) SetOnSubmit(fn func(mode PromptMode, text string)) {
	p.onSubmit = fn
}

// SetOnCancel sets the callback when the prompt is cancelled.
func (p *Prompt) SetOnCancel(fn func()) {
	p.onCancel = fn
}

// Activate shows the prompt in the specified mode, seeded with text.
func (p *Prompt) Activate(mode PromptMode, text string) {
	p.mode = mode
	p.clearAfter = 0
	p.SetText(text)
	switch mode {
	case PromptCommand:
		p.SetLabel(":")
		p.SetTitle(" Command ")
	case PromptStatusMessage:
		p.SetLabel("message> ")
		p.renderTitle()
	}
}

// Mode returns the current prompt mode.
func (p *Prompt) Mode() PromptMode {
	return p.mode
}

// CycleClearAfter advances to the next clear-after policy.
func (p *Prompt) CycleClearAfter() {
	p.clearAfter = (p.clearAfter + 1) % len(presence.ClearAfterOptions)
	p.renderTitle()
}

// ClearAfter returns the clear-after policy chosen for the status message.
func (p *Prompt) ClearAfter() presence.ClearAfter {
	return presence.ClearAfterOptions[p.clearAfter]
}

func (p *Prompt) renderTitle() {
	p.SetTitle(fmt.Sprintf(" Status message %d/%d | clear after: %s (Tab) ",
		utf8.RuneCountInString(p.GetText()), presence.MaxMessageLength, p.ClearAfter().Label()))
}
