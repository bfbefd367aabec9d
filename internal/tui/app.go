package tui

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/huddle/internal/bus"
	"github.com/matheus3301/huddle/internal/chat"
	"github.com/matheus3301/huddle/internal/persist"
	"github.com/matheus3301/huddle/internal/presence"
	"github.com/matheus3301/huddle/internal/tui/keys"
	"github.com/matheus3301/huddle/internal/tui/ui"
	"github.com/matheus3301/huddle/internal/tui/views"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

// Content pages and key scopes.
const (
	pageWelcome  = "welcome"
	pageThread   = "thread"
	pageNew      = "new"
	pageHelp     = "help"
	pagePresence = "presence"
	pageMain     = "main"

	viewChats = "chats"
)

// DefaultReaction is the token added by the react key.
const DefaultReaction = "👍"

// App is the main TUI application shell. It renders the chat and presence
// managers and re-renders whenever they publish on the bus.
type App struct {
	app      *tview.Application
	root     *tview.Pages
	main     *tview.Flex
	content  *ui.Pages
	theme    *ui.Theme
	registry *keys.Registry
	flash    *ui.FlashModel

	chats    *chat.Manager
	presence *presence.Manager
	prefs    *persist.Store
	bus      *bus.Bus
	logger   *zap.Logger
	self     string

	statusBar *views.StatusBar
	chatList  *views.ChatList
	thread    *views.MessageThread
	newChat   *views.NewChat
	help      *views.HelpView
	picker    *views.PresencePicker
	prompt    *ui.Prompt

	promptOpen bool
	focusChats bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application. self is the sender name rendered as "You".
func NewApp(cm *chat.Manager, pm *presence.Manager, prefs *persist.Store, b *bus.Bus, sessionName, self string, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:        tview.NewApplication(),
		root:       tview.NewPages(),
		content:    ui.NewPages(),
		theme:      theme,
		registry:   keys.NewRegistry(),
		flash:      ui.NewFlashModel(),
		chats:      cm,
		presence:   pm,
		prefs:      prefs,
		bus:        b,
		logger:     logger,
		self:       self,
		statusBar:  views.NewStatusBar(theme),
		chatList:   views.NewChatList(theme),
		thread:     views.NewMessageThread(theme),
		newChat:    views.NewNewChat(theme),
		help:       views.NewHelpView(theme),
		picker:     views.NewPresencePicker(theme),
		prompt:     ui.NewPrompt(theme),
		focusChats: true,
		ctx:        ctx,
		cancel:     cancel,
	}

	a.statusBar.SetSession(sessionName)
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	a.refreshChats()
	a.refreshPresence()

	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(&keys.Action{
		Rune: 'q', Key: tcell.KeyRune,
		Description: "q:quit", Visible: true,
		Handler: a.Stop,
	})
	a.registry.AddGlobal(&keys.Action{
		Rune: 'n', Key: tcell.KeyRune,
		Description: "n:new", Visible: true,
		Handler: a.startNewChat,
	})
	a.registry.AddGlobal(&keys.Action{
		Rune: 'p', Key: tcell.KeyRune,
		Description: "p:presence", Visible: true,
		Handler: a.showPresence,
	})
	a.registry.AddGlobal(&keys.Action{
		Rune: 'm', Key: tcell.KeyRune,
		Description: "m:message", Visible: true,
		Handler: a.showStatusMessagePrompt,
	})
	a.registry.AddGlobal(&keys.Action{
		Rune: ':', Key: tcell.KeyRune,
		Description: "::cmd", Visible: true,
		Handler: func() { a.showPrompt(ui.PromptCommand, "") },
	})
	a.registry.AddGlobal(&keys.Action{
		Key:         tcell.KeyTab,
		Description: "tab:focus", Visible: true,
		Handler: func() { a.setFocus(!a.focusChats) },
	})
	a.registry.AddGlobal(&keys.Action{
		Rune: '?', Key: tcell.KeyRune,
		Description: "?:help", Visible: true,
		Handler: a.showHelp,
	})

	a.registry.AddView(viewChats, &keys.Action{
		Rune: 'd', Key: tcell.KeyRune,
		Description: "d:discard", Visible: true,
		Handler: func() {
			if id, ok := a.chatList.CursorChat(); ok {
				a.chats.DiscardChat(id)
				a.flash.Info("Chat discarded")
			}
		},
	})
	a.registry.AddView(viewChats, &keys.Action{
		Key:         tcell.KeyEscape,
		Description: "esc:close", Visible: true,
		Handler: a.chats.CloseChat,
	})

	a.registry.AddView(pageThread, &keys.Action{
		Rune: 'i', Key: tcell.KeyRune,
		Description: "i:write", Visible: true,
		Handler: func() { a.app.SetFocus(a.thread.Composer()) },
	})
	a.registry.AddView(pageThread, &keys.Action{
		Rune: 'r', Key: tcell.KeyRune,
		Description: "r:" + DefaultReaction, Visible: true,
		Handler: func() { a.reactToLast(DefaultReaction) },
	})
	a.registry.AddView(pageThread, &keys.Action{
		Key:         tcell.KeyEscape,
		Description: "esc:back", Visible: true,
		Handler: func() { a.setFocus(true) },
	})

	a.registry.AddView(pageNew, &keys.Action{
		Rune: 'g', Key: tcell.KeyRune,
		Description: "g:group", Visible: true,
		Handler: a.chats.ToggleGroupNameField,
	})
	a.registry.AddView(pageNew, &keys.Action{
		Rune: '/', Key: tcell.KeyRune,
		Description: "/:search", Visible: true,
		Handler: func() { a.app.SetFocus(a.newChat.Recipient()) },
	})
	a.registry.AddView(pageNew, &keys.Action{
		Key:         tcell.KeyEscape,
		Description: "esc:cancel", Visible: true,
		Handler: func() {
			a.chats.CloseChat()
			a.setFocus(true)
		},
	})

	a.registry.AddView(pageWelcome, &keys.Action{
		Key:         tcell.KeyEscape,
		Description: "esc:back", Visible: false,
		Handler: func() { a.setFocus(true) },
	})

	a.registry.AddView(pageHelp, &keys.Action{
		Key:         tcell.KeyEscape,
		Description: "esc:close", Visible: true,
		Handler: func() {
			a.content.Pop()
			a.updateHints()
		},
	})
}

func (a *App) setupCallbacks() {
	a.chatList.SetSelectedFunc(func(row, _ int) {
		if id, ok := a.chatList.ChatAt(row); ok {
			a.chats.SelectChat(id)
			a.setFocus(false)
		}
	})

	a.thread.SetOnChange(a.chats.SetDraftMessage)
	a.thread.SetOnSend(func() {
		if !a.chats.SendDraft() {
			return
		}
		a.thread.SetDraft("")
	})

	a.newChat.SetOnQuery(a.chats.SetRecipientQuery)
	a.newChat.SetOnGroupName(a.chats.SetGroupName)
	a.newChat.SetOnPick(func(u chat.UserRef) {
		a.chats.PickCandidate(u)
		a.refreshChats()
		a.app.SetFocus(a.thread.Composer())
	})
	a.newChat.Recipient().SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter, tcell.KeyDown:
			if a.newChat.Candidates().GetRowCount() > 0 {
				a.app.SetFocus(a.newChat.Candidates())
			}
		case tcell.KeyEscape:
			a.app.SetFocus(a.newChat)
		}
	})

	a.picker.SetOnStatus(func(s presence.Status) {
		a.presence.SetStatus(string(s))
		a.hidePresence()
	})
	a.picker.SetOnReset(func() {
		a.presence.ResetStatus()
		a.hidePresence()
	})
	a.picker.SetOnSetMessage(func() {
		a.hidePresence()
		a.showStatusMessagePrompt()
	})
	a.picker.SetOnClearMessage(func() {
		a.presence.ClearStatusMessage()
		a.hidePresence()
	})
	a.picker.SetDoneFunc(a.hidePresence)

	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.hidePrompt()
		switch mode {
		case ui.PromptCommand:
			if err := a.runCommand(ParseCommand(text)); err != nil {
				a.flash.Err(err)
			}
		case ui.PromptStatusMessage:
			if !a.presence.SetStatusMessage(text, a.prompt.ClearAfter()) {
				a.flash.Warn("Status message not saved")
			}
		}
	})
	a.prompt.SetOnCancel(a.hidePrompt)

	a.content.SetOnChange(func(string) { a.updateHints() })
}

func (a *App) setupLayout() {
	welcome := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	welcome.SetBorder(true)
	welcome.SetBorderColor(a.theme.BorderColor)
	welcome.SetBackgroundColor(a.theme.BgColor)
	welcome.SetText("\n\nSelect a chat, or press [::b]n[::-] to start a new one.")

	a.content.AddPage(pageWelcome, welcome, true, false)
	a.content.AddPage(pageThread, a.thread, true, false)
	a.content.AddPage(pageNew, a.newChat, true, false)
	a.content.AddPage(pageHelp, a.help, true, false)
	a.content.SetBase(pageWelcome)

	body := tview.NewFlex().
		AddItem(a.chatList, 0, 2, true).
		AddItem(a.content, 0, 3, false)

	a.main = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, true).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.statusBar, 1, 0, false)

	modal := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(a.picker, len(presence.Statuses)+5, 0, true).
			AddItem(nil, 0, 1, false), 40, 0, true).
		AddItem(nil, 0, 1, false)

	a.root.AddPage(pageMain, a.main, true, true)
	a.root.AddPage(pagePresence, modal, true, false)

	a.app.SetRoot(a.root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if a.promptOpen {
			return event
		}
		if front, _ := a.root.GetFrontPage(); front == pagePresence {
			return event
		}

		// Text inputs keep their keys; Escape returns to the enclosing view.
		if _, ok := a.app.GetFocus().(*tview.InputField); ok {
			if event.Key() == tcell.KeyEscape && a.content.Current() == pageThread {
				a.app.SetFocus(a.thread.Messages())
				return nil
			}
			return event
		}

		if a.registry.HandleEvent(a.view(), event) {
			return nil
		}
		return event
	})
}

// view names the key scope that currently has focus.
func (a *App) view() string {
	if a.focusChats {
		return viewChats
	}
	return a.content.Current()
}

func (a *App) setFocus(chats bool) {
	a.focusChats = chats
	switch {
	case chats:
		a.chatList.SetBorderColor(a.theme.BorderFocusColor)
		a.app.SetFocus(a.chatList)
	default:
		a.chatList.SetBorderColor(a.theme.BorderColor)
		switch a.content.Current() {
		case pageThread:
			a.app.SetFocus(a.thread.Messages())
		case pageNew:
			a.app.SetFocus(a.newChat.Recipient())
		default:
			a.app.SetFocus(a.content)
		}
	}
	a.updateHints()
}

func (a *App) updateHints() {
	a.statusBar.SetHints(a.registry.Hints(a.view()))
}

// refreshChats re-renders everything derived from the chat manager. The
// right pane follows the selection: a placeholder shows the new-chat form.
func (a *App) refreshChats() {
	v := a.chats.View()
	a.chatList.Update(v.Chats)
	a.newChat.Update(v)

	base := pageWelcome
	if sel, ok := a.chats.Selected(); ok {
		if sel.IsPlaceholder() {
			base = pageNew
		} else {
			base = pageThread
			a.thread.Update(sel, a.self)
			a.thread.SetDraft(v.DraftMessage)
			a.thread.SetCanSend(v.CanSend)
		}
	}
	a.content.SetBase(base)
	if !a.focusChats && base == pageWelcome && a.content.Depth() == 1 {
		a.setFocus(true)
	}
}

func (a *App) refreshPresence() {
	snap := a.presence.Snapshot()
	a.statusBar.SetPresence(snap)
	a.picker.Update(snap)
}

func (a *App) startNewChat() {
	a.chats.NewDraft()
	a.refreshChats()
	a.setFocus(false)
}

func (a *App) reactToLast(token string) {
	sel, ok := a.chats.Selected()
	if !ok {
		return
	}
	last := sel.Last()
	if last == nil {
		return
	}
	if !a.chats.React(sel.ID, last.ID, token) {
		a.flash.Info("Already reacted")
	}
}

func (a *App) showHelp() {
	a.content.Push(pageHelp)
	a.setFocus(false)
}

func (a *App) showPresence() {
	a.picker.Update(a.presence.Snapshot())
	a.root.ShowPage(pagePresence)
	a.app.SetFocus(a.picker)
}

func (a *App) hidePresence() {
	a.root.HidePage(pagePresence)
	a.setFocus(a.focusChats)
}

func (a *App) showStatusMessagePrompt() {
	a.showPrompt(ui.PromptStatusMessage, a.presence.StatusMessage().Text)
}

func (a *App) showPrompt(mode ui.PromptMode, text string) {
	a.prompt.Activate(mode, text)
	a.main.ResizeItem(a.prompt, 3, 0)
	a.promptOpen = true
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	a.main.ResizeItem(a.prompt, 0, 0)
	a.promptOpen = false
	a.setFocus(a.focusChats)
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	if a.prefs != nil && a.prefs.ShouldShowNotificationPrompt() {
		a.flash.Info("Desktop notifications are off. :notifications on to enable")
	}
	a.setFocus(true)

	chatEvents, unsubChats := a.bus.Subscribe("chat.", 64)
	presenceEvents, unsubPresence := a.presence.Subscribe(16)
	go a.eventLoop(chatEvents, presenceEvents)

	err := a.app.Run()
	a.cancel()
	unsubChats()
	unsubPresence()
	return err
}

func (a *App) eventLoop(chatEvents, presenceEvents <-chan bus.Event) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-a.ctx.Done():
			return
		case evt := <-chatEvents:
			a.logger.Debug("chat event", zap.String("kind", evt.Kind))
			a.app.QueueUpdateDraw(a.refreshChats)
		case evt := <-presenceEvents:
			if evt.Kind == bus.KindStatusCleared {
				a.flash.Info("Status message cleared")
			}
			a.app.QueueUpdateDraw(a.refreshPresence)
		case <-a.flash.Watch():
			a.app.QueueUpdateDraw(func() { a.statusBar.SetFlash(a.flash.GetMessage()) })
		case <-ticker.C:
			// Expire the flash and advance the clock.
			a.app.QueueUpdateDraw(func() { a.statusBar.SetFlash(a.flash.GetMessage()) })
		}
	}
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
