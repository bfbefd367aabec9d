package tui

import (
	"fmt"
	"strings"

	"github.com/matheus3301/huddle/internal/presence"
)

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a command string (without the leading ':').
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	parts := strings.SplitN(input, " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}

// runCommand executes a prompt command against the managers.
func (a *App) runCommand(cmd Command) error {
	switch cmd.Name {
	case "q", "quit":
		a.Stop()
	case "help":
		a.showHelp()
	case "status":
		if cmd.Args == "" {
			a.showPresence()
			return nil
		}
		if !a.presence.SetStatus(cmd.Args) {
			return fmt.Errorf("unknown status %q", cmd.Args)
		}
	case "reset":
		a.presence.ResetStatus()
	case "message":
		return a.commandMessage(cmd.Args)
	case "clear":
		a.presence.ClearStatusMessage()
	case "notifications":
		switch strings.ToLower(cmd.Args) {
		case "on":
			a.prefs.SetNotifications(true)
			a.flash.Info("Desktop notifications on")
		case "off":
			a.prefs.SetNotifications(false)
			a.flash.Info("Desktop notifications off")
		default:
			return fmt.Errorf("usage: notifications on|off")
		}
	case "new":
		a.commandNew(cmd.Args)
	case "react":
		if cmd.Args == "" {
			return fmt.Errorf("usage: react <emoji>")
		}
		a.reactToLast(cmd.Args)
	case "":
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd.Name)
	}
	return nil
}

// commandMessage handles "message [until <policy>] <text>". With no text it
// opens the status message prompt.
func (a *App) commandMessage(args string) error {
	if args == "" {
		a.showStatusMessagePrompt()
		return nil
	}
	after := presence.Never
	if rest, ok := strings.CutPrefix(args, "until "); ok {
		policy, text, _ := strings.Cut(strings.TrimSpace(rest), " ")
		p, ok := presence.ParseClearAfter(policy)
		if !ok {
			return fmt.Errorf("unknown clear-after %q", policy)
		}
		after, args = p, strings.TrimSpace(text)
	}
	if !a.presence.SetStatusMessage(args, after) {
		return fmt.Errorf("status message longer than %d characters", presence.MaxMessageLength)
	}
	return nil
}

// commandNew opens the chat with the single directory match for query, or
// starts a draft with query as the recipient search.
func (a *App) commandNew(query string) {
	if query != "" {
		if found := a.chats.SearchUsers(query); len(found) == 1 {
			a.chats.CreateOrOpenChat(found[0])
			a.refreshChats()
			a.setFocus(false)
			return
		}
	}
	a.chats.NewDraft()
	if query != "" {
		a.chats.SetRecipientQuery(query)
	}
	a.refreshChats()
	a.setFocus(false)
}
