package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/matheus3301/huddle/internal/app"
	"github.com/matheus3301/huddle/internal/chat"
	"github.com/matheus3301/huddle/internal/config"
	"github.com/matheus3301/huddle/internal/directory"
	"github.com/matheus3301/huddle/internal/persist"
	"github.com/matheus3301/huddle/internal/presence"
	"github.com/matheus3301/huddle/internal/session"
	"github.com/matheus3301/huddle/internal/store"
	"go.uber.org/fx"
)

// core is what a command gets to work with.
type core struct {
	chats    *chat.Manager
	presence *presence.Manager
	prefs    *persist.Store
	dir      *directory.Directory
	db       *store.DB
	json     bool
}

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName(sessionName); err != nil {
		fail(err)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	if args[0] == "config" {
		if len(args) != 2 || args[1] != "init" {
			usage("huddlectl config init")
		}
		path := session.ConfigPath()
		created, err := initConfig(path)
		if err != nil {
			fail(err)
		}
		if created {
			fmt.Printf("Wrote %s\n", path)
		} else {
			fmt.Printf("%s already exists\n", path)
		}
		return
	}

	cfg, err := config.LoadOrDefault(session.ConfigPath())
	if err != nil {
		fail(fmt.Errorf("config: %w", err))
	}

	var run func(c *core) error
	writer := false
	switch args[0] {
	case "status":
		run = func(c *core) error { return cmdStatus(c, args[1:]) }
	case "chats":
		writer = len(args) > 1 && args[1] != "list"
		run = func(c *core) error { return cmdChats(c, args[1:]) }
	case "users":
		if len(args) < 3 || args[1] != "search" {
			usage("huddlectl users search <query>")
		}
		run = func(c *core) error { return cmdUsersSearch(c, strings.Join(args[2:], " ")) }
	case "notifications":
		run = func(c *core) error { return cmdNotifications(c, args[1:]) }
	case "keys":
		run = cmdKeys
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}

	if err := withCore(app.Params{
		SessionName:  sessionName,
		Config:       cfg,
		HoldChatLock: writer,
		Quiet:        true,
	}, *jsonFlag, run); err != nil {
		fail(err)
	}
}

// withCore starts the session core, runs fn and stops the core again.
func withCore(p app.Params, jsonOut bool, fn func(c *core) error) error {
	c := &core{json: jsonOut}
	fxApp := fx.New(
		app.Module(p),
		fx.Populate(&c.chats, &c.presence, &c.prefs, &c.dir, &c.db),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := fxApp.Start(ctx); err != nil {
		return err
	}
	runErr := fn(c)
	if err := fxApp.Stop(ctx); err != nil && runErr == nil {
		return err
	}
	return runErr
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: huddlectl [--session <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                                Show presence")
	fmt.Fprintln(os.Stderr, "  status set <status>                   Set presence status")
	fmt.Fprintln(os.Stderr, "  status reset                          Reset status to Available")
	fmt.Fprintln(os.Stderr, "  status message [-until <p>] <text>    Set status message (never|today|1hour|4hours|thisweek)")
	fmt.Fprintln(os.Stderr, "  status clear                          Clear status message")
	fmt.Fprintln(os.Stderr, "  chats list                            List chats")
	fmt.Fprintln(os.Stderr, "  chats new <email>                     Start or open a chat")
	fmt.Fprintln(os.Stderr, "  chats open <id>                       Select a chat")
	fmt.Fprintln(os.Stderr, "  chats send <text>                     Send to the selected chat")
	fmt.Fprintln(os.Stderr, "  chats react <id> <message-id> <emoji> React to a message")
	fmt.Fprintln(os.Stderr, "  chats discard <id>                    Discard a chat")
	fmt.Fprintln(os.Stderr, "  users search <query>                  Search the directory")
	fmt.Fprintln(os.Stderr, "  notifications [on|off]                Show or set notification preference")
	fmt.Fprintln(os.Stderr, "  keys                                  List stored keys")
	fmt.Fprintln(os.Stderr, "  config init                           Write the default config if none exists")
}

type statusOutput struct {
	Status     string    `json:"status"`
	Color      string    `json:"color"`
	Message    string    `json:"message,omitempty"`
	ClearAfter string    `json:"clearAfter,omitempty"`
	ExpiresAt  time.Time `json:"expiresAt,omitzero"`
}

func cmdStatus(c *core, args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "set":
			if len(args) < 2 {
				usage("huddlectl status set <status>")
			}
			name := strings.Join(args[1:], " ")
			if !c.presence.SetStatus(name) {
				return fmt.Errorf("unknown status %q", name)
			}
		case "reset":
			c.presence.ResetStatus()
		case "clear":
			c.presence.ClearStatusMessage()
		case "message":
			fs := flag.NewFlagSet("message", flag.ExitOnError)
			until := fs.String("until", "never", "clear after: never|today|1hour|4hours|thisweek")
			_ = fs.Parse(args[1:])
			policy, ok := presence.ParseClearAfter(*until)
			if !ok {
				return fmt.Errorf("unknown clear-after %q", *until)
			}
			if !c.presence.SetStatusMessage(strings.Join(fs.Args(), " "), policy) {
				return fmt.Errorf("status message longer than %d characters", presence.MaxMessageLength)
			}
		default:
			return fmt.Errorf("unknown status subcommand: %s", args[0])
		}
	}

	snap := c.presence.Snapshot()
	out := statusOutput{
		Status:     string(snap.Status),
		Color:      snap.Color,
		Message:    snap.Message.Text,
		ClearAfter: snap.Message.ClearAfter,
		ExpiresAt:  snap.Message.ExpiresAt,
	}
	if c.json {
		outputJSON(out)
		return nil
	}
	fmt.Printf("Status:  %s (%s)\n", out.Status, out.Color)
	if out.Message != "" {
		fmt.Printf("Message: %s\n", out.Message)
		if !out.ExpiresAt.IsZero() {
			fmt.Printf("Clears:  %s\n", out.ExpiresAt.Local().Format(time.RFC1123))
		}
	}
	return nil
}

func cmdChats(c *core, args []string) error {
	if len(args) == 0 {
		usage("huddlectl chats <list|new|open|send|react|discard>")
	}
	switch args[0] {
	case "list":
		return printChats(c)
	case "new":
		if len(args) < 2 {
			usage("huddlectl chats new <email>")
		}
		u, ok := c.dir.Lookup(args[1])
		if !ok {
			return fmt.Errorf("no user with email %q", args[1])
		}
		id := c.chats.CreateOrOpenChat(u)
		fmt.Printf("Chat %d with %s\n", id, u.Name)
	case "open":
		id, err := chatID(args)
		if err != nil {
			return err
		}
		c.chats.SelectChat(id)
		if sel, ok := c.chats.Selected(); !ok || sel.ID != id {
			return fmt.Errorf("no chat %d", id)
		}
	case "send":
		if !c.chats.SendMessage(strings.Join(args[1:], " ")) {
			return fmt.Errorf("nothing sent: select a chat and give non-empty text")
		}
	case "react":
		if len(args) < 4 {
			usage("huddlectl chats react <id> <message-id> <emoji>")
		}
		id, err := chatID(args)
		if err != nil {
			return err
		}
		if !c.chats.React(id, args[2], args[3]) {
			return fmt.Errorf("reaction not added")
		}
	case "discard":
		id, err := chatID(args)
		if err != nil {
			return err
		}
		c.chats.DiscardChat(id)
	default:
		return fmt.Errorf("unknown chats subcommand: %s", args[0])
	}
	return nil
}

func chatID(args []string) (int64, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("usage: huddlectl chats %s <id>", args[0])
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chat id %q", args[1])
	}
	return id, nil
}

func printChats(c *core) error {
	chats := c.chats.Chats()
	if c.json {
		outputJSON(chats)
		return nil
	}
	if len(chats) == 0 {
		fmt.Println("No chats.")
		return nil
	}
	for _, ch := range chats {
		marker := " "
		if ch.Selected {
			marker = "*"
		}
		last := ""
		if m := ch.Last(); m != nil {
			last = m.Message
		}
		fmt.Printf("%s %-15d %-24s %-32s %s\n", marker, ch.ID, ch.Name, ch.Email, last)
	}
	return nil
}

func cmdUsersSearch(c *core, query string) error {
	found := c.chats.SearchUsers(query)
	if c.json {
		if found == nil {
			found = []chat.UserRef{}
		}
		outputJSON(found)
		return nil
	}
	if len(found) == 0 {
		fmt.Printf("No matches (queries need at least %d characters).\n", chat.MinQueryLen)
		return nil
	}
	for _, u := range found {
		fmt.Printf("%-24s %s\n", u.Name, u.Email)
	}
	return nil
}

func cmdNotifications(c *core, args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "on":
			c.prefs.SetNotifications(true)
		case "off":
			c.prefs.SetNotifications(false)
		default:
			usage("huddlectl notifications [on|off]")
		}
	}
	enabled := c.prefs.NotificationsEnabled()
	if c.json {
		outputJSON(map[string]bool{"enabled": enabled})
		return nil
	}
	fmt.Printf("Notifications: %v\n", enabled)
	return nil
}

func cmdKeys(c *core) error {
	keys, err := c.db.Keys()
	if err != nil {
		return err
	}
	if c.json {
		if keys == nil {
			keys = []string{}
		}
		outputJSON(keys)
		return nil
	}
	for _, k := range keys {
		fmt.Println(k)
	}
	return nil
}

// initConfig writes the default config to path unless a file is already
// there. It reports whether it wrote one.
func initConfig(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if err := config.Save(path, config.Default()); err != nil {
		return false, fmt.Errorf("config: %w", err)
	}
	return true, nil
}

func usage(line string) {
	fmt.Fprintln(os.Stderr, "usage: "+line)
	os.Exit(1)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
