package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/matheus3301/huddle/internal/chat"
	"github.com/matheus3301/huddle/internal/config"
	"github.com/matheus3301/huddle/internal/lock"
	"github.com/matheus3301/huddle/internal/persist"
	"github.com/matheus3301/huddle/internal/presence"
	"github.com/matheus3301/huddle/internal/session"
	"github.com/matheus3301/huddle/internal/store"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

type core struct {
	Chats    *chat.Manager
	Presence *presence.Manager
	Store    *persist.Store
}

func start(t *testing.T, p Params) (*fxtest.App, core) {
	t.Helper()
	var c core
	app := fxtest.New(t,
		Module(p),
		fx.Populate(&c.Chats, &c.Presence, &c.Store),
	)
	app.RequireStart()
	return app, c
}

func TestModuleStartStop(t *testing.T) {
	t.Setenv(session.HomeEnv, t.TempDir())

	app, c := start(t, Params{SessionName: "test", HoldChatLock: true, Quiet: true})
	id := c.Chats.CreateOrOpenChat(chat.UserRef{Name: "Alice Doe", Email: "alice.doe@contoso.com"})
	if !c.Chats.SendMessage("hi") {
		t.Fatal("SendMessage rejected")
	}
	c.Presence.SetStatus("Busy")
	app.RequireStop()

	app, c = start(t, Params{SessionName: "test", HoldChatLock: true, Quiet: true})
	defer app.RequireStop()

	sel, ok := c.Chats.Selected()
	if !ok || sel.ID != id || len(sel.Messages) != 1 {
		t.Errorf("reloaded selection = %+v, %v", sel, ok)
	}
	if c.Presence.Status() != presence.Busy {
		t.Errorf("status = %s, want Busy", c.Presence.Status())
	}
}

func TestModuleUsesConfiguredUser(t *testing.T) {
	t.Setenv(session.HomeEnv, t.TempDir())
	cfg := config.Default()
	cfg.User = config.User{Name: "Grace Lin", Email: "grace.lin@contoso.com"}

	app, c := start(t, Params{SessionName: "test", Config: cfg, Quiet: true})
	defer app.RequireStop()

	c.Chats.CreateOrOpenChat(chat.UserRef{Name: "Bob Ray", Email: "bob.ray@contoso.com"})
	c.Chats.SendMessage("hello")
	sel, _ := c.Chats.Selected()
	if sel.Messages[0].Sender != "Grace Lin" {
		t.Errorf("sender = %q", sel.Messages[0].Sender)
	}
	if got := c.Chats.SearchUsers("contoso"); len(got) == 0 {
		t.Error("built-in directory not wired")
	}
}

func TestChatLockExcludesSecondWriter(t *testing.T) {
	t.Setenv(session.HomeEnv, t.TempDir())

	app, _ := start(t, Params{SessionName: "test", HoldChatLock: true, Quiet: true})
	defer app.RequireStop()

	second := fx.New(Module(Params{SessionName: "test", HoldChatLock: true, Quiet: true}), fx.NopLogger)
	err := second.Err()
	if err == nil {
		t.Fatal("second writer started while the lock was held")
	}
	var held *lock.HeldError
	if !errors.As(err, &held) && !strings.Contains(err.Error(), "chat writer lock held") {
		t.Errorf("second writer err = %v, want lock contention", err)
	}
}

// TestPresenceFollowsOtherProcess runs two cores on one session and checks
// the watcher carries a status change from one to the other.
func TestPresenceFollowsOtherProcess(t *testing.T) {
	t.Setenv(session.HomeEnv, t.TempDir())
	cfg := config.Default()
	cfg.Presence.PollInterval = 20 * time.Millisecond

	uiApp, ui := start(t, Params{SessionName: "test", Config: cfg, HoldChatLock: true, Quiet: true, Watch: true})
	defer uiApp.RequireStop()

	ch, unsub := ui.Presence.Subscribe(8)
	defer unsub()

	ctlApp, ctl := start(t, Params{SessionName: "test", Config: cfg, Quiet: true})
	ctl.Presence.SetStatus("Be right back")
	ctl.Presence.SetStatusMessage("coffee", presence.OneHour)
	ctlApp.RequireStop()

	deadline := time.After(5 * time.Second)
	for ui.Presence.Status() != presence.BeRightBack || ui.Presence.StatusMessage().Text != "coffee" {
		select {
		case <-ch:
		case <-time.After(10 * time.Millisecond):
		case <-deadline:
			t.Fatalf("ui presence = %s %q, want the other writer's change",
				ui.Presence.Status(), ui.Presence.StatusMessage().Text)
		}
	}
	if ui.Presence.StatusColor() != "#F8C73E" {
		t.Errorf("color = %s", ui.Presence.StatusColor())
	}
}

// TestFailedStartReleasesLock breaks the store before the watcher's first
// poll; the failed start must still give up the writer lock.
func TestFailedStartReleasesLock(t *testing.T) {
	t.Setenv(session.HomeEnv, t.TempDir())
	cfg := config.Default()
	cfg.Presence.Watch = false
	cfg.Presence.PollInterval = 20 * time.Millisecond
	p := Params{SessionName: "test", Config: cfg, HoldChatLock: true, Quiet: true, Watch: true}

	broken := fx.New(
		Module(p),
		fx.Invoke(func(db *store.DB) { _ = db.Close() }),
		fx.NopLogger,
	)
	if err := broken.Start(context.Background()); err == nil {
		_ = broken.Stop(context.Background())
		t.Fatal("start succeeded over a closed store")
	}

	app, c := start(t, Params{SessionName: "test", HoldChatLock: true, Quiet: true})
	defer app.RequireStop()
	if c.Chats == nil {
		t.Fatal("no chat manager after reacquiring the lock")
	}
}
