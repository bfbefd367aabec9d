package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/matheus3301/huddle/internal/app"
	"github.com/matheus3301/huddle/internal/bus"
	"github.com/matheus3301/huddle/internal/chat"
	"github.com/matheus3301/huddle/internal/config"
	"github.com/matheus3301/huddle/internal/persist"
	"github.com/matheus3301/huddle/internal/presence"
	"github.com/matheus3301/huddle/internal/session"
	"github.com/matheus3301/huddle/internal/tui"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	flag.Parse()

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName(sessionName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadOrDefault(session.ConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: config: %v\n", err)
		os.Exit(1)
	}

	var (
		cm     *chat.Manager
		pm     *presence.Manager
		prefs  *persist.Store
		b      *bus.Bus
		logger *zap.Logger
	)
	fxApp := fx.New(
		app.Module(app.Params{
			SessionName:  sessionName,
			Config:       cfg,
			HoldChatLock: true,
			Quiet:        true,
			Watch:        true,
		}),
		fx.Populate(&cm, &pm, &prefs, &b, &logger),
	)

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := fxApp.Start(startCtx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ui := tui.NewApp(cm, pm, prefs, b, sessionName, cfg.User.Name, logger.Named("tui"))
	runErr := ui.Run()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	if err := fxApp.Stop(stopCtx); err != nil {
		fmt.Fprintf(os.Stderr, "error: shutdown: %v\n", err)
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		os.Exit(1)
	}
}
