// Package app assembles the core of a session: store, managers, watcher and
// the optional chat writer lock.
package app

import (
	"context"
	"time"

	"github.com/matheus3301/huddle/internal/bus"
	"github.com/matheus3301/huddle/internal/chat"
	"github.com/matheus3301/huddle/internal/config"
	"github.com/matheus3301/huddle/internal/directory"
	"github.com/matheus3301/huddle/internal/lock"
	"github.com/matheus3301/huddle/internal/logging"
	"github.com/matheus3301/huddle/internal/persist"
	"github.com/matheus3301/huddle/internal/presence"
	"github.com/matheus3301/huddle/internal/session"
	"github.com/matheus3301/huddle/internal/store"
	"github.com/matheus3301/huddle/internal/watch"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Params holds the resolved session configuration passed to the fx module.
type Params struct {
	SessionName string
	Config      *config.Config // nil = config.Default()
	// HoldChatLock takes the chat writer lock before the chat list is loaded
	// and keeps it until stop.
	HoldChatLock bool
	// Quiet keeps log output off stderr.
	Quiet bool
	// Watch starts the store watcher so presence follows other writers.
	Watch bool
}

// Module returns the fx module composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	if p.Config == nil {
		p.Config = config.Default()
	}
	return fx.Module("huddle",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideLock,
			provideStore,
			providePersist,
			provideDirectory,
			provideChatManager,
			providePresenceManager,
			provideWatcher,
		),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	if err := session.EnsureDir(p.SessionName); err != nil {
		return nil, err
	}
	var opts []logging.Option
	if p.Quiet {
		opts = append(opts, logging.WithoutStderr())
	}
	return logging.New(session.LogPath(p.SessionName), p.SessionName, p.Config.LogLevel, opts...)
}

func provideBus() *bus.Bus {
	return bus.New()
}

// provideLock returns a nil lock when the writer lock is not wanted;
// Release is nil-safe.
func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if !p.HoldChatLock {
		return nil, nil
	}
	logger.Info("acquiring chat writer lock", zap.String("session", p.SessionName))
	l, err := lock.Acquire(session.LockPath(p.SessionName))
	if err != nil {
		return nil, err
	}
	logger.Info("chat writer lock acquired")
	return l, nil
}

func provideStore(p Params, logger *zap.Logger) (*store.DB, error) {
	dbPath := session.DBPath(p.SessionName)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func providePersist(db *store.DB, logger *zap.Logger) *persist.Store {
	return persist.New(db, logger.Named("persist"))
}

func provideDirectory(p Params, logger *zap.Logger) (*directory.Directory, error) {
	dir, err := directory.Load(p.Config.Directory.Path)
	if err != nil {
		return nil, err
	}
	logger.Info("directory loaded", zap.Int("users", dir.Len()), zap.String("path", p.Config.Directory.Path))
	return dir, nil
}

// provideChatManager depends on the lock so the list is only loaded once the
// writer lock, when requested, is held.
func provideChatManager(p Params, st *persist.Store, dir *directory.Directory, b *bus.Bus, logger *zap.Logger, _ *lock.Lock) *chat.Manager {
	self := chat.UserRef{Name: p.Config.User.Name, Email: p.Config.User.Email}
	return chat.NewManager(self, st, dir, chat.WithBus(b), chat.WithLogger(logger.Named("chat")))
}

func providePresenceManager(st *persist.Store, b *bus.Bus, logger *zap.Logger) *presence.Manager {
	return presence.NewManager(st, b, logger.Named("presence"))
}

func provideWatcher(p Params, db *store.DB, b *bus.Bus, logger *zap.Logger) *watch.Watcher {
	return watch.New(watch.Options{
		Path:         db.Path(),
		Notify:       p.Watch && p.Config.Presence.Watch,
		PollInterval: pollInterval(p),
	}, db, b, logger.Named("watch"))
}

func pollInterval(p Params) time.Duration {
	if !p.Watch {
		return 0
	}
	return p.Config.Presence.PollInterval
}

func registerLifecycle(lc fx.Lifecycle, p Params, w *watch.Watcher, pm *presence.Manager, db *store.DB, lk *lock.Lock, b *bus.Bus, logger *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	forwarded := make(chan struct{})

	release := func() {
		pm.Close()
		if err := db.Close(); err != nil {
			logger.Warn("error closing store", zap.Error(err))
		}
		if err := lk.Release(); err != nil {
			logger.Warn("error releasing lock", zap.Error(err))
		}
	}

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			if !p.Watch {
				close(forwarded)
				return nil
			}
			if err := w.Start(); err != nil {
				cancel()
				close(forwarded)
				_ = w.Close()
				release()
				logger.Error("watcher failed to start", zap.Error(err))
				_ = logger.Sync()
				return err
			}
			go func() {
				defer close(forwarded)
				watch.Forward(ctx, b, func() { pm.Refresh() })
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			<-forwarded
			if err := w.Close(); err != nil {
				logger.Warn("error closing watcher", zap.Error(err))
			}
			release()
			logger.Info("session stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
