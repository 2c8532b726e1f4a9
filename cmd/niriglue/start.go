package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"niriglue/internal/api"
	"niriglue/internal/config"
	"niriglue/internal/dispatch"
	"niriglue/internal/events"
	"niriglue/internal/handlers/tile"
	"niriglue/internal/handlers/wallpaper"
	"niriglue/internal/lock"
	"niriglue/internal/log"
	"niriglue/internal/niri"
	"niriglue/internal/notify"
	"niriglue/internal/state"
	"niriglue/internal/storage"
)

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	if *configPath == "" {
		*configPath = config.DefaultPath()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)
	logger := log.WithComponent("main")
	logger.Info("niriglue starting", "version", version, "config", *configPath)

	instanceLock, err := lock.Acquire(cfg.Service.LockPath)
	if err != nil {
		var already *lock.AlreadyRunningError
		if errors.As(err, &already) {
			logger.Error("another instance is running", "path", already.Path, "pid", already.PID)
		} else {
			logger.Error("failed to acquire lock", "path", cfg.Service.LockPath, "error", err)
		}
		return 1
	}
	defer instanceLock.Release()
	logger.Info("acquired instance lock", "path", instanceLock.Path())

	socketPath := cfg.Service.SocketPath
	if socketPath == "" {
		socketPath, err = niri.SocketPath()
		if err != nil {
			logger.Error("compositor socket not found", "error", err)
			return 1
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := storage.OpenSQLite(ctx, cfg.State.Path)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.State.Path, "error", err)
		return 1
	}
	defer db.Close()
	logger.Info("database opened", "path", cfg.State.Path)

	store := state.NewStore(db)
	hub := events.NewHub(256)

	var notifier *notify.Notifier
	if cfg.Notify.Enabled {
		notifier = notify.New(cfg.Notify.MinInterval)
	}

	disp := dispatch.New(func(ev niri.Event, err error) {
		logger.Warn("handler failed", "tag", ev.Tag, "error", err)
		if notifier != nil {
			notifier.Send(ctx, ev.Tag, "niriglue handler error", err.Error())
		}
	})

	disp.OnAll(func(_ context.Context, ev niri.Event) error {
		hub.Publish(ev)
		return nil
	})

	if cfg.Tile.Enabled {
		tiler := tile.New(cfg.Tile, tile.NewCompositorActions(socketPath))
		tiler.Register(disp)
		logger.Info("auto-tiling enabled", "max_auto_tiled", cfg.Tile.MaxAutoTiled)
	}

	if cfg.Wallpaper.Enabled {
		wp, err := wallpaper.New(ctx, cfg.Wallpaper, store)
		if err != nil {
			logger.Error("wallpaper manager failed to start", "dir", cfg.Wallpaper.Dir, "error", err)
			return 1
		}
		wp.Register(disp)
		wp.StartRotation(ctx)
		logger.Info("wallpaper rotation enabled",
			"dir", cfg.Wallpaper.Dir, "rotate_every", cfg.Wallpaper.RotateEvery)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
		disp.Stop()
	}()

	if cfg.API.Enabled {
		apiServer := api.New(api.Config{
			Listen:            cfg.API.Listen,
			Version:           version,
			ConfigFingerprint: cfg.Fingerprint,
		}, hub, disp, func(req any) (niri.Reply, error) {
			return niri.Request(socketPath, req)
		}, log.WithComponent("api"))
		go func() {
			if err := apiServer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("admin server failed", "error", err)
			}
		}()
		logger.Info("admin server enabled", "listen", cfg.API.Listen)
	}

	logger.Info("niriglue running (press Ctrl+C to stop)")
	return dispatchLoop(ctx, cfg, disp, socketPath, logger)
}

// dispatchLoop opens the event stream and runs the dispatcher, reconnecting
// with exponential backoff when the compositor goes away. A stream that
// delivered at least one event resets the backoff.
func dispatchLoop(ctx context.Context, cfg *config.Config, disp *dispatch.Dispatcher, socketPath string, logger *slog.Logger) int {
	backoff := cfg.Service.ReconnectBackoff

	for {
		if ctx.Err() != nil {
			logger.Info("niriglue stopped")
			return 0
		}

		stream, err := niri.OpenStream(socketPath)
		if err != nil {
			logger.Warn("event stream unavailable", "error", err, "retry_in", backoff)
			if !sleepCtx(ctx, backoff) {
				logger.Info("niriglue stopped")
				return 0
			}
			backoff = nextBackoff(backoff, cfg.Service.ReconnectMaxBackoff)
			continue
		}

		logger.Info("event stream connected", "socket", socketPath)
		result := disp.Run(ctx, stream)
		stream.Close()

		if result.Events > 0 {
			backoff = cfg.Service.ReconnectBackoff
		}

		switch result.Status {
		case dispatch.StoppedCancel:
			logger.Info("niriglue stopped", "events", result.Events)
			return 0
		case dispatch.StoppedClean:
			logger.Warn("event stream closed by compositor", "events", result.Events)
		case dispatch.StoppedError:
			logger.Warn("event stream failed",
				"events", result.Events, "error", result.Err, "retry_in", backoff)
		}

		if !sleepCtx(ctx, backoff) {
			logger.Info("niriglue stopped")
			return 0
		}
		backoff = nextBackoff(backoff, cfg.Service.ReconnectMaxBackoff)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func nextBackoff(current, limit time.Duration) time.Duration {
	next := current * 2
	if next > limit {
		return limit
	}
	return next
}
