// Package tile makes niri behave like an auto-tiler while a workspace holds
// few windows: a lone tiled window gets the full width, two get an even
// split, and windows beyond that are consumed into an existing column, up to
// a configured count. Past that count the manager leaves the layout alone.
//
// All window bookkeeping lives on the Manager; nothing is shared between
// handler instances or stashed in globals.
package tile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"niriglue/internal/config"
	"niriglue/internal/dispatch"
	"niriglue/internal/log"
	"niriglue/internal/niri"
)

//go:generate mockgen -destination=mocks/mock_actions.go -package=mocks niriglue/internal/handlers/tile Actions

// Actions is the compositor surface the manager drives. The production
// implementation sends one-shot socket requests (the event-stream connection
// never multiplexes requests) and routes width changes through the niri msg
// fallback.
type Actions interface {
	SetWindowWidth(ctx context.Context, windowID uint64, width string) error
	ConsumeOrExpelLeft(ctx context.Context, windowID uint64) error
	ConsumeOrExpelRight(ctx context.Context, windowID uint64) error
}

type window struct {
	ID          uint64       `json:"id"`
	WorkspaceID uint64       `json:"workspace_id"`
	AppID       string       `json:"app_id"`
	IsFloating  bool         `json:"is_floating"`
	Layout      windowLayout `json:"layout"`
}

type windowLayout struct {
	// PosInScrollingLayout is [column, index-in-column], null for
	// floating windows.
	PosInScrollingLayout []int `json:"pos_in_scrolling_layout"`
}

// Manager tracks window state from the event stream and applies tiling
// actions. Not safe for concurrent use; it runs on the dispatch loop.
type Manager struct {
	cfg     config.TileConfig
	actions Actions
	logger  *slog.Logger

	windows map[uint64]window
}

func New(cfg config.TileConfig, actions Actions) *Manager {
	return &Manager{
		cfg:     cfg,
		actions: actions,
		logger:  log.WithHandler("tile"),
		windows: make(map[uint64]window),
	}
}

// Register attaches the manager's handlers to the dispatcher.
func (m *Manager) Register(d *dispatch.Dispatcher) {
	d.On(niri.WindowsChanged, m.handleWindowsChanged)
	d.On(niri.WindowOpenedOrChanged, m.handleWindowOpened)
	d.On(niri.WindowClosed, m.handleWindowClosed)
	d.On(niri.WindowLayoutsChanged, m.handleLayoutsChanged)
}

func (m *Manager) handleWindowsChanged(_ context.Context, ev niri.Event) error {
	var payload struct {
		Windows []window `json:"windows"`
	}
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		return fmt.Errorf("decode WindowsChanged: %w", err)
	}

	m.windows = make(map[uint64]window, len(payload.Windows))
	for _, w := range payload.Windows {
		m.windows[w.ID] = w
	}
	m.logger.Debug("window state replaced", "count", len(m.windows))
	return nil
}

func (m *Manager) handleWindowOpened(ctx context.Context, ev niri.Event) error {
	var payload struct {
		Window window `json:"window"`
	}
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		return fmt.Errorf("decode WindowOpenedOrChanged: %w", err)
	}

	win := payload.Window
	_, known := m.windows[win.ID]
	m.windows[win.ID] = win

	m.logger.Debug("window opened or changed",
		"id", win.ID, "new", !known, "floating", win.IsFloating, "app_id", win.AppID)

	// Changes to known windows and floating windows never retile.
	if known || win.IsFloating {
		return nil
	}

	tiled := m.tiledOnWorkspace(win.WorkspaceID)
	switch count := len(tiled); {
	case count == 1 && m.cfg.MaximizeSolos:
		m.logger.Info("solo window, maximizing", "id", win.ID)
		return m.actions.SetWindowWidth(ctx, win.ID, "100%")

	case count == 2:
		m.logger.Info("two windows, splitting evenly", "workspace", win.WorkspaceID)
		var errs []error
		for id := range tiled {
			if err := m.actions.SetWindowWidth(ctx, id, "50%"); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)

	case count > 2 && count <= m.cfg.MaxAutoTiled:
		// Fold the new window into a column instead of opening a fresh one.
		if col, ok := columnIndex(win); ok && col == 2 {
			m.logger.Info("consuming window into column", "id", win.ID, "direction", "right")
			return m.actions.ConsumeOrExpelRight(ctx, win.ID)
		}
		m.logger.Info("consuming window into column", "id", win.ID, "direction", "left")
		return m.actions.ConsumeOrExpelLeft(ctx, win.ID)
	}
	return nil
}

func (m *Manager) handleWindowClosed(ctx context.Context, ev niri.Event) error {
	var payload struct {
		ID uint64 `json:"id"`
	}
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		return fmt.Errorf("decode WindowClosed: %w", err)
	}

	closed, ok := m.windows[payload.ID]
	delete(m.windows, payload.ID)
	m.logger.Debug("window closed", "id", payload.ID, "known", ok)
	if !ok {
		return nil
	}

	tiled := m.tiledOnWorkspace(closed.WorkspaceID)
	if len(tiled) == 1 && m.cfg.MaximizeOnClose {
		for id := range tiled {
			m.logger.Info("one window remaining, maximizing", "id", id)
			return m.actions.SetWindowWidth(ctx, id, "100%")
		}
	}
	return nil
}

func (m *Manager) handleLayoutsChanged(_ context.Context, ev niri.Event) error {
	var payload struct {
		// changes is a list of [window-id, layout] pairs.
		Changes [][]json.RawMessage `json:"changes"`
	}
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		return fmt.Errorf("decode WindowLayoutsChanged: %w", err)
	}

	for _, change := range payload.Changes {
		if len(change) != 2 {
			return fmt.Errorf("layout change has %d elements, want 2", len(change))
		}
		var id uint64
		if err := json.Unmarshal(change[0], &id); err != nil {
			return fmt.Errorf("decode layout change id: %w", err)
		}
		win, ok := m.windows[id]
		if !ok {
			continue
		}
		if err := json.Unmarshal(change[1], &win.Layout); err != nil {
			return fmt.Errorf("decode layout change for window %d: %w", id, err)
		}
		m.windows[id] = win
	}
	return nil
}

// tiledOnWorkspace returns the non-floating windows on a workspace.
func (m *Manager) tiledOnWorkspace(workspaceID uint64) map[uint64]window {
	tiled := make(map[uint64]window)
	for id, w := range m.windows {
		if w.WorkspaceID == workspaceID && !w.IsFloating {
			tiled[id] = w
		}
	}
	return tiled
}

func columnIndex(w window) (int, bool) {
	if len(w.Layout.PosInScrollingLayout) == 0 {
		return 0, false
	}
	return w.Layout.PosInScrollingLayout[0], true
}
