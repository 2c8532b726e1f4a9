// Package wallpaper assigns each workspace its own random wallpaper and
// rotates the assignments on a timer. Application goes through swww; the
// compositor itself is never involved beyond telling us which workspace is
// focused on which output.
package wallpaper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"niriglue/internal/config"
	"niriglue/internal/dispatch"
	"niriglue/internal/log"
	"niriglue/internal/niri"
	"niriglue/internal/spawn"
	"niriglue/internal/state"
)

// stateKey is this handler's row in the state store.
const stateKey = "wallpaper"

var imageExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".webp": {}, ".gif": {}, ".bmp": {},
}

type persisted struct {
	Assignments map[string]string `json:"assignments"`
}

// Manager owns all wallpaper state: file list, per-workspace assignments and
// outputs, and the focused workspace. The dispatch loop and the rotation
// ticker both touch it, hence the mutex.
type Manager struct {
	cfg    config.WallpaperConfig
	store  *state.Store
	logger *slog.Logger
	rng    *rand.Rand

	// apply points at swww in production; tests swap it out.
	apply func(ctx context.Context, file, output string)

	mu          sync.Mutex
	files       []string
	assignments map[uint64]string
	outputs     map[uint64]string
	focusedWS   uint64
}

// New scans cfg.Dir for wallpapers and restores persisted assignments.
// store may be nil; assignments then live only for the process lifetime.
func New(ctx context.Context, cfg config.WallpaperConfig, store *state.Store) (*Manager, error) {
	files, err := scanDir(cfg.Dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no wallpapers found in %s", cfg.Dir)
	}

	m := &Manager{
		cfg:         cfg,
		store:       store,
		logger:      log.WithHandler("wallpaper"),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		files:       files,
		assignments: make(map[uint64]string),
		outputs:     make(map[uint64]string),
	}
	m.apply = func(ctx context.Context, file, output string) {
		spawn.Fire(ctx, "swww", "img", file, "-o", output,
			"--transition-type", "fade", "--transition-duration", "0.4")
	}

	if store != nil {
		if err := m.restore(ctx); err != nil {
			// A corrupt blob costs us remembered assignments, nothing more.
			m.logger.Warn("could not restore assignments", "error", err)
		}
	}
	m.logger.Info("wallpapers scanned", "dir", cfg.Dir, "count", len(files))
	return m, nil
}

// Register attaches the manager's handlers to the dispatcher.
func (m *Manager) Register(d *dispatch.Dispatcher) {
	d.On(niri.WorkspacesChanged, m.handleWorkspacesChanged)
	d.On(niri.WorkspaceActivated, m.handleWorkspaceActivated)
}

// StartRotation launches the rotation ticker if rotation is configured.
// It returns immediately; the goroutine stops when ctx is cancelled.
func (m *Manager) StartRotation(ctx context.Context) {
	if m.cfg.RotateEvery <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(m.cfg.RotateEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.rotate(ctx)
			}
		}
	}()
}

func (m *Manager) handleWorkspacesChanged(ctx context.Context, ev niri.Event) error {
	var payload struct {
		Workspaces []struct {
			ID        uint64 `json:"id"`
			Output    string `json:"output"`
			IsFocused bool   `json:"is_focused"`
		} `json:"workspaces"`
	}
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		return fmt.Errorf("decode WorkspacesChanged: %w", err)
	}

	m.mu.Lock()
	current := make(map[uint64]struct{}, len(payload.Workspaces))
	for _, ws := range payload.Workspaces {
		current[ws.ID] = struct{}{}
		if ws.Output != "" {
			m.outputs[ws.ID] = ws.Output
		}
		if ws.IsFocused {
			m.focusedWS = ws.ID
		}
	}
	// Forget workspaces that no longer exist.
	for id := range m.assignments {
		if _, ok := current[id]; !ok {
			delete(m.assignments, id)
			delete(m.outputs, id)
		}
	}
	m.mu.Unlock()

	m.persist(ctx)
	return nil
}

func (m *Manager) handleWorkspaceActivated(ctx context.Context, ev niri.Event) error {
	var payload struct {
		ID      uint64 `json:"id"`
		Focused bool   `json:"focused"`
	}
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		return fmt.Errorf("decode WorkspaceActivated: %w", err)
	}
	if !payload.Focused {
		return nil
	}

	m.mu.Lock()
	if m.focusedWS == payload.ID {
		m.mu.Unlock()
		return nil
	}
	m.focusedWS = payload.ID
	m.assignLocked(payload.ID)
	file, output := m.assignments[payload.ID], m.outputs[payload.ID]
	m.mu.Unlock()

	if file != "" && output != "" {
		m.apply(ctx, file, output)
	}
	m.persist(ctx)
	return nil
}

// assignLocked gives a workspace a wallpaper if it has none, preferring
// files no other workspace uses.
func (m *Manager) assignLocked(workspaceID uint64) {
	if _, ok := m.assignments[workspaceID]; ok {
		return
	}
	used := make(map[string]struct{}, len(m.assignments))
	for _, f := range m.assignments {
		used[f] = struct{}{}
	}
	available := make([]string, 0, len(m.files))
	for _, f := range m.files {
		if _, ok := used[f]; !ok {
			available = append(available, f)
		}
	}
	if len(available) == 0 {
		available = m.files
	}
	m.assignments[workspaceID] = available[m.rng.Intn(len(available))]
}

// rotate reshuffles the file list across all known workspaces and applies
// the new assignments.
func (m *Manager) rotate(ctx context.Context) {
	m.mu.Lock()
	shuffled := make([]string, len(m.files))
	copy(shuffled, m.files)
	m.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	ids := make([]uint64, 0, len(m.outputs))
	for id := range m.outputs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	type target struct {
		file   string
		output string
	}
	targets := make([]target, 0, len(ids))
	for i, id := range ids {
		m.assignments[id] = shuffled[i%len(shuffled)]
		targets = append(targets, target{file: m.assignments[id], output: m.outputs[id]})
	}
	m.mu.Unlock()

	m.logger.Debug("rotating wallpapers", "workspaces", len(targets))
	for _, tg := range targets {
		m.apply(ctx, tg.file, tg.output)
	}
	m.persist(ctx)
}

func (m *Manager) restore(ctx context.Context) error {
	raw, err := m.store.Get(ctx, stateKey)
	if err != nil {
		return err
	}
	var p persisted
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for key, file := range p.Assignments {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			continue
		}
		// Drop assignments whose file disappeared since last run.
		if _, statErr := os.Stat(file); statErr == nil {
			m.assignments[id] = file
		}
	}
	return nil
}

func (m *Manager) persist(ctx context.Context) {
	if m.store == nil {
		return
	}

	m.mu.Lock()
	p := persisted{Assignments: make(map[string]string, len(m.assignments))}
	for id, file := range m.assignments {
		p.Assignments[strconv.FormatUint(id, 10)] = file
	}
	m.mu.Unlock()

	data, err := json.Marshal(p)
	if err != nil {
		m.logger.Error("marshal assignments", "error", err)
		return
	}
	if err := m.store.Put(ctx, stateKey, data); err != nil {
		m.logger.Warn("persist assignments", "error", err)
	}
}

func scanDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read wallpaper dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if _, ok := imageExtensions[ext]; ok {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
