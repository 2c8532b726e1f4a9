// Package doctor validates niriglue configuration and the runtime
// environment it depends on: the compositor socket, external binaries,
// and the directories the daemon writes to.
package doctor

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"niriglue/internal/config"
	"niriglue/internal/niri"
)

// Result holds the outcome of a validation run.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Issue describes a single validation error or warning.
type Issue struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
}

// Doctor validates a loaded configuration against the host environment.
type Doctor struct {
	cfg *config.Config

	// lookPath and dialSocket are swappable for tests.
	lookPath   func(name string) (string, error)
	dialSocket func(path string) error
}

func New(cfg *config.Config) *Doctor {
	return &Doctor{
		cfg:      cfg,
		lookPath: exec.LookPath,
		dialSocket: func(path string) error {
			conn, err := net.DialTimeout("unix", path, 2*time.Second)
			if err != nil {
				return err
			}
			return conn.Close()
		},
	}
}

// Validate runs all checks and returns a result.
func (d *Doctor) Validate() *Result {
	r := &Result{Valid: true}

	d.checkSocket(r)
	d.checkStatePath(r)
	d.checkLockPath(r)
	d.checkWallpaper(r)
	d.checkBinaries(r)

	r.Valid = len(r.Errors) == 0
	return r
}

func (d *Doctor) addError(r *Result, category, field, msg string) {
	r.Errors = append(r.Errors, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) addWarning(r *Result, category, field, msg string) {
	r.Warnings = append(r.Warnings, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) checkSocket(r *Result) {
	path := d.cfg.Service.SocketPath
	if path == "" {
		discovered, err := niri.SocketPath()
		if err != nil {
			d.addError(r, "compositor", "service.socket_path",
				"no socket configured and $"+niri.EnvSocket+" is unset")
			return
		}
		path = discovered
	}
	if err := d.dialSocket(path); err != nil {
		d.addError(r, "compositor", "service.socket_path",
			fmt.Sprintf("socket %s not reachable: %v", path, err))
	}
}

func (d *Doctor) checkStatePath(r *Result) {
	if d.cfg.State.Path == "" {
		d.addError(r, "state", "state.path", "state.path is required")
		return
	}
	dir := filepath.Dir(d.cfg.State.Path)
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		d.addError(r, "state", "state.path", dir+" exists and is not a directory")
	}
}

func (d *Doctor) checkLockPath(r *Result) {
	if d.cfg.Service.LockPath == "" {
		d.addError(r, "service", "service.lock_path", "lock_path is required")
	}
}

func (d *Doctor) checkWallpaper(r *Result) {
	if !d.cfg.Wallpaper.Enabled {
		return
	}
	info, err := os.Stat(d.cfg.Wallpaper.Dir)
	switch {
	case err != nil:
		d.addError(r, "wallpaper", "wallpaper.dir",
			fmt.Sprintf("wallpaper dir unreadable: %v", err))
	case !info.IsDir():
		d.addError(r, "wallpaper", "wallpaper.dir", d.cfg.Wallpaper.Dir+" is not a directory")
	}
}

// checkBinaries warns rather than errors: the daemon runs without them,
// the features that shell out just stop working.
func (d *Doctor) checkBinaries(r *Result) {
	if _, err := d.lookPath("niri"); err != nil {
		d.addWarning(r, "binaries", "",
			"niri not found on PATH; the CLI fallback for unreliable actions is unavailable")
	}
	if d.cfg.Wallpaper.Enabled {
		if _, err := d.lookPath("swww"); err != nil {
			d.addWarning(r, "binaries", "wallpaper",
				"swww not found on PATH; wallpapers will not be applied")
		}
	}
	if d.cfg.Notify.Enabled {
		if _, err := d.lookPath("notify-send"); err != nil {
			d.addWarning(r, "binaries", "notify",
				"notify-send not found on PATH; desktop notifications are disabled")
		}
	}
}
