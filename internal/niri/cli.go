package niri

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"niriglue/internal/spawn"
)

// CLI invokes actions through the `niri msg` binary instead of the socket.
//
// This exists because of a protocol regression, not preference: in niri
// 25.11 certain actions (SetWindowWidth among them) return Ok over the
// socket without taking effect, while the identical `niri msg` invocation
// works. Route affected actions here; everything else stays on the socket.
type CLI struct {
	bin string
}

// NewCLI returns a CLI using the `niri` binary on PATH.
func NewCLI() *CLI {
	return &CLI{bin: "niri"}
}

// NewCLIWithBinary returns a CLI using an explicit binary path.
func NewCLIWithBinary(bin string) *CLI {
	return &CLI{bin: bin}
}

// Action runs `niri msg action <name> [args...]`. Action names are
// kebab-case on the CLI surface (set-window-width, focus-window).
func (c *CLI) Action(ctx context.Context, name string, args ...string) error {
	cmdArgs := append([]string{"msg", "action", name}, args...)
	res, err := spawn.Run(ctx, c.bin, cmdArgs...)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("niri msg action %s: exit %d: %s", name, res.ExitCode, res.Stderr)
	}
	return nil
}

// SetWindowWidth adjusts a window's width; width is a niri size spec such as
// "100%" or "640".
func (c *CLI) SetWindowWidth(ctx context.Context, windowID uint64, width string) error {
	return c.Action(ctx, "set-window-width", "--id", strconv.FormatUint(windowID, 10), width)
}

// FocusWindow focuses a window by id.
func (c *CLI) FocusWindow(ctx context.Context, windowID uint64) error {
	return c.Action(ctx, "focus-window", "--id", strconv.FormatUint(windowID, 10))
}

// CloseWindow closes a window by id.
func (c *CLI) CloseWindow(ctx context.Context, windowID uint64) error {
	return c.Action(ctx, "close-window", "--id", strconv.FormatUint(windowID, 10))
}

// Query runs `niri msg --json <request>` and returns the raw JSON reply.
func (c *CLI) Query(ctx context.Context, request string) (json.RawMessage, error) {
	res, err := spawn.Run(ctx, c.bin, "msg", "--json", request)
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("niri msg %s: exit %d: %s", request, res.ExitCode, res.Stderr)
	}
	raw := json.RawMessage(res.Stdout)
	if !json.Valid(raw) {
		return nil, &ProtocolError{Msg: fmt.Sprintf("niri msg %s produced invalid JSON", request)}
	}
	return raw, nil
}
