package tile

import (
	"context"

	"niriglue/internal/niri"
)

// CompositorActions sends tiling actions to a live compositor. Consume and
// expel go over the socket; width changes go through the niri msg fallback
// because the socket path acks SetWindowWidth without applying it
// (niri 25.11 regression, see package niri).
type CompositorActions struct {
	socketPath string
	cli        *niri.CLI
}

func NewCompositorActions(socketPath string) *CompositorActions {
	return &CompositorActions{
		socketPath: socketPath,
		cli:        niri.NewCLI(),
	}
}

func (a *CompositorActions) SetWindowWidth(ctx context.Context, windowID uint64, width string) error {
	return a.cli.SetWindowWidth(ctx, windowID, width)
}

func (a *CompositorActions) ConsumeOrExpelLeft(ctx context.Context, windowID uint64) error {
	reply, err := niri.Action(a.socketPath, "ConsumeOrExpelWindowLeft", map[string]any{"id": windowID})
	if err != nil {
		return err
	}
	return reply.Err()
}

func (a *CompositorActions) ConsumeOrExpelRight(ctx context.Context, windowID uint64) error {
	reply, err := niri.Action(a.socketPath, "ConsumeOrExpelWindowRight", map[string]any{"id": windowID})
	if err != nil {
		return err
	}
	return reply.Err()
}
