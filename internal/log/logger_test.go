package log

import (
	"log/slog"
	"testing"
)

func TestGetBeforeSetup(t *testing.T) {
	l := Get()
	if l == nil {
		t.Fatal("Get() returned nil before Setup")
	}
}

func TestWithComponent(t *testing.T) {
	l := WithComponent("dispatch")
	if l == nil {
		t.Fatal("WithComponent returned nil")
	}
	// Must be derived from the shared logger, not a fresh one.
	if !l.Enabled(nil, slog.LevelError) {
		t.Fatal("derived logger does not log at ERROR")
	}
}

func TestSetupIdempotent(t *testing.T) {
	Setup("DEBUG", "text")
	first := Get()
	Setup("ERROR", "json")
	if Get() != first {
		t.Fatal("second Setup replaced the logger")
	}
}
