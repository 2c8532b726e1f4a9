package lock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireWritesPID(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "niriglue.lock")
	l, err := Acquire(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Release() })

	assert.Equal(t, os.Getpid(), HolderPID(path))
}

func TestAcquireFailsWhileHeld(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "niriglue.lock")
	l, err := Acquire(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Release() })

	_, err = Acquire(path)
	var already *AlreadyRunningError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, os.Getpid(), already.PID)
}

func TestReleaseAllowsReacquire(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "niriglue.lock")
	l, err := Acquire(path)
	require.NoError(t, err)
	require.NoError(t, l.Release())

	l2, err := Acquire(path)
	require.NoError(t, err)
	assert.NoError(t, l2.Release())
}

func TestReleaseIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "niriglue.lock")
	l, err := Acquire(path)
	require.NoError(t, err)
	require.NoError(t, l.Release())
	assert.NoError(t, l.Release())
}

func TestHolderPIDMissingFile(t *testing.T) {
	t.Parallel()
	assert.Zero(t, HolderPID(filepath.Join(t.TempDir(), "absent.lock")))
}
