package spawn

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCapturesStdout(t *testing.T) {
	res, err := Run(context.Background(), "sh", "-c", "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", res.Stdout)
	assert.Equal(t, 0, res.ExitCode)
}

func TestRunNonZeroExitIsNotAnError(t *testing.T) {
	res, err := Run(context.Background(), "sh", "-c", "echo oops >&2; exit 3")
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "oops\n", res.Stderr)
}

func TestRunMissingBinary(t *testing.T) {
	_, err := Run(context.Background(), "definitely-not-a-binary-xyz")
	require.Error(t, err)
}

func TestRunHonorsContextDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := Run(ctx, "sleep", "10")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}
