package childproc

import (
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitReportsExitCode(t *testing.T) {
	cmd := exec.Command("sh", "-c", "exit 7")
	h, err := Start(cmd)
	require.NoError(t, err)

	state, err := h.Wait()
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 7, state.ExitCode())
	assert.True(t, h.Exited())
	assert.Equal(t, 7, h.ExitCode())
}

func TestExitedIsFalseBeforeWait(t *testing.T) {
	cmd := exec.Command("sh", "-c", "sleep 0.2")
	h, err := Start(cmd)
	require.NoError(t, err)

	assert.False(t, h.Exited())
	assert.Equal(t, -1, h.ExitCode())

	_, err = h.Wait()
	require.NoError(t, err)
	assert.True(t, h.Exited())
}

func TestSignalOnExitedProcessIsNotAnError(t *testing.T) {
	cmd := exec.Command("sh", "-c", "exit 0")
	h, err := Start(cmd)
	require.NoError(t, err)

	_, err = h.Wait()
	require.NoError(t, err)

	assert.NoError(t, h.Signal(syscall.SIGTERM))
}

func TestDoneChannelClosesOnExit(t *testing.T) {
	cmd := exec.Command("sh", "-c", "exit 0")
	h, err := Start(cmd)
	require.NoError(t, err)

	go h.Wait()

	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done channel never closed")
	}
}
