//go:build !windows

package proc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestNewProcessGroup(t *testing.T) {
	h := openHandle(t, Config{
		Argv:        []string{"sleep", "60"},
		SysProcAttr: NewProcessGroup(),
	})

	pgid, err := unix.Getpgid(h.PID())
	require.NoError(t, err)
	assert.Equal(t, h.PID(), pgid, "child leads its own group")

	require.NoError(t, h.Kill(SIGKILL))
	h.Wait()
}

func TestStopProcess(t *testing.T) {
	h := openHandle(t, Config{Argv: []string{"sleep", "60"}})

	require.NoError(t, StopProcess(h.PID()))

	exit := h.Wait()
	assert.True(t, exit.Signaled)
	assert.Equal(t, SIGINT, exit.TermSignal)
	assert.Equal(t, -1, exit.ExitCode)
}

func TestAlive(t *testing.T) {
	assert.True(t, Alive(unix.Getpid()))

	h := openHandle(t, Config{Command: "exit 0"})
	h.Wait()
	assert.False(t, Alive(h.PID()))
}

func TestSignalGroup_ReachesDescendants(t *testing.T) {
	h := openHandle(t, Config{
		Command:     "sleep 60 & sleep 60 & wait",
		SysProcAttr: NewProcessGroup(),
	})

	require.NoError(t, SignalGroup(h.PID(), SIGKILL))
	h.Wait()

	// the output reaches EOF only once both sleeps are gone
	read := make(chan error, 1)
	go func() {
		_, err := h.ReadAllOutput()
		read <- err
	}()

	select {
	case err := <-read:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("descendants still hold the output pipe")
	}
}

func TestSignalProcess(t *testing.T) {
	h := openHandle(t, Config{Argv: []string{"sleep", "60"}})

	require.NoError(t, SignalProcess(h.PID(), SIGTERM))
	exit := h.Wait()
	assert.Equal(t, SIGTERM, exit.TermSignal)

	assert.Error(t, SignalProcess(0, SIGTERM))
	assert.Error(t, SignalGroup(0, SIGTERM))
	assert.Error(t, SignalGroup(1, SIGTERM))
}

func TestHandle_Done(t *testing.T) {
	h, err := New(Config{Command: "exit 0"})
	require.NoError(t, err)
	assert.Nil(t, h.Done())

	require.NoError(t, h.Open())
	defer h.Release()

	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("done not closed after exit")
	}
}
