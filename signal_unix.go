//go:build !windows

package proc

import (
	"errors"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

func sendSignal(p *os.Process, sig Signal) error {
	return p.Signal(unix.Signal(sig))
}

// stopProcess sends SIGINT
func stopProcess(pid int) error {
	return unix.Kill(pid, unix.SIGINT)
}

func signalProcess(pid int, sig Signal) error {
	err := unix.Kill(pid, unix.Signal(sig))
	if errors.Is(err, unix.ESRCH) {
		return os.ErrProcessDone
	}
	return err
}

func signalGroup(pgid int, sig Signal) error {
	return signalProcess(-pgid, sig)
}

// Alive reports whether a process with the given pid exists. A zombie
// still counts as alive until its parent reaps it
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

func terminationSignal(state *os.ProcessState) (bool, Signal) {
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return false, 0
	}
	return true, Signal(ws.Signal())
}
