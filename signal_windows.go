package proc

import (
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

// sendSignal delivers a CTRL+BREAK event for SIGINT, which works
// because every child is created in its own process group, and
// terminates the process for anything else
func sendSignal(p *os.Process, sig Signal) error {
	if sig == SIGINT {
		return stopProcess(p.Pid)
	}
	return p.Kill()
}

func stopProcess(pid int) error {
	err := windows.GenerateConsoleCtrlEvent(windows.CTRL_BREAK_EVENT, uint32(pid))
	if err != nil {
		return fmt.Errorf("generateConsoleCtrlEvent: %w", err)
	}
	return nil
}

// signalGroup can only reach the whole group with SIGINT
func signalGroup(pgid int, sig Signal) error {
	return signalProcess(pgid, sig)
}

func signalProcess(pid int, sig Signal) error {
	if sig == SIGINT {
		return stopProcess(pid)
	}

	h, err := windows.OpenProcess(windows.PROCESS_TERMINATE, false, uint32(pid))
	if err != nil {
		return os.ErrProcessDone
	}
	defer windows.CloseHandle(h)

	return windows.TerminateProcess(h, 1)
}

// Alive reports whether a process with the given pid exists
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}

	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return false
	}
	defer windows.CloseHandle(h)

	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return false
	}
	return code == 259 // STILL_ACTIVE
}

func terminationSignal(state *os.ProcessState) (bool, Signal) {
	return false, 0
}
