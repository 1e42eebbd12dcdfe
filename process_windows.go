package proc

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// DefaultShell is the prefix used to run Config.Command
func DefaultShell() []string {
	return []string{"cmd", "/C"}
}

// createCommand creates a *exec.Cmd suitable for the platform.
//
// By default, on windows, the process is created hidden and in a new
// process group, so that it can receive a CTRL+BREAK without the
// parent being interrupted too
func createCommand(cfg Config, execPath string, args ...string) *exec.Cmd {
	cmd := exec.Command(execPath, args...)
	cmd.Dir = cfg.Dir
	cmd.Env = cfg.environ()
	if cfg.SysProcAttr != nil {
		attr := *cfg.SysProcAttr
		cmd.SysProcAttr = &attr
	} else {
		cmd.SysProcAttr = NewProcessGroup()
	}
	return cmd
}

// NewProcessGroup returns the default spawn options: hidden window
// and a process group of its own
func NewProcessGroup() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP,
		HideWindow:    true,
	}
}
