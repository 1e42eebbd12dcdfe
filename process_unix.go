//go:build !windows

package proc

import (
	"os/exec"
	"syscall"
)

// DefaultShell is the prefix used to run Config.Command
func DefaultShell() []string {
	return []string{"/bin/sh", "-c"}
}

// createCommand creates a *exec.Cmd suitable for the platform
func createCommand(cfg Config, execPath string, args ...string) *exec.Cmd {
	cmd := exec.Command(execPath, args...)
	cmd.Dir = cfg.Dir
	cmd.Env = cfg.environ()
	if cfg.SysProcAttr != nil {
		attr := *cfg.SysProcAttr
		cmd.SysProcAttr = &attr
	}
	return cmd
}

// NewProcessGroup returns spawn options that place the child in a
// process group of its own, so that terminal signals sent to the
// parent's group do not reach it
func NewProcessGroup() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
