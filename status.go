package proc

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Status is a snapshot of the state of the process owned by a Handle
type Status struct {
	Name    string
	Command string
	PID     int
	Running bool
	// ExitCode is -1 while the exit code is not known
	ExitCode   int
	Signaled   bool
	TermSignal Signal
	// KillSignal is the signal sent by Kill or CloseContext, 0 if none.
	// The child may still have exited on its own
	KillSignal Signal
}

func (s Status) String() string {
	switch {
	case s.Running:
		return fmt.Sprintf("%s (Running - %d)", s.Name, s.PID)
	case s.Signaled:
		return fmt.Sprintf("%s (Terminated by %v - %d)", s.Name, s.TermSignal, s.PID)
	case s.ExitCode >= 0:
		return fmt.Sprintf("%s (Exited with %d - %d)", s.Name, s.ExitCode, s.PID)
	default:
		return fmt.Sprintf("%s (Stopped - %d)", s.Name, s.PID)
	}
}

// ExitStatus holds the status information of a process
// after it has exited
type ExitStatus struct {
	PID        int
	ExitCode   int
	Signaled   bool
	TermSignal Signal
	ExitError  error
}

func newExitStatus(pid int, state *os.ProcessState, waitErr error) ExitStatus {
	exit := ExitStatus{
		PID:       pid,
		ExitCode:  -1,
		ExitError: waitErr,
	}
	if state == nil {
		return exit
	}

	exit.ExitCode = state.ExitCode()
	exit.Signaled, exit.TermSignal = terminationSignal(state)

	// a non zero exit code is already reported by ExitCode
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		exit.ExitError = nil
		if exit.Signaled {
			exit.ExitError = exitErr
		}
	}
	return exit
}

// Error returns nil if the process exited cleanly
func (exitStatus ExitStatus) Error() error {
	if exitStatus.ExitCode == 0 && exitStatus.ExitError == nil {
		return nil
	}

	if exitStatus.Signaled {
		return fmt.Errorf("process %d terminated by %v", exitStatus.PID, exitStatus.TermSignal)
	}

	if exitStatus.ExitError != nil {
		return fmt.Errorf("exit status (code %d): %w", exitStatus.ExitCode, exitStatus.ExitError)
	}

	return fmt.Errorf("exit status (code %d)", exitStatus.ExitCode)
}

func (exitStatus ExitStatus) Unwrap() error {
	return exitStatus.ExitError
}
