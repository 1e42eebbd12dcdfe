package proc

import "fmt"

// Signal is a POSIX signal number. On Windows only SIGINT has a
// graceful meaning, every other signal terminates the process
type Signal int

const (
	SIGINT  Signal = 2
	SIGKILL Signal = 9
	SIGTERM Signal = 15
)

func (s Signal) String() string {
	switch s {
	case 0:
		return "none"
	case SIGINT:
		return "SIGINT"
	case SIGKILL:
		return "SIGKILL"
	case SIGTERM:
		return "SIGTERM"
	default:
		return fmt.Sprintf("signal %d", int(s))
	}
}

// StopProcess asks the process with the given pid to stop, the same
// way a CTRL+C would
func StopProcess(pid int) error {
	return stopProcess(pid)
}

// SignalProcess sends sig to the process with the given pid. It
// returns os.ErrProcessDone when there is no such process
func SignalProcess(pid int, sig Signal) error {
	if pid <= 0 {
		return fmt.Errorf("invalid pid %d", pid)
	}
	return signalProcess(pid, sig)
}

// SignalGroup sends sig to every process in the group led by pgid.
// The leader must have been started with NewProcessGroup. It returns
// os.ErrProcessDone when the group no longer exists.
//
// On windows SIGINT becomes a CTRL+BREAK for the whole group, while
// any other signal only terminates the leader
func SignalGroup(pgid int, sig Signal) error {
	if pgid <= 1 {
		return fmt.Errorf("invalid process group %d", pgid)
	}
	return signalGroup(pgid, sig)
}
