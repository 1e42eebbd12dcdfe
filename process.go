package proc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// run tracks a single spawned child. A Handle creates a new run at
// every Open, the reaper goroutine fills exit when the child is gone
type run struct {
	cmd  *exec.Cmd
	pid  int
	done chan struct{}

	mu     sync.Mutex
	exit   *ExitStatus
	killed Signal
}

func (r *run) exitStatus() (ExitStatus, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.exit == nil {
		return ExitStatus{}, false
	}
	return *r.exit, true
}

// Handle owns one external process at a time together with its
// three standard streams.
//
// Caller facing methods are synchronous and the Handle is not meant
// to be shared between goroutines, with the only exception of
// ReadAllOutput and ReadAllError which can drain the two output
// streams in parallel. A Handle can be reopened after Close or Kill:
// every Open spawns a brand new process with fresh streams
type Handle struct {
	id     string
	cfg    Config
	logger hclog.Logger

	cur     *run
	last    *run
	streams streamSet
	wroteIn bool
}

// New creates a Handle for the given configuration, without
// starting anything
func New(cfg Config) (*Handle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("process \"%s\": %w", cfg.commandLine(), err)
	}

	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, fmt.Errorf("process \"%s\": %w", cfg.commandLine(), err)
	}

	id := uuid.NewString()
	return &Handle{
		id:     id,
		cfg:    cfg,
		logger: cfg.Logger.Named("proc").With("id", id, "name", cfg.Name),
	}, nil
}

// Open spawns the configured command. It fails with ErrAlreadyRunning
// if the Handle already owns a process and with a *StartError if the
// OS could not create it
func (h *Handle) Open() error {
	if h.cur != nil {
		return fmt.Errorf("process \"%s\": %w", h.cfg.Name, ErrAlreadyRunning)
	}

	argv := h.cfg.argv()
	cmd := createCommand(h.cfg, argv[0], argv[1:]...)

	streams, childEnds, err := h.prepareStreams(cmd)
	if err != nil {
		h.logger.Warn("pipe creation failed", "error", err)
		return &StartError{Name: h.cfg.Name, Err: fmt.Errorf("pipe error: %w", err)}
	}

	err = cmd.Start()
	closeFiles(childEnds)
	if err != nil {
		streams.closeAll()
		h.logger.Warn("process startup failed", "argv", argv, "error", err)
		return &StartError{Name: h.cfg.Name, Err: err}
	}

	r := &run{
		cmd:  cmd,
		pid:  cmd.Process.Pid,
		done: make(chan struct{}),
	}
	go h.reap(r)

	h.cur = r
	h.streams = streams
	h.wroteIn = false

	h.logger.Debug("process started", "pid", r.pid, "argv", argv)
	return nil
}

// reap waits for the child, so that it never lingers as a zombie even
// after Kill, and records its exit status
func (h *Handle) reap(r *run) {
	err := r.cmd.Wait()
	exit := newExitStatus(r.pid, r.cmd.ProcessState, err)

	r.mu.Lock()
	r.exit = &exit
	r.mu.Unlock()
	close(r.done)

	h.logger.Trace("process exited", "pid", r.pid, "exit_code", exit.ExitCode, "signaled", exit.Signaled)
}

// Status returns a snapshot of the current process, or of the last
// one if the Handle has been closed. It returns nil if the Handle was
// never opened
func (h *Handle) Status() *Status {
	r := h.cur
	if r == nil {
		r = h.last
	}
	if r == nil {
		return nil
	}

	s := &Status{
		Name:     h.cfg.Name,
		Command:  h.cfg.commandLine(),
		PID:      r.pid,
		Running:  h.cur != nil,
		ExitCode: -1,
	}

	exit, exited := r.exitStatus()
	if exited {
		s.Running = false
		s.ExitCode = exit.ExitCode
		s.Signaled = exit.Signaled
		s.TermSignal = exit.TermSignal
	}

	r.mu.Lock()
	killed := r.killed
	r.mu.Unlock()
	if killed != 0 {
		s.Running = false
		s.KillSignal = killed
		// until the child is reaped the requested signal is the best guess
		if !exited {
			s.Signaled = true
			s.TermSignal = killed
		}
	}

	return s
}

// Close closes every stream still open, then waits for the process to
// exit and returns its exit code (-1 if it was terminated by a signal).
// The streams are closed first so that a child blocked writing to a
// full pipe cannot deadlock the wait
func (h *Handle) Close() (int, error) {
	if h.cur == nil {
		return -1, fmt.Errorf("process \"%s\": %w", h.cfg.Name, ErrNotRunning)
	}

	r := h.detach()
	<-r.done

	exit, _ := r.exitStatus()
	h.logger.Debug("process closed", "pid", r.pid, "exit_code", exit.ExitCode)
	return exit.ExitCode, nil
}

// CloseContext behaves like Close, but if ctx is done before the
// process exits the process is killed with SIGKILL and the context
// error is returned. A process that has already exited always wins
// over a done context
func (h *Handle) CloseContext(ctx context.Context) (int, error) {
	if h.cur == nil {
		return -1, fmt.Errorf("process \"%s\": %w", h.cfg.Name, ErrNotRunning)
	}

	r := h.detach()
	select {
	case <-r.done:
		exit, _ := r.exitStatus()
		h.logger.Debug("process closed", "pid", r.pid, "exit_code", exit.ExitCode)
		return exit.ExitCode, nil
	case <-ctx.Done():
	}

	select {
	case <-r.done:
		exit, _ := r.exitStatus()
		h.logger.Debug("process closed", "pid", r.pid, "exit_code", exit.ExitCode)
		return exit.ExitCode, nil
	default:
	}

	r.mu.Lock()
	r.killed = SIGKILL
	r.mu.Unlock()

	if err := sendSignal(r.cmd.Process, SIGKILL); err != nil && !errors.Is(err, os.ErrProcessDone) {
		h.logger.Warn("kill after context end failed", "pid", r.pid, "error", err)
	}
	<-r.done

	h.logger.Debug("process killed on context end", "pid", r.pid, "reason", ctx.Err())
	return -1, ctx.Err()
}

// Kill closes every stream still open and sends sig to the process,
// without waiting for it to exit. The Handle is considered closed
// right away
func (h *Handle) Kill(sig Signal) error {
	if h.cur == nil {
		return fmt.Errorf("process \"%s\": %w", h.cfg.Name, ErrNotRunning)
	}

	r := h.detach()

	r.mu.Lock()
	r.killed = sig
	r.mu.Unlock()

	err := sendSignal(r.cmd.Process, sig)
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("process \"%s\" kill error: %w", h.cfg.Name, err)
	}

	h.logger.Debug("process killed", "pid", r.pid, "signal", sig)
	return nil
}

// Release closes the process if it is still running and does nothing
// otherwise. It is meant to be deferred right after a successful Open
func (h *Handle) Release() error {
	if h.cur == nil {
		return nil
	}
	_, err := h.Close()
	return err
}

// Wait blocks until the current process, or the last one, has exited
// and returns its exit status. It returns a zero ExitStatus if the
// Handle was never opened
func (h *Handle) Wait() ExitStatus {
	r := h.cur
	if r == nil {
		r = h.last
	}
	if r == nil {
		return ExitStatus{}
	}

	<-r.done
	exit, _ := r.exitStatus()
	return exit
}

// Done returns a channel closed once the current process, or the last
// one, has exited. It returns nil if the Handle was never opened.
// Unlike the other methods it can be used from any goroutine
func (h *Handle) Done() <-chan struct{} {
	r := h.cur
	if r == nil {
		r = h.last
	}
	if r == nil {
		return nil
	}
	return r.done
}

// detach closes the streams and moves the current run into the
// history, leaving the Handle ready for another Open
func (h *Handle) detach() *run {
	if err := h.streams.closeAll(); err != nil {
		h.logger.Debug("stream close error", "error", err)
	}

	r := h.cur
	h.last = r
	h.cur = nil
	h.wroteIn = false
	return r
}

// IsRunning reports whether the Handle owns a process that has not
// exited yet
func (h *Handle) IsRunning() bool {
	if h.cur == nil {
		return false
	}
	_, exited := h.cur.exitStatus()
	return !exited
}

// PID returns the pid of the current process, or 0
func (h *Handle) PID() int {
	if h.cur == nil {
		return 0
	}
	return h.cur.pid
}

func (h *Handle) ID() string {
	return h.id
}

func (h *Handle) Name() string {
	return h.cfg.Name
}

func (h *Handle) String() string {
	var state string
	switch {
	case h.cur != nil:
		state = fmt.Sprintf("Running - %d", h.cur.pid)
	case h.last != nil:
		state = "Closed"
	default:
		state = "Not started"
	}
	return fmt.Sprintf("%s (%s)", h.cfg.Name, state)
}
