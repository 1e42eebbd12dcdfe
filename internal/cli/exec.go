package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/nixpare/proc"
)

// Exit codes used when procctl itself ends the child, as timeout(1)
// and shells do
const (
	exitTimeout     = 124
	exitInterrupted = 130
)

// outputMode selects which proc.Handle API is used to collect the
// child output
type outputMode int

const (
	// outputStream copies the outputs as they are produced
	outputStream outputMode = iota
	// outputPoll alternates bounded reads on the two outputs from a
	// single goroutine, relying on the read timeout
	outputPoll
	// outputBuffered reads both outputs to the end before printing them
	outputBuffered
)

// session drives a started Handle: it feeds the input, collects the
// output and finally closes the process
type session struct {
	h        *proc.Handle
	input    []byte
	hasInput bool
	mode     outputMode
	// group is set when the child leads its own process group
	group  bool
	stdout io.Writer
	stderr io.Writer
	// grace is how long the child has to exit after SIGINT before it
	// gets SIGKILL
	grace  time.Duration
	logger hclog.Logger
}

// run returns the child's exit code, or an error describing why it
// could not be collected
func (s *session) run(ctx context.Context) (int, error) {
	stop := s.watch(ctx)

	var err error
	switch s.mode {
	case outputPoll:
		err = s.poll()
	case outputBuffered:
		err = s.buffered()
	default:
		err = s.stream()
	}
	if err != nil {
		stop()
		_ = s.h.Kill(proc.SIGKILL)
		return -1, err
	}

	code, err := s.h.CloseContext(ctx)
	if stop() {
		return code, err
	}

	// the child was stopped on our side, whatever it exited with
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return exitTimeout, fmt.Errorf("%s: timed out: %w", s.h.Name(), &ExitError{Code: exitTimeout})
	}
	return exitInterrupted, fmt.Errorf("%s: interrupted: %w", s.h.Name(), &ExitError{Code: exitInterrupted})
}

// watch stops the child once ctx ends: SIGINT first, then SIGKILL
// after the grace period or as soon as the leader is gone, so that no
// descendant in its group keeps the output pipes open. The returned
// stop reports false if ctx had already ended.
//
// It only works with the pid and the done channel, the Handle itself
// stays owned by the caller goroutine
func (s *session) watch(ctx context.Context) (stop func() bool) {
	pid, done := s.h.PID(), s.h.Done()
	signal := proc.SignalProcess
	if s.group {
		signal = proc.SignalGroup
	}

	send := func(sig proc.Signal) {
		err := signal(pid, sig)
		if err != nil && !errors.Is(err, os.ErrProcessDone) {
			s.logger.Warn("failed to signal process", "pid", pid, "group", s.group, "signal", sig, "error", err)
		}
	}

	return context.AfterFunc(ctx, func() {
		s.logger.Debug("stopping process", "pid", pid, "group", s.group, "reason", ctx.Err())
		send(proc.SIGINT)

		t := time.NewTimer(s.grace)
		defer t.Stop()
		select {
		case <-done:
			if !s.group {
				return
			}
		case <-t.C:
		}
		send(proc.SIGKILL)
	})
}

// feed writes the input, if any, and closes the standard input so
// that the child sees the end of it
func (s *session) feed() error {
	var err error
	if s.hasInput {
		err = s.h.WriteInput(s.input)
	} else {
		err = s.h.CloseInput()
	}
	if errors.Is(err, proc.ErrStreamUnavailable) {
		return nil
	}
	return err
}

func (s *session) stream() error {
	out, errs := s.h.Output(), s.h.Errors()

	var g errgroup.Group
	g.Go(s.feed)
	if out != nil {
		g.Go(func() error {
			return copyStream(s.stdout, out)
		})
	}
	if errs != nil {
		g.Go(func() error {
			return copyStream(s.stderr, errs)
		})
	}
	return g.Wait()
}

func (s *session) buffered() error {
	if err := s.feed(); err != nil {
		return err
	}

	var out, errs []byte
	var g errgroup.Group
	g.Go(func() (err error) {
		out, err = ignoreUnavailable(s.h.ReadAllOutput())
		return
	})
	g.Go(func() (err error) {
		errs, err = ignoreUnavailable(s.h.ReadAllError())
		return
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if _, err := s.stdout.Write(out); err != nil {
		return err
	}
	_, err := s.stderr.Write(errs)
	return err
}

// poll never blocks on one output for longer than the read timeout,
// so a child writing only to stderr cannot starve it
func (s *session) poll() error {
	if err := s.feed(); err != nil {
		return err
	}

	outDone := s.h.Output() == nil
	errDone := s.h.Errors() == nil

	for !outDone || !errDone {
		if !outDone {
			b, err := s.h.ReadOutput()
			if outDone, err = endOfStream(err); err != nil {
				return err
			}
			if _, err := s.stdout.Write(b); err != nil {
				return err
			}
		}

		if !errDone {
			b, err := s.h.ReadError()
			if errDone, err = endOfStream(err); err != nil {
				return err
			}
			if _, err := s.stderr.Write(b); err != nil {
				return err
			}
		}
	}
	return nil
}

func endOfStream(err error) (bool, error) {
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	return false, err
}

func ignoreUnavailable(b []byte, err error) ([]byte, error) {
	if errors.Is(err, proc.ErrStreamUnavailable) {
		return nil, nil
	}
	return b, err
}

// copyStream copies until the child closes its end. A stream closed
// on our side by Close or Kill is not an error
func copyStream(w io.Writer, r io.Reader) error {
	_, err := io.Copy(w, r)
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}
