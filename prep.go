package proc

import (
	"errors"
	"os"
	"os/exec"
)

// streamSet holds the parent side of the three standard streams.
// A nil entry means that the stream is not reachable, either because
// it was not piped or because it has already been closed
type streamSet struct {
	in  *os.File
	out *os.File
	err *os.File
}

func (s *streamSet) get(stream Stream) *os.File {
	switch stream {
	case Stdin:
		return s.in
	case Stdout:
		return s.out
	case Stderr:
		return s.err
	}
	return nil
}

// closeAll closes every stream still open and forgets about them
func (s *streamSet) closeAll() error {
	var errs []error
	for _, f := range []**os.File{&s.in, &s.out, &s.err} {
		if *f == nil {
			continue
		}
		if err := (*f).Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, err)
		}
		*f = nil
	}
	return errors.Join(errs...)
}

// prepareStreams connects the standard streams of cmd following the
// configured modes. The returned childEnds must be closed by the
// parent once the child has been started (or has failed to start).
//
// Pipes are created with os.Pipe and handed over as *os.File, so that
// exec.Cmd.Wait never closes the parent side and never spawns copying
// goroutines: the output stays readable even after the child is gone
func (h *Handle) prepareStreams(cmd *exec.Cmd) (streams streamSet, childEnds []*os.File, err error) {
	defer func() {
		if err != nil {
			streams.closeAll()
			closeFiles(childEnds)
			childEnds = nil
		}
	}()

	// STDIN
	switch h.cfg.Stdin {
	case StreamPipe:
		var r *os.File
		r, streams.in, err = os.Pipe()
		if err != nil {
			return
		}
		childEnds = append(childEnds, r)
		cmd.Stdin = r
	case StreamNull:
		var null *os.File
		null, err = DevNull()
		if err != nil {
			return
		}
		childEnds = append(childEnds, null)
		cmd.Stdin = null
	case StreamInherit:
		cmd.Stdin = os.Stdin
	}

	// STDOUT
	cmd.Stdout, streams.out, childEnds, err = prepareOutput(h.cfg.Stdout, os.Stdout, childEnds)
	if err != nil {
		return
	}

	// STDERR
	cmd.Stderr, streams.err, childEnds, err = prepareOutput(h.cfg.Stderr, os.Stderr, childEnds)
	return
}

func prepareOutput(mode StreamMode, inherit *os.File, childEnds []*os.File) (child *os.File, parent *os.File, _ []*os.File, err error) {
	switch mode {
	case StreamPipe:
		parent, child, err = os.Pipe()
		if err != nil {
			return nil, nil, childEnds, err
		}
		childEnds = append(childEnds, child)
	case StreamNull:
		child, err = DevNull()
		if err != nil {
			return nil, nil, childEnds, err
		}
		childEnds = append(childEnds, child)
	case StreamInherit:
		child = inherit
	}
	return child, parent, childEnds, nil
}

func closeFiles(files []*os.File) {
	for _, f := range files {
		f.Close()
	}
}
