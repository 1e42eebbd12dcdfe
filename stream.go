package proc

import (
	"errors"
	"io"
	"os"
	"time"
)

// ReadOutput returns up to ChunkSize bytes of the standard output.
// See readChunk for the details
func (h *Handle) ReadOutput() ([]byte, error) {
	return h.readChunk(Stdout)
}

// ReadError returns up to ChunkSize bytes of the standard error.
// See readChunk for the details
func (h *Handle) ReadError() ([]byte, error) {
	return h.readChunk(Stderr)
}

// ReadAllOutput reads the standard output until the child closes it
func (h *Handle) ReadAllOutput() ([]byte, error) {
	return h.readAll(Stdout)
}

// ReadAllError reads the standard error until the child closes it
func (h *Handle) ReadAllError() ([]byte, error) {
	return h.readAll(Stderr)
}

// readChunk performs a single read of at most ChunkSize bytes, so it
// may return less than what the child has written so far. When a
// ReadTimeout is configured and nothing arrives in time it returns
// no data and no error. At the end of the stream it returns io.EOF
func (h *Handle) readChunk(stream Stream) ([]byte, error) {
	f := h.streams.get(stream)
	if f == nil {
		return nil, unavailable(stream)
	}

	var deadline time.Time
	if h.cfg.ReadTimeout > 0 {
		deadline = time.Now().Add(h.cfg.ReadTimeout)
	}
	if err := f.SetReadDeadline(deadline); err != nil && !errors.Is(err, os.ErrNoDeadline) {
		return nil, &StreamError{Stream: stream, Err: err}
	}

	buf := make([]byte, h.cfg.ChunkSize)
	n, err := f.Read(buf)
	switch {
	case err == nil:
		return buf[:n], nil
	case errors.Is(err, os.ErrDeadlineExceeded):
		return buf[:n], nil
	case errors.Is(err, io.EOF):
		if n > 0 {
			return buf[:n], nil
		}
		return nil, io.EOF
	default:
		return buf[:n], &StreamError{Stream: stream, Err: err}
	}
}

// readAll blocks until EOF. Any read deadline left by a previous
// bounded read is cleared first
func (h *Handle) readAll(stream Stream) ([]byte, error) {
	f := h.streams.get(stream)
	if f == nil {
		return nil, unavailable(stream)
	}

	if err := f.SetReadDeadline(time.Time{}); err != nil && !errors.Is(err, os.ErrNoDeadline) {
		return nil, &StreamError{Stream: stream, Err: err}
	}

	b, err := io.ReadAll(f)
	if err != nil {
		return b, &StreamError{Stream: stream, Err: err}
	}
	return b, nil
}

// WriteInput writes data to the standard input of the child and then
// closes it, signaling the end of the input. It can be called only
// once per process: the second call fails with ErrWriteOnce.
//
// The write is synchronous: a child that fills its output pipes
// before consuming all of its input will block both sides, unless
// the outputs are drained concurrently
func (h *Handle) WriteInput(data []byte) error {
	if h.wroteIn {
		return &StreamError{Stream: Stdin, Err: ErrWriteOnce}
	}
	if h.streams.in == nil {
		return unavailable(Stdin)
	}

	_, err := h.streams.in.Write(data)
	closeErr := h.streams.in.Close()
	h.streams.in = nil
	h.wroteIn = true

	if err != nil {
		return &StreamError{Stream: Stdin, Err: err}
	}
	if closeErr != nil {
		return &StreamError{Stream: Stdin, Err: closeErr}
	}
	return nil
}

// WriteString is a shorthand for WriteInput([]byte(s))
func (h *Handle) WriteString(s string) error {
	return h.WriteInput([]byte(s))
}

// CloseInput closes the standard input without writing anything.
// After that WriteInput fails with ErrStreamUnavailable
func (h *Handle) CloseInput() error {
	if h.streams.in == nil {
		return unavailable(Stdin)
	}

	err := h.streams.in.Close()
	h.streams.in = nil
	if err != nil {
		return &StreamError{Stream: Stdin, Err: err}
	}
	return nil
}

// Output returns an io.Reader over the standard output of the current
// process, or nil if the stream is not available. The reader is
// invalidated by Close and Kill
func (h *Handle) Output() io.Reader {
	return readerOrNil(h.streams.out)
}

// Errors returns an io.Reader over the standard error of the current
// process, or nil if the stream is not available
func (h *Handle) Errors() io.Reader {
	return readerOrNil(h.streams.err)
}

func readerOrNil(f *os.File) io.Reader {
	if f == nil {
		return nil
	}
	return f
}
