package proc

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning is returned by Open when the handle already
	// owns a running process
	ErrAlreadyRunning = errors.New("process already running")
	// ErrNotRunning is returned by Close and Kill when there is no
	// active process
	ErrNotRunning = errors.New("process not running")
	// ErrStreamUnavailable is returned when reading or writing a stream
	// that was never piped or that has already been closed
	ErrStreamUnavailable = errors.New("stream unavailable")
	// ErrWriteOnce is returned by WriteInput on its second call
	ErrWriteOnce = errors.New("can only write to stdin once")
	// ErrStart matches every *StartError
	ErrStart = errors.New("process startup failed")
)

// StartError reports a failure of the OS while spawning the process
type StartError struct {
	Name string
	Err  error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("process \"%s\" startup error: %v", e.Name, e.Err)
}

func (e *StartError) Unwrap() error {
	return e.Err
}

func (e *StartError) Is(target error) bool {
	return target == ErrStart
}

// StreamError reports an operation on one of the three standard
// streams that could not be carried out
type StreamError struct {
	Stream Stream
	Err    error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stream, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

func unavailable(s Stream) error {
	return &StreamError{Stream: s, Err: ErrStreamUnavailable}
}
