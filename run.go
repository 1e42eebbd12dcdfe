package proc

import "errors"

// Run creates a Handle for cfg, opens it and passes it to fn. The
// process is always closed when fn returns, whatever happened inside
// it, and its exit code is returned together with every error met
// along the way. If fn already closed or killed the Handle the exit
// code is taken from the last process
func Run(cfg Config, fn func(h *Handle) error) (int, error) {
	h, err := New(cfg)
	if err != nil {
		return -1, err
	}

	if err := h.Open(); err != nil {
		return -1, err
	}

	fnErr := fn(h)
	releaseErr := h.Release()

	exit := h.Wait()
	return exit.ExitCode, errors.Join(fnErr, releaseErr)
}
