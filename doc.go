/*
Package proc provides a handle over an external process and its
three standard streams, built on top of os/exec.

A Handle is created from a Config and goes through three states:
not started, running and closed.

	h, err := proc.New(proc.Config{Command: "cat"})
	if err != nil {
		return err
	}
	if err := h.Open(); err != nil {
		return err
	}
	defer h.Release()

	h.WriteString("test")     // writes and closes stdin
	out, _ := h.ReadAllOutput() // "test"
	code, _ := h.Close()

Close closes the remaining streams before waiting for the child, so
a child blocked on a full pipe cannot hang it. Kill closes the streams
too, then sends a signal without waiting. Both leave the Handle ready
for another Open, which spawns a new process. Run wraps the whole
sequence and guarantees the release of the process.

# Streams

Each stream can be piped (the default), bound to the null device or
inherited from the parent, see StreamMode. Only piped streams are
reachable: the others fail with ErrStreamUnavailable. Standard input
can be written only once, since writing closes it to signal the end
of the input to the child.

Pipes are plain os.Pipe files handed to the child, so the output can
still be read after the child has exited, until the Handle is closed.

# Exit status

A background goroutine waits for every child as soon as it starts:
Status never blocks and a killed process is always reaped, so no
zombie is left behind.

# OS Compatibility

On Unix signals are delivered natively. On Windows only SIGINT is
graceful (sent as a CTRL+BREAK event, which is why children are
created in a process group of their own by default), every other
signal terminates the process.
*/
package proc
