package proc

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
)

// DefaultChunkSize is the maximum number of bytes returned by a
// single ReadOutput or ReadError call
const DefaultChunkSize = 1024

// Stream identifies one of the three standard streams of a process
type Stream int

const (
	Stdin Stream = iota
	Stdout
	Stderr
)

func (s Stream) String() string {
	switch s {
	case Stdin:
		return "stdin"
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return fmt.Sprintf("stream(%d)", int(s))
	}
}

// StreamMode tells how a standard stream of the child is connected.
// Only StreamPipe streams are reachable through the Handle methods
type StreamMode int

const (
	// StreamPipe connects the stream to a pipe owned by the Handle
	StreamPipe StreamMode = iota
	// StreamNull connects the stream to the null device
	StreamNull
	// StreamInherit shares the stream with the parent process
	StreamInherit
)

func (m StreamMode) String() string {
	switch m {
	case StreamPipe:
		return "pipe"
	case StreamNull:
		return "null"
	case StreamInherit:
		return "inherit"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseStreamMode is the inverse of StreamMode.String; the empty
// string maps to StreamPipe
func ParseStreamMode(s string) (StreamMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pipe":
		return StreamPipe, nil
	case "null", "devnull":
		return StreamNull, nil
	case "inherit":
		return StreamInherit, nil
	default:
		return StreamPipe, fmt.Errorf("unknown stream mode \"%s\"", s)
	}
}

// Config describes the process a Handle spawns. It is copied by New,
// so changing it afterwards has no effect on the Handle
type Config struct {
	// Name is used in logs and error messages, defaults to the command line
	Name string
	// Command is a command line run through Shell
	Command string
	// Argv, when not empty, is executed directly and Command is ignored
	Argv []string
	// Shell is the prefix used to run Command, defaults to DefaultShell()
	Shell []string
	// Dir is the working directory, empty means the parent's one
	Dir string
	// Env is the environment of the child. A nil map inherits the
	// parent environment, a non-nil map replaces it unless InheritEnv
	// is set
	Env        map[string]string
	InheritEnv bool

	Stdin  StreamMode
	Stdout StreamMode
	Stderr StreamMode

	// ChunkSize bounds ReadOutput and ReadError, defaults to DefaultChunkSize
	ChunkSize int
	// ReadTimeout, if positive, makes bounded reads return no data
	// instead of waiting longer than this
	ReadTimeout time.Duration

	// SysProcAttr holds platform specific spawn options. When nil the
	// platform default is used
	SysProcAttr *syscall.SysProcAttr
	Logger      hclog.Logger
}

// Validate checks the configuration without touching defaults
func (c Config) Validate() error {
	if len(c.Argv) == 0 && strings.TrimSpace(c.Command) == "" {
		return fmt.Errorf("no command provided")
	}
	if len(c.Argv) > 0 && c.Argv[0] == "" {
		return fmt.Errorf("empty executable in argv")
	}
	if c.ChunkSize < 0 {
		return fmt.Errorf("invalid chunk size %d", c.ChunkSize)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("invalid read timeout %v", c.ReadTimeout)
	}
	for _, m := range []StreamMode{c.Stdin, c.Stdout, c.Stderr} {
		if m < StreamPipe || m > StreamInherit {
			return fmt.Errorf("invalid stream mode %d", int(m))
		}
	}

	if c.Dir != "" {
		info, err := os.Stat(c.Dir)
		if err != nil {
			return fmt.Errorf("directory \"%s\" not found", c.Dir)
		}
		if !info.IsDir() {
			return fmt.Errorf("\"%s\" is not a directory", c.Dir)
		}
	}

	return nil
}

// withDefaults returns a deep enough copy of c with every unset
// field filled in
func (c Config) withDefaults() (Config, error) {
	if len(c.Argv) > 0 {
		c.Argv = append([]string(nil), c.Argv...)
	}

	if len(c.Shell) == 0 {
		c.Shell = DefaultShell()
	} else {
		c.Shell = append([]string(nil), c.Shell...)
	}

	if c.Env != nil {
		env := make(map[string]string, len(c.Env))
		for k, v := range c.Env {
			env[k] = v
		}
		c.Env = env
	}

	if c.Dir != "" {
		wd, err := filepath.Abs(c.Dir)
		if err != nil {
			return c, err
		}
		c.Dir = wd
	}

	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}

	if c.Name == "" {
		c.Name = c.commandLine()
	}

	if c.Logger == nil {
		c.Logger = hclog.NewNullLogger()
	}

	return c, nil
}

// argv returns the program and its arguments as they will be executed
func (c Config) argv() []string {
	if len(c.Argv) > 0 {
		return append([]string(nil), c.Argv...)
	}

	shell := c.Shell
	if len(shell) == 0 {
		shell = DefaultShell()
	}
	return append(append([]string(nil), shell...), c.Command)
}

func (c Config) commandLine() string {
	if len(c.Argv) > 0 {
		return strings.Join(c.Argv, " ")
	}
	return c.Command
}

// environ builds the child environment, nil meaning "inherit"
func (c Config) environ() []string {
	if c.Env == nil {
		return nil
	}

	var env []string
	if c.InheritEnv {
		env = os.Environ()
	}

	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		env = append(env, k+"="+c.Env[k])
	}
	if env == nil {
		env = []string{}
	}
	return env
}
