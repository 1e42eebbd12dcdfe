package proc

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Worker is a Handle running a script or a piece of code through an
// interpreter. It is already open once NewWorker returns
type Worker struct {
	*Handle
	interpreter string
	params      string
}

// WorkerOption customizes the Handle created by NewWorker
type WorkerOption func(cfg *Config)

// WithWorkerDir sets the working directory of the interpreter
func WithWorkerDir(dir string) WorkerOption {
	return func(cfg *Config) {
		cfg.Dir = dir
	}
}

// WithWorkerEnv sets the environment of the interpreter, layered on
// the parent's one
func WithWorkerEnv(env map[string]string) WorkerOption {
	return func(cfg *Config) {
		cfg.Env = env
		cfg.InheritEnv = true
	}
}

func WithWorkerLogger(logger hclog.Logger) WorkerOption {
	return func(cfg *Config) {
		cfg.Logger = logger
	}
}

// WithWorkerConfig lets the caller tweak any other field of the
// underlying configuration. Argv is always overwritten
func WithWorkerConfig(fn func(cfg *Config)) WorkerOption {
	return fn
}

// NewWorker runs `interpreter params`, where params is split with
// ParseCommandArgs: it can be the path of a script followed by its
// arguments or, for interpreters that support it, inline code
// (e.g. `-c 'print(1)'`)
func NewWorker(interpreter string, params string, opts ...WorkerOption) (*Worker, error) {
	if strings.TrimSpace(interpreter) == "" {
		return nil, fmt.Errorf("worker: no interpreter provided")
	}

	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.Argv = append([]string{interpreter}, ParseCommandArgs(params)...)
	if cfg.Name == "" {
		cfg.Name = strings.TrimSpace(interpreter + " " + params)
	}

	h, err := New(cfg)
	if err != nil {
		return nil, err
	}

	if err := h.Open(); err != nil {
		return nil, err
	}

	return &Worker{
		Handle:      h,
		interpreter: interpreter,
		params:      params,
	}, nil
}

func (w *Worker) Interpreter() string {
	return w.interpreter
}

func (w *Worker) Params() string {
	return w.params
}
