package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/nixpare/proc"
)

// defaultPollTimeout is the read timeout used by --poll when none is configured
const defaultPollTimeout = 50 * time.Millisecond

type inputFlags struct {
	input     string
	inputFile string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "data written once to the standard input of the child")
	cmd.Flags().StringVar(&f.inputFile, "input-file", "", "file whose content is written to the standard input of the child (- for procctl's own stdin)")
	cmd.MarkFlagsMutuallyExclusive("input", "input-file")
}

// load returns the configured input and whether there is one at all
func (f *inputFlags) load(cmd *cobra.Command) ([]byte, bool, error) {
	switch {
	case cmd.Flags().Changed("input"):
		return []byte(f.input), true, nil
	case f.inputFile == "-":
		b, err := io.ReadAll(cmd.InOrStdin())
		return b, true, err
	case f.inputFile != "":
		b, err := os.ReadFile(f.inputFile)
		return b, true, err
	default:
		return nil, false, nil
	}
}

// processFlags maps the configuration keys to the flags overriding them
var processFlags = map[string]string{
	"process.dir":          "dir",
	"process.env":          "env",
	"process.stdin":        "stdin",
	"process.stdout":       "stdout",
	"process.stderr":       "stderr",
	"process.chunk_size":   "chunk-size",
	"process.read_timeout": "read-timeout",
	"process.timeout":      "timeout",
	"process.kill_grace":   "kill-grace",
}

// registerProcessFlags adds the flags listed in processFlags to cmd.
// They are bound to the configuration only when cmd runs, see app.init
func registerProcessFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("dir", "C", "", "working directory of the child")
	flags.StringArrayP("env", "e", nil, "KEY=VALUE added to the environment of the child (repeatable)")
	flags.Bool("clean-env", false, "do not inherit procctl's environment")
	flags.String("stdin", "", "stdin mode: pipe, null or inherit")
	flags.String("stdout", "", "stdout mode: pipe, null or inherit")
	flags.String("stderr", "", "stderr mode: pipe, null or inherit")
	flags.Int("chunk-size", 0, "maximum size of a single bounded read")
	flags.Duration("read-timeout", 0, "timeout of a single bounded read")
	flags.DurationP("timeout", "t", 0, "stop the child if it is still running after this long")
	flags.Duration("kill-grace", 0, "time the child has to exit after SIGINT before it is killed")
}

func (a *app) processConfig(cmd *cobra.Command) (proc.Config, error) {
	cfg, err := a.settings.ProcessConfig(a.logger)
	if err != nil {
		return cfg, err
	}
	// the whole tree of the child can then be stopped on timeout or
	// CTRL+C. A child reading the terminal must stay in the foreground
	// group instead
	if cfg.Stdin != proc.StreamInherit {
		cfg.SysProcAttr = proc.NewProcessGroup()
	}

	if clean, _ := cmd.Flags().GetBool("clean-env"); clean {
		cfg.InheritEnv = false
		if cfg.Env == nil {
			cfg.Env = map[string]string{}
		}
	}
	return cfg, nil
}

// execute runs the session bound to the command context, the
// configured timeout and CTRL+C
func (a *app) execute(cmd *cobra.Command, s *session) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	if timeout := a.settings.Process.Timeout; timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, timeout)
		defer cancelTimeout()
	}

	s.grace = a.settings.Process.KillGrace
	s.logger = a.logger
	code, err := s.run(ctx)
	if err != nil {
		return err
	}

	a.logger.Debug("process exited", "name", s.h.Name(), "exit_code", code)
	if code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

func newRunCommand(a *app) *cobra.Command {
	var (
		in       inputFlags
		poll     bool
		buffered bool
	)

	cmd := &cobra.Command{
		Use:   "run [flags] -- command [args...]",
		Short: "Run a command and collect its output",
		Long: `Run spawns a command with piped standard streams. A single argument is
run through the configured shell, more arguments are executed directly.

The input, if given, is written once and the standard input is then
closed. The output is copied as it is produced, unless --poll or
--buffered is set.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.processConfig(cmd)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				cfg.Command = args[0]
			} else {
				cfg.Argv = args
			}

			mode := outputStream
			switch {
			case poll:
				mode = outputPoll
				if cfg.ReadTimeout <= 0 {
					cfg.ReadTimeout = defaultPollTimeout
				}
			case buffered:
				mode = outputBuffered
			}

			input, hasInput, err := in.load(cmd)
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}

			h, err := proc.New(cfg)
			if err != nil {
				return err
			}
			if err := h.Open(); err != nil {
				return err
			}
			defer h.Release()

			return a.execute(cmd, &session{
				h:        h,
				input:    input,
				hasInput: hasInput,
				mode:     mode,
				group:    cfg.SysProcAttr != nil,
				stdout:   cmd.OutOrStdout(),
				stderr:   cmd.ErrOrStderr(),
			})
		},
	}

	in.register(cmd)
	cmd.Flags().BoolVar(&poll, "poll", false, "collect the output with bounded reads from a single goroutine")
	cmd.Flags().BoolVar(&buffered, "buffered", false, "print the output only once the child has closed it")
	cmd.MarkFlagsMutuallyExclusive("poll", "buffered")
	registerProcessFlags(cmd)

	return cmd
}
