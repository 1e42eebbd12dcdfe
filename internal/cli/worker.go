package cli

import (
	"github.com/spf13/cobra"

	"github.com/nixpare/proc"
)

func newWorkerCommand(a *app) *cobra.Command {
	var in inputFlags

	cmd := &cobra.Command{
		Use:   "worker [flags] -- interpreter [params]",
		Short: "Run a script or a piece of code through an interpreter",
		Long: `Worker runs "interpreter params", where params is a single argument
split like a shell would do: a script path with its arguments or
inline code for the interpreters that accept it.`,
		Example: `  procctl worker -- python3 "script.py --verbose"
  procctl worker -- sh "-c 'echo hello'"
  procctl worker php --input "<?php echo 1;"`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.processConfig(cmd)
			if err != nil {
				return err
			}

			input, hasInput, err := in.load(cmd)
			if err != nil {
				return err
			}

			var params string
			if len(args) > 1 {
				params = args[1]
			}

			w, err := proc.NewWorker(args[0], params,
				proc.WithWorkerConfig(func(c *proc.Config) {
					*c = cfg
				}),
			)
			if err != nil {
				return err
			}
			defer w.Release()

			return a.execute(cmd, &session{
				h:        w.Handle,
				input:    input,
				hasInput: hasInput,
				mode:     outputBuffered,
				group:    cfg.SysProcAttr != nil,
				stdout:   cmd.OutOrStdout(),
				stderr:   cmd.ErrOrStderr(),
			})
		},
	}

	in.register(cmd)
	registerProcessFlags(cmd)

	return cmd
}
