// Package cli implements the procctl commands
package cli

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ExitError carries the exit code of the child process up to main,
// so that procctl exits the same way
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("process exited with code %d", e.Code)
}

// ExitCode maps an error returned by Execute to a process exit code
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// app carries the state shared by all the subcommands
type app struct {
	v        *viper.Viper
	cfgFile  string
	settings Settings
	logger   hclog.Logger
}

// NewRootCommand builds the procctl command tree
func NewRootCommand(version string) *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "procctl",
		Short: "Run external processes through a proc.Handle",
		Long: `procctl spawns a process with piped standard streams, feeds its
standard input once, collects its output and exits with the child's
exit code.

Configuration is read from $XDG_CONFIG_HOME/procctl/config.yaml (or
./config.yaml), PROCCTL_* environment variables and flags.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is $XDG_CONFIG_HOME/procctl/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (trace, debug, info, warn, error)")
	_ = a.v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(newRunCommand(a))
	rootCmd.AddCommand(newWorkerCommand(a))

	return rootCmd
}

// init binds the flags of the running command and loads the settings.
// Binding happens here since run and worker share the same keys
func (a *app) init(cmd *cobra.Command) error {
	for key, flag := range processFlags {
		if f := cmd.Flags().Lookup(flag); f != nil {
			if err := a.v.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	s, err := loadSettings(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.settings = s
	a.logger = NewLogger(s.LogLevel)
	return nil
}
