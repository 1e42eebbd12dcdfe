package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/viper"

	"github.com/nixpare/proc"
)

const defaultKillGrace = 2 * time.Second

// Settings is the procctl configuration, loaded from the config file,
// PROCCTL_* environment variables and flags (in increasing priority)
type Settings struct {
	LogLevel string          `mapstructure:"log_level"`
	Process  ProcessSettings `mapstructure:"process"`
}

// ProcessSettings mirrors the file-loadable part of proc.Config
type ProcessSettings struct {
	Shell []string `mapstructure:"shell"`
	Dir   string   `mapstructure:"dir"`
	// Env holds KEY=VALUE entries, a list since viper lowercases map keys
	Env        []string `mapstructure:"env"`
	InheritEnv bool     `mapstructure:"inherit_env"`
	// Stdin, Stdout and Stderr accept "pipe", "null" or "inherit"
	Stdin       string        `mapstructure:"stdin"`
	Stdout      string        `mapstructure:"stdout"`
	Stderr      string        `mapstructure:"stderr"`
	ChunkSize   int           `mapstructure:"chunk_size"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// Timeout bounds the wait for the process exit, 0 means no limit
	Timeout time.Duration `mapstructure:"timeout"`
	// KillGrace is the time between SIGINT and SIGKILL once Timeout
	// expires or procctl is interrupted
	KillGrace time.Duration `mapstructure:"kill_grace"`
}

// DefaultSettings returns the settings used when nothing else is configured
func DefaultSettings() Settings {
	return Settings{
		LogLevel: "warn",
		Process: ProcessSettings{
			Shell:       proc.DefaultShell(),
			InheritEnv:  true,
			Stdin:       proc.StreamPipe.String(),
			Stdout:      proc.StreamPipe.String(),
			Stderr:      proc.StreamPipe.String(),
			ChunkSize:   proc.DefaultChunkSize,
			ReadTimeout: 0,
			KillGrace:   defaultKillGrace,
		},
	}
}

// ConfigDir returns the directory searched for config.yaml
func ConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "procctl")
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "procctl")
}

func setDefaults(v *viper.Viper) {
	defaults := DefaultSettings()

	v.SetDefault("log_level", defaults.LogLevel)

	v.SetDefault("process.shell", defaults.Process.Shell)
	v.SetDefault("process.inherit_env", defaults.Process.InheritEnv)
	v.SetDefault("process.stdin", defaults.Process.Stdin)
	v.SetDefault("process.stdout", defaults.Process.Stdout)
	v.SetDefault("process.stderr", defaults.Process.Stderr)
	v.SetDefault("process.chunk_size", defaults.Process.ChunkSize)
	v.SetDefault("process.read_timeout", defaults.Process.ReadTimeout)
	v.SetDefault("process.timeout", defaults.Process.Timeout)
	v.SetDefault("process.kill_grace", defaults.Process.KillGrace)
}

// loadSettings reads the configuration into v. A missing config file
// is not an error, a broken one is
func loadSettings(v *viper.Viper, cfgFile string) (Settings, error) {
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("PROCCTL")
	// e.g. PROCCTL_PROCESS_CHUNK_SIZE for process.chunk_size
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return s, nil
}

// ProcessConfig converts the settings into a proc.Config, leaving the
// command empty
func (s Settings) ProcessConfig(logger hclog.Logger) (proc.Config, error) {
	p := s.Process

	stdin, err := proc.ParseStreamMode(p.Stdin)
	if err != nil {
		return proc.Config{}, fmt.Errorf("process.stdin: %w", err)
	}
	stdout, err := proc.ParseStreamMode(p.Stdout)
	if err != nil {
		return proc.Config{}, fmt.Errorf("process.stdout: %w", err)
	}
	stderr, err := proc.ParseStreamMode(p.Stderr)
	if err != nil {
		return proc.Config{}, fmt.Errorf("process.stderr: %w", err)
	}

	env, err := parseEnv(p.Env)
	if err != nil {
		return proc.Config{}, fmt.Errorf("process.env: %w", err)
	}

	return proc.Config{
		Shell:       p.Shell,
		Dir:         p.Dir,
		Env:         env,
		InheritEnv:  p.InheritEnv,
		Stdin:       stdin,
		Stdout:      stdout,
		Stderr:      stderr,
		ChunkSize:   p.ChunkSize,
		ReadTimeout: p.ReadTimeout,
		Logger:      logger,
	}, nil
}

// parseEnv turns KEY=VALUE entries into a map, nil if there are none
func parseEnv(entries []string) (map[string]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	env := make(map[string]string, len(entries))
	for _, e := range entries {
		k, v, ok := strings.Cut(e, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid entry \"%s\", want KEY=VALUE", e)
		}
		env[k] = v
	}
	return env, nil
}

// NewLogger builds the procctl logger, writing to stderr
func NewLogger(level string) hclog.Logger {
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		lvl = hclog.Warn
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "procctl",
		Level:  lvl,
		Output: os.Stderr,
	})
}
