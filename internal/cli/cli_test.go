//go:build !windows

package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs procctl with args, isolated from any user configuration
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	root := NewRootCommand("test")
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRun_Input(t *testing.T) {
	stdout, _, err := execute(t, "", "run", "--input", "test", "cat")
	require.NoError(t, err)
	assert.Equal(t, "test", stdout)
}

func TestRun_InputFromStdin(t *testing.T) {
	stdout, _, err := execute(t, "from stdin", "run", "--input-file", "-", "--buffered", "cat")
	require.NoError(t, err)
	assert.Equal(t, "from stdin", stdout)
}

func TestRun_InputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.txt")
	require.NoError(t, os.WriteFile(path, []byte("line\n"), 0o644))

	stdout, _, err := execute(t, "", "run", "--input-file", path, "--", "wc", "-l")
	require.NoError(t, err)
	assert.Equal(t, "1", strings.TrimSpace(stdout))
}

func TestRun_ExitCode(t *testing.T) {
	_, _, err := execute(t, "", "run", "exit 3")
	require.Error(t, err)
	assert.Equal(t, 3, ExitCode(err))
}

func TestRun_OutputModes(t *testing.T) {
	for _, mode := range []string{"", "--poll", "--buffered"} {
		t.Run(strings.TrimPrefix(mode, "--")+"mode", func(t *testing.T) {
			args := []string{"run"}
			if mode != "" {
				args = append(args, mode)
			}
			args = append(args, "echo out; echo err >&2")

			stdout, stderr, err := execute(t, "", args...)
			require.NoError(t, err)
			assert.Equal(t, "out\n", stdout)
			assert.Equal(t, "err\n", stderr)
		})
	}
}

func TestRun_PollAndBufferedExclusive(t *testing.T) {
	_, _, err := execute(t, "", "run", "--poll", "--buffered", "true")
	assert.Error(t, err)
}

func TestRun_Timeout(t *testing.T) {
	_, _, err := execute(t, "", "run", "--timeout", "100ms", "sleep", "5")
	require.Error(t, err)
	assert.Equal(t, exitTimeout, ExitCode(err))
	assert.Contains(t, err.Error(), "timed out")
}

func TestRun_Timeout_StopsDescendants(t *testing.T) {
	start := time.Now()
	stdout, _, err := execute(t, "", "run", "--timeout", "200ms", "sleep 4; echo done")

	require.Error(t, err)
	assert.Equal(t, exitTimeout, ExitCode(err))
	assert.NotContains(t, stdout, "done")
	assert.Less(t, time.Since(start), 2*time.Second, "the shell and its sleep are stopped together")
}

func TestRun_Timeout_KillsAfterGrace(t *testing.T) {
	start := time.Now()
	_, _, err := execute(t, "", "run", "--timeout", "200ms", "--kill-grace", "100ms", "trap '' INT; sleep 4")

	require.Error(t, err)
	assert.Equal(t, exitTimeout, ExitCode(err), "a child ignoring SIGINT still times out")
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRun_Timeout_BufferedAndPoll(t *testing.T) {
	for _, mode := range []string{"--buffered", "--poll"} {
		t.Run(strings.TrimPrefix(mode, "--"), func(t *testing.T) {
			start := time.Now()
			_, _, err := execute(t, "", "run", mode, "--timeout", "200ms", "--kill-grace", "100ms", "trap '' INT; sleep 4")

			require.Error(t, err)
			assert.Equal(t, exitTimeout, ExitCode(err))
			assert.Less(t, time.Since(start), 2*time.Second)
		})
	}
}

func TestRun_NullOutput(t *testing.T) {
	stdout, _, err := execute(t, "", "run", "--stdout", "null", "echo hidden")
	require.NoError(t, err)
	assert.Empty(t, stdout)
}

func TestRun_InvalidStreamMode(t *testing.T) {
	_, _, err := execute(t, "", "run", "--stdout", "file", "true")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "process.stdout")
	assert.Equal(t, 1, ExitCode(err))
}

func TestRun_Env(t *testing.T) {
	t.Run("Flag", func(t *testing.T) {
		stdout, _, err := execute(t, "", "run", "-e", "FOO=flag", `printf %s "$FOO"`)
		require.NoError(t, err)
		assert.Equal(t, "flag", stdout)
	})

	t.Run("ConfigFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "procctl.yaml")
		require.NoError(t, os.WriteFile(path, []byte("process:\n  env:\n    - FOO=bar\n"), 0o644))

		stdout, _, err := execute(t, "", "--config", path, "run", `printf %s "$FOO"`)
		require.NoError(t, err)
		assert.Equal(t, "bar", stdout)
	})

	t.Run("FlagOverridesConfigFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "procctl.yaml")
		require.NoError(t, os.WriteFile(path, []byte("process:\n  env:\n    - FOO=bar\n"), 0o644))

		stdout, _, err := execute(t, "", "--config", path, "run", "-e", "FOO=flag", `printf %s "$FOO"`)
		require.NoError(t, err)
		assert.Equal(t, "flag", stdout)
	})

	t.Run("CleanEnv", func(t *testing.T) {
		t.Setenv("PROCCTL_TEST_PARENT", "visible")
		stdout, _, err := execute(t, "", "run", "--clean-env", `printf %s "$PROCCTL_TEST_PARENT"`)
		require.NoError(t, err)
		assert.Empty(t, stdout)
	})
}

func TestRun_MissingConfigFile(t *testing.T) {
	_, _, err := execute(t, "", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "run", "true")
	assert.Error(t, err)
}

func TestRun_Dir(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	stdout, _, err := execute(t, "", "run", "-C", dir, "pwd")
	require.NoError(t, err)
	assert.Equal(t, dir, strings.TrimSpace(stdout))
}

func TestWorker(t *testing.T) {
	stdout, _, err := execute(t, "", "worker", "--", "sh", "-c 'echo hi'")
	require.NoError(t, err)
	assert.Equal(t, "hi\n", stdout)
}

func TestWorker_ScriptFromInput(t *testing.T) {
	stdout, _, err := execute(t, "", "worker", "sh", "--input", "echo from script; exit 2")
	require.Error(t, err)
	assert.Equal(t, 2, ExitCode(err))
	assert.Equal(t, "from script\n", stdout)
}

func TestParseEnv(t *testing.T) {
	env, err := parseEnv(nil)
	require.NoError(t, err)
	assert.Nil(t, env)

	env, err = parseEnv([]string{"A=1", "B=x=y", "C="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1", "B": "x=y", "C": ""}, env)

	_, err = parseEnv([]string{"NOVALUE"})
	assert.Error(t, err)

	_, err = parseEnv([]string{"=value"})
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(assert.AnError))
	assert.Equal(t, 7, ExitCode(&ExitError{Code: 7}))
}
