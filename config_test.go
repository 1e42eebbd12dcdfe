package proc

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestConfig_WithDefaults(t *testing.T) {
	cfg, err := Config{Command: "echo hi"}.withDefaults()
	require.NoError(t, err)

	assert.Equal(t, "echo hi", cfg.Name)
	assert.Equal(t, DefaultShell(), cfg.Shell)
	assert.Equal(t, DefaultChunkSize, cfg.ChunkSize)
	assert.NotNil(t, cfg.Logger)
	assert.Equal(t, append(DefaultShell(), "echo hi"), cfg.argv())
}

func TestConfig_Argv_WinsOverCommand(t *testing.T) {
	cfg := Config{Command: "ignored", Argv: []string{"ls", "-l"}}

	assert.Equal(t, []string{"ls", "-l"}, cfg.argv())
	assert.Equal(t, "ls -l", cfg.commandLine())
}

func TestConfig_CustomShell(t *testing.T) {
	cfg := Config{Command: "x", Shell: []string{"bash", "-ec"}}
	assert.Equal(t, []string{"bash", "-ec", "x"}, cfg.argv())
}

func TestConfig_Environ(t *testing.T) {
	t.Run("NilInherits", func(t *testing.T) {
		assert.Nil(t, Config{}.environ())
	})

	t.Run("EmptyMapIsEmptyEnv", func(t *testing.T) {
		env := Config{Env: map[string]string{}}.environ()
		assert.NotNil(t, env)
		assert.Empty(t, env)
	})

	t.Run("SortedEntries", func(t *testing.T) {
		env := Config{Env: map[string]string{"B": "2", "A": "1"}}.environ()
		assert.Equal(t, []string{"A=1", "B=2"}, env)
	})

	t.Run("Layered", func(t *testing.T) {
		t.Setenv("PROC_TEST_LAYER", "parent")
		env := Config{Env: map[string]string{"PROC_TEST_LAYER": "child"}, InheritEnv: true}.environ()

		assert.Greater(t, len(env), 1)
		assert.Equal(t, "PROC_TEST_LAYER=child", env[len(env)-1], "own entries come last and win")
		assert.Contains(t, env, "PROC_TEST_LAYER=parent")
		assert.Len(t, env, len(os.Environ())+1)
	})
}

func TestParseStreamMode(t *testing.T) {
	tests := []struct {
		in      string
		want    StreamMode
		wantErr bool
	}{
		{"", StreamPipe, false},
		{"pipe", StreamPipe, false},
		{" NULL ", StreamNull, false},
		{"devnull", StreamNull, false},
		{"inherit", StreamInherit, false},
		{"file", StreamPipe, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStreamMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStreamMode_PropertyBased_StringRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		mode := rapid.SampledFrom([]StreamMode{StreamPipe, StreamNull, StreamInherit}).Draw(t, "mode")
		upper := rapid.Bool().Draw(t, "upper")

		s := mode.String()
		if upper {
			s = strings.ToUpper(s)
		}

		got, err := ParseStreamMode(s)
		require.NoError(t, err)
		assert.Equal(t, mode, got)
	})
}

func TestNames(t *testing.T) {
	assert.Equal(t, "stdin", Stdin.String())
	assert.Equal(t, "stdout", Stdout.String())
	assert.Equal(t, "stderr", Stderr.String())
	assert.Equal(t, "stream(7)", Stream(7).String())

	assert.Equal(t, "SIGTERM", SIGTERM.String())
	assert.Equal(t, "SIGKILL", SIGKILL.String())
	assert.Equal(t, "SIGINT", SIGINT.String())
	assert.Equal(t, "none", Signal(0).String())
	assert.Equal(t, "signal 1", Signal(1).String())

	assert.Equal(t, 15, int(SIGTERM))
	assert.Equal(t, 9, int(SIGKILL))
}
