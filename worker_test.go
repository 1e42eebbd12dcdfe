//go:build !windows

package proc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorker_RunsInlineCode(t *testing.T) {
	w, err := NewWorker("sh", `-c 'echo "$0 $1"' first second`)
	require.NoError(t, err)
	defer w.Release()

	assert.True(t, w.Status().Running, "worker is open on construction")
	assert.Equal(t, "sh", w.Interpreter())

	out, err := w.ReadAllOutput()
	require.NoError(t, err)
	assert.Equal(t, "first second\n", string(out))

	code, err := w.Close()
	require.NoError(t, err)
	assert.Equal(t, 0, code)
}

func TestNewWorker_ScriptFromInput(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWorker("sh", "",
		WithWorkerDir(dir),
		WithWorkerEnv(map[string]string{"GREETING": "hello"}),
	)
	require.NoError(t, err)
	defer w.Release()

	require.NoError(t, w.WriteString(`echo "$GREETING"; exit 4`))

	out, err := w.ReadAllOutput()
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))

	code, err := w.Close()
	require.NoError(t, err)
	assert.Equal(t, 4, code)
}

func TestNewWorker_Config(t *testing.T) {
	w, err := NewWorker("cat", "", WithWorkerConfig(func(cfg *Config) {
		cfg.Name = "echoer"
		cfg.ChunkSize = 2
	}))
	require.NoError(t, err)
	defer w.Release()

	require.NoError(t, w.WriteString("abc"))

	b, err := w.ReadOutput()
	require.NoError(t, err)
	assert.LessOrEqual(t, len(b), 2)
	assert.Equal(t, "echoer", w.Name())
}

func TestNewWorker_InvalidInterpreter(t *testing.T) {
	_, err := NewWorker("  ", "script")
	assert.Error(t, err)

	_, err = NewWorker("/nonexistent/interpreter", "script")
	assert.ErrorIs(t, err, ErrStart)
}
