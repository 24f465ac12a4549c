package logger

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Level(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, New("debug").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, New("nonsense").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, New("").GetLevel())
}

func TestNew_WritesToStderr(t *testing.T) {
	stdoutR, stdoutW, err := os.Pipe()
	require.NoError(t, err)
	stderrR, stderrW, err := os.Pipe()
	require.NoError(t, err)

	origOut, origErr := os.Stdout, os.Stderr
	os.Stdout, os.Stderr = stdoutW, stderrW
	t.Cleanup(func() { os.Stdout, os.Stderr = origOut, origErr })

	log := New("info")
	log.Info().Msg("dataset loaded")

	os.Stdout, os.Stderr = origOut, origErr
	require.NoError(t, stdoutW.Close())
	require.NoError(t, stderrW.Close())

	out, err := io.ReadAll(stdoutR)
	require.NoError(t, err)
	errOut, err := io.ReadAll(stderrR)
	require.NoError(t, err)

	assert.Empty(t, string(out))
	assert.Contains(t, string(errOut), "dataset loaded")
}

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Str("path", "trades.csv").Msg("dataset loaded")

	assert.Contains(t, buf.String(), "dataset loaded")
	assert.Contains(t, buf.String(), `"path":"trades.csv"`)
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf))

	log := FromContext(ctx)
	log.Warn().Msg("from context")

	assert.Contains(t, buf.String(), "from context")
}

func TestFromContext_DefaultLogger(t *testing.T) {
	log := FromContext(context.Background())
	assert.NotEqual(t, zerolog.Disabled, log.GetLevel())
}
