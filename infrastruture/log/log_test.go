package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	t.Run("nil writer is rejected", func(t *testing.T) {
		_, err := New("APP", "\033[36m", nil)
		assert.ErrorIs(t, err, ErrNilWriter)
	})

	t.Run("lines carry prefix and level", func(t *testing.T) {
		var buf bytes.Buffer
		l, err := New("SESSION", "\033[36m", &buf)
		require.NoError(t, err)

		l.Info("session started")
		l.Warning("grid record degraded")
		l.Error("broker unreachable")

		out := buf.String()
		assert.Contains(t, out, "[SESSION]")
		assert.Contains(t, out, "[INFO]")
		assert.Contains(t, out, "session started")
		assert.Contains(t, out, "[WARNING]")
		assert.Contains(t, out, "[ERROR]")
		assert.Contains(t, out, "broker unreachable")
	})
}
