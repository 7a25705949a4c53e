package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	t.Run("disabled is a no-op", func(t *testing.T) {
		tel, err := New(&Config{Enabled: false}, zap.NewNop())
		require.NoError(t, err)
		assert.False(t, tel.Degraded())
		assert.NoError(t, tel.Shutdown(context.Background()))
	})

	t.Run("enabled requires service name", func(t *testing.T) {
		_, err := New(&Config{Enabled: true}, zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("enabled initializes meter provider", func(t *testing.T) {
		tel, err := New(&Config{
			Enabled:        true,
			ServiceName:    "memorid-test",
			ServiceVersion: "test",
		}, zap.NewNop())
		require.NoError(t, err)
		assert.False(t, tel.Degraded())
		assert.NoError(t, tel.Shutdown(context.Background()))
	})
}
