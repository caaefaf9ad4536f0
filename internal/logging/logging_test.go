package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetAndRestore(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	prev := L()
	t.Cleanup(func() { Set(prev) })

	Set(zap.New(core))
	L().Info("hello", zap.String("bus", "default"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "default", logs.All()[0].ContextMap()["bus"])

	Set(nil)
	assert.NotNil(t, L())
}

func TestNew(t *testing.T) {
	l, err := New("debug", true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.DebugLevel))

	_, err = New("loud", false)
	assert.Error(t, err)
}
