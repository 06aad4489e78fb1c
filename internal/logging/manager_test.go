package logging

import (
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"
)

func TestNewManagerCreatesGlobalLogNamedCoreLog(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, hclog.Info, false)
	require.NoError(t, err)
	defer m.Close()

	_, err = m.globalLog.Tail(1)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "core.log"), m.globalLog.path)
}

func TestManagerCloseSweepsUnburiedSinks(t *testing.T) {
	m, err := NewManager(t.TempDir(), hclog.Info, false)
	require.NoError(t, err)

	sink, err := m.Hook("greeter", "abc123")
	require.NoError(t, err)
	sink.Info("hello")

	require.NoError(t, m.Close())
	require.Error(t, sink.Close(), "sink should already be closed by Manager.Close")
}

func TestManagerCloseToleratesAlreadyClosedSink(t *testing.T) {
	m, err := NewManager(t.TempDir(), hclog.Info, false)
	require.NoError(t, err)

	sink, err := m.Hook("greeter", "abc123")
	require.NoError(t, err)
	require.NoError(t, sink.Close())

	require.NoError(t, m.Close(), "Manager.Close must not propagate an already-closed sink's error")
}
