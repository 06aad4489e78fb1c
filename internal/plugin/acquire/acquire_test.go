package acquire

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireLocalCopiesDirectory(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "AIGIS"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "AIGIS", "AIGIS.config"), []byte("PLUGIN_TYPE=\"external\"\n"), 0o644))

	dst := filepath.Join(t.TempDir(), "greeter")

	ok, err := Acquire(context.Background(), src, dst, hclog.NewNullLogger())
	require.NoError(t, err)
	assert.True(t, ok)

	content, err := os.ReadFile(filepath.Join(dst, "AIGIS", "AIGIS.config"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "external")
}

func TestAcquireLocalLeavesExistingTargetUntouched(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "marker"), []byte("new"), 0o644))

	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dst, "marker"), []byte("old"), 0o644))

	ok, err := Acquire(context.Background(), src, dst, hclog.NewNullLogger())
	require.NoError(t, err)
	assert.True(t, ok)

	content, err := os.ReadFile(filepath.Join(dst, "marker"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(content))
}

func TestNormalizeGitSourceAddsMasterRef(t *testing.T) {
	assert.Equal(t, "git::https://example.com/plugin.git?ref=master", normalizeGitSource("https://example.com/plugin.git"))
	assert.Equal(t, "git::https://example.com/plugin.git?ref=dev", normalizeGitSource("git::https://example.com/plugin.git?ref=dev"))
}
