package plugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckRequirementsMissingSystemBinary(t *testing.T) {
	m := &Manifest{SystemRequirements: []string{"definitely-not-a-real-binary"}}
	err := checkRequirements(m)
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, KindRequirementError, loadErr.Kind)
}

func TestCheckRequirementsPassesWithNoneDeclared(t *testing.T) {
	m := &Manifest{}
	assert.NoError(t, checkRequirements(m))
}

func TestStageSecretsMissingFileIsReported(t *testing.T) {
	m := &Manifest{Secrets: map[string]string{"api_key": filepath.Join(t.TempDir(), "dest")}}
	err := stageSecrets(m, "greeter", t.TempDir())
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, KindMissingSecretError, loadErr.Kind)
}

func TestStageSecretsCopiesPresentFile(t *testing.T) {
	secretStore := t.TempDir()
	pluginRoot := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(secretStore, "greeter"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(secretStore, "greeter", "api_key"), []byte("sekrit"), 0o600))

	dest := filepath.Join(pluginRoot, "secrets", "api_key")
	m := &Manifest{Secrets: map[string]string{"api_key": dest}}

	require.NoError(t, stageSecrets(m, "greeter", secretStore))

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "sekrit", string(content))
}
