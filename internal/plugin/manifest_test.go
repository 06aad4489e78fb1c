package plugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "AIGIS.config")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadManifestMissingFile(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "nope.config"))
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, KindConfigMissing, loadErr.Kind)
}

func TestLoadManifestExternal(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
PLUGIN_TYPE = "external"
ENTRYPOINT = "{root}/bin"
LAUNCH = ["./run.sh"]
RESTART = 3
`)

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "external", m.PluginType)
	assert.Equal(t, 3, m.Restart)
	assert.Empty(t, m.Secrets)
}

func TestLoadManifestPromotesInternalToRemoteOnHost(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
PLUGIN_TYPE = "internal"
ENTRYPOINT = "{root}"
LAUNCH = ["{root}/AIGIS/AIGIS.launch.so"]
HOST = "10.0.0.5"
`)

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, string(TypeInternalRemote), m.PluginType)
}

func TestLoadManifestInternalLocalByDefault(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, `
PLUGIN_TYPE = "internal"
ENTRYPOINT = "{root}"
LAUNCH = ["{root}/AIGIS/AIGIS.launch.so"]
`)

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, string(TypeInternalLocal), m.PluginType)
}

func TestContextualizeSubstitutesRootAndIsIdempotent(t *testing.T) {
	m := &Manifest{
		PluginType: string(TypeInternalLocal),
		Entrypoint: "{root}/bin",
		Secrets:    map[string]string{"api_key": "{root}/secrets/key"},
		Launch:     []string{"{root}/AIGIS/AIGIS.launch.so"},
	}

	m.Contextualize("/var/aigis/ext/greeter")
	assert.Equal(t, "/var/aigis/ext/greeter/bin", m.Entrypoint)
	assert.Equal(t, "/var/aigis/ext/greeter/secrets/key", m.Secrets["api_key"])
	assert.Equal(t, "/var/aigis/ext/greeter/AIGIS/AIGIS.launch.so", m.Launch[0])

	before := *m
	m.Contextualize("/var/aigis/ext/greeter")
	assert.Equal(t, before.Entrypoint, m.Entrypoint)
	assert.Equal(t, before.Launch[0], m.Launch[0])
}

func TestContextualizeLeavesExternalLaunchUntouched(t *testing.T) {
	m := &Manifest{
		PluginType: string(TypeExternal),
		Launch:     []string{"{root}/run.sh", "--flag"},
	}
	m.Contextualize("/var/aigis/ext/worker")
	assert.Equal(t, "{root}/run.sh", m.Launch[0])
}
