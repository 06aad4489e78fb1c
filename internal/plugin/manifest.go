package plugin

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest is the decoded form of a plugin's AIGIS/AIGIS.config file.
//
// LAUNCH carries different meaning by type: for external plugins it is the
// full argv to exec; for internal-local and internal-remote plugins it is
// a one-element slice holding the path to the launch file the injector
// will open as a Go plugin.
type Manifest struct {
	PluginType         string            `toml:"PLUGIN_TYPE"`
	Entrypoint         string            `toml:"ENTRYPOINT"`
	Launch             []string          `toml:"LAUNCH"`
	RequirementFile    string            `toml:"REQUIREMENT_FILE"`
	RequirementCommand []string          `toml:"REQUIREMENT_COMMAND"`
	SystemRequirements []string          `toml:"SYSTEM_REQUIREMENTS"`
	Secrets            map[string]string `toml:"SECRETS"`
	Host               string            `toml:"HOST"`
	Restart            int               `toml:"RESTART"`
	Skills             []string          `toml:"SKILLS"`
}

// LoadManifest reads and decodes a plugin manifest, normalizing optional
// fields and promoting "internal" to "internal-remote" when a HOST is set.
func LoadManifest(path string) (*Manifest, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, NewLoadError(KindConfigMissing, "no manifest found at %s", path)
	}

	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, WrapLoadError(KindConfigMissing, err, "manifest at %s is invalid", path)
	}

	if m.Secrets == nil {
		m.Secrets = map[string]string{}
	}
	if m.RequirementCommand == nil {
		m.RequirementCommand = []string{}
	}
	if m.SystemRequirements == nil {
		m.SystemRequirements = []string{}
	}

	if m.PluginType == "internal" {
		if m.Host != "" {
			m.PluginType = string(TypeInternalRemote)
		} else {
			m.PluginType = string(TypeInternalLocal)
		}
	}

	return &m, nil
}

// Contextualize substitutes "{root}" with the plugin's runtime root across
// every field that supports it. It is idempotent: a field with no
// occurrence of the placeholder is left untouched, so calling it twice is
// harmless.
func (m *Manifest) Contextualize(root string) {
	m.Entrypoint = strings.ReplaceAll(m.Entrypoint, "{root}", root)
	m.RequirementFile = strings.ReplaceAll(m.RequirementFile, "{root}", root)

	for key, dest := range m.Secrets {
		m.Secrets[key] = strings.ReplaceAll(dest, "{root}", root)
	}

	if (m.PluginType == string(TypeInternalLocal) || m.PluginType == string(TypeInternalRemote)) && len(m.Launch) > 0 {
		m.Launch[0] = strings.ReplaceAll(m.Launch[0], "{root}", root)
	}
}
