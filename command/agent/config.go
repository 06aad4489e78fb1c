package agent

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Config is the top-level AIGIS configuration file: an [aigis] table of
// ambient host settings, an optional [system] table for remote-host
// credentials, and one table per plugin category mapping plugin name to
// source URI.
type Config struct {
	AIGIS  AigisConfig       `toml:"aigis"`
	System SystemConfig      `toml:"system"`

	Core           map[string]string `toml:"core"`
	Internal       map[string]string `toml:"internal"`
	InternalLocal  map[string]string `toml:"internal-local"`
	InternalRemote map[string]string `toml:"internal-remote"`
	External       map[string]string `toml:"external"`

	order []sourceEntry
}

// AigisConfig holds the ambient settings of the host itself.
type AigisConfig struct {
	PluginRoot           string `toml:"plugin_root"`
	SecretStore          string `toml:"secret_store"`
	LogDir               string `toml:"log_dir"`
	LogLevel             string `toml:"log_level"`
	LogJSON              bool   `toml:"log_json"`
	BrokerBind           string `toml:"broker_bind"`
	BrokerAdvertiseAddr  string `toml:"broker_advertise_addr"`
	BrokerSecret         string `toml:"broker_secret"`
	LaunchTimeoutSeconds int    `toml:"launch_timeout_seconds"`
}

// SystemConfig carries the credentials used to reach internal-remote
// hosts over ssh.
type SystemConfig struct {
	Login    string `toml:"login"`
	Password string `toml:"password"`
}

type sourceEntry struct {
	section string
	name    string
}

// DefaultConfig returns the configuration a bare install runs with if a
// setting is left out of the file entirely.
func DefaultConfig() *Config {
	return &Config{
		AIGIS: AigisConfig{
			PluginRoot:           "ext",
			SecretStore:          "secrets",
			LogDir:               "log",
			LogLevel:             "info",
			BrokerBind:           "0.0.0.0:50000",
			BrokerSecret:         "aigis",
			LaunchTimeoutSeconds: 10,
		},
	}
}

// LoadConfig decodes path into a Config seeded with DefaultConfig,
// preserving the file's own per-category key order so plugins load in the
// order the operator wrote them in.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("could not parse config file %s: %w", path, err)
	}
	cfg.order = buildOrder(md)
	return cfg, nil
}

func buildOrder(md toml.MetaData) []sourceEntry {
	var order []sourceEntry
	for _, key := range md.Keys() {
		if len(key) != 2 {
			continue
		}
		switch key[0] {
		case "core", "internal", "internal-local", "internal-remote", "external":
			order = append(order, sourceEntry{section: key[0], name: key[1]})
		}
	}
	return order
}

func (c *Config) sourcesForSections(sections []string, values map[string]string) []namedSource {
	wanted := make(map[string]bool, len(sections))
	for _, s := range sections {
		wanted[s] = true
	}

	out := make([]namedSource, 0, len(values))
	seen := make(map[string]bool, len(values))

	for _, e := range c.order {
		if !wanted[e.section] {
			continue
		}
		if uri, ok := values[e.name]; ok && !seen[e.name] {
			out = append(out, namedSource{name: e.name, uri: uri})
			seen[e.name] = true
		}
	}

	// Defensive fallback for keys the metadata walk somehow missed;
	// should be unreachable in practice.
	for name, uri := range values {
		if !seen[name] {
			out = append(out, namedSource{name: name, uri: uri})
			seen[name] = true
		}
	}
	return out
}

type namedSource struct{ name, uri string }

func (c *Config) coreSources() []namedSource { return c.sourcesForSections([]string{"core"}, c.Core) }

func (c *Config) internalSources() []namedSource {
	merged := make(map[string]string, len(c.Internal)+len(c.InternalLocal)+len(c.InternalRemote))
	for k, v := range c.Internal {
		merged[k] = v
	}
	for k, v := range c.InternalLocal {
		merged[k] = v
	}
	for k, v := range c.InternalRemote {
		merged[k] = v
	}
	return c.sourcesForSections([]string{"internal", "internal-local", "internal-remote"}, merged)
}

func (c *Config) externalSources() []namedSource {
	return c.sourcesForSections([]string{"external"}, c.External)
}
