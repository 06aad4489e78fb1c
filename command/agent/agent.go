// Package agent wires together the Skills Registry, the plugin Registry,
// the Capability Broker, and the logging Manager into one running AIGIS
// instance, and owns the CLI entrypoint that starts and stops it.
package agent

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/Zaltu/AIGIS/internal/broker"
	"github.com/Zaltu/AIGIS/internal/logging"
	"github.com/Zaltu/AIGIS/internal/plugin"
	"github.com/Zaltu/AIGIS/internal/plugin/loader"
	"github.com/Zaltu/AIGIS/internal/skills"
	"github.com/hashicorp/go-hclog"
)

// Agent is one fully wired AIGIS instance.
type Agent struct {
	cfg      *Config
	logs     *logging.Manager
	skills   *skills.Registry
	registry *plugin.Registry
	broker   *broker.Server
}

// NewAgent builds an Agent from cfg, locating the aigis-injector binary
// and wiring every loader strategy before anything is loaded.
func NewAgent(cfg *Config) (*Agent, error) {
	level := hclog.LevelFromString(cfg.AIGIS.LogLevel)
	logs, err := logging.NewManager(cfg.AIGIS.LogDir, level, cfg.AIGIS.LogJSON)
	if err != nil {
		return nil, err
	}

	registry := plugin.NewRegistry(logs, cfg.AIGIS.PluginRoot, cfg.AIGIS.SecretStore)
	skillsRegistry := skills.NewRegistry(registry, logs.Global().Named("skills"))

	timeout := time.Duration(cfg.AIGIS.LaunchTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	injectorPath, err := locateInjector()
	if err != nil {
		return nil, err
	}

	registry.SetLoaderFactory(func(record *plugin.Record) (plugin.Loader, error) {
		switch record.Type {
		case plugin.TypeCore:
			return loader.NewCore(record, skillsRegistry, registry), nil

		case plugin.TypeInternalLocal:
			return loader.NewInternalLocal(spawnConfig(cfg, record, skillsRegistry, registry, timeout, injectorPath)), nil

		case plugin.TypeInternalRemote:
			return loader.NewInternalRemote(
				spawnConfig(cfg, record, skillsRegistry, registry, timeout, injectorPath),
				record.Manifest.Host, cfg.System.Login, cfg.System.Password,
			), nil

		case plugin.TypeExternal:
			return loader.NewExternal(record, registry, timeout), nil

		default:
			return loader.NewTrap(record), nil
		}
	})

	brokerServer := broker.NewServer(cfg.AIGIS.BrokerBind, cfg.AIGIS.BrokerSecret, skillsRegistry, logs.Global().Named("broker"))

	return &Agent{cfg: cfg, logs: logs, skills: skillsRegistry, registry: registry, broker: brokerServer}, nil
}

func spawnConfig(cfg *Config, record *plugin.Record, sk *skills.Registry, burier plugin.Burier, timeout time.Duration, injectorPath string) loader.SpawnConfig {
	return loader.SpawnConfig{
		Record:              record,
		Skills:              sk,
		Burier:              burier,
		BrokerAddr:          cfg.AIGIS.BrokerBind,
		BrokerAdvertiseAddr: cfg.AIGIS.BrokerAdvertiseAddr,
		BrokerSecret:        cfg.AIGIS.BrokerSecret,
		LaunchTimeout:       timeout,
		InjectorPath:        injectorPath,
	}
}

// locateInjector finds the aigis-injector binary: first next to the
// running aigis binary, then on PATH.
func locateInjector() (string, error) {
	if self, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(self), "aigis-injector")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	if path, err := exec.LookPath("aigis-injector"); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("could not locate the aigis-injector binary next to aigis or on PATH")
}

// Start binds the capability broker and loads every configured plugin, in
// the fixed core -> internal -> external order, and in file order within
// each category.
func (a *Agent) Start(ctx context.Context) error {
	if err := a.broker.Start(); err != nil {
		return fmt.Errorf("could not start capability broker: %w", err)
	}
	a.logs.Global().Info("capability broker listening", "addr", a.cfg.AIGIS.BrokerBind)

	for _, category := range []struct {
		name    string
		sources []namedSource
	}{
		{"core", a.cfg.coreSources()},
		{"internal", a.cfg.internalSources()},
		{"external", a.cfg.externalSources()},
	} {
		if err := a.registry.LoadAll(ctx, toNamedSources(category.sources)); err != nil {
			a.logs.Global().Warn("one or more plugins failed to load", "category", category.name, "error", err)
		}
	}
	return nil
}

func toNamedSources(sources []namedSource) []plugin.NamedSource {
	out := make([]plugin.NamedSource, len(sources))
	for i, s := range sources {
		out[i] = plugin.NamedSource{Name: s.name, URI: s.uri}
	}
	return out
}

// Shutdown asks every live plugin to clean itself up and closes the
// broker. It does not return until cleanup has been attempted for every
// plugin currently live.
func (a *Agent) Shutdown() {
	a.registry.Cleanup()
	if err := a.broker.Close(); err != nil {
		a.logs.Global().Warn("error closing capability broker", "error", err)
	}
	if err := a.logs.Close(); err != nil {
		a.logs.Global().Warn("error closing log file", "error", err)
	}
}
