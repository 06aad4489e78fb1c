package agent

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

const defaultConfigPath = "/etc/aigis/aigis.toml"

// Command is the "aigis" CLI entrypoint: parse flags, load config, start
// the Agent, and block until a termination signal arrives.
type Command struct{}

// Run parses args and runs the agent to completion, returning a process
// exit code.
func (c *Command) Run(args []string) int {
	flags := flag.NewFlagSet("aigis", flag.ContinueOnError)

	var configPath string
	flags.StringVar(&configPath, "c", "", "configuration file path")
	flags.StringVar(&configPath, "config", "", "configuration file path")
	logLevel := flags.String("log-level", "", "override the configured log level")
	logJSON := flags.Bool("log-json", false, "emit structured JSON logs")
	pluginRoot := flags.String("plugin-root", "", "override the configured plugin root directory")
	secretStore := flags.String("secret-store", "", "override the configured secret store directory")
	bind := flags.String("bind", "", "override the configured capability broker bind address")

	if err := flags.Parse(args); err != nil {
		return 1
	}

	if configPath == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			configPath = defaultConfigPath
		} else {
			fmt.Fprintf(os.Stderr, "aigis: -c/--config is required (no default config found at %s)\n", defaultConfigPath)
			return 1
		}
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "aigis:", err)
		return 1
	}

	if *logLevel != "" {
		cfg.AIGIS.LogLevel = *logLevel
	}
	if *logJSON {
		cfg.AIGIS.LogJSON = true
	}
	if *pluginRoot != "" {
		cfg.AIGIS.PluginRoot = *pluginRoot
	}
	if *secretStore != "" {
		cfg.AIGIS.SecretStore = *secretStore
	}
	if *bind != "" {
		cfg.AIGIS.BrokerBind = *bind
	}

	a, err := NewAgent(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "aigis: could not start:", err)
		return 1
	}

	if err := a.Start(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "aigis:", err)
		return 1
	}

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, os.Interrupt, syscall.SIGTERM)
	<-shutdownSignal

	a.Shutdown()
	return 0
}

// Help is the long usage string shown for `aigis -h`.
func (c *Command) Help() string {
	return "Usage: aigis -c <config-path> [options]\n\n  Run the AIGIS plugin host supervisor in the foreground until interrupted."
}

// Synopsis is the one-line description shown in command listings.
func (c *Command) Synopsis() string { return "Run the AIGIS plugin host supervisor" }
