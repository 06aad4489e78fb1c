// Package loader holds the concrete per-type launch strategies a plugin
// Record delegates to: core (in-process Go plugin), internal-local and
// internal-remote (spawned child talking back to the broker through the
// injector), external (bare spawned process, no RPC), and trap (an
// invalid type, so load always fails loudly instead of silently).
package loader

import (
	nativeplugin "plugin"

	"context"
	"errors"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/Zaltu/AIGIS/internal/plugin"
	"github.com/Zaltu/AIGIS/internal/plugin/childproc"
	"github.com/Zaltu/AIGIS/internal/skills"
	"github.com/hashicorp/go-hclog"
)

// lookupSkillsFunc finds and type-checks the required Skills symbol in an
// opened Go plugin.
func lookupSkillsFunc(p *nativeplugin.Plugin) (func() map[string]interface{}, error) {
	sym, err := p.Lookup("Skills")
	if err != nil {
		return nil, errors.New("no Skills symbol found; plugin is not configured as a core plugin")
	}
	fn, ok := sym.(func() map[string]interface{})
	if !ok {
		return nil, errors.New("Skills symbol has the wrong signature, expected func() map[string]interface{}")
	}
	return fn, nil
}

// lookupCleanupFunc finds the optional Cleanup symbol.
func lookupCleanupFunc(p *nativeplugin.Plugin) (func() error, bool) {
	sym, err := p.Lookup("Cleanup")
	if err != nil {
		return nil, false
	}
	fn, ok := sym.(func() error)
	return fn, ok
}

// injectCoreSkillsIfPresent is shared by internal-local/internal-remote
// loaders: if the plugin also ships an AIGIS.core.so, load it into the
// skills tree exactly as a core plugin would, before the child process
// itself is spawned.
func injectCoreSkillsIfPresent(record *plugin.Record, sk *skills.Registry, soPath string) error {
	if _, err := os.Stat(soPath); err != nil {
		return nil
	}

	p, err := nativeplugin.Open(soPath)
	if err != nil {
		return plugin.WrapLoadError(plugin.KindInvalidPluginType, err, "cannot load core injector for %s", record.Name)
	}

	skillsFn, err := lookupSkillsFunc(p)
	if err != nil {
		return plugin.WrapLoadError(plugin.KindInvalidPluginType, err, "plugin %s", record.Name)
	}
	if err := sk.LearnSkill(record.Name, record.Log.Logger, skillsFn()); err != nil {
		return err
	}
	record.Log.Boot("internal plugin registered skills")

	if cleanup, ok := lookupCleanupFunc(p); ok {
		record.SetCleanupHook(cleanup)
	}
	return nil
}

// gracefulStop sends SIGTERM, waits a bounded amount of time for the
// process to exit on its own, then escalates to SIGKILL.
func gracefulStop(ctx context.Context, h *childproc.Handle, log hclog.Logger) error {
	if h == nil {
		return nil
	}
	if err := h.Signal(syscall.SIGTERM); err != nil {
		log.Warn("failed to send SIGTERM", "error", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		if h.Exited() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	if h.Exited() {
		return nil
	}
	return h.Signal(syscall.SIGKILL)
}

func exitCode(state *os.ProcessState) int {
	if state == nil {
		return -1
	}
	return state.ExitCode()
}

func logWriters(log hclog.Logger) (io.Writer, io.Writer) {
	return log.StandardWriter(&hclog.StandardLoggerOptions{ForceLevel: hclog.Info}),
		log.StandardWriter(&hclog.StandardLoggerOptions{ForceLevel: hclog.Warn})
}
