package loader

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/Zaltu/AIGIS/internal/plugin"
	"github.com/Zaltu/AIGIS/internal/plugin/childproc"
	"github.com/Zaltu/AIGIS/internal/plugin/watchdog"
)

// ExternalLoader spawns a plugin's LAUNCH argv directly. There is no
// injector and no broker connection: an external plugin is an opaque
// process the host only ever starts, watches, and stops.
type ExternalLoader struct {
	record  *plugin.Record
	burier  plugin.Burier
	timeout time.Duration
	handle  *childproc.Handle
}

// NewExternal builds an ExternalLoader for record.
func NewExternal(record *plugin.Record, burier plugin.Burier, timeout time.Duration) *ExternalLoader {
	return &ExternalLoader{record: record, burier: burier, timeout: timeout}
}

// Run spawns the plugin's LAUNCH argv in its ENTRYPOINT directory.
func (l *ExternalLoader) Run(ctx context.Context) error {
	m := l.record.Manifest
	if len(m.Launch) == 0 {
		return plugin.NewLoadError(plugin.KindInvalidPluginType, "external plugin %s has no LAUNCH command", l.record.Name)
	}

	cmd := exec.Command(m.Launch[0], m.Launch[1:]...)
	cmd.Dir = m.Entrypoint
	cmd.Stdout, cmd.Stderr = logWriters(l.record.Log.Logger)

	h, err := childproc.Start(cmd)
	if err != nil {
		return plugin.WrapLoadError(plugin.KindLaunchTimeout, err, "failed to launch external plugin %s", l.record.Name)
	}
	l.handle = h

	record, burier := l.record, l.burier
	watchdog.Watch(h, func(state *os.ProcessState, _ error) {
		record.Log.Shutdown("process exited", "code", exitCode(state))
		burier.Bury(record)
	})

	l.record.Log.Boot("running")
	return nil
}

// Stop gracefully terminates the external process.
func (l *ExternalLoader) Stop(ctx context.Context) error {
	return gracefulStop(ctx, l.handle, l.record.Log.Logger)
}

// Reload is not supported for external plugins: there is no injector
// relationship through which the host could ask one to reload cleanly.
func (l *ExternalLoader) Reload(ctx context.Context) error {
	return fmt.Errorf("external plugins do not support reload")
}
