package loader

import (
	"context"
	"fmt"

	"github.com/Zaltu/AIGIS/internal/plugin"
)

// TrapLoader is selected for any manifest whose PLUGIN_TYPE does not match
// a known strategy. It always fails, turning a typo or unsupported type
// into a loud load error instead of a silent no-op.
type TrapLoader struct {
	record *plugin.Record
}

// NewTrap builds a TrapLoader for record.
func NewTrap(record *plugin.Record) *TrapLoader {
	return &TrapLoader{record: record}
}

func (l *TrapLoader) Run(ctx context.Context) error {
	return plugin.NewLoadError(plugin.KindInvalidPluginType, "unrecognized plugin type %q for plugin %s", l.record.Type, l.record.Name)
}

func (l *TrapLoader) Stop(ctx context.Context) error { return nil }

func (l *TrapLoader) Reload(ctx context.Context) error {
	return fmt.Errorf("cannot reload a plugin with an invalid type")
}
