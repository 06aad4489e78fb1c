package loader

import (
	nativeplugin "plugin"

	"context"
	"os"
	"path/filepath"

	"github.com/Zaltu/AIGIS/internal/plugin"
	"github.com/Zaltu/AIGIS/internal/skills"
)

// CoreLoader runs a plugin in-process by opening its AIGIS.core.so and
// registering whatever it exports under Skills into the Skills Registry.
// There is no child process and nothing for the watchdog to watch.
type CoreLoader struct {
	record *plugin.Record
	skills *skills.Registry
	burier plugin.Burier
}

// NewCore builds a CoreLoader for record.
func NewCore(record *plugin.Record, sk *skills.Registry, burier plugin.Burier) *CoreLoader {
	return &CoreLoader{record: record, skills: sk, burier: burier}
}

func (l *CoreLoader) soPath() string {
	return filepath.Join(l.record.Root, "AIGIS", "AIGIS.core.so")
}

// Run loads the core plugin's shared object and registers its skills.
func (l *CoreLoader) Run(ctx context.Context) error {
	soPath := l.soPath()
	if _, err := os.Stat(soPath); err != nil {
		return plugin.NewLoadError(plugin.KindInvalidPluginType, "no AIGIS/AIGIS.core.so found for core plugin %s", l.record.Name)
	}

	p, err := nativeplugin.Open(soPath)
	if err != nil {
		return plugin.WrapLoadError(plugin.KindInvalidPluginType, err, "cannot load core plugin %s", l.record.Name)
	}

	skillsFn, err := lookupSkillsFunc(p)
	if err != nil {
		return plugin.WrapLoadError(plugin.KindInvalidPluginType, err, "plugin %s", l.record.Name)
	}
	if err := l.skills.LearnSkill(l.record.Name, l.record.Log.Logger, skillsFn()); err != nil {
		return err
	}
	l.record.Log.Boot("skills acquired")

	if cleanup, ok := lookupCleanupFunc(p); ok {
		l.record.SetCleanupHook(cleanup)
	}
	return nil
}

// Stop deregisters the plugin's skills. Core plugins have no process to
// terminate.
func (l *CoreLoader) Stop(ctx context.Context) error {
	l.skills.ForgetSkill(l.record.Name)
	return nil
}

// Reload deregisters the plugin's skills, marks it for reload, and
// requests it be buried so Run executes again from scratch.
func (l *CoreLoader) Reload(ctx context.Context) error {
	l.skills.ForgetSkill(l.record.Name)
	l.record.Reload = true
	l.burier.Bury(l.record)
	return nil
}
