package plugin

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/Zaltu/AIGIS/internal/logging"
	"github.com/Zaltu/AIGIS/internal/plugin/childproc"
	"github.com/google/uuid"
)

// Type is a plugin's launch strategy, resolved from its manifest.
type Type string

const (
	TypeCore           Type = "core"
	TypeInternalLocal  Type = "internal-local"
	TypeInternalRemote Type = "internal-remote"
	TypeExternal       Type = "external"
)

// Loader is the per-type launch strategy a Record delegates to for the
// final pipeline stage and for later stop/reload requests. Concrete
// implementations live in internal/plugin/loader; this package only needs
// the interface to hang a Loader off a Record without importing back into
// its own subpackage.
type Loader interface {
	Run(ctx context.Context) error
	Stop(ctx context.Context) error
	Reload(ctx context.Context) error
}

// Burier is implemented by the Registry so loaders can request a plugin be
// moved through the bury/restart/reload path without depending on the
// concrete Registry type.
type Burier interface {
	Bury(record *Record)
}

// Record is the host's live bookkeeping for one plugin: identity,
// filesystem location, decoded manifest, and the loader strategy once it
// has been launched. The loaders in internal/plugin/loader keep the child
// process handle themselves and do not assign Child.
type Record struct {
	ID        uuid.UUID
	Name      string
	SourceURI string
	Root      string

	Manifest *Manifest
	Type     Type
	Restart  int
	Reload   bool

	Child  *childproc.Handle
	Log    *logging.Sink
	Loader Loader

	cleanupOnce sync.Once
	cleanupHook func() error
}

// NewRecord allocates identity and a dedicated log sink for a plugin about
// to be loaded.
func NewRecord(name, sourceURI, pluginRoot string, logs *logging.Manager) (*Record, error) {
	id := uuid.New()
	root := filepath.Join(pluginRoot, name)

	sink, err := logs.Hook(name, id.String())
	if err != nil {
		return nil, err
	}
	sink.Boot("registered plugin...")

	return &Record{ID: id, Name: name, SourceURI: sourceURI, Root: root, Log: sink}, nil
}

// Equal compares two records by identity, never by value.
func (r *Record) Equal(other *Record) bool {
	if other == nil {
		return false
	}
	return r.ID == other.ID
}

// Matches reports whether this record is the one named name.
func (r *Record) Matches(name string) bool { return r.Name == name }

// ManifestPath is where this plugin's AIGIS/AIGIS.config is expected.
func (r *Record) ManifestPath() string {
	return filepath.Join(r.Root, "AIGIS", "AIGIS.config")
}

// Configure loads and contextualizes the plugin's manifest and resolves
// its Type. It must run before any loader is selected.
func (r *Record) Configure() error {
	r.Log.Boot("getting config...")
	m, err := LoadManifest(r.ManifestPath())
	if err != nil {
		r.Log.Error(err.Error())
		r.Log.Shutdown("could not get configuration for plugin")
		return err
	}
	m.Contextualize(r.Root)

	r.Manifest = m
	r.Type = Type(m.PluginType)
	r.Restart = m.Restart
	return nil
}

// SetCleanupHook attaches the optional cleanup callable a core or
// internal-local plugin's Go plugin file may export.
func (r *Record) SetCleanupHook(fn func() error) { r.cleanupHook = fn }

// Cleanup runs the attached cleanup hook at most once, swallowing and
// logging its error rather than propagating it: cleanup is always
// best-effort.
func (r *Record) Cleanup() {
	r.cleanupOnce.Do(func() {
		if r.cleanupHook == nil {
			return
		}
		if err := r.cleanupHook(); err != nil {
			r.Log.Warn("plugin cleanup hook failed", "error", err)
		}
	})
}
