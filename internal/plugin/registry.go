package plugin

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/Zaltu/AIGIS/internal/logging"
	"github.com/Zaltu/AIGIS/internal/plugin/acquire"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

// NamedSource pairs a plugin's configured name with the URI it should be
// acquired from.
type NamedSource struct {
	Name string
	URI  string
}

// LoaderFactory builds the type-appropriate Loader for a configured
// record. It is supplied by the caller (command/agent) so this package
// never needs to import the concrete loader implementations, which in
// turn need to import this package for *Record.
type LoaderFactory func(record *Record) (Loader, error)

// Registry holds every plugin record the host knows about, live or dead,
// and is the single place live/dead membership is mutated. Methods are
// safe to call both from the supervisor's own goroutine and from watchdog
// callbacks.
type Registry struct {
	mu   sync.Mutex
	live []*Record
	dead []*Record

	log         hclog.Logger
	logs        *logging.Manager
	pluginRoot  string
	secretStore string
	newLoader   LoaderFactory
}

// NewRegistry constructs an empty Registry. SetLoaderFactory must be
// called before any plugin is loaded.
func NewRegistry(logs *logging.Manager, pluginRoot, secretStore string) *Registry {
	return &Registry{
		log:         logs.Global().Named("registry"),
		logs:        logs,
		pluginRoot:  pluginRoot,
		secretStore: secretStore,
	}
}

// SetLoaderFactory wires in the strategy used to build a Loader for each
// record's resolved Type.
func (reg *Registry) SetLoaderFactory(factory LoaderFactory) { reg.newLoader = factory }

// LoadAll loads each named source in order, logging and continuing past
// any individual failure rather than aborting the whole category. The
// per-source failures are also aggregated and returned so callers can
// decide whether a category with partial failures warrants surfacing
// further up (e.g. in a startup health check), without forcing LoadAll
// itself to abort early.
func (reg *Registry) LoadAll(ctx context.Context, sources []NamedSource) error {
	var result *multierror.Error
	for _, src := range sources {
		reg.log.Info("loading plugin...", "plugin", src.Name)
		if err := reg.loadOne(ctx, src.Name, src.URI); err != nil {
			reg.log.Error("could not load plugin", "plugin", src.Name, "error", err)
			result = multierror.Append(result, fmt.Errorf("%s: %w", src.Name, err))
		}
	}
	return result.ErrorOrNil()
}

func (reg *Registry) loadOne(ctx context.Context, name, uri string) error {
	record, err := NewRecord(name, uri, reg.pluginRoot, reg.logs)
	if err != nil {
		return err
	}

	record.Log.Boot("downloading plugin...")
	ok, err := acquire.Acquire(ctx, uri, record.Root, record.Log.Logger)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("could not acquire source for plugin %s", name)
	}

	if err := record.Configure(); err != nil {
		return err
	}

	return reg.tryLoad(ctx, record)
}

// tryLoad runs the rest of the load pipeline for an already-acquired,
// already-configured record, recovering from an unexpected panic the way
// the original wrapper caught every exception launching a plugin.
func (reg *Registry) tryLoad(ctx context.Context, record *Record) (err error) {
	defer func() {
		if p := recover(); p != nil {
			record.Log.Shutdown("unknown error occurred launching plugin", "panic", p, "stack", string(debug.Stack()))
			reg.moveToDead(record)
			safeCleanup(record)
			err = fmt.Errorf("panic loading plugin %s: %v", record.Name, p)
		}
	}()

	loader, lerr := reg.newLoader(record)
	if lerr != nil {
		record.Log.Shutdown("could not select loader, shutting down...")
		reg.moveToDead(record)
		safeCleanup(record)
		return lerr
	}
	record.Loader = loader

	if perr := RunPipeline(ctx, record, reg.secretStore); perr != nil {
		record.Log.Shutdown("could not load plugin, shutting down...")
		reg.moveToDead(record)
		safeCleanup(record)
		return perr
	}

	reg.mu.Lock()
	reg.live = append(reg.live, record)
	reg.mu.Unlock()
	return nil
}

// Bury implements the dead/restart/reload disposition of a plugin whose
// process has just exited. It is called from watchdog goroutines as well
// as from Reload, so every slice mutation here happens under reg.mu.
func (reg *Registry) Bury(record *Record) {
	switch {
	case record.Reload:
		record.Reload = false
		reg.removeFromLive(record)
		if err := reg.tryLoad(context.Background(), record); err != nil {
			record.Log.Error("reload failed", "error", err)
		}

	case record.Restart > 0:
		record.Restart--
		reg.removeFromLive(record)
		if err := reg.tryLoad(context.Background(), record); err != nil {
			record.Log.Error("restart failed", "error", err)
		}

	default:
		record.Log.Shutdown("plugin shut down")
		safeCleanup(record)
		reg.removeFromLive(record)
		reg.mu.Lock()
		reg.dead = append(reg.dead, record)
		reg.mu.Unlock()
		reg.log.Warn("plugin has terminated", "plugin", record.Name)
	}
}

func (reg *Registry) moveToDead(record *Record) {
	reg.mu.Lock()
	reg.dead = append(reg.dead, record)
	reg.mu.Unlock()
}

func (reg *Registry) removeFromLive(record *Record) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	for i, r := range reg.live {
		if r.Equal(record) {
			reg.live = append(reg.live[:i], reg.live[i+1:]...)
			return
		}
	}
}

// Cleanup requests every live plugin clean itself up, used on host
// shutdown.
func (reg *Registry) Cleanup() {
	reg.log.Warn("requesting plugins clean themselves up")
	reg.mu.Lock()
	liveCopy := append([]*Record{}, reg.live...)
	reg.mu.Unlock()

	for _, record := range liveCopy {
		safeCleanup(record)
		reg.moveToDead(record)
	}
}

// Reload implements skills.Reloader: find the named live plugin and ask
// its loader to reload it.
func (reg *Registry) Reload(name string) error {
	reg.mu.Lock()
	var target *Record
	for _, r := range reg.live {
		if r.Matches(name) {
			target = r
			break
		}
	}
	reg.mu.Unlock()

	if target == nil {
		return fmt.Errorf("no live plugin named %q", name)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return target.Loader.Reload(ctx)
}

// safeCleanup runs a record's cleanup hook and stops its loader, then
// releases its log sink -- the sink exists from record creation until
// bury, inclusive, so this is always its last use.
func safeCleanup(record *Record) {
	record.Restart = 0
	record.Reload = false
	record.Cleanup()
	if record.Loader != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
		defer cancel()
		if err := record.Loader.Stop(ctx); err != nil {
			record.Log.Warn("error stopping plugin", "error", err)
		}
	}
	record.Log.Close()
}
