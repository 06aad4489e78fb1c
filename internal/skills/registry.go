// Package skills implements the Skills Registry: a single tree of dotted
// names each plugin contributes leaves to, and the single Invoke path both
// in-process plugins and the capability broker dispatch calls through.
package skills

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Reloader is implemented by the plugin registry; it keeps this package
// from depending on the concrete plugin.Registry type.
type Reloader interface {
	Reload(name string) error
}

// ErrArgumentMismatch is returned when a caller passes arguments to a
// skill path that does not resolve to anything callable.
var ErrArgumentMismatch = errors.New("ArgumentMismatch: target is not callable")

// Registry is the Skills tree plus the bookkeeping needed to tear a
// plugin's contribution back out again.
type Registry struct {
	mu     sync.RWMutex
	root   *node
	owners map[string]map[string]struct{}

	reloader Reloader
	log      hclog.Logger
}

// NewRegistry constructs an empty Skills Registry. reloader is whoever can
// satisfy an AIGISReload call -- the plugin Registry in production.
func NewRegistry(reloader Reloader, log hclog.Logger) *Registry {
	return &Registry{
		root:     newNamespace(),
		owners:   map[string]map[string]struct{}{},
		reloader: reloader,
		log:      log,
	}
}

// LearnSkill merges a plugin's exported skills map into the tree. Keys are
// dotted paths ("math.add"); values are either plain data or one of the
// aigisclient skill function types. Ownership of every top-level segment
// written to is recorded under pluginName so ForgetSkill can prune those
// top-level names later. Several plugins may add entries under the same
// top-level segment.
func (r *Registry) LearnSkill(pluginName string, log hclog.Logger, exported map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for path, value := range exported {
		segments := strings.Split(path, ".")
		if err := insert(r.root, segments, value, log); err != nil {
			return err
		}
		r.recordOwner(pluginName, segments[0])
	}
	return nil
}

func (r *Registry) recordOwner(pluginName, topLevel string) {
	set, ok := r.owners[pluginName]
	if !ok {
		set = map[string]struct{}{}
		r.owners[pluginName] = set
	}
	set[topLevel] = struct{}{}
}

// ForgetSkill removes every top-level subtree pluginName wrote to. This
// intentionally prunes the whole top-level name, including entries other
// plugins added under it: ownership is recorded per top-level segment
// only, not per leaf.
func (r *Registry) ForgetSkill(pluginName string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.owners[pluginName]
	if !ok {
		return
	}
	for topLevel := range set {
		if _, exists := r.root.children[topLevel]; !exists {
			r.log.Warn("skill namespace already gone", "plugin", pluginName, "namespace", topLevel)
			continue
		}
		delete(r.root.children, topLevel)
	}
	delete(r.owners, pluginName)
}

// Reload satisfies aigisclient.Invoker, letting a plugin ask the host to
// reload another (or itself) through the same call path as any skill.
func (r *Registry) Reload(name string) error {
	return r.reloader.Reload(name)
}

// Invoke resolves path against the tree and calls it (or returns its
// value) with the given arguments. AIGISReload is special-cased as a
// single well-known top-level name rather than a tree entry, since it
// addresses the host itself rather than a plugin's contribution.
func (r *Registry) Invoke(path []string, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	if len(path) == 1 && path[0] == "AIGISReload" {
		if len(args) != 1 {
			return nil, fmt.Errorf("AIGISReload expects exactly one argument: the plugin name")
		}
		name, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("AIGISReload expects a string argument")
		}
		return nil, r.Reload(name)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	cur := r.root
	for i, seg := range path {
		child, ok := cur.children[seg]
		if !ok {
			return nil, fmt.Errorf("no such skill: %s", strings.Join(path[:i+1], "."))
		}
		cur = child
	}

	if cur.kind == kindCallable {
		return cur.wrapped(args, kwargs)
	}
	if len(args) > 0 || len(kwargs) > 0 {
		return nil, ErrArgumentMismatch
	}
	return cur.value, nil
}
