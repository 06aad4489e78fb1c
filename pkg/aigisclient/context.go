// Package aigisclient is the public surface plugin authors compile against.
//
// A core or internal plugin's ".so" exports a Skills map whose callable
// entries use one of the two function types below. An internal plugin
// running as a child process reaches the same capabilities through the
// injector, which hands
// its Launch function a *Context backed by an RPC connection instead of a
// direct call into the registry. Either way the call-site code a plugin
// author writes looks identical.
package aigisclient

import "github.com/hashicorp/go-hclog"

// SkillFunc is a skill that wants the caller's plugin-scoped logger.
type SkillFunc func(args []interface{}, kwargs map[string]interface{}, log hclog.Logger) (interface{}, error)

// SkillFuncNoLog is a skill indifferent to logging.
type SkillFuncNoLog func(args []interface{}, kwargs map[string]interface{}) (interface{}, error)

// Invoker is satisfied by whatever sits behind a Context: the Skills
// Registry directly for in-process plugins, or an RPC stub dialed back to
// the capability broker for out-of-process ones.
type Invoker interface {
	Invoke(path []string, args []interface{}, kwargs map[string]interface{}) (interface{}, error)
	Reload(name string) error
}

// Context is the handle a plugin uses to call other plugins' skills and to
// request a reload. It is intentionally the only thing a plugin receives;
// it never sees the registry, the broker, or any other plugin directly.
type Context struct {
	invoker Invoker
}

// New wraps an Invoker in a Context.
func New(invoker Invoker) *Context {
	return &Context{invoker: invoker}
}

// Skill begins a dotted-path capture rooted at segment.
func (c *Context) Skill(segment string) *Capture {
	return &Capture{invoker: c.invoker, path: []string{segment}}
}

// Reload asks the host to reload the named plugin.
func (c *Context) Reload(name string) error {
	return c.invoker.Reload(name)
}

// Capture accumulates path segments until Call or CallKW fires the
// invocation. It mirrors the attribute-chain capture of the original
// dotted-path model, but is explicit and single-use: extending or calling a
// spent Capture panics rather than silently reusing stale state.
type Capture struct {
	invoker Invoker
	path    []string
	spent   bool
}

// Path extends the capture with another segment, e.g. Skill("math").Path("add").
func (c *Capture) Path(segment string) *Capture {
	if c.spent {
		panic("aigisclient: cannot extend a capture that has already been called")
	}
	next := make([]string, len(c.path)+1)
	copy(next, c.path)
	next[len(c.path)] = segment
	return &Capture{invoker: c.invoker, path: next}
}

// Call fires the capture with positional arguments only.
func (c *Capture) Call(args ...interface{}) (interface{}, error) {
	return c.CallKW(args, nil)
}

// CallKW fires the capture with both positional and keyword arguments.
func (c *Capture) CallKW(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	if c.spent {
		panic("aigisclient: capture is single-use and has already been called")
	}
	c.spent = true
	return c.invoker.Invoke(c.path, args, kwargs)
}
