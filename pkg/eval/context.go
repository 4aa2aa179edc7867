// Package eval implements the noteql expression evaluator: evaluation
// contexts, the binary-operator registry and the built-in function
// registry.
package eval

import (
	"time"

	"github.com/noteql/noteql/pkg/value"
)

// Resolver provides link resolution to the evaluator. Implementations
// live outside the engine core (the vault index is one); a nil resolver
// makes every link unresolvable.
type Resolver interface {
	// Resolve returns the field namespace of the document a path points
	// to, or false when the path does not resolve.
	Resolve(path string) (value.Object, bool)
	// Normalize canonicalizes a link path so that equivalent spellings
	// compare equal.
	Normalize(path string) string
	// Exists reports whether a path resolves to a document.
	Exists(path string) bool
}

// Context is an evaluation environment: variable bindings, the link
// resolver and the operator and function registries. Contexts are
// cheap; the query pipeline creates one per candidate document.
type Context struct {
	globals  map[string]value.Value
	resolver Resolver
	ops      *OperatorRegistry
	funcs    *FunctionRegistry
	now      time.Time
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithGlobals sets the context's variable bindings. The map is used
// directly, not copied.
func WithGlobals(globals map[string]value.Value) ContextOption {
	return func(c *Context) {
		c.globals = globals
	}
}

// WithResolver sets the link resolver.
func WithResolver(r Resolver) ContextOption {
	return func(c *Context) {
		c.resolver = r
	}
}

// WithOperators injects a binary-operator registry. Without this option
// the context gets a fresh default registry.
func WithOperators(ops *OperatorRegistry) ContextOption {
	return func(c *Context) {
		c.ops = ops
	}
}

// WithFunctions injects a function registry. Without this option the
// context gets a fresh default registry.
func WithFunctions(funcs *FunctionRegistry) ContextOption {
	return func(c *Context) {
		c.funcs = funcs
	}
}

// WithNow fixes the wall clock used to resolve date shorthands
// (today, sow, ...). Defaults to time.Now at context creation.
func WithNow(now time.Time) ContextOption {
	return func(c *Context) {
		c.now = now
	}
}

// NewContext creates an evaluation context.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{
		globals: map[string]value.Value{},
		now:     time.Now(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ops == nil {
		c.ops = DefaultOperators()
	}
	if c.funcs == nil {
		c.funcs = DefaultFunctions()
	}
	return c
}

// Fork returns a context sharing this context's resolver, registries
// and clock but with its own bindings.
func (c *Context) Fork(globals map[string]value.Value) *Context {
	return &Context{
		globals:  globals,
		resolver: c.resolver,
		ops:      c.ops,
		funcs:    c.funcs,
		now:      c.now,
	}
}

// Bind sets a variable in the context's global bindings.
func (c *Context) Bind(name string, v value.Value) {
	c.globals[name] = v
}

// Lookup returns the value bound to name, or false when unbound.
func (c *Context) Lookup(name string) (value.Value, bool) {
	v, ok := c.globals[name]
	return v, ok
}

// Globals exposes the context's raw binding map. Group operations use
// it to capture per-row namespaces.
func (c *Context) Globals() map[string]value.Value {
	return c.globals
}

// Resolver returns the context's link resolver, possibly nil.
func (c *Context) Resolver() Resolver {
	return c.resolver
}

// Normalize canonicalizes a path via the resolver; identity without
// one.
func (c *Context) Normalize(path string) string {
	if c.resolver == nil {
		return path
	}
	return c.resolver.Normalize(path)
}

// ResolveLink resolves a path to a document namespace via the resolver.
func (c *Context) ResolveLink(path string) (value.Object, bool) {
	if c.resolver == nil {
		return nil, false
	}
	return c.resolver.Resolve(path)
}

// Now returns the context's evaluation wall clock.
func (c *Context) Now() time.Time {
	return c.now
}

// Operators returns the context's binary-operator registry.
func (c *Context) Operators() *OperatorRegistry {
	return c.ops
}

// Functions returns the context's function registry.
func (c *Context) Functions() *FunctionRegistry {
	return c.funcs
}
