package eval

import (
	"github.com/noteql/noteql/pkg/types"
	"github.com/noteql/noteql/pkg/value"
)

// Impl is the implementation of one function overload.
type Impl func(ctx *Context, args []value.Value) (value.Value, error)

// variant is one registered overload: a kind spec (AnyKind entries are
// wildcards) plus its implementation.
type variant struct {
	kinds []value.Kind
	impl  Impl
}

// Function is a named built-in with type-overloaded variants and
// optional vectorization.
type Function struct {
	name     string
	variants []variant
	vararg   Impl

	// Vectorization: when a call has vectorArgc arguments and any of
	// the argument positions in vectorOver holds an array, the function
	// broadcasts element-wise instead of dispatching directly.
	vectorArgc int
	vectorOver []int
}

// NewFunction starts an overload builder for a named function.
func NewFunction(name string) *Function {
	return &Function{name: name}
}

// Add1 registers a one-argument overload.
func (f *Function) Add1(k value.Kind, impl func(ctx *Context, a value.Value) (value.Value, error)) *Function {
	f.variants = append(f.variants, variant{kinds: []value.Kind{k},
		impl: func(ctx *Context, args []value.Value) (value.Value, error) {
			return impl(ctx, args[0])
		}})
	return f
}

// Add2 registers a two-argument overload.
func (f *Function) Add2(k1, k2 value.Kind, impl func(ctx *Context, a, b value.Value) (value.Value, error)) *Function {
	f.variants = append(f.variants, variant{kinds: []value.Kind{k1, k2},
		impl: func(ctx *Context, args []value.Value) (value.Value, error) {
			return impl(ctx, args[0], args[1])
		}})
	return f
}

// Add3 registers a three-argument overload.
func (f *Function) Add3(k1, k2, k3 value.Kind, impl func(ctx *Context, a, b, c value.Value) (value.Value, error)) *Function {
	f.variants = append(f.variants, variant{kinds: []value.Kind{k1, k2, k3},
		impl: func(ctx *Context, args []value.Value) (value.Value, error) {
			return impl(ctx, args[0], args[1], args[2])
		}})
	return f
}

// Vararg registers a catch-all implementation tried after every typed
// variant has failed to match.
func (f *Function) Vararg(impl Impl) *Function {
	f.vararg = impl
	return f
}

// Vectorize declares that calls with argc arguments broadcast over
// array values at the given positions. Broadcasting iterates to the
// shortest of the vectorized arrays and re-invokes the full dispatch
// per element.
func (f *Function) Vectorize(argc int, positions ...int) *Function {
	f.vectorArgc = argc
	f.vectorOver = positions
	return f
}

// FunctionRegistry holds the named built-ins. Like the operator
// registry it is injected per context rather than global.
type FunctionRegistry struct {
	fns map[string]*Function
}

// NewFunctionRegistry creates an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{fns: map[string]*Function{}}
}

// Register adds a function, replacing any previous one with the same
// name.
func (r *FunctionRegistry) Register(f *Function) {
	r.fns[f.name] = f
}

// Has reports whether a function name is registered.
func (r *FunctionRegistry) Has(name string) bool {
	_, ok := r.fns[name]
	return ok
}

// Call dispatches a call to a named built-in. Implementation panics are
// recovered and converted into evaluation errors with the original
// message preserved.
func (r *FunctionRegistry) Call(ctx *Context, name string, args []value.Value) (out value.Value, err error) {
	f, ok := r.fns[name]
	if !ok {
		return nil, types.EvalError(types.ErrUnknownFunction, "Unknown function: %s", name)
	}

	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = types.EvalError(types.ErrFunctionFailed, "Function %s failed: %v", name, rec)
		}
	}()

	return r.dispatch(ctx, f, args)
}

func (r *FunctionRegistry) dispatch(ctx *Context, f *Function, args []value.Value) (value.Value, error) {
	// Vectorization pre-pass: broadcast over arrays in the declared
	// positions, truncating to the shortest.
	if f.vectorArgc == len(args) {
		if n, apply := vectorLength(args, f.vectorOver); apply {
			out := make(value.Array, 0, n)
			for i := 0; i < n; i++ {
				el := make([]value.Value, len(args))
				copy(el, args)
				for _, pos := range f.vectorOver {
					if arr, ok := args[pos].(value.Array); ok {
						el[pos] = arr[i]
					}
				}
				v, err := r.dispatch(ctx, f, el)
				if err != nil {
					return nil, err
				}
				out = append(out, v)
			}
			return out, nil
		}
	}

	for _, v := range f.variants {
		if matchKinds(v.kinds, args) {
			return v.impl(ctx, args)
		}
	}
	if f.vararg != nil {
		return f.vararg(ctx, args)
	}

	return nil, types.EvalError(types.ErrNoOverload,
		"No implementation of %s for argument kinds %s", f.name, kindList(args))
}

// vectorLength returns the length of the shortest array among the
// vectorized positions, and whether any position actually holds an
// array.
func vectorLength(args []value.Value, positions []int) (int, bool) {
	shortest := -1
	for _, pos := range positions {
		if pos >= len(args) {
			continue
		}
		if arr, ok := args[pos].(value.Array); ok {
			if shortest < 0 || len(arr) < shortest {
				shortest = len(arr)
			}
		}
	}
	return shortest, shortest >= 0
}

func matchKinds(kinds []value.Kind, args []value.Value) bool {
	if len(kinds) != len(args) {
		return false
	}
	for i, k := range kinds {
		if k != AnyKind && args[i].Kind() != k {
			return false
		}
	}
	return true
}

func kindList(args []value.Value) string {
	s := "["
	for i, a := range args {
		if i > 0 {
			s += ", "
		}
		s += a.Kind().String()
	}
	return s + "]"
}

// DefaultFunctions builds the standard built-in function table.
func DefaultFunctions() *FunctionRegistry {
	r := NewFunctionRegistry()

	registerConstructors(r)
	registerNumeric(r)
	registerStringFns(r)
	registerListFns(r)
	registerLambdaFns(r)
	registerUtility(r)

	return r
}

// callValue invokes a callable value: a lambda closure or, through the
// registry, nothing else. Built-ins are called by name, not by value.
func callValue(ctx *Context, callee value.Value, args []value.Value) (value.Value, error) {
	fn, ok := callee.(*value.Function)
	if !ok {
		return nil, types.EvalError(types.ErrNotCallable, "Value of kind %s is not callable", callee.Kind())
	}
	return callLambda(ctx, fn, args)
}

// callLambda evaluates a lambda body against its captured bindings
// extended with positional parameters. Missing arguments bind to null;
// surplus arguments are ignored.
func callLambda(ctx *Context, fn *value.Function, args []value.Value) (value.Value, error) {
	body, ok := fn.Body.(*types.FieldNode)
	if !ok {
		return nil, types.EvalError(types.ErrNotCallable, "Malformed function value")
	}

	bindings := make(map[string]value.Value, len(fn.Captured)+len(fn.Params))
	for k, v := range fn.Captured {
		bindings[k] = v
	}
	for i, param := range fn.Params {
		if i < len(args) {
			bindings[param] = args[i]
		} else {
			bindings[param] = value.NullValue
		}
	}

	return ctx.Fork(bindings).Evaluate(body, nil)
}
