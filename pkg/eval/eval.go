package eval

import (
	"github.com/noteql/noteql/pkg/types"
	"github.com/noteql/noteql/pkg/value"
)

// Evaluate reduces a field expression to a value. extra bindings
// shadow the context's globals for the duration of this evaluation.
// Undefined variables evaluate to null; documents have heterogeneous
// fields and a missing field must not fail the row.
func (c *Context) Evaluate(node *types.FieldNode, extra map[string]value.Value) (value.Value, error) {
	switch node.Type {
	case types.FieldLiteral:
		return node.Literal, nil

	case types.FieldDateRef:
		if d, ok := value.ResolveDateShorthand(node.Name, c.now); ok {
			return d, nil
		}
		return value.NullValue, nil

	case types.FieldVariable:
		if v, ok := extra[node.Name]; ok {
			return v, nil
		}
		if v, ok := c.globals[node.Name]; ok {
			return v, nil
		}
		return value.NullValue, nil

	case types.FieldNegated:
		child, err := c.Evaluate(node.Child, extra)
		if err != nil {
			return nil, err
		}
		return value.Boolean(!child.Truthy()), nil

	case types.FieldBinaryOp:
		// No short-circuiting: both sides always evaluate, left first.
		left, err := c.Evaluate(node.LHS, extra)
		if err != nil {
			return nil, err
		}
		right, err := c.Evaluate(node.RHS, extra)
		if err != nil {
			return nil, err
		}
		return c.ops.Apply(c, node.Op, left, right)

	case types.FieldList:
		out := make(value.Array, 0, len(node.Elements))
		for _, el := range node.Elements {
			v, err := c.Evaluate(el, extra)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case types.FieldObject:
		out := make(value.Object, len(node.Pairs))
		for _, pair := range node.Pairs {
			v, err := c.Evaluate(pair.Value, extra)
			if err != nil {
				return nil, err
			}
			out[pair.Key] = v
		}
		return out, nil

	case types.FieldLambda:
		return c.makeLambda(node, extra), nil

	case types.FieldCall:
		return c.evalCall(node, extra)

	case types.FieldIndex:
		return c.evalIndex(node, extra)

	default:
		return nil, types.EvalError(types.ErrUnrecognizedValue, "Unrecognized expression node: %s", node.Type)
	}
}

// makeLambda captures the visible bindings by value into a Function
// closure.
func (c *Context) makeLambda(node *types.FieldNode, extra map[string]value.Value) *value.Function {
	captured := make(map[string]value.Value, len(c.globals)+len(extra))
	for k, v := range c.globals {
		captured[k] = v
	}
	for k, v := range extra {
		captured[k] = v
	}
	return &value.Function{
		Params:   node.Params,
		Body:     node.Child,
		Captured: captured,
	}
}

// evalCall resolves the callee and invokes it with eagerly evaluated
// arguments. A bare name resolves first through the variable bindings
// (a lambda bound to the name wins) and then through the function
// registry.
func (c *Context) evalCall(node *types.FieldNode, extra map[string]value.Value) (value.Value, error) {
	args := make([]value.Value, len(node.Args))
	for i, argNode := range node.Args {
		v, err := c.Evaluate(argNode, extra)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	if node.Target.Type == types.FieldVariable {
		name := node.Target.Name
		if bound, ok := lookupBinding(c, extra, name); ok {
			if fn, isFn := bound.(*value.Function); isFn {
				return callLambda(c, fn, args)
			}
		}
		return c.funcs.Call(c, name, args)
	}

	callee, err := c.Evaluate(node.Target, extra)
	if err != nil {
		return nil, err
	}
	return callValue(c, callee, args)
}

func lookupBinding(c *Context, extra map[string]value.Value, name string) (value.Value, bool) {
	if v, ok := extra[name]; ok {
		return v, true
	}
	v, ok := c.globals[name]
	return v, ok
}

// evalIndex evaluates target[index] with per-kind dispatch. The index
// must reduce to a string, number or null.
func (c *Context) evalIndex(node *types.FieldNode, extra map[string]value.Value) (value.Value, error) {
	idx, err := c.Evaluate(node.Index, extra)
	if err != nil {
		return nil, err
	}
	switch idx.Kind() {
	case value.KindString, value.KindNumber:
	case value.KindNull:
		return value.NullValue, nil
	default:
		return nil, types.EvalError(types.ErrBadIndex, "Index must be a string or number, not %s", idx.Kind())
	}

	target, err := c.Evaluate(node.Target, extra)
	if err != nil {
		return nil, err
	}
	return c.indexInto(target, idx)
}

// indexInto applies an already-evaluated index to an already-evaluated
// target.
func (c *Context) indexInto(target, idx value.Value) (value.Value, error) {
	switch t := target.(type) {
	case value.Object:
		if s, ok := idx.(value.String); ok {
			return t.Get(string(s)), nil
		}
		return value.NullValue, nil

	case value.Array:
		switch i := idx.(type) {
		case value.Number:
			n := int(i)
			if n < 0 || n >= len(t) {
				return value.NullValue, nil
			}
			return t[n], nil
		case value.String:
			// Broadcast the field access over every element, keeping
			// only the successful lookups.
			out := make(value.Array, 0, len(t))
			for _, el := range t {
				v, err := c.indexInto(el, i)
				if err != nil {
					continue
				}
				out = append(out, v)
			}
			return out, nil
		}
		return value.NullValue, nil

	case value.String:
		if i, ok := idx.(value.Number); ok {
			runes := []rune(string(t))
			n := int(i)
			if n < 0 || n >= len(runes) {
				return value.NullValue, nil
			}
			return value.String(runes[n]), nil
		}
		return value.NullValue, nil

	case value.Link:
		if s, ok := idx.(value.String); ok {
			fields, ok := c.ResolveLink(t.Path)
			if !ok {
				return value.NullValue, nil
			}
			return fields.Get(string(s)), nil
		}
		return value.NullValue, nil

	case value.Date:
		if s, ok := idx.(value.String); ok {
			if n, ok := t.Component(string(s)); ok {
				return value.Number(n), nil
			}
		}
		return value.NullValue, nil

	case value.Duration:
		if s, ok := idx.(value.String); ok {
			if n, ok := t.Component(string(s)); ok {
				return value.Number(n), nil
			}
		}
		return value.NullValue, nil

	case *value.Task:
		if s, ok := idx.(value.String); ok {
			if v, ok := t.Field(string(s)); ok {
				return v, nil
			}
		}
		return value.NullValue, nil

	default:
		return value.NullValue, nil
	}
}
