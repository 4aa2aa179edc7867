package query

import (
	"log/slog"
	"sort"

	"github.com/noteql/noteql/pkg/eval"
	"github.com/noteql/noteql/pkg/types"
	"github.com/noteql/noteql/pkg/value"
)

// Executor runs queries against a document index. The zero options
// give it fresh default registries; hosts inject their own through
// context options.
type Executor struct {
	index  Index
	base   *eval.Context
	logger *slog.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithContextOptions forwards evaluation options (registries, clock) to
// the executor's base context.
func WithContextOptions(opts ...eval.ContextOption) ExecutorOption {
	return func(e *Executor) {
		e.base = eval.NewContext(append(opts, eval.WithResolver(e.index))...)
	}
}

// WithLogger sets the executor's logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor creates an executor over a document index.
func NewExecutor(index Index, opts ...ExecutorOption) *Executor {
	e := &Executor{index: index}
	for _, opt := range opts {
		opt(e)
	}
	if e.base == nil {
		e.base = eval.NewContext(eval.WithResolver(index))
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Execute runs a parsed query. origin is the path of the document the
// query is embedded in (empty for standalone queries); it anchors
// empty link targets in the source.
func (e *Executor) Execute(q *types.Query, origin string) (*Result, error) {
	paths, err := ResolveSource(q.Source, e.index, origin)
	if err != nil {
		return nil, err
	}

	rows := e.materialize(paths)
	e.logger.Debug("query source resolved", "documents", len(rows), "operations", len(q.Operations))

	for _, op := range q.Operations {
		rows, err = e.applyOperation(op, rows)
		if err != nil {
			return nil, err
		}
	}

	return e.project(q, rows)
}

// materialize builds one row per selected document in deterministic
// path order.
func (e *Executor) materialize(paths map[string]struct{}) []*Row {
	ordered := make([]string, 0, len(paths))
	for p := range paths {
		ordered = append(ordered, p)
	}
	sort.Strings(ordered)

	rows := make([]*Row, 0, len(ordered))
	for _, p := range ordered {
		fields, ok := e.index.DocumentFields(p)
		if !ok {
			continue
		}
		bindings := make(map[string]value.Value, len(fields))
		for k, v := range fields {
			bindings[k] = v
		}
		rows = append(rows, &Row{Bindings: bindings})
	}
	return rows
}

func (e *Executor) applyOperation(op types.Operation, rows []*Row) ([]*Row, error) {
	switch op.Type {
	case types.OpWhere:
		return e.applyWhere(op, rows), nil
	case types.OpSort:
		return e.applySort(op, rows), nil
	case types.OpLimit:
		return e.applyLimit(op, rows)
	case types.OpFlatten:
		return e.applyFlatten(op, rows), nil
	case types.OpGroup:
		return e.applyGroup(op, rows), nil
	default:
		return nil, types.NewError(types.ErrSyntax, "Unknown operation: "+string(op.Type), op.Position)
	}
}

// applyWhere keeps rows whose clause evaluates truthy. An evaluation
// failure excludes the row rather than failing the query.
func (e *Executor) applyWhere(op types.Operation, rows []*Row) []*Row {
	out := rows[:0:0]
	for _, row := range rows {
		v, err := e.rowContext(row).Evaluate(op.Clause, nil)
		if err != nil {
			continue
		}
		if v.Truthy() {
			out = append(out, row)
		}
	}
	return out
}

// applySort orders rows by the sort keys in sequence. A key that fails
// to evaluate on either side sorts that row last for the comparison.
func (e *Executor) applySort(op types.Operation, rows []*Row) []*Row {
	type keyed struct {
		row    *Row
		keys   []value.Value
		failed []bool
	}

	entries := make([]keyed, len(rows))
	for i, row := range rows {
		entry := keyed{row: row, keys: make([]value.Value, len(op.Keys)), failed: make([]bool, len(op.Keys))}
		ctx := e.rowContext(row)
		for k, key := range op.Keys {
			v, err := ctx.Evaluate(key.Field, nil)
			if err != nil {
				entry.failed[k] = true
				continue
			}
			entry.keys[k] = v
		}
		entries[i] = entry
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		for k, key := range op.Keys {
			switch {
			case a.failed[k] && b.failed[k]:
				continue
			case a.failed[k]:
				return false
			case b.failed[k]:
				return true
			}
			cmp := e.compareKeys(a.keys[k], b.keys[k])
			if cmp == 0 {
				continue
			}
			if key.Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})

	out := make([]*Row, len(entries))
	for i, entry := range entries {
		out[i] = entry.row
	}
	return out
}

// compareKeys orders two sort keys through the operator registry, so a
// host-installed comparison operator overrides the built-in total
// order. A registry that cannot compare the pair treats it as a tie.
func (e *Executor) compareKeys(a, b value.Value) int {
	ops := e.base.Operators()
	if v, err := ops.Apply(e.base, "<", a, b); err == nil && v.Truthy() {
		return -1
	}
	if v, err := ops.Apply(e.base, ">", a, b); err == nil && v.Truthy() {
		return 1
	}
	return 0
}

// applyLimit truncates the row list. The amount evaluates once against
// the root context, not per row, and must reduce to a number.
func (e *Executor) applyLimit(op types.Operation, rows []*Row) ([]*Row, error) {
	v, err := e.base.Evaluate(op.Amount, nil)
	if err != nil {
		return nil, err
	}
	n, ok := v.(value.Number)
	if !ok {
		return nil, types.NewError(types.ErrBadLimit,
			"LIMIT must evaluate to a number, not "+v.Kind().String(), op.Position)
	}
	limit := int(n)
	if limit < 0 {
		limit = 0
	}
	if limit < len(rows) {
		rows = rows[:limit]
	}
	return rows, nil
}

// applyFlatten fans each row out over the elements of an array field.
// Non-array results pass the row through with the output variable
// rebound to the single value.
func (e *Executor) applyFlatten(op types.Operation, rows []*Row) []*Row {
	out := make([]*Row, 0, len(rows))
	for _, row := range rows {
		v, err := e.rowContext(row).Evaluate(op.Field, nil)
		if err != nil {
			v = value.NullValue
		}

		if arr, ok := v.(value.Array); ok {
			for _, el := range arr {
				branch := row.Clone()
				branch.Bindings[op.Name] = el
				out = append(out, branch)
			}
			continue
		}

		single := row.Clone()
		single.Bindings[op.Name] = v
		out = append(out, single)
	}
	return out
}

// applyGroup buckets rows by the canonical structural key of the
// grouping value, emitting one row per distinct key in first-seen
// order. Each grouped row binds the key under the output name and the
// raw member namespaces under "rows". Rows whose key fails to evaluate
// land in a shared null bucket.
func (e *Executor) applyGroup(op types.Operation, rows []*Row) []*Row {
	type bucket struct {
		key     value.Value
		members value.Array
	}

	var order []string
	buckets := map[string]*bucket{}

	for _, row := range rows {
		key, err := e.rowContext(row).Evaluate(op.Field, nil)
		if err != nil {
			key = value.NullValue
		}

		canonical := value.Key(key)
		b, ok := buckets[canonical]
		if !ok {
			b = &bucket{key: key}
			buckets[canonical] = b
			order = append(order, canonical)
		}
		b.members = append(b.members, row.Namespace())
	}

	out := make([]*Row, 0, len(order))
	for _, canonical := range order {
		b := buckets[canonical]
		out = append(out, &Row{Bindings: map[string]value.Value{
			op.Name: b.key,
			"rows":  b.members,
		}})
	}
	return out
}

func (e *Executor) rowContext(row *Row) *eval.Context {
	return e.base.Fork(row.Bindings)
}
