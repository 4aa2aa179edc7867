package query

import (
	"github.com/noteql/noteql/pkg/types"
	"github.com/noteql/noteql/pkg/value"
)

// Result is the projected outcome of a query: column names plus
// per-row cell values, ready for presentation.
type Result struct {
	Shape   types.QueryShape
	Columns []string
	Rows    [][]value.Value
}

// Len returns the number of result rows.
func (r *Result) Len() int { return len(r.Rows) }

// project reads the query's named fields out of the final row sequence.
func (e *Executor) project(q *types.Query, rows []*Row) (*Result, error) {
	switch q.Shape {
	case types.ShapeTable:
		return e.projectTable(q, rows), nil
	case types.ShapeList:
		return e.projectList(q, rows), nil
	case types.ShapeTask:
		return e.projectTasks(rows), nil
	default:
		return nil, types.EvalError(types.ErrUnknownShape, "Unknown query shape: %s", q.Shape)
	}
}

func (e *Executor) projectTable(q *types.Query, rows []*Row) *Result {
	columns := make([]string, 0, len(q.Fields)+1)
	columns = append(columns, "File")
	for _, f := range q.Fields {
		columns = append(columns, f.Name)
	}

	result := &Result{Shape: types.ShapeTable, Columns: columns}
	for _, row := range rows {
		ctx := e.rowContext(row)
		cells := make([]value.Value, 0, len(columns))
		cells = append(cells, rowIdentity(row))
		for _, f := range q.Fields {
			v, err := ctx.Evaluate(f.Field, nil)
			if err != nil {
				v = value.NullValue
			}
			cells = append(cells, v)
		}
		result.Rows = append(result.Rows, cells)
	}
	return result
}

func (e *Executor) projectList(q *types.Query, rows []*Row) *Result {
	result := &Result{Shape: types.ShapeList, Columns: []string{"File"}}
	withField := len(q.Fields) == 1
	if withField {
		result.Columns = append(result.Columns, q.Fields[0].Name)
	}

	for _, row := range rows {
		cells := []value.Value{rowIdentity(row)}
		if withField {
			v, err := e.rowContext(row).Evaluate(q.Fields[0].Field, nil)
			if err != nil {
				v = value.NullValue
			}
			cells = append(cells, v)
		}
		result.Rows = append(result.Rows, cells)
	}
	return result
}

// projectTasks flattens every row's task tree into one task per result
// row. Subtasks stay nested under their parents.
func (e *Executor) projectTasks(rows []*Row) *Result {
	result := &Result{Shape: types.ShapeTask, Columns: []string{"Task"}}
	for _, row := range rows {
		tasks := rowTasks(row)
		for _, t := range tasks {
			result.Rows = append(result.Rows, []value.Value{t})
		}
	}
	return result
}

// rowIdentity returns the value identifying a row in output: its file
// link for document rows, its group key for grouped rows. Grouped rows
// bind exactly the key (under the operation's output name, whatever it
// is) and the member namespaces under "rows".
func rowIdentity(row *Row) value.Value {
	if file, ok := row.Bindings["file"].(value.Object); ok {
		if link := file.Get("link"); link.Kind() != value.KindNull {
			return link
		}
	}
	if _, grouped := row.Bindings["rows"]; grouped && len(row.Bindings) == 2 {
		for name, v := range row.Bindings {
			if name != "rows" {
				return v
			}
		}
	}
	return value.NullValue
}

// rowTasks extracts the task values reachable from a row: the file's
// own task tree, or every member file's tasks for grouped rows.
func rowTasks(row *Row) []value.Value {
	var out []value.Value
	if file, ok := row.Bindings["file"].(value.Object); ok {
		if tasks, ok := file.Get("tasks").(value.Array); ok {
			out = append(out, tasks...)
		}
		return out
	}
	if members, ok := row.Bindings["rows"].(value.Array); ok {
		for _, member := range members {
			ns, ok := member.(value.Object)
			if !ok {
				continue
			}
			out = append(out, rowTasks(&Row{Bindings: map[string]value.Value(ns)})...)
		}
	}
	return out
}
