package value

// Task is a hierarchical to-do item parsed from a document. Tasks are
// constructed once per parse and treated as immutable afterwards.
type Task struct {
	// Text is the task's own text, without the checkbox marker.
	Text string
	// Path and Line locate the task in its source document.
	Path string
	Line int
	// Completed is the task's own checkbox state. FullyCompleted is the
	// aggregate: this task and every descendant is completed. It is
	// computed bottom-up during parsing.
	Completed      bool
	FullyCompleted bool
	// Children are the nested subtasks, owned by this task.
	Children []*Task
	// Created, Due and Completion are optional date annotations; nil
	// when absent.
	Created    *Date
	Due        *Date
	Completion *Date
	// Annotations holds any further inline key-value annotations.
	Annotations map[string]Value
}

func (t *Task) Kind() Kind   { return KindTask }
func (t *Task) Truthy() bool { return true }

// Field exposes the task's attributes by name, so expressions can
// filter and sort over tasks like any other record. Unknown names
// return (NullValue, false).
func (t *Task) Field(name string) (Value, bool) {
	switch name {
	case "text":
		return String(t.Text), true
	case "path":
		return String(t.Path), true
	case "line":
		return Number(t.Line), true
	case "completed":
		return Boolean(t.Completed), true
	case "fullycompleted":
		return Boolean(t.FullyCompleted), true
	case "subtasks", "children":
		out := make(Array, len(t.Children))
		for i, c := range t.Children {
			out[i] = c
		}
		return out, true
	case "created":
		return dateOrNull(t.Created), true
	case "due":
		return dateOrNull(t.Due), true
	case "completion":
		return dateOrNull(t.Completion), true
	}
	if v, ok := t.Annotations[name]; ok {
		return v, true
	}
	return NullValue, false
}

func dateOrNull(d *Date) Value {
	if d == nil {
		return NullValue
	}
	return *d
}
