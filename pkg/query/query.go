// Package query executes parsed queries: it resolves the FROM source
// against a document index, materializes one evaluation row per
// document and runs the ordered operation pipeline (where, sort, limit,
// flatten, group) before projecting the final rows into the query's
// output shape.
package query

import (
	"github.com/noteql/noteql/pkg/eval"
	"github.com/noteql/noteql/pkg/value"
)

// Index is the document snapshot a query runs against. Implementations
// must be immutable for the duration of one execution; the vault index
// satisfies this by swapping whole snapshots on rebuild.
type Index interface {
	eval.Resolver

	// Paths returns every indexed document path.
	Paths() []string
	// PathsWithTag returns the documents carrying the exact tag
	// (subtag expansion happens at indexing time, not here).
	PathsWithTag(tag string) []string
	// PathsUnderPrefix returns the documents whose path starts with the
	// given folder prefix. The empty prefix matches everything.
	PathsUnderPrefix(prefix string) []string
	// OutgoingLinks returns the normalized link targets of a document.
	OutgoingLinks(path string) []string
	// DocumentFields returns the full field namespace of a document.
	DocumentFields(path string) (value.Object, bool)
}

// Row is one in-progress result row: a variable namespace fed to the
// evaluator. Rows are copied, never mutated in place, when an operation
// branches or merges them.
type Row struct {
	Bindings map[string]value.Value
}

// Clone returns a shallow copy of the row's namespace.
func (r *Row) Clone() *Row {
	bindings := make(map[string]value.Value, len(r.Bindings))
	for k, v := range r.Bindings {
		bindings[k] = v
	}
	return &Row{Bindings: bindings}
}

// Namespace returns the row's bindings as an object value.
func (r *Row) Namespace() value.Object {
	obj := make(value.Object, len(r.Bindings))
	for k, v := range r.Bindings {
		obj[k] = v
	}
	return obj
}
