// Package noteql implements a query engine over loosely-structured
// markdown documents.
//
// noteql queries select documents from a vault by tag, folder or link
// graph, then transform them through an ordered pipeline of operations
// (where, sort, limit, flatten, group) before projecting the result as
// a list, table or task collection. Field expressions run in a dynamic
// value model (null, boolean, number, string, date, duration, link,
// array, object, task, function) with a single total order over every
// kind.
//
// # Quick Start
//
//	// Index a vault and run a query against it
//	snap, err := index.Load(os.DirFS("vault"), nil)
//	eng := noteql.New(snap)
//	res, err := eng.Query(`TABLE file.name, rating FROM #game WHERE rating > 3`)
//
//	// Parse once, execute against successive snapshots
//	q, err := noteql.ParseQuery(`LIST FROM "projects" SORT file.mtime DESC`)
//	res1, _ := eng.Execute(q)
//	res2, _ := eng2.Execute(q)
//
// # More Information
//
// For detailed documentation, see:
//   - Parser: github.com/noteql/noteql/pkg/parser
//   - Evaluator: github.com/noteql/noteql/pkg/eval
//   - Pipeline: github.com/noteql/noteql/pkg/query
//   - Vault index: github.com/noteql/noteql/pkg/index
package noteql

import (
	"fmt"

	"github.com/noteql/noteql/pkg/cache"
	"github.com/noteql/noteql/pkg/eval"
	"github.com/noteql/noteql/pkg/parser"
	"github.com/noteql/noteql/pkg/query"
	"github.com/noteql/noteql/pkg/types"
)

// Version returns the current version of noteql.
func Version() string {
	return "v0.1.0-dev"
}

// ParseField parses a field expression.
func ParseField(text string) (*types.FieldNode, error) {
	return parser.ParseField(text)
}

// ParseSource parses a source expression.
func ParseSource(text string) (*types.SourceNode, error) {
	return parser.ParseSource(text)
}

// ParseQuery parses a complete query. The parsed query is immutable and
// safe to execute concurrently against different snapshots.
func ParseQuery(text string) (*types.Query, error) {
	return parser.ParseQuery(text)
}

// MustParseQuery is like ParseQuery but panics on a parse error. It
// simplifies safe initialization of global variables.
func MustParseQuery(text string) *types.Query {
	q, err := ParseQuery(text)
	if err != nil {
		panic(fmt.Sprintf("noteql: ParseQuery(%q): %v", text, err))
	}
	return q
}

// Engine binds a document index to the parser and query executor.
type Engine struct {
	index    query.Index
	executor *query.Executor
	cache    *cache.Cache
	origin   string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithCaching enables an LRU cache of parsed queries with the given
// capacity (0 picks the default).
func WithCaching(capacity int) EngineOption {
	return func(e *Engine) {
		e.cache = cache.New(capacity)
	}
}

// WithOrigin sets the path of the document queries are considered to
// run from. Link sources with an empty target resolve against it.
func WithOrigin(origin string) EngineOption {
	return func(e *Engine) {
		e.origin = origin
	}
}

// WithEvalOptions forwards evaluation options (custom registries, a
// fixed clock) to the engine's executor.
func WithEvalOptions(opts ...eval.ContextOption) EngineOption {
	return func(e *Engine) {
		e.executor = query.NewExecutor(e.index, query.WithContextOptions(opts...))
	}
}

// New creates an engine over a document index.
func New(index query.Index, opts ...EngineOption) *Engine {
	e := &Engine{index: index}
	for _, opt := range opts {
		opt(e)
	}
	if e.executor == nil {
		e.executor = query.NewExecutor(index)
	}
	return e
}

// Query parses and executes a query in one call. With caching enabled
// repeated texts skip the parser.
func (e *Engine) Query(text string) (*query.Result, error) {
	var q *types.Query
	var err error
	if e.cache != nil {
		q, err = e.cache.GetOrParse(text, func() (*types.Query, error) {
			return parser.ParseQuery(text)
		})
	} else {
		q, err = parser.ParseQuery(text)
	}
	if err != nil {
		return nil, err
	}
	return e.Execute(q)
}

// Execute runs an already-parsed query.
func (e *Engine) Execute(q *types.Query) (*query.Result, error) {
	return e.executor.Execute(q, e.origin)
}
