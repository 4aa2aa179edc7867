package types

// QueryShape selects the output form of a query.
type QueryShape string

const (
	ShapeList  QueryShape = "list"
	ShapeTable QueryShape = "table"
	ShapeTask  QueryShape = "task"
)

// NamedField is a projected column: an expression plus the column name
// it renders under. Name defaults to the expression's source text when
// no alias is given.
type NamedField struct {
	Name  string
	Field *FieldNode
}

// OpType identifies a pipeline operation.
type OpType string

const (
	OpWhere   OpType = "where"
	OpSort    OpType = "sort"
	OpLimit   OpType = "limit"
	OpFlatten OpType = "flatten"
	OpGroup   OpType = "group"
)

// SortField is one key of a sort operation.
type SortField struct {
	Field      *FieldNode
	Descending bool
}

// Operation is one step of the query pipeline. Operations execute
// strictly in the order they were written; each consumes the row
// sequence of the previous one.
type Operation struct {
	Type     OpType
	Position int

	Clause *FieldNode  // OpWhere
	Keys   []SortField // OpSort
	Amount *FieldNode  // OpLimit
	Field  *FieldNode  // OpFlatten, OpGroup
	Name   string      // OpFlatten, OpGroup: output variable name
}

// Query is a complete parsed query: output header, source and the
// ordered operation list.
type Query struct {
	Shape      QueryShape
	Fields     []NamedField // ShapeTable columns; one optional field for ShapeList
	Source     *SourceNode
	Operations []Operation

	// Text is the original query text, kept for error reporting and
	// cache keying.
	Text string
}
