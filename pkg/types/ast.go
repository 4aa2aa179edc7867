// Package types holds the shared data types of the engine: the field
// (expression) AST, the source AST, the query structure and the
// structured error type. It depends only on the value model.
package types

import "github.com/noteql/noteql/pkg/value"

// FieldType identifies the variant of a field AST node.
type FieldType string

const (
	FieldLiteral  FieldType = "literal"  // a constant value
	FieldVariable FieldType = "variable" // a name looked up in the context
	FieldDateRef  FieldType = "dateref"  // a date shorthand (today, sow, ...) resolved at evaluation time
	FieldBinaryOp FieldType = "binaryop" // LHS op RHS
	FieldNegated  FieldType = "negated"  // !Child
	FieldIndex    FieldType = "index"    // Target[Index] or Target.field
	FieldCall     FieldType = "call"     // Target(Args...)
	FieldLambda   FieldType = "lambda"   // (Params...) => Child
	FieldList     FieldType = "list"     // [Elements...]
	FieldObject   FieldType = "object"   // {Pairs...}
)

// ObjectEntry is one key-value pair of an object literal.
type ObjectEntry struct {
	Key   string
	Value *FieldNode
}

// FieldNode is a node in a field expression tree. Which fields are
// populated depends on Type; the tree is pure and acyclic, and
// evaluation has no side effects beyond link resolution.
type FieldNode struct {
	Type     FieldType
	Position int

	Literal  value.Value   // FieldLiteral
	Name     string        // FieldVariable, FieldDateRef
	Op       string        // FieldBinaryOp
	LHS, RHS *FieldNode    // FieldBinaryOp
	Child    *FieldNode    // FieldNegated, FieldLambda body
	Target   *FieldNode    // FieldIndex, FieldCall
	Index    *FieldNode    // FieldIndex
	Args     []*FieldNode  // FieldCall
	Params   []string      // FieldLambda
	Elements []*FieldNode  // FieldList
	Pairs    []ObjectEntry // FieldObject
}

// Literal builds a literal node.
func Literal(v value.Value) *FieldNode {
	return &FieldNode{Type: FieldLiteral, Literal: v, Position: -1}
}

// Variable builds a variable reference node.
func Variable(name string) *FieldNode {
	return &FieldNode{Type: FieldVariable, Name: name, Position: -1}
}

// BinaryOp builds a binary operation node.
func BinaryOp(op string, lhs, rhs *FieldNode) *FieldNode {
	return &FieldNode{Type: FieldBinaryOp, Op: op, LHS: lhs, RHS: rhs, Position: -1}
}

// Index builds an index node: target[index].
func Index(target, index *FieldNode) *FieldNode {
	return &FieldNode{Type: FieldIndex, Target: target, Index: index, Position: -1}
}

// Call builds a function-call node.
func Call(target *FieldNode, args ...*FieldNode) *FieldNode {
	return &FieldNode{Type: FieldCall, Target: target, Args: args, Position: -1}
}
