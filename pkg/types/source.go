package types

// SourceType identifies the variant of a source AST node.
type SourceType string

const (
	SourceTag      SourceType = "tag"      // documents carrying a tag
	SourceFolder   SourceType = "folder"   // documents under a path prefix
	SourceLink     SourceType = "link"     // documents linked to/from a target
	SourceBinaryOp SourceType = "binaryop" // intersection (&) or union (|)
	SourceNegate   SourceType = "negate"   // complement against the indexed universe
	SourceEmpty    SourceType = "empty"    // the empty set
)

// LinkDirection selects which side of the link graph a link source
// reads.
type LinkDirection string

const (
	// LinkIncoming selects documents whose outgoing links contain the
	// target (resolved by scanning the whole snapshot).
	LinkIncoming LinkDirection = "incoming"
	// LinkOutgoing selects the target document's own outgoing links.
	LinkOutgoing LinkDirection = "outgoing"
)

// SourceNode is a set-builder over document paths. It always resolves,
// via an external index, to a concrete set of paths.
type SourceNode struct {
	Type     SourceType
	Position int

	Name      string        // SourceTag (tag, with '#'), SourceFolder (prefix), SourceLink (target path)
	Direction LinkDirection // SourceLink
	Op        string        // SourceBinaryOp: "&" or "|"
	LHS, RHS  *SourceNode   // SourceBinaryOp
	Child     *SourceNode   // SourceNegate
}

// TagSource builds a tag source.
func TagSource(tag string) *SourceNode {
	return &SourceNode{Type: SourceTag, Name: tag, Position: -1}
}

// FolderSource builds a folder-prefix source.
func FolderSource(prefix string) *SourceNode {
	return &SourceNode{Type: SourceFolder, Name: prefix, Position: -1}
}

// LinkSource builds a link source in the given direction.
func LinkSource(target string, dir LinkDirection) *SourceNode {
	return &SourceNode{Type: SourceLink, Name: target, Direction: dir, Position: -1}
}

// EmptySource builds the empty source.
func EmptySource() *SourceNode {
	return &SourceNode{Type: SourceEmpty, Position: -1}
}
