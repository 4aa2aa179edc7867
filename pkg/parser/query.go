package parser

import (
	"strings"

	"github.com/noteql/noteql/pkg/types"
	"github.com/noteql/noteql/pkg/value"
)

// parseQuery parses a complete query. The header names the output shape
// and its projected fields, FROM names the source, and everything after
// that is the ordered operation list.
func (p *Parser) parseQuery(text string) (*types.Query, error) {
	q := &types.Query{Text: text}

	shape, err := p.parseShape()
	if err != nil {
		return nil, err
	}
	q.Shape = shape

	switch shape {
	case types.ShapeTable:
		if !p.atQueryKeyword() && p.current.Type != TokenEOF {
			fields, err := p.parseNamedFields(text)
			if err != nil {
				return nil, err
			}
			q.Fields = fields
		}
	case types.ShapeList:
		// LIST takes at most one projected field.
		if !p.atQueryKeyword() && p.current.Type != TokenEOF {
			fields, err := p.parseNamedFields(text)
			if err != nil {
				return nil, err
			}
			if len(fields) > 1 {
				return nil, p.errorf(types.ErrSyntax, "LIST accepts at most one field")
			}
			q.Fields = fields
		}
	case types.ShapeTask:
		// TASK projects the task tree itself; no fields.
	}

	if p.isName("from") {
		p.advance()
		src, err := p.parseSource(0)
		if err != nil {
			return nil, err
		}
		q.Source = src
	} else {
		// Without FROM the query ranges over the whole vault.
		q.Source = types.FolderSource("")
	}

	for p.current.Type != TokenEOF {
		op, err := p.parseOperation(text)
		if err != nil {
			return nil, err
		}
		q.Operations = append(q.Operations, op)
	}

	return q, nil
}

// parseShape reads the leading TABLE/LIST/TASK keyword.
func (p *Parser) parseShape() (types.QueryShape, error) {
	if p.current.Type != TokenName {
		return "", p.errorf(types.ErrUnknownShape, "Expected TABLE, LIST or TASK")
	}
	shape := lower(p.current.Value)
	switch shape {
	case "table", "list", "task":
		p.advance()
		return types.QueryShape(shape), nil
	default:
		return "", p.errorf(types.ErrUnknownShape, "Unknown query shape: %s", p.current.Value)
	}
}

// atQueryKeyword reports whether the current token starts a FROM clause
// or a pipeline operation.
func (p *Parser) atQueryKeyword() bool {
	if p.current.Type != TokenName {
		return false
	}
	switch lower(p.current.Value) {
	case "from", "where", "sort", "limit", "flatten", "group":
		return true
	default:
		return false
	}
}

// parseNamedFields parses a comma-separated projection list. Each field
// may carry an AS alias; without one the column name is the field's own
// source text.
func (p *Parser) parseNamedFields(text string) ([]types.NamedField, error) {
	var fields []types.NamedField
	for {
		start := p.current.Position
		field, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		end := p.current.Position

		name := ""
		if p.isName("as") {
			p.advance()
			name, err = p.parseAliasName()
			if err != nil {
				return nil, err
			}
		} else {
			name = strings.TrimSpace(text[start:end])
		}
		fields = append(fields, types.NamedField{Name: name, Field: field})

		if p.current.Type != TokenComma {
			break
		}
		p.advance()
	}
	return fields, nil
}

// parseAliasName reads the name after AS: a bare name or a quoted
// string.
func (p *Parser) parseAliasName() (string, error) {
	switch p.current.Type {
	case TokenName:
		name := p.current.Value
		p.advance()
		return name, nil
	case TokenString:
		name := unescapeString(p.current.Value)
		p.advance()
		return name, nil
	default:
		return "", p.errorf(types.ErrExpectedToken, "Expected a name after AS")
	}
}

// parseOperation parses one pipeline operation.
func (p *Parser) parseOperation(text string) (types.Operation, error) {
	if p.current.Type != TokenName {
		return types.Operation{}, p.errorf(types.ErrSyntax, "Expected an operation but got %s", p.current.Type.String())
	}

	pos := p.current.Position
	switch lower(p.current.Value) {
	case "where":
		p.advance()
		clause, err := p.parseExpression(0)
		if err != nil {
			return types.Operation{}, err
		}
		return types.Operation{Type: types.OpWhere, Position: pos, Clause: clause}, nil

	case "sort":
		p.advance()
		keys, err := p.parseSortKeys()
		if err != nil {
			return types.Operation{}, err
		}
		return types.Operation{Type: types.OpSort, Position: pos, Keys: keys}, nil

	case "limit":
		p.advance()
		amount, err := p.parseExpression(0)
		if err != nil {
			return types.Operation{}, err
		}
		return types.Operation{Type: types.OpLimit, Position: pos, Amount: amount}, nil

	case "flatten":
		p.advance()
		field, err := p.parseExpression(0)
		if err != nil {
			return types.Operation{}, err
		}
		name := ""
		if p.isName("as") {
			p.advance()
			name, err = p.parseAliasName()
			if err != nil {
				return types.Operation{}, err
			}
		} else if name = derivedFieldName(field); name == "" {
			return types.Operation{}, &types.Error{
				Code:     types.ErrFlattenNoName,
				Message:  "FLATTEN of a computed expression requires an AS name",
				Position: pos,
			}
		}
		return types.Operation{Type: types.OpFlatten, Position: pos, Field: field, Name: name}, nil

	case "group":
		p.advance()
		if !p.isName("by") {
			return types.Operation{}, p.errorf(types.ErrExpectedToken, "Expected BY after GROUP")
		}
		p.advance()
		field, err := p.parseExpression(0)
		if err != nil {
			return types.Operation{}, err
		}
		name := "key"
		if p.isName("as") {
			p.advance()
			name, err = p.parseAliasName()
			if err != nil {
				return types.Operation{}, err
			}
		}
		return types.Operation{Type: types.OpGroup, Position: pos, Field: field, Name: name}, nil

	default:
		return types.Operation{}, p.errorf(types.ErrSyntax, "Unknown operation: %s", p.current.Value)
	}
}

// parseSortKeys parses the comma-separated SORT key list with optional
// ASC/DESC markers.
func (p *Parser) parseSortKeys() ([]types.SortField, error) {
	var keys []types.SortField
	for {
		field, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}

		key := types.SortField{Field: field}
		switch {
		case p.isName("desc") || p.isName("descending"):
			key.Descending = true
			p.advance()
		case p.isName("asc") || p.isName("ascending"):
			p.advance()
		}
		keys = append(keys, key)

		if p.current.Type != TokenComma {
			break
		}
		p.advance()
	}
	return keys, nil
}

// derivedFieldName extracts the variable name a FLATTEN without an
// alias rebinds: bare variables use their own name, dot chains use the
// final segment. Computed expressions have no derivable name.
func derivedFieldName(field *types.FieldNode) string {
	switch field.Type {
	case types.FieldVariable:
		return field.Name
	case types.FieldIndex:
		if field.Index != nil && field.Index.Type == types.FieldLiteral {
			if s, ok := field.Index.Literal.(value.String); ok {
				return string(s)
			}
		}
	}
	return ""
}
