package parser

import (
	"strconv"
	"strings"

	"github.com/noteql/noteql/pkg/types"
	"github.com/noteql/noteql/pkg/value"
)

// Operator precedence table (binding power). Higher values bind more
// tightly. All binary tiers are left-associative.
var precedence = map[TokenType]int{
	TokenOr:           25,
	TokenAnd:          30,
	TokenEqual:        40,
	TokenNotEqual:     40,
	TokenLess:         40,
	TokenLessEqual:    40,
	TokenGreater:      40,
	TokenGreaterEqual: 40,
	TokenPlus:         50,
	TokenMinus:        50,
	TokenMult:         60,
	TokenDiv:          60,
	TokenMod:          60,
	TokenDot:          80,
	TokenBracketOpen:  80,
	TokenParenOpen:    80,
}

// unaryPrecedence binds tighter than any binary operator but looser
// than the postfix chain, so !a.b negates a.b.
const unaryPrecedence = 70

func (p *Parser) getPrecedence(tt TokenType) int {
	return precedence[tt]
}

// parseExpression parses an expression with operator precedence.
// rbp is the right binding power (minimum precedence).
func (p *Parser) parseExpression(rbp int) (*types.FieldNode, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	for rbp < p.getPrecedence(p.current.Type) {
		left, err = p.parseInfix(left)
		if err != nil {
			return nil, err
		}
	}

	return left, nil
}

// parsePrefix parses an expression that does not require a left-hand
// side: literals, variables, negation, grouping, lambdas, lists and
// objects.
func (p *Parser) parsePrefix() (*types.FieldNode, error) {
	token := p.current

	switch token.Type {
	case TokenNumber:
		return p.parseNumber()
	case TokenString:
		return p.parseString()
	case TokenBoolean:
		node := &types.FieldNode{Type: types.FieldLiteral, Position: token.Position,
			Literal: value.Boolean(lower(token.Value) == "true")}
		p.advance()
		return node, nil
	case TokenNull:
		node := &types.FieldNode{Type: types.FieldLiteral, Position: token.Position, Literal: value.NullValue}
		p.advance()
		return node, nil
	case TokenDate:
		return p.parseDate()
	case TokenLink, TokenEmbedLink:
		return p.parseLink()
	case TokenName:
		return p.parseVariable()
	case TokenNot:
		return p.parseNegation()
	case TokenMinus:
		return p.parseUnaryMinus()
	case TokenParenOpen:
		return p.parseGroupingOrLambda()
	case TokenBracketOpen:
		return p.parseList()
	case TokenBraceOpen:
		return p.parseObject()
	case TokenEOF:
		return nil, p.errorf(types.ErrUnexpectedEnd, "Unexpected end of expression")
	default:
		return nil, p.errorf(types.ErrSyntax, "Unexpected token: %s", token.Type.String())
	}
}

// parseInfix parses an expression that requires a left-hand side:
// postfix access, calls and binary operators.
func (p *Parser) parseInfix(left *types.FieldNode) (*types.FieldNode, error) {
	switch p.current.Type {
	case TokenDot:
		return p.parseDotAccess(left)
	case TokenBracketOpen:
		return p.parseIndexAccess(left)
	case TokenParenOpen:
		return p.parseCall(left)
	case TokenPlus, TokenMinus, TokenMult, TokenDiv, TokenMod,
		TokenEqual, TokenNotEqual, TokenLess, TokenLessEqual,
		TokenGreater, TokenGreaterEqual, TokenAnd, TokenOr:
		return p.parseBinaryOp(left)
	default:
		return nil, p.errorf(types.ErrSyntax, "Unexpected infix token: %s", p.current.Type.String())
	}
}

// parseNumber parses a number literal, or a duration literal when the
// number is immediately followed by a duration unit (e.g. "2 days" or
// "1 hr, 30 mins").
func (p *Parser) parseNumber() (*types.FieldNode, error) {
	pos := p.current.Position
	n, err := strconv.ParseFloat(p.current.Value, 64)
	if err != nil {
		return nil, p.errorf(types.ErrBadNumber, "Invalid number: %s", p.current.Value)
	}
	p.advance()

	if p.current.Type == TokenName && value.IsDurationUnit(p.current.Value) {
		return p.parseDurationRun(pos, n)
	}

	return &types.FieldNode{Type: types.FieldLiteral, Position: pos, Literal: value.Number(n)}, nil
}

// parseDurationRun consumes "<n> <unit>" groups, comma or whitespace
// separated, summing them into one duration literal. The first number
// has already been consumed and the current token is a unit name.
func (p *Parser) parseDurationRun(pos int, first float64) (*types.FieldNode, error) {
	var d value.Duration
	n := first

	for {
		d.AddUnit(p.current.Value, n)
		p.advance()

		st := p.mark()
		if p.current.Type == TokenComma {
			p.advance()
		}
		if p.current.Type != TokenNumber {
			p.restore(st)
			break
		}
		next, err := strconv.ParseFloat(p.current.Value, 64)
		if err != nil {
			p.restore(st)
			break
		}
		p.advance()
		if p.current.Type != TokenName || !value.IsDurationUnit(p.current.Value) {
			p.restore(st)
			break
		}
		n = next
	}

	return &types.FieldNode{Type: types.FieldLiteral, Position: pos, Literal: d}, nil
}

// parseString parses a string literal. Escapes are preserved literally
// except \" and \\.
func (p *Parser) parseString() (*types.FieldNode, error) {
	node := &types.FieldNode{Type: types.FieldLiteral, Position: p.current.Position,
		Literal: value.String(unescapeString(p.current.Value))}
	p.advance()
	return node, nil
}

// unescapeString resolves \" and \\; every other backslash sequence is
// kept as written.
func unescapeString(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && (s[i+1] == '"' || s[i+1] == '\\') {
			sb.WriteByte(s[i+1])
			i++
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// parseDate parses a date literal token.
func (p *Parser) parseDate() (*types.FieldNode, error) {
	d, ok := value.ParseDate(p.current.Value)
	if !ok {
		return nil, p.errorf(types.ErrBadDate, "Invalid date: %s", p.current.Value)
	}
	node := &types.FieldNode{Type: types.FieldLiteral, Position: p.current.Position, Literal: d}
	p.advance()
	return node, nil
}

// parseLink parses a wiki-link literal.
func (p *Parser) parseLink() (*types.FieldNode, error) {
	link := parseLinkBody(p.current.Value, p.current.Type == TokenEmbedLink)
	node := &types.FieldNode{Type: types.FieldLiteral, Position: p.current.Position, Literal: link}
	p.advance()
	return node, nil
}

// parseLinkBody interprets the raw inner text of a [[...]] link:
// target, optional #header or ^block subsection, optional |display
// (with \| escaping).
func parseLinkBody(raw string, embed bool) value.Link {
	target := raw
	display := ""

	// Split on the first unescaped pipe.
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '\\':
			i++
		case '|':
			target, display = raw[:i], raw[i+1:]
			i = len(raw)
		}
	}
	target = unescapeLinkPart(target)
	display = unescapeLinkPart(display)

	var link value.Link
	if hash := strings.IndexByte(target, '#'); hash >= 0 {
		link = value.HeaderLink(strings.TrimSpace(target[:hash]), strings.TrimSpace(target[hash+1:]))
	} else if caret := strings.IndexByte(target, '^'); caret >= 0 {
		link = value.BlockLink(strings.TrimSpace(target[:caret]), strings.TrimSpace(target[caret+1:]))
	} else {
		link = value.FileLink(strings.TrimSpace(target))
	}
	if display != "" {
		link = link.WithDisplay(strings.TrimSpace(display))
	}
	return link.WithEmbed(embed)
}

func unescapeLinkPart(s string) string {
	s = strings.ReplaceAll(s, `\|`, "|")
	return strings.ReplaceAll(s, `\\`, `\`)
}

// parseVariable parses a bare name as a variable reference. Reserved
// query keywords may not be used as variables.
func (p *Parser) parseVariable() (*types.FieldNode, error) {
	if IsReservedWord(p.current.Value) {
		return nil, p.errorf(types.ErrReservedWord, "%q is a reserved word", p.current.Value)
	}
	node := &types.FieldNode{Type: types.FieldVariable, Position: p.current.Position, Name: p.current.Value}
	p.advance()
	return node, nil
}

// parseNegation parses !expr.
func (p *Parser) parseNegation() (*types.FieldNode, error) {
	pos := p.current.Position
	p.advance()
	child, err := p.parseExpression(unaryPrecedence)
	if err != nil {
		return nil, err
	}
	return &types.FieldNode{Type: types.FieldNegated, Position: pos, Child: child}, nil
}

// parseUnaryMinus parses a leading minus. Negative number and duration
// literals fold in place; anything else becomes 0 - expr.
func (p *Parser) parseUnaryMinus() (*types.FieldNode, error) {
	pos := p.current.Position
	p.advance()
	expr, err := p.parseExpression(unaryPrecedence)
	if err != nil {
		return nil, err
	}

	if expr.Type == types.FieldLiteral {
		switch lit := expr.Literal.(type) {
		case value.Number:
			expr.Literal = -lit
			expr.Position = pos
			return expr, nil
		case value.Duration:
			expr.Literal = lit.Scale(-1)
			expr.Position = pos
			return expr, nil
		}
	}

	zero := &types.FieldNode{Type: types.FieldLiteral, Position: pos, Literal: value.Number(0)}
	return &types.FieldNode{Type: types.FieldBinaryOp, Position: pos, Op: "-", LHS: zero, RHS: expr}, nil
}

// parseGroupingOrLambda disambiguates "(expr)" from "(a, b) => body"
// by attempting the lambda form first and backtracking on failure.
func (p *Parser) parseGroupingOrLambda() (*types.FieldNode, error) {
	if node, ok := p.tryLambda(); ok {
		return node, nil
	}

	p.advance() // Skip '('
	expr, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}
	return expr, nil
}

// tryLambda attempts to parse "(name, ...) => expr" at the current
// position. On failure the parser is restored and (nil, false) is
// returned.
func (p *Parser) tryLambda() (*types.FieldNode, bool) {
	st := p.mark()
	pos := p.current.Position
	p.advance() // Skip '('

	var params []string
	for p.current.Type != TokenParenClose {
		if p.current.Type != TokenName {
			p.restore(st)
			return nil, false
		}
		params = append(params, p.current.Value)
		p.advance()
		if p.current.Type == TokenComma {
			p.advance()
			continue
		}
		if p.current.Type != TokenParenClose {
			p.restore(st)
			return nil, false
		}
	}
	p.advance() // Skip ')'

	if p.current.Type != TokenArrow {
		p.restore(st)
		return nil, false
	}
	p.advance() // Skip '=>'

	body, err := p.parseExpression(0)
	if err != nil {
		p.restore(st)
		return nil, false
	}

	return &types.FieldNode{Type: types.FieldLambda, Position: pos, Params: params, Child: body}, true
}

// parseList parses a list literal [a, b, ...].
func (p *Parser) parseList() (*types.FieldNode, error) {
	pos := p.current.Position
	p.advance() // Skip '['

	node := &types.FieldNode{Type: types.FieldList, Position: pos, Elements: []*types.FieldNode{}}
	if p.current.Type == TokenBracketClose {
		p.advance()
		return node, nil
	}

	for {
		el, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		node.Elements = append(node.Elements, el)

		if p.current.Type == TokenBracketClose {
			p.advance()
			break
		}
		if err := p.expect(TokenComma); err != nil {
			return nil, err
		}
	}
	return node, nil
}

// parseObject parses an object literal {key: value, ...}. Keys are
// names or strings.
func (p *Parser) parseObject() (*types.FieldNode, error) {
	pos := p.current.Position
	p.advance() // Skip '{'

	node := &types.FieldNode{Type: types.FieldObject, Position: pos}
	if p.current.Type == TokenBraceClose {
		p.advance()
		return node, nil
	}

	for {
		var key string
		switch p.current.Type {
		case TokenName:
			key = p.current.Value
		case TokenString:
			key = unescapeString(p.current.Value)
		default:
			return nil, p.errorf(types.ErrExpectedToken, "Expected object key but got %s", p.current.Type.String())
		}
		p.advance()

		if err := p.expect(TokenColon); err != nil {
			return nil, err
		}
		val, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		node.Pairs = append(node.Pairs, types.ObjectEntry{Key: key, Value: val})

		if p.current.Type == TokenBraceClose {
			p.advance()
			break
		}
		if err := p.expect(TokenComma); err != nil {
			return nil, err
		}
	}
	return node, nil
}

// parseDotAccess parses target.field as an index with a constant
// string key.
func (p *Parser) parseDotAccess(left *types.FieldNode) (*types.FieldNode, error) {
	pos := p.current.Position
	p.advance() // Skip '.'

	if p.current.Type != TokenName {
		return nil, p.errorf(types.ErrExpectedToken, "Expected field name after '.'")
	}
	key := &types.FieldNode{Type: types.FieldLiteral, Position: p.current.Position,
		Literal: value.String(p.current.Value)}
	p.advance()

	return &types.FieldNode{Type: types.FieldIndex, Position: pos, Target: left, Index: key}, nil
}

// parseIndexAccess parses target[expr].
func (p *Parser) parseIndexAccess(left *types.FieldNode) (*types.FieldNode, error) {
	pos := p.current.Position
	p.advance() // Skip '['

	idx, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if err := p.expect(TokenBracketClose); err != nil {
		return nil, err
	}
	return &types.FieldNode{Type: types.FieldIndex, Position: pos, Target: left, Index: idx}, nil
}

// parseCall parses target(args...). Calls to date(...) and dur(...)
// first try the literal forms of those arguments (date(2024-05-01),
// date(today), dur(2 days)) and fall back to ordinary calls.
func (p *Parser) parseCall(left *types.FieldNode) (*types.FieldNode, error) {
	pos := p.current.Position

	if left.Type == types.FieldVariable {
		switch lower(left.Name) {
		case "date":
			if node, ok := p.tryDateLiteralCall(); ok {
				return node, nil
			}
		case "dur":
			if node, ok := p.tryDurationLiteralCall(); ok {
				return node, nil
			}
		}
	}

	p.advance() // Skip '('
	node := &types.FieldNode{Type: types.FieldCall, Position: pos, Target: left, Args: []*types.FieldNode{}}

	if p.current.Type != TokenParenClose {
		for {
			arg, err := p.parseExpression(0)
			if err != nil {
				return nil, err
			}
			node.Args = append(node.Args, arg)

			if p.current.Type == TokenParenClose {
				break
			}
			if err := p.expect(TokenComma); err != nil {
				return nil, err
			}
		}
	}
	p.advance() // Skip ')'
	return node, nil
}

// tryDateLiteralCall recognises date(2024-05-01) and date(today)-style
// shorthands. Shorthands become FieldDateRef nodes so they resolve
// against "now" at evaluation time, not parse time.
func (p *Parser) tryDateLiteralCall() (*types.FieldNode, bool) {
	st := p.mark()
	pos := p.current.Position
	p.advance() // Skip '('

	switch {
	case p.current.Type == TokenDate:
		d, ok := value.ParseDate(p.current.Value)
		if !ok {
			break
		}
		p.advance()
		if p.current.Type != TokenParenClose {
			break
		}
		p.advance()
		return &types.FieldNode{Type: types.FieldLiteral, Position: pos, Literal: d}, true

	case p.current.Type == TokenName && value.IsDateShorthand(p.current.Value):
		name := lower(p.current.Value)
		p.advance()
		if p.current.Type != TokenParenClose {
			break
		}
		p.advance()
		return &types.FieldNode{Type: types.FieldDateRef, Position: pos, Name: name}, true
	}

	p.restore(st)
	return nil, false
}

// tryDurationLiteralCall recognises dur(2 days), dur(1 hr, 30 mins).
func (p *Parser) tryDurationLiteralCall() (*types.FieldNode, bool) {
	st := p.mark()
	pos := p.current.Position
	p.advance() // Skip '('

	neg := false
	if p.current.Type == TokenMinus {
		neg = true
		p.advance()
	}
	if p.current.Type != TokenNumber {
		p.restore(st)
		return nil, false
	}
	n, err := strconv.ParseFloat(p.current.Value, 64)
	if err != nil {
		p.restore(st)
		return nil, false
	}
	p.advance()
	if p.current.Type != TokenName || !value.IsDurationUnit(p.current.Value) {
		p.restore(st)
		return nil, false
	}

	node, err := p.parseDurationRun(pos, n)
	if err != nil || p.current.Type != TokenParenClose {
		p.restore(st)
		return nil, false
	}
	p.advance() // Skip ')'

	if neg {
		node.Literal = node.Literal.(value.Duration).Scale(-1)
	}
	return node, true
}

// parseBinaryOp parses a binary operator expression.
func (p *Parser) parseBinaryOp(left *types.FieldNode) (*types.FieldNode, error) {
	op := p.current
	prec := p.getPrecedence(op.Type)
	p.advance()

	right, err := p.parseExpression(prec)
	if err != nil {
		return nil, err
	}

	return &types.FieldNode{
		Type:     types.FieldBinaryOp,
		Position: op.Position,
		Op:       operatorString(op.Type),
		LHS:      left,
		RHS:      right,
	}, nil
}

// operatorString canonicalises operator spellings: and/& both dispatch
// as "&", or/| as "|".
func operatorString(tt TokenType) string {
	switch tt {
	case TokenPlus:
		return "+"
	case TokenMinus:
		return "-"
	case TokenMult:
		return "*"
	case TokenDiv:
		return "/"
	case TokenMod:
		return "%"
	case TokenEqual:
		return "="
	case TokenNotEqual:
		return "!="
	case TokenLess:
		return "<"
	case TokenLessEqual:
		return "<="
	case TokenGreater:
		return ">"
	case TokenGreaterEqual:
		return ">="
	case TokenAnd:
		return "&"
	case TokenOr:
		return "|"
	default:
		return tt.String()
	}
}
