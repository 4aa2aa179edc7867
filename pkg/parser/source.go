package parser

import (
	"github.com/noteql/noteql/pkg/types"
)

// Source operator binding powers. Intersection binds tighter than
// union, as in the expression language.
const (
	sourceOrPrecedence  = 10
	sourceAndPrecedence = 20
)

func sourcePrecedence(tt TokenType) int {
	switch tt {
	case TokenAnd:
		return sourceAndPrecedence
	case TokenOr:
		return sourceOrPrecedence
	default:
		return 0
	}
}

// parseSource parses a source expression with operator precedence.
func (p *Parser) parseSource(rbp int) (*types.SourceNode, error) {
	left, err := p.parseSourcePrefix()
	if err != nil {
		return nil, err
	}

	for rbp < sourcePrecedence(p.current.Type) {
		op := p.current
		prec := sourcePrecedence(op.Type)
		p.advance()

		right, err := p.parseSource(prec)
		if err != nil {
			return nil, err
		}

		opStr := "&"
		if op.Type == TokenOr {
			opStr = "|"
		}
		left = &types.SourceNode{
			Type:     types.SourceBinaryOp,
			Position: op.Position,
			Op:       opStr,
			LHS:      left,
			RHS:      right,
		}
	}

	return left, nil
}

// parseSourcePrefix parses an atomic source: tag, folder, link,
// outgoing(...), negation or a parenthesised source.
func (p *Parser) parseSourcePrefix() (*types.SourceNode, error) {
	token := p.current

	switch token.Type {
	case TokenTag:
		p.advance()
		node := types.TagSource(token.Value)
		node.Position = token.Position
		return node, nil

	case TokenString:
		p.advance()
		node := types.FolderSource(unescapeString(token.Value))
		node.Position = token.Position
		return node, nil

	case TokenLink, TokenEmbedLink:
		p.advance()
		link := parseLinkBody(token.Value, false)
		node := types.LinkSource(link.Path, types.LinkIncoming)
		node.Position = token.Position
		return node, nil

	case TokenName:
		if lower(token.Value) == "outgoing" {
			return p.parseOutgoingSource()
		}
		return nil, p.errorf(types.ErrBadSourceOp, "Unexpected name in source: %s", token.Value)

	case TokenNot:
		p.advance()
		child, err := p.parseSourcePrefix()
		if err != nil {
			return nil, err
		}
		return &types.SourceNode{Type: types.SourceNegate, Position: token.Position, Child: child}, nil

	case TokenMinus:
		// "-#tag" is an alternate negation spelling.
		p.advance()
		child, err := p.parseSourcePrefix()
		if err != nil {
			return nil, err
		}
		return &types.SourceNode{Type: types.SourceNegate, Position: token.Position, Child: child}, nil

	case TokenParenOpen:
		p.advance()
		node, err := p.parseSource(0)
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenParenClose); err != nil {
			return nil, err
		}
		return node, nil

	case TokenEOF:
		return nil, p.errorf(types.ErrUnexpectedEnd, "Unexpected end of source")

	default:
		return nil, p.errorf(types.ErrBadSourceOp, "Unexpected token in source: %s", token.Type.String())
	}
}

// parseOutgoingSource parses outgoing([[target]]).
func (p *Parser) parseOutgoingSource() (*types.SourceNode, error) {
	pos := p.current.Position
	p.advance() // Skip 'outgoing'

	if err := p.expect(TokenParenOpen); err != nil {
		return nil, err
	}
	if p.current.Type != TokenLink && p.current.Type != TokenEmbedLink {
		return nil, p.errorf(types.ErrExpectedToken, "Expected a link inside outgoing(...)")
	}
	link := parseLinkBody(p.current.Value, false)
	p.advance()
	if err := p.expect(TokenParenClose); err != nil {
		return nil, err
	}

	node := types.LinkSource(link.Path, types.LinkOutgoing)
	node.Position = pos
	return node, nil
}
