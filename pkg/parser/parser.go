// Package parser implements the noteql parsers: field expressions,
// source expressions and full queries.
//
// The expression parser is a hand-written recursive descent parser
// using Pratt's "Top Down Operator Precedence" algorithm. Parse
// failures are structured errors carrying a position and the expected
// token; a failed parse is a normal, recoverable outcome for callers.
package parser

import (
	"fmt"

	"github.com/noteql/noteql/pkg/types"
)

// ParseField parses a field expression and returns its AST.
func ParseField(text string) (*types.FieldNode, error) {
	p := newParser(text)
	if err := p.lexerError(); err != nil {
		return nil, err
	}
	node, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if p.current.Type != TokenEOF {
		return nil, p.errorf(types.ErrSyntax, "Unexpected token: %s", p.current.Value)
	}
	return node, nil
}

// ParseSource parses a source expression. Empty input yields the empty
// source.
func ParseSource(text string) (*types.SourceNode, error) {
	p := newParser(text)
	if err := p.lexerError(); err != nil {
		return nil, err
	}
	if p.current.Type == TokenEOF {
		return types.EmptySource(), nil
	}
	node, err := p.parseSource(0)
	if err != nil {
		return nil, err
	}
	if p.current.Type != TokenEOF {
		return nil, p.errorf(types.ErrSyntax, "Unexpected token: %s", p.current.Value)
	}
	return node, nil
}

// ParseQuery parses a complete query: output shape and fields, FROM
// source and the ordered operation list.
func ParseQuery(text string) (*types.Query, error) {
	p := newParser(text)
	if err := p.lexerError(); err != nil {
		return nil, err
	}
	return p.parseQuery(text)
}

// Parser implements recursive descent parsing over the token stream.
type Parser struct {
	lexer   *Lexer
	current Token
	prev    Token
}

func newParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	p.advance()
	return p
}

// parserState snapshots the parser for bounded backtracking.
type parserState struct {
	lex     lexState
	current Token
	prev    Token
}

func (p *Parser) mark() parserState {
	return parserState{lex: p.lexer.state(), current: p.current, prev: p.prev}
}

func (p *Parser) restore(st parserState) {
	p.lexer.restore(st.lex)
	p.current = st.current
	p.prev = st.prev
}

// advance moves to the next token.
func (p *Parser) advance() {
	p.prev = p.current
	p.current = p.lexer.Next()
}

// expect checks that the current token matches the expected type and
// advances past it.
func (p *Parser) expect(tt TokenType) error {
	if p.current.Type != tt {
		return p.errorf(types.ErrExpectedToken, "Expected %s but got %s", tt.String(), p.current.Type.String())
	}
	p.advance()
	return nil
}

// lexerError surfaces a tokenization error, if one occurred.
func (p *Parser) lexerError() error {
	if p.current.Type == TokenError {
		return p.lexer.Error()
	}
	return nil
}

// errorf creates a parser error at the current token.
func (p *Parser) errorf(code types.ErrorCode, format string, args ...any) error {
	if err := p.lexer.Error(); err != nil {
		return err
	}
	return &types.Error{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Position: p.current.Position,
		Token:    p.current.Value,
	}
}

// isName reports whether the current token is a name equal to word,
// compared case-insensitively.
func (p *Parser) isName(word string) bool {
	return p.current.Type == TokenName && lower(p.current.Value) == word
}
