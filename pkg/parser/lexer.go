package parser

import (
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/noteql/noteql/pkg/types"
)

const eof = -1

// datePattern matches a date literal at the start of the remaining
// input: YYYY-MM with optional day, time-of-day down to milliseconds,
// and an optional zone suffix.
var datePattern = regexp.MustCompile(
	`^\d{4}-\d{2}(-\d{2}(T\d{2}(:\d{2}(:\d{2}(\.\d{1,3})?)?)?)?)?(Z|[+-]\d{2}(:\d{2})?)?`)

// Lexer converts noteql text into a sequence of tokens. The
// implementation follows Rob Pike's "Lexical Scanning in Go" technique.
type Lexer struct {
	input   string // Input string being scanned
	length  int    // Length of input string
	start   int    // Start position of current token
	current int    // Current position in input
	width   int    // Width of last rune read
	err     error  // First error encountered
}

// NewLexer creates a new lexer from the provided input string.
// The input is tokenized by successive calls to the Next method.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		length: len(input),
	}
}

// lexState is a resumable snapshot of the lexer, used by the parser for
// bounded backtracking (lambda detection, date()/dur() literal forms).
type lexState struct {
	start   int
	current int
	width   int
	err     error
}

func (l *Lexer) state() lexState {
	return lexState{start: l.start, current: l.current, width: l.width, err: l.err}
}

func (l *Lexer) restore(st lexState) {
	l.start = st.start
	l.current = st.current
	l.width = st.width
	l.err = st.err
}

// Next returns the next token from the input. When the end of the input
// is reached, Next returns TokenEOF for all subsequent calls.
func (l *Lexer) Next() Token {
	l.skipWhitespace()

	ch := l.nextRune()
	if ch == eof {
		return l.eofToken()
	}

	// Links: [[...]] and ![[...]]
	if ch == '[' {
		if l.acceptRune('[') {
			l.ignore()
			return l.scanLink(TokenLink)
		}
		return l.newToken(TokenBracketOpen)
	}
	if ch == '!' {
		save := l.current
		if l.acceptRune('[') {
			if l.acceptRune('[') {
				l.ignore()
				return l.scanLink(TokenEmbedLink)
			}
			l.current = save
		}
	}

	// Check for two-character symbols first (e.g. !=, <=, =>)
	if rts := lookupSymbol2(ch); rts != nil {
		for _, rt := range rts {
			if l.acceptRune(rt.r) {
				return l.newToken(rt.tt)
			}
		}
	}

	// '!' not followed by '=' or '[[' is negation.
	if ch == '!' {
		return l.newToken(TokenNot)
	}

	// Check for single-character symbols
	if tt := lookupSymbol1(ch); tt > 0 {
		return l.newToken(tt)
	}

	// String literals
	if ch == '"' {
		l.ignore()
		return l.scanString(ch)
	}

	// Tags
	if ch == '#' {
		return l.scanTag()
	}

	// Numbers and dates both start with a digit
	if ch >= '0' && ch <= '9' {
		l.backup()
		return l.scanNumberOrDate()
	}

	// Names and keywords
	l.backup()
	return l.scanName()
}

// Error returns the first error encountered during lexing, if any.
func (l *Lexer) Error() error {
	return l.err
}

// scanLink reads the body of a wiki link. The opening brackets have
// already been consumed; the token value is the raw inner text with the
// escape sequences still in place.
func (l *Lexer) scanLink(tt TokenType) Token {
Loop:
	for {
		switch l.nextRune() {
		case ']':
			if l.acceptRune(']') {
				break Loop
			}
		case '\\':
			// Consume escaped character (\| keeps a pipe inside the link)
			if r := l.nextRune(); r != eof {
				break
			}
			fallthrough
		case eof, '\n':
			return l.errorToken(types.ErrLinkNotClosed, "Unterminated link")
		}
	}

	// Trim the closing ]] off the token value.
	t := Token{
		Type:     tt,
		Value:    l.input[l.start : l.current-2],
		Position: l.start,
	}
	l.width = 0
	l.start = l.current
	return t
}

// scanString reads a double-quoted string literal. The opening quote
// has already been consumed. Escapes are preserved literally; the
// parser unescapes only \" and \\.
func (l *Lexer) scanString(quote rune) Token {
Loop:
	for {
		switch l.nextRune() {
		case quote:
			break Loop
		case '\\':
			if r := l.nextRune(); r != eof {
				break
			}
			fallthrough
		case eof:
			return l.errorToken(types.ErrStringNotClosed, "Unterminated string literal")
		}
	}

	l.backup()
	t := l.newToken(TokenString)
	l.acceptRune(quote)
	l.ignore()
	return t
}

// scanNumberOrDate reads either a number literal or a date literal.
// Dates win when the input matches the date grammar (a number literal
// never contains '-' after the first digit).
func (l *Lexer) scanNumberOrDate() Token {
	if m := datePattern.FindString(l.input[l.current:]); len(m) >= 7 {
		l.current += len(m)
		l.width = 0
		return l.newToken(TokenDate)
	}

	l.acceptAll(isDigit)

	// Decimal part
	if l.acceptRune('.') {
		if !l.acceptAll(isDigit) {
			// A bare trailing dot belongs to a following postfix access,
			// not to the number.
			l.backup()
		}
	}

	return l.newToken(TokenNumber)
}

// scanTag reads a tag: '#' followed by letters, digits, '/', '-', '_'.
// The leading '#' is part of the token value.
func (l *Lexer) scanTag() Token {
	l.acceptAll(isTagRune)
	return l.newToken(TokenTag)
}

// scanName reads a name or keyword. Names start with a letter or
// underscore and continue with letters, digits and underscores.
func (l *Lexer) scanName() Token {
	ch := l.nextRune()
	if ch == eof || !isNameStart(ch) {
		return l.errorToken(types.ErrSyntax, "Unexpected character")
	}
	l.acceptAll(isNameRune)

	t := l.newToken(TokenName)
	if tt := lookupKeyword(t.Value); tt > 0 {
		t.Type = tt
	}
	return t
}

// Helper methods

func (l *Lexer) eofToken() Token {
	return Token{
		Type:     TokenEOF,
		Position: l.current,
	}
}

func (l *Lexer) errorToken(code types.ErrorCode, message string) Token {
	t := l.newToken(TokenError)
	l.err = &types.Error{
		Code:     code,
		Message:  message,
		Position: t.Position,
		Token:    t.Value,
	}
	return t
}

func (l *Lexer) newToken(tt TokenType) Token {
	t := Token{
		Type:     tt,
		Value:    l.input[l.start:l.current],
		Position: l.start,
	}
	l.width = 0
	l.start = l.current
	return t
}

func (l *Lexer) nextRune() rune {
	if l.err != nil || l.current >= l.length {
		l.width = 0
		return eof
	}

	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	if isValid(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

func (l *Lexer) skipWhitespace() {
	l.acceptAll(isWhitespace)
	l.ignore()
}

// Character classification functions

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNameRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isTagRune(r rune) bool {
	return r == '/' || r == '-' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
