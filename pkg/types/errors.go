package types

import "fmt"

// ErrorCode classifies a noteql error.
type ErrorCode string

const (
	// S0xxx: Parser/Syntax errors
	ErrStringNotClosed ErrorCode = "S0101"
	ErrLinkNotClosed   ErrorCode = "S0102"
	ErrBadNumber       ErrorCode = "S0103"
	ErrBadDate         ErrorCode = "S0104"
	ErrUnexpectedEnd   ErrorCode = "S0105"
	ErrSyntax          ErrorCode = "S0201"
	ErrExpectedToken   ErrorCode = "S0202"
	ErrReservedWord    ErrorCode = "S0203"

	// T0xxx: Type/evaluation errors
	ErrBadIndex          ErrorCode = "T0401"
	ErrNoOperator        ErrorCode = "T0402"
	ErrNoOverload        ErrorCode = "T0403"
	ErrUnknownFunction   ErrorCode = "T0404"
	ErrNotCallable       ErrorCode = "T0405"
	ErrFunctionFailed    ErrorCode = "T0406"
	ErrArgumentCount     ErrorCode = "T0410"
	ErrUnrecognizedValue ErrorCode = "T0412"

	// Q0xxx: Query errors
	ErrBadLimit       ErrorCode = "Q0501"
	ErrFlattenNoName  ErrorCode = "Q0502"
	ErrUnknownShape   ErrorCode = "Q0503"
	ErrBadSourceOp    ErrorCode = "Q0504"
	ErrUnresolvedLink ErrorCode = "Q0505"
)

// Error is the structured error returned by the parser, evaluator and
// query pipeline. Position is a byte offset into the parsed text, or -1
// when the error did not arise from a specific location.
type Error struct {
	Code     ErrorCode
	Message  string
	Position int
	Token    string
	Err      error
}

// NewError creates a structured error at a source position.
func NewError(code ErrorCode, message string, position int) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Position: position,
	}
}

// EvalError creates a position-less evaluation error.
func EvalError(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Position: -1,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Code, e.Position, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithToken adds the offending token's text to the error.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}
