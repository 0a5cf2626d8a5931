// Package types holds the error taxonomy shared by the calculator packages.
package types

import (
	"errors"
	"fmt"
)

// Kind classifies a calculation failure.
type Kind string

// Error kinds raised by conversion and evaluation.
const (
	KindMalformedCharacter   Kind = "MalformedCharacter"
	KindUnmatchedParenthesis Kind = "UnmatchedParenthesis"
	KindArityUnderflow       Kind = "ArityUnderflow"
	KindDivisionByZero       Kind = "DivisionByZero"
	KindInvalidLiteral       Kind = "InvalidLiteral"
	KindArityMismatch        Kind = "ArityMismatch"
)

// Kinds lists every known kind in taxonomy order.
var Kinds = []Kind{
	KindMalformedCharacter,
	KindUnmatchedParenthesis,
	KindArityUnderflow,
	KindDivisionByZero,
	KindInvalidLiteral,
	KindArityMismatch,
}

// ParseKind resolves a kind by name. The second result is false for unknown names.
func ParseKind(name string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == name {
			return k, true
		}
	}
	return "", false
}

// CalcError is a conversion or evaluation failure.
type CalcError struct {
	Kind    Kind
	Message string
	// Pos is the byte offset in the input where the failure was detected,
	// or -1 when the failure is not tied to a position (e.g. residual stack).
	Pos int
	// Token is the offending token text, if any.
	Token string
}

// Error implements the error interface.
func (e *CalcError) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("%s: %s at position %d", e.Kind, e.Message, e.Pos)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is reports whether target is a *CalcError of the same kind. A target with an
// empty kind matches any CalcError.
func (e *CalcError) Is(target error) bool {
	t, ok := target.(*CalcError)
	if !ok {
		return false
	}
	return t.Kind == "" || t.Kind == e.Kind
}

// KindOf returns the kind of the first CalcError in err's chain.
func KindOf(err error) (Kind, bool) {
	var ce *CalcError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return "", false
}

// HasKind reports whether err carries the given kind.
func HasKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Common error constructors.

// NewMalformedCharacterError reports a character outside the recognised set.
func NewMalformedCharacterError(ch byte, pos int) *CalcError {
	return &CalcError{
		Kind:    KindMalformedCharacter,
		Message: fmt.Sprintf("unexpected character %q", string(ch)),
		Pos:     pos,
		Token:   string(ch),
	}
}

// NewUnmatchedParenthesisError reports a parenthesis without a partner.
func NewUnmatchedParenthesisError(paren string, pos int) *CalcError {
	msg := "unmatched '('"
	if paren == ")" {
		msg = "unmatched ')'"
	}
	return &CalcError{Kind: KindUnmatchedParenthesis, Message: msg, Pos: pos, Token: paren}
}

// NewArityUnderflowError reports an operator with fewer than two operands.
func NewArityUnderflowError(op string, pos int) *CalcError {
	return &CalcError{
		Kind:    KindArityUnderflow,
		Message: fmt.Sprintf("operator %q needs two operands", op),
		Pos:     pos,
		Token:   op,
	}
}

// NewDivisionByZeroError reports a zero divisor.
func NewDivisionByZeroError(pos int) *CalcError {
	return &CalcError{Kind: KindDivisionByZero, Message: "division by zero", Pos: pos, Token: "/"}
}

// NewInvalidLiteralError reports a numeric literal that is not a valid decimal.
func NewInvalidLiteralError(lit string, pos int) *CalcError {
	return &CalcError{
		Kind:    KindInvalidLiteral,
		Message: fmt.Sprintf("invalid number %q", lit),
		Pos:     pos,
		Token:   lit,
	}
}

// NewArityMismatchError reports a residual value stack that does not hold
// exactly one value.
func NewArityMismatchError(residual int) *CalcError {
	return &CalcError{
		Kind:    KindArityMismatch,
		Message: fmt.Sprintf("expected one result, found %d values", residual),
		Pos:     -1,
	}
}
