package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lemonberrylabs/rpncalc/pkg/types"
)

// EvalPostfix reduces a postfix token sequence to a single value. Tokens are
// consumed front to back; the caller's slice is not modified.
func EvalPostfix(postfix []Token) (float64, error) {
	stack := make([]float64, 0, len(postfix))

	for _, tok := range postfix {
		if !tok.IsOperator() {
			v, err := parseLiteral(tok)
			if err != nil {
				return 0, err
			}
			stack = append(stack, v)
			continue
		}

		if len(stack) < 2 {
			return 0, types.NewArityUnderflowError(tok.Value, tok.Pos)
		}
		b := stack[len(stack)-1]
		a := stack[len(stack)-2]
		stack = stack[:len(stack)-2]

		r, err := apply(tok, a, b)
		if err != nil {
			return 0, err
		}
		stack = append(stack, r)
	}

	if len(stack) != 1 {
		return 0, types.NewArityMismatchError(len(stack))
	}
	return stack[0], nil
}

// apply computes a op b. Only an exact zero divisor is rejected.
func apply(op Token, a, b float64) (float64, error) {
	switch op.Type {
	case TokenPlus:
		return a + b, nil
	case TokenMinus:
		return a - b, nil
	case TokenStar:
		return a * b, nil
	case TokenSlash:
		if b == 0 {
			return 0, types.NewDivisionByZeroError(op.Pos)
		}
		return a / b, nil
	default:
		return 0, fmt.Errorf("internal error: unknown operator %q at position %d", op.Value, op.Pos)
	}
}

// parseLiteral parses a decimal literal. The text must consist of digits and at
// most one '.', with at least one digit; this keeps strconv's wider syntax
// (exponents, "Inf", hex floats, underscores) out of the language.
func parseLiteral(tok Token) (float64, error) {
	s := tok.Value
	if s == "" || strings.Count(s, ".") > 1 || strings.Trim(s, ".") == "" {
		return 0, types.NewInvalidLiteralError(s, tok.Pos)
	}
	for i := 0; i < len(s); i++ {
		if !isNumberByte(s[i]) {
			return 0, types.NewInvalidLiteralError(s, tok.Pos)
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Only range errors remain for well-formed decimals.
		return 0, types.NewInvalidLiteralError(s, tok.Pos)
	}
	return v, nil
}
