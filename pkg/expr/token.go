// Package expr implements the calculator's expression core: an infix to
// postfix converter (shunting-yard), a postfix evaluator and the Evaluate
// facade that composes them.
package expr

import "strings"

// TokenType represents the type of a lexical token.
type TokenType int

const (
	TokenNumber TokenType = iota // numeric literal: digits and '.'
	TokenPlus                    // +
	TokenMinus                   // -
	TokenStar                    // *
	TokenSlash                   // /
	TokenLParen                  // (
	TokenRParen                  // )

	TokenEOF // end of expression
)

// Token represents a single lexical token.
type Token struct {
	Type  TokenType
	Value string // raw text
	Pos   int    // byte offset in source
}

// String returns a debug-friendly representation of the token type.
func (t TokenType) String() string {
	switch t {
	case TokenNumber:
		return "NUMBER"
	case TokenPlus:
		return "PLUS"
	case TokenMinus:
		return "MINUS"
	case TokenStar:
		return "STAR"
	case TokenSlash:
		return "SLASH"
	case TokenLParen:
		return "LPAREN"
	case TokenRParen:
		return "RPAREN"
	case TokenEOF:
		return "EOF"
	default:
		return "UNKNOWN"
	}
}

// IsOperator reports whether the token is one of the four binary operators.
func (t Token) IsOperator() bool {
	switch t.Type {
	case TokenPlus, TokenMinus, TokenStar, TokenSlash:
		return true
	}
	return false
}

// IsParen reports whether the token is a parenthesis.
func (t Token) IsParen() bool {
	return t.Type == TokenLParen || t.Type == TokenRParen
}

// Precedence returns the binding strength of an operator token: 2 for * and /,
// 1 for + and -, 0 for everything else.
func (t Token) Precedence() int {
	switch t.Type {
	case TokenStar, TokenSlash:
		return 2
	case TokenPlus, TokenMinus:
		return 1
	default:
		return 0
	}
}

func (t Token) String() string {
	return t.Value
}

// Values returns the raw text of each token.
func Values(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Value
	}
	return out
}

// Join renders a token sequence as space separated text, e.g. "2 3 4 * +".
func Join(tokens []Token) string {
	return strings.Join(Values(tokens), " ")
}
