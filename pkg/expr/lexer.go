package expr

import (
	"github.com/lemonberrylabs/rpncalc/pkg/types"
)

// Lexer tokenizes a calculator expression one token at a time, so callers
// observe failures in scan order.
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize scans the entire input and returns all tokens, excluding EOF.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		if tok.Type == TokenEOF {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}

// Next returns the next token. Whitespace is not skipped: any byte outside
// digits, '.', the four operators and parentheses is a MalformedCharacter.
func (l *Lexer) Next() (Token, error) {
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.pos}, nil
	}

	ch := l.input[l.pos]
	if isNumberByte(ch) {
		return l.readNumber(), nil
	}

	var typ TokenType
	switch ch {
	case '+':
		typ = TokenPlus
	case '-':
		typ = TokenMinus
	case '*':
		typ = TokenStar
	case '/':
		typ = TokenSlash
	case '(':
		typ = TokenLParen
	case ')':
		typ = TokenRParen
	default:
		return Token{}, types.NewMalformedCharacterError(ch, l.pos)
	}
	l.pos++
	return Token{Type: typ, Value: string(ch), Pos: l.pos - 1}, nil
}

// readNumber consumes a run of digits and decimal points. Runs such as "1.2.3"
// are kept whole; they fail later when the literal is parsed.
func (l *Lexer) readNumber() Token {
	start := l.pos
	for l.pos < len(l.input) && isNumberByte(l.input[l.pos]) {
		l.pos++
	}
	return Token{Type: TokenNumber, Value: l.input[start:l.pos], Pos: start}
}

func isNumberByte(ch byte) bool {
	return (ch >= '0' && ch <= '9') || ch == '.'
}
