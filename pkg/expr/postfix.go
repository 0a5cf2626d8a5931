package expr

import (
	"github.com/lemonberrylabs/rpncalc/pkg/types"
)

// ToPostfix converts an infix expression into postfix order using the
// shunting-yard algorithm. Operators of equal precedence are popped before the
// incoming operator is pushed, which makes them left-associative.
//
// Conversion only checks characters and parenthesis balance. A sequence it
// returns may still fail evaluation (e.g. "3+" converts to "3 +").
func ToPostfix(input string) ([]Token, error) {
	lexer := NewLexer(input)
	var (
		output []Token
		ops    []Token
	)

	for {
		tok, err := lexer.Next()
		if err != nil {
			return nil, err
		}

		switch tok.Type {
		case TokenEOF:
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				if top.IsParen() {
					return nil, types.NewUnmatchedParenthesisError(top.Value, top.Pos)
				}
				output = append(output, top)
				ops = ops[:len(ops)-1]
			}
			return output, nil

		case TokenNumber:
			output = append(output, tok)

		case TokenLParen:
			ops = append(ops, tok)

		case TokenRParen:
			for len(ops) > 0 && ops[len(ops)-1].Type != TokenLParen {
				output = append(output, ops[len(ops)-1])
				ops = ops[:len(ops)-1]
			}
			if len(ops) == 0 {
				return nil, types.NewUnmatchedParenthesisError(tok.Value, tok.Pos)
			}
			ops = ops[:len(ops)-1] // discard the matching '('

		default:
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				if top.Type == TokenLParen || top.Precedence() < tok.Precedence() {
					break
				}
				output = append(output, top)
				ops = ops[:len(ops)-1]
			}
			ops = append(ops, tok)
		}
	}
}
