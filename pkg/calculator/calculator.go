// Package calculator holds the keypad state of a calculator: the expression
// buffer the user builds key by key and the display line shown for it. It
// talks to the expression core only through expr.Calculate.
package calculator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lemonberrylabs/rpncalc/pkg/expr"
	"github.com/lemonberrylabs/rpncalc/pkg/types"
)

// ErrorIndicator is shown on the display after a failed evaluation.
const ErrorIndicator = "Error"

// Named action keys accepted by Press.
const (
	KeyEquals    = "="
	KeyDelete    = "del"
	KeyClear     = "c"
	appendKeySet = "0123456789.+-*/()"
)

// ErrUnknownKey is returned by Press for keys that map to no action.
var ErrUnknownKey = errors.New("unknown key")

// Keys lists every key Press accepts in keypad order.
var Keys = []string{
	"(", ")", KeyDelete, KeyClear,
	"7", "8", "9", "/",
	"4", "5", "6", "*",
	"1", "2", "3", "-",
	"0", ".", KeyEquals, "+",
}

// Outcome describes one evaluation triggered from the keypad.
type Outcome struct {
	Expression string
	Postfix    string
	Result     float64
	Err        *types.CalcError
}

// OK reports whether the evaluation succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Calculator is the state behind a keypad. The zero value is an empty
// calculator ready for use. A Calculator is not safe for concurrent use.
type Calculator struct {
	buf     strings.Builder
	display string
	failed  bool
	last    *Outcome
}

// New returns an empty calculator.
func New() *Calculator {
	return &Calculator{}
}

// Press applies one key. Digits, '.', operators and parentheses append to the
// buffer; "del" removes the last character, "c" clears and "=" evaluates.
func (c *Calculator) Press(key string) error {
	switch normalizeKey(key) {
	case KeyEquals:
		c.Evaluate()
		return nil
	case KeyDelete:
		c.DeleteLast()
		return nil
	case KeyClear:
		c.Clear()
		return nil
	}
	if len(key) == 1 && strings.IndexByte(appendKeySet, key[0]) >= 0 {
		c.Append(key[0])
		return nil
	}
	return fmt.Errorf("%w %q", ErrUnknownKey, key)
}

func normalizeKey(key string) string {
	switch strings.ToLower(key) {
	case "=", "enter", "return":
		return KeyEquals
	case "del", "delete", "backspace", "⌫":
		return KeyDelete
	case "c", "clear", "ac", "esc":
		return KeyClear
	}
	return key
}

// Append adds a character to the expression buffer. The character is not
// validated; malformed input is reported when the buffer is evaluated.
func (c *Calculator) Append(ch byte) {
	c.buf.WriteByte(ch)
	c.failed = false
	c.display = c.buf.String()
}

// DeleteLast removes the last character of the buffer, if any.
func (c *Calculator) DeleteLast() {
	s := c.buf.String()
	if s != "" {
		s = s[:len(s)-1]
	}
	c.reset(s)
}

// Clear empties the buffer and the display.
func (c *Calculator) Clear() {
	c.reset("")
}

// Evaluate evaluates the buffer. A single trailing '=' is dropped first. On
// success the buffer is replaced by the formatted result so the next keys
// chain onto it; on failure the buffer is cleared and the display shows
// ErrorIndicator.
func (c *Calculator) Evaluate() Outcome {
	text := strings.TrimSuffix(c.buf.String(), KeyEquals)
	out := Outcome{Expression: text}

	res, err := expr.Calculate(text)
	if res != nil {
		out.Postfix = expr.Join(res.Postfix)
	}
	if err != nil {
		var ce *types.CalcError
		if !errors.As(err, &ce) {
			ce = &types.CalcError{Message: err.Error(), Pos: -1}
		}
		out.Err = ce
		c.reset("")
		c.display = ErrorIndicator
		c.failed = true
	} else {
		out.Result = res.Value
		c.reset(expr.FormatResult(res.Value))
	}
	c.last = &out
	return out
}

func (c *Calculator) reset(s string) {
	c.buf.Reset()
	c.buf.WriteString(s)
	c.display = s
	c.failed = false
}

// Expression returns the current buffer.
func (c *Calculator) Expression() string {
	return c.buf.String()
}

// Display returns the text shown to the user: the buffer, or ErrorIndicator
// after a failed evaluation until the next key.
func (c *Calculator) Display() string {
	return c.display
}

// Failed reports whether the display currently shows the error indicator.
func (c *Calculator) Failed() bool {
	return c.failed
}

// Last returns the most recent evaluation outcome, or nil.
func (c *Calculator) Last() *Outcome {
	return c.last
}
