package expr

import (
	"strconv"
)

// Result is a successful evaluation together with its postfix form.
type Result struct {
	Expression string
	Postfix    []Token
	Value      float64
}

// Calculate converts input to postfix and evaluates it. Failures are returned
// as *types.CalcError; the postfix form is kept in the result when conversion
// succeeds, even if evaluation then fails.
func Calculate(input string) (*Result, error) {
	postfix, err := ToPostfix(input)
	if err != nil {
		return nil, err
	}
	res := &Result{Expression: input, Postfix: postfix}
	v, err := EvalPostfix(postfix)
	if err != nil {
		return res, err
	}
	res.Value = v
	return res, nil
}

// Evaluate converts and evaluates an infix expression.
func Evaluate(input string) (float64, error) {
	res, err := Calculate(input)
	if err != nil {
		return 0, err
	}
	return res.Value, nil
}

// Check is the boolean form of Evaluate: every failure kind collapses into
// ok == false.
func Check(input string) (result float64, ok bool) {
	v, err := Evaluate(input)
	if err != nil {
		return 0, false
	}
	return v, true
}

// FormatResult renders v in the shortest decimal form that parses back to the
// same float64, without an exponent. Non-negative finite results can therefore
// be fed straight back into Evaluate.
func FormatResult(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
