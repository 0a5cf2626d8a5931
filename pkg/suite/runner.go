package suite

import (
	"fmt"
	"math"

	"github.com/lemonberrylabs/rpncalc/pkg/expr"
	"github.com/lemonberrylabs/rpncalc/pkg/types"
)

// CaseResult is the outcome of running one case.
type CaseResult struct {
	Case     *Case      `json:"-"`
	Name     string     `json:"name"`
	Passed   bool       `json:"passed"`
	Got      *float64   `json:"got,omitempty"`
	GotError types.Kind `json:"gotError,omitempty"`
	Message  string     `json:"message,omitempty"`
}

// Report summarises a suite run.
type Report struct {
	Suite   string        `json:"suite"`
	Passed  int           `json:"passed"`
	Failed  int           `json:"failed"`
	Results []*CaseResult `json:"results"`
}

// OK reports whether every case passed.
func (r *Report) OK() bool {
	return r.Failed == 0
}

// Observer is notified after each case is evaluated, e.g. to record it.
type Observer func(c *Case, res *expr.Result, err error)

// Run evaluates every case of the suite.
func Run(s *Suite, observers ...Observer) *Report {
	rep := &Report{Suite: s.Name}
	for _, c := range s.Cases {
		res, err := expr.Calculate(c.Expression)
		for _, obs := range observers {
			obs(c, res, err)
		}

		cr := check(c, res, err)
		if cr.Passed {
			rep.Passed++
		} else {
			rep.Failed++
		}
		rep.Results = append(rep.Results, cr)
	}
	return rep
}

func check(c *Case, res *expr.Result, err error) *CaseResult {
	cr := &CaseResult{Case: c, Name: c.Name}

	if err != nil {
		kind, _ := types.KindOf(err)
		cr.GotError = kind
		switch {
		case c.WantError == "":
			cr.Message = fmt.Sprintf("want %v, got error %v", *c.Want, err)
		case kind != c.WantError:
			cr.Message = fmt.Sprintf("want error %s, got %v", c.WantError, err)
		default:
			cr.Passed = true
		}
		return cr
	}

	got := res.Value
	cr.Got = &got
	switch {
	case c.Want == nil:
		cr.Message = fmt.Sprintf("want error %s, got %s", c.WantError, expr.FormatResult(got))
	case math.IsNaN(got) || math.Abs(got-*c.Want) > c.Tolerance:
		cr.Message = fmt.Sprintf("want %v (±%g), got %s", *c.Want, c.Tolerance, expr.FormatResult(got))
	default:
		cr.Passed = true
	}
	return cr
}
