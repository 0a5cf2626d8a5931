package integration

import (
	"net/http"
	"strings"
	"testing"
)

func TestEvaluate_Arithmetic(t *testing.T) {
	tests := []struct {
		expr    string
		want    float64
		postfix string
	}{
		{"2+3*4", 14, "2 3 4 * +"},
		{"(2+3)*4", 20, "2 3 + 4 *"},
		{"10/4", 2.5, "10 4 /"},
		{"8-3-2", 3, "8 3 - 2 -"},
		{"8/4/2", 1, "8 4 / 2 /"},
		{"12.5*2", 25, "12.5 2 *"},
		{"((7))", 7, "7"},
		{"3+4*2/(1-5)", 1, "3 4 2 * 1 5 - / +"},
		{"2-5", -3, "2 5 -"},
		{".5+.5", 1, ".5 .5 +"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			status, body := postJSON(t, apiURL("expressions:evaluate"), map[string]string{"expression": tt.expr})
			if status != http.StatusOK {
				t.Fatalf("expected 200, got %d: %v", status, body)
			}
			if got, _ := body["result"].(float64); got != tt.want {
				t.Errorf("result = %v, want %v", body["result"], tt.want)
			}
			var parts []string
			for _, p := range body["postfix"].([]interface{}) {
				parts = append(parts, p.(string))
			}
			if got := strings.Join(parts, " "); got != tt.postfix {
				t.Errorf("postfix = %q, want %q", got, tt.postfix)
			}
		})
	}
}

func TestEvaluate_ErrorKinds(t *testing.T) {
	tests := []struct {
		expr string
		kind string
	}{
		{"5/0", "DivisionByZero"},
		{"1/(2-2)", "DivisionByZero"},
		{"(1+2", "UnmatchedParenthesis"},
		{"1+2)", "UnmatchedParenthesis"},
		{"3+", "ArityUnderflow"},
		{"*", "ArityUnderflow"},
		{"-3", "ArityUnderflow"},
		{"2a", "MalformedCharacter"},
		{"1 + 2", "MalformedCharacter"},
		{"1.2.3", "InvalidLiteral"},
		{".", "InvalidLiteral"},
		{"", "ArityMismatch"},
		{"()", "ArityMismatch"},
		{"2(3)", "ArityMismatch"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			status, body := postJSON(t, apiURL("expressions:evaluate"), map[string]string{"expression": tt.expr})
			if status != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %v", status, body)
			}
			if got := errorReason(body); got != tt.kind {
				t.Errorf("reason = %q, want %q", got, tt.kind)
			}
		})
	}
}

// Conversion accepts multi-dot literals; only evaluation rejects them.
func TestConvert_MultiDotLiteral(t *testing.T) {
	status, body := postJSON(t, apiURL("expressions:convert"), map[string]string{"expression": "1..2+3"})
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, body)
	}
	postfix := body["postfix"].([]interface{})
	if len(postfix) != 3 || postfix[0] != "1..2" {
		t.Errorf("unexpected postfix %v", postfix)
	}
}

func TestCalculations_History(t *testing.T) {
	postJSON(t, apiURL("expressions:evaluate"), map[string]string{"expression": "6*7"})

	status, body := getJSON(t, apiURL("calculations?limit=1"))
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	calcs := body["calculations"].([]interface{})
	if len(calcs) != 1 {
		t.Fatalf("expected 1 calculation, got %d", len(calcs))
	}
	latest := calcs[0].(map[string]interface{})
	if latest["expression"] != "6*7" || latest["state"] != "SUCCEEDED" {
		t.Errorf("unexpected latest calculation %v", latest)
	}

	id := strings.TrimPrefix(latest["name"].(string), "calculations/")
	status, body = getJSON(t, apiURL("calculations/"+id))
	if status != http.StatusOK || body["display"] != "42" {
		t.Errorf("get calculation: %d %v", status, body)
	}
}
