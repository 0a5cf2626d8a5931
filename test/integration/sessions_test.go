package integration

import (
	"net/http"
	"testing"
)

func TestSession_ChainingAndErrorIndicator(t *testing.T) {
	id := createSession(t, "integration")

	view := press(t, id, splitKeys("12+8=")...)
	if view["display"] != "20" || view["expression"] != "20" {
		t.Fatalf("unexpected view after 12+8=: %v", view)
	}

	view = press(t, id, splitKeys("/4=")...)
	if view["display"] != "5" {
		t.Fatalf("chained display = %v, want 5", view["display"])
	}

	view = press(t, id, "del", "7", "=")
	if view["display"] != "7" {
		t.Fatalf("display after delete = %v, want 7", view["display"])
	}

	view = press(t, id, splitKeys("/0=")...)
	if view["display"] != "Error" || view["error"] != true || view["expression"] != "" {
		t.Fatalf("expected error indicator with empty buffer, got %v", view)
	}

	view = press(t, id, "9")
	if view["display"] != "9" || view["error"] != false {
		t.Fatalf("expected fresh buffer after error, got %v", view)
	}

	view = press(t, id, "c")
	if view["expression"] != "" {
		t.Fatalf("expected cleared buffer, got %v", view)
	}

	status, body := getJSON(t, apiURL("sessions/"+id+"/calculations"))
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	calcs := body["calculations"].([]interface{})
	if len(calcs) != 4 {
		t.Fatalf("expected 4 session calculations, got %d", len(calcs))
	}
	latest := calcs[0].(map[string]interface{})
	if latest["state"] != "FAILED" {
		t.Errorf("expected latest calculation FAILED, got %v", latest)
	}
	errInfo := latest["error"].(map[string]interface{})
	if errInfo["kind"] != "DivisionByZero" {
		t.Errorf("error kind = %v, want DivisionByZero", errInfo["kind"])
	}
}

// A negative result cannot be re-entered: the leading '-' has no left operand.
func TestSession_NegativeChainFails(t *testing.T) {
	id := createSession(t, "")

	view := press(t, id, splitKeys("2-5=")...)
	if view["display"] != "-3" {
		t.Fatalf("display = %v, want -3", view["display"])
	}
	view = press(t, id, splitKeys("+1=")...)
	if view["display"] != "Error" {
		t.Fatalf("expected error chaining a negative result, got %v", view)
	}
}

func TestSession_NotFound(t *testing.T) {
	status, _ := getJSON(t, apiURL("sessions/does-not-exist"))
	if status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}
	status, _ = postJSON(t, apiURL("sessions/does-not-exist:press"), map[string]string{"key": "1"})
	if status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}
}

func TestSession_Delete(t *testing.T) {
	id := createSession(t, "short-lived")

	req, _ := http.NewRequest(http.MethodDelete, apiURL("sessions/"+id), nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	status, _ := getJSON(t, apiURL("sessions/"+id))
	if status != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", status)
	}
}
