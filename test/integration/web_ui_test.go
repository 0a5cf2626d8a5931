package integration

import (
	"html/template"
	"io"
	"net/http"
	"strings"
	"testing"
)

// htmlText returns s as html/template writes it in element text, where '+'
// becomes "&#43;" on top of the usual entity escapes.
func htmlText(s string) string {
	return strings.ReplaceAll(template.HTMLEscapeString(s), "+", "&#43;")
}

func TestWebUI_Keypad(t *testing.T) {
	resp, err := http.Get(strings.TrimRight(testServer, "/") + "/ui")
	if err != nil {
		t.Fatalf("GET /ui: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "RPN Calculator") {
		t.Error("expected keypad page")
	}
}

func TestWebUI_History(t *testing.T) {
	postJSON(t, apiURL("expressions:evaluate"), map[string]string{"expression": "99+1"})

	resp, err := http.Get(strings.TrimRight(testServer, "/") + "/ui/history")
	if err != nil {
		t.Fatalf("GET /ui/history: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), htmlText("99+1")) {
		t.Error("expected recent calculation on history page")
	}
}

func TestHealthz(t *testing.T) {
	status, body := getJSON(t, strings.TrimRight(testServer, "/")+"/healthz")
	if status != http.StatusOK || body["status"] != "ok" {
		t.Errorf("unexpected health response %d %v", status, body)
	}
}
