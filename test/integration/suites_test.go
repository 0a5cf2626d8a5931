package integration

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/lemonberrylabs/rpncalc/pkg/suite"
)

func runSuiteFile(t *testing.T, name string) map[string]interface{} {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", "suites", name))
	if err != nil {
		t.Fatalf("open suite %s: %v", name, err)
	}
	defer f.Close()

	resp, err := http.Post(apiURL("suites:run"), "application/yaml", f)
	if err != nil {
		t.Fatalf("POST suites:run: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("suites:run %s: status %d", name, resp.StatusCode)
	}
	var rep map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	return rep
}

func TestSuites_RunOverHTTP(t *testing.T) {
	for _, name := range []string{"precedence.yaml", "errors.json"} {
		t.Run(name, func(t *testing.T) {
			rep := runSuiteFile(t, name)
			if rep["failed"] != 0.0 {
				t.Errorf("expected no failures, got report %v", rep)
			}
		})
	}
}

// The bundled suites also pass when run directly, without a server.
func TestSuites_RunLocally(t *testing.T) {
	suites, failures, err := suite.LoadDir(filepath.Join("testdata", "suites"))
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(failures) != 0 {
		t.Fatalf("unexpected load failures: %v", failures)
	}
	if len(suites) != 2 {
		t.Fatalf("expected 2 suites, got %d", len(suites))
	}
	for _, s := range suites {
		rep := suite.Run(s)
		for _, r := range rep.Results {
			if !r.Passed {
				t.Errorf("%s/%s: %s", s.Name, r.Name, r.Message)
			}
		}
	}
}
