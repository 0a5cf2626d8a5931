// Package suite parses and runs calculation suites: YAML or JSON documents
// listing expressions with their expected results or expected error kinds.
package suite

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/lemonberrylabs/rpncalc/pkg/types"
)

// MaxSourceSize is the maximum suite source size in bytes (128 KB).
const MaxSourceSize = 128 * 1024

// MaxCases is the maximum number of cases in one suite.
const MaxCases = 1000

// DefaultTolerance is the absolute tolerance used when a case sets none.
const DefaultTolerance = 1e-9

// Suite is a named list of cases.
type Suite struct {
	Name  string
	Cases []*Case
}

// Case is one expression with its expectation. Exactly one of Want and
// WantError is set.
type Case struct {
	Name       string
	Expression string
	Want       *float64
	WantError  types.Kind
	Tolerance  float64
	Line       int
}

// ParseError represents an error encountered during suite parsing.
type ParseError struct {
	Message  string
	Location string // e.g., "case 3"
}

func (e *ParseError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("parse error at %s: %s", e.Location, e.Message)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

// Parse parses a YAML or JSON suite definition.
func Parse(source []byte) (*Suite, error) {
	if len(source) > MaxSourceSize {
		return nil, &ParseError{Message: fmt.Sprintf("suite source size %d exceeds maximum %d bytes", len(source), MaxSourceSize)}
	}

	var raw yaml.Node
	if err := yaml.Unmarshal(source, &raw); err != nil {
		return nil, &ParseError{Message: fmt.Sprintf("invalid YAML: %v", err)}
	}

	// The root node is a document node containing the actual content
	if raw.Kind != yaml.DocumentNode || len(raw.Content) == 0 {
		return nil, &ParseError{Message: "empty suite definition"}
	}
	root := raw.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &ParseError{Message: "suite definition must be a mapping"}
	}

	s := &Suite{}
	var casesNode *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		val := root.Content[i+1]
		switch key {
		case "name":
			if val.Kind != yaml.ScalarNode {
				return nil, &ParseError{Message: "'name' must be a string"}
			}
			s.Name = val.Value
		case "cases":
			casesNode = val
		default:
			return nil, &ParseError{Message: fmt.Sprintf("unknown key '%s' in suite", key)}
		}
	}

	if casesNode == nil {
		return nil, &ParseError{Message: "suite must have 'cases'"}
	}
	if casesNode.Kind != yaml.SequenceNode || len(casesNode.Content) == 0 {
		return nil, &ParseError{Message: "'cases' must be a non-empty list"}
	}
	if len(casesNode.Content) > MaxCases {
		return nil, &ParseError{Message: fmt.Sprintf("suite has %d cases, maximum is %d", len(casesNode.Content), MaxCases)}
	}

	seen := make(map[string]bool)
	for i, node := range casesNode.Content {
		c, err := parseCase(i+1, node)
		if err != nil {
			return nil, err
		}
		if seen[c.Name] {
			return nil, &ParseError{
				Message:  fmt.Sprintf("duplicate case name '%s'", c.Name),
				Location: fmt.Sprintf("case %d", i+1),
			}
		}
		seen[c.Name] = true
		s.Cases = append(s.Cases, c)
	}
	return s, nil
}

// parseCase parses a single case mapping.
func parseCase(n int, node *yaml.Node) (*Case, error) {
	loc := fmt.Sprintf("case %d", n)
	if node.Kind != yaml.MappingNode {
		return nil, &ParseError{Message: "case must be a mapping", Location: loc}
	}

	c := &Case{Line: node.Line}
	hasExpr, hasTolerance := false, false
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return nil, &ParseError{Message: fmt.Sprintf("'%s' must be a scalar", key), Location: loc}
		}

		switch key {
		case "name":
			c.Name = val.Value
		case "expression":
			// Scalars like 42 are read as written, not as YAML numbers.
			c.Expression = val.Value
			hasExpr = true
		case "want":
			var f float64
			if err := val.Decode(&f); err != nil || math.IsNaN(f) {
				return nil, &ParseError{Message: fmt.Sprintf("'want' must be a number, got %q", val.Value), Location: loc}
			}
			c.Want = &f
		case "error":
			kind, ok := types.ParseKind(val.Value)
			if !ok {
				return nil, &ParseError{
					Message:  fmt.Sprintf("unknown error kind '%s' (want one of %s)", val.Value, kindList()),
					Location: loc,
				}
			}
			c.WantError = kind
		case "tolerance":
			if err := val.Decode(&c.Tolerance); err != nil || c.Tolerance < 0 || math.IsNaN(c.Tolerance) {
				return nil, &ParseError{Message: fmt.Sprintf("'tolerance' must be a non-negative number, got %q", val.Value), Location: loc}
			}
			hasTolerance = true
		default:
			return nil, &ParseError{Message: fmt.Sprintf("unknown key '%s' in case", key), Location: loc}
		}
	}

	if c.Name == "" {
		c.Name = fmt.Sprintf("case-%d", n)
	}
	if !hasExpr {
		return nil, &ParseError{Message: "case must have 'expression'", Location: loc}
	}
	if (c.Want == nil) == (c.WantError == "") {
		return nil, &ParseError{Message: "case must set exactly one of 'want' and 'error'", Location: loc}
	}
	if c.Expression == "" && c.WantError == "" {
		return nil, &ParseError{Message: "an empty expression can only expect an error", Location: loc}
	}
	// An explicit zero tolerance asks for an exact match.
	if !hasTolerance {
		c.Tolerance = DefaultTolerance
	}
	return c, nil
}

func kindList() string {
	names := make([]string, len(types.Kinds))
	for i, k := range types.Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

// Load reads and parses a suite file. A suite without a name is named after
// the file.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading suite")
	}
	s, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", filepath.Base(path))
	}
	if s.Name == "" {
		base := filepath.Base(path)
		s.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return s, nil
}

// IsSuiteFile reports whether name has a suite file extension.
func IsSuiteFile(name string) bool {
	switch filepath.Ext(name) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// LoadDir loads every .yaml, .yml and .json file in dir, sorted by file name.
// Files that fail to load are reported in the second result and skipped.
func LoadDir(dir string) ([]*Suite, map[string]error, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, errors.Wrap(err, "reading suites directory")
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && IsSuiteFile(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var suites []*Suite
	failures := make(map[string]error)
	for _, name := range names {
		s, err := Load(filepath.Join(dir, name))
		if err != nil {
			failures[name] = err
			continue
		}
		suites = append(suites, s)
	}
	return suites, failures, nil
}
