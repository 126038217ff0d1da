package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Table is a dispatch table: classes to define, implementations to register
// and calls whose resolution is checked.
type Table struct {
	Settings Settings `yaml:"settings"`

	// Classes are defined in order, so a class may only name earlier
	// classes or builtins as bases.
	Classes []ClassSpec `yaml:"classes"`

	Methods []MethodSpec `yaml:"methods"`
	Calls   []CallSpec   `yaml:"calls"`
}

// Settings tune how the graphs of a table are built.
type Settings struct {
	// Cache enables the resolution cache. Defaults to true.
	Cache *bool `yaml:"cache,omitempty"`

	// LogLevel is one of debug, info, warn, error. Defaults to info.
	LogLevel string `yaml:"log_level,omitempty"`
}

// ClassSpec declares a class.
type ClassSpec struct {
	Name  string   `yaml:"name"`
	Bases []string `yaml:"bases,omitempty"`

	// Abstract classes are never the class of a value.
	Abstract bool `yaml:"abstract,omitempty"`

	// Params makes the class generic with that many type parameters.
	Params int `yaml:"params,omitempty"`
}

// MethodSpec registers one implementation. Resolving to it yields Result.
type MethodSpec struct {
	Graph string `yaml:"graph"`

	// Signature holds one type string per parameter, e.g. "List[Int]".
	Signature []string `yaml:"signature"`

	// Required is the number of leading parameters a call must supply.
	// Defaults to all of them.
	Required *int `yaml:"required,omitempty"`

	Result string `yaml:"result,omitempty"`

	// Error names the expected registration failure instead of a result.
	Error string `yaml:"error,omitempty"`
}

// CallSpec resolves a graph for argument types and states the outcome.
type CallSpec struct {
	Graph string   `yaml:"graph"`
	Args  []string `yaml:"args"`

	// Expect is the Result of the method the call must resolve to.
	Expect string `yaml:"expect,omitempty"`

	// Error is the expected failure kind: no-method, ambiguous or malformed.
	Error string `yaml:"error,omitempty"`
}

// ExpectKinds are the failure kinds a table may expect.
var ExpectKinds = []string{ExpectNoMethod, ExpectAmbiguous, ExpectMalformed}

var logLevels = []string{"debug", "info", "warn", "error"}

// LoadTable reads and parses a dispatch table file.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading table %s: %w", path, err)
	}
	return ParseTable(data, path)
}

// ParseTable parses dispatch table content from bytes.
// The path argument is used only for error messages.
func ParseTable(data []byte, path string) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := t.validate(path); err != nil {
		return nil, err
	}
	t.setDefaults()
	return &t, nil
}

// FindTable searches for a dispatch table starting from dir and walking up
// to parent directories. It returns an empty path and nil error when none
// is found.
func FindTable(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	for {
		for _, name := range TableFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (t *Table) validate(path string) error {
	if len(t.Methods) == 0 {
		return fmt.Errorf("%s: no methods defined", path)
	}
	if lvl := t.Settings.LogLevel; lvl != "" && !slices.Contains(logLevels, strings.ToLower(lvl)) {
		return fmt.Errorf("%s: settings: unknown log_level %q", path, lvl)
	}

	seen := make(map[string]bool)
	for i, c := range t.Classes {
		if c.Name == "" {
			return fmt.Errorf("%s: classes[%d]: name is required", path, i)
		}
		if seen[c.Name] {
			return fmt.Errorf("%s: classes[%d]: duplicate class %q", path, i, c.Name)
		}
		if c.Params < 0 {
			return fmt.Errorf("%s: classes[%d] (%s): params must not be negative", path, i, c.Name)
		}
		if c.Abstract && c.Params > 0 {
			return fmt.Errorf("%s: classes[%d] (%s): abstract and params are mutually exclusive", path, i, c.Name)
		}
		seen[c.Name] = true
	}

	graphs := make(map[string]bool)
	for i, m := range t.Methods {
		if m.Graph == "" {
			return fmt.Errorf("%s: methods[%d]: graph is required", path, i)
		}
		if m.Required != nil && (*m.Required < 0 || *m.Required > len(m.Signature)) {
			return fmt.Errorf("%s: methods[%d] (%s): required must be between 0 and %d",
				path, i, m.Graph, len(m.Signature))
		}
		if err := checkOutcome(m.Result, m.Error); err != nil {
			return fmt.Errorf("%s: methods[%d] (%s): %w", path, i, m.Graph, err)
		}
		graphs[m.Graph] = true
	}

	for i, c := range t.Calls {
		if c.Graph == "" {
			return fmt.Errorf("%s: calls[%d]: graph is required", path, i)
		}
		if !graphs[c.Graph] {
			return fmt.Errorf("%s: calls[%d]: no methods registered for graph %q", path, i, c.Graph)
		}
		if err := checkOutcome(c.Expect, c.Error); err != nil {
			return fmt.Errorf("%s: calls[%d] (%s): %w", path, i, c.Graph, err)
		}
	}
	return nil
}

// checkOutcome requires exactly one of a result label or a known error kind.
func checkOutcome(result, errKind string) error {
	switch {
	case result == "" && errKind == "":
		return fmt.Errorf("one of result or error is required")
	case result != "" && errKind != "":
		return fmt.Errorf("result and error are mutually exclusive")
	case errKind != "" && !slices.Contains(ExpectKinds, errKind):
		return fmt.Errorf("unknown error kind %q (want one of %s)", errKind, strings.Join(ExpectKinds, ", "))
	}
	return nil
}

func (t *Table) setDefaults() {
	if t.Settings.Cache == nil {
		enabled := true
		t.Settings.Cache = &enabled
	}
	if t.Settings.LogLevel == "" {
		t.Settings.LogLevel = "info"
	}
	t.Settings.LogLevel = strings.ToLower(t.Settings.LogLevel)
	for i := range t.Methods {
		if t.Methods[i].Required == nil {
			n := len(t.Methods[i].Signature)
			t.Methods[i].Required = &n
		}
	}
}

// CacheEnabled reports whether graphs built from the table use the
// resolution cache.
func (s Settings) CacheEnabled() bool {
	return s.Cache == nil || *s.Cache
}

// Graphs returns the graph names in order of first appearance.
func (t *Table) Graphs() []string {
	var names []string
	for _, m := range t.Methods {
		if !slices.Contains(names, m.Graph) {
			names = append(names, m.Graph)
		}
	}
	return names
}
