package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/collage/internal/ir"
	"github.com/roach88/collage/internal/ops"
)

// Scenario defines a partition test scenario: which graph to partition,
// which specs to enumerate, and what the candidates must look like.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Graph is the path to a graph YAML file. Paths are relative to the
	// scenario file location. Mutually exclusive with Nodes.
	Graph string `yaml:"graph,omitempty"`

	// Nodes and Outputs define the graph inline.
	Nodes   []ir.NodeDoc `yaml:"nodes,omitempty"`
	Outputs []string     `yaml:"outputs,omitempty"`

	// Specs is the CUE specs directory, relative to the scenario file.
	Specs string `yaml:"specs"`

	// Spec selects one spec by name. Empty enumerates every spec in order.
	Spec string `yaml:"spec,omitempty"`

	// Ops overrides operator fusion kinds on top of the specs' ops table.
	Ops map[string]string `yaml:"ops,omitempty"`

	// Parallelism is the union fan-out. Zero or one runs sequentially.
	Parallelism int `yaml:"parallelism,omitempty"`

	// Assertions validate the enumerated candidates.
	// Supported types: candidate_count, covers_all, contains, order, none_for
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates the candidate listing.
type Assertion struct {
	// Type specifies the assertion type:
	// - "candidate_count": exactly Count candidates
	// - "covers_all": every graph node is in at least one candidate
	// - "contains": some candidate matches every given field
	// - "order": the first candidates of the Rules appear in that order
	// - "none_for": no candidate includes any of Nodes
	Type string `yaml:"type"`

	// Spec restricts the assertion to one spec's candidates.
	Spec string `yaml:"spec,omitempty"`

	// Count is the expected number of candidates (used by candidate_count).
	Count int `yaml:"count,omitempty"`

	// Provenance is the exact provenance chain, innermost first (used by contains).
	Provenance []string `yaml:"provenance,omitempty"`

	// Nodes are node names: the exact member set for contains, the
	// excluded nodes for none_for.
	Nodes []string `yaml:"nodes,omitempty"`

	// Pending attributes (used by contains). Empty fields are not checked.
	Composite string `yaml:"composite,omitempty"`
	Primitive *bool  `yaml:"primitive,omitempty"`
	Compiler  string `yaml:"compiler,omitempty"`

	// Rules are joined provenance names, e.g. "ew.prim" (used by order).
	Rules []string `yaml:"rules,omitempty"`
}

// Assertion type constants.
const (
	AssertCandidateCount = "candidate_count"
	AssertCoversAll      = "covers_all"
	AssertContains       = "contains"
	AssertOrder          = "order"
	AssertNoneFor        = "none_for"
)

// LoadScenario reads and parses a scenario YAML file. Graph and specs paths
// are resolved relative to the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving graph and specs paths relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos)
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve paths relative to base path BEFORE validation
	scenario.Graph = resolve(basePath, scenario.Graph)
	scenario.Specs = resolve(basePath, scenario.Specs)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) || base == "" {
		return path
	}
	return filepath.Join(base, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Graph == "" && len(s.Nodes) == 0:
		return fmt.Errorf("graph path or inline nodes are required")
	case s.Graph != "" && len(s.Nodes) > 0:
		return fmt.Errorf("graph and nodes are mutually exclusive")
	}
	if s.Graph != "" {
		if _, err := os.Stat(s.Graph); os.IsNotExist(err) {
			return fmt.Errorf("graph file not found: %s", s.Graph)
		}
	}

	if s.Specs == "" {
		return fmt.Errorf("specs directory is required")
	}
	if info, err := os.Stat(s.Specs); err != nil || !info.IsDir() {
		return fmt.Errorf("specs directory not found: %s", s.Specs)
	}

	for op, kind := range s.Ops {
		if _, err := ops.ParseKind(kind); err != nil {
			return fmt.Errorf("ops[%s]: %w", op, err)
		}
	}

	if s.Parallelism < 0 {
		return fmt.Errorf("parallelism must be non-negative")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCandidateCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for candidate_count", index)
		}
	case AssertCoversAll:
	case AssertContains:
		if len(a.Provenance) == 0 && len(a.Nodes) == 0 && a.Composite == "" && a.Primitive == nil && a.Compiler == "" {
			return fmt.Errorf("assertions[%d]: contains needs at least one field to match", index)
		}
	case AssertOrder:
		if len(a.Rules) == 0 {
			return fmt.Errorf("assertions[%d]: rules list is required for order", index)
		}
	case AssertNoneFor:
		if len(a.Nodes) == 0 {
			return fmt.Errorf("assertions[%d]: nodes list is required for none_for", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
