package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/collage/internal/ir"
)

// Snapshot is the golden form of a scenario's candidates.
type Snapshot struct {
	ScenarioName string
	Candidates   []CandidateView
}

// Marshal renders the snapshot as canonical JSON. Each candidate is its
// record plus the spec that produced it.
func (s *Snapshot) Marshal() ([]byte, error) {
	list := make(ir.Array, len(s.Candidates))
	for i, c := range s.Candidates {
		obj := c.Record.Object()
		obj["spec"] = ir.String(c.Spec)
		list[i] = obj
	}
	return ir.MarshalCanonical(ir.Object{
		"scenario_name": ir.String(s.ScenarioName),
		"candidates":    list,
	})
}

// RunWithGolden executes a scenario and compares the candidate listing
// against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the listing doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := Snapshot{ScenarioName: scenarioName, Candidates: result.Candidates}
	data, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
