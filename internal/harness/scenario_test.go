package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenario_ResolvesPaths(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/matmul_relu.yaml")
	require.NoError(t, err)

	assert.Equal(t, "matmul_relu", s.Name)
	assert.Equal(t, filepath.Join("testdata", "graphs", "matmul_relu.yaml"), s.Graph)
	assert.Equal(t, filepath.Join("testdata", "specs", "cutlass"), s.Specs)
	assert.Equal(t, "cutlass", s.Spec)
	require.Len(t, s.Assertions, 5)
	assert.Equal(t, AssertCandidateCount, s.Assertions[0].Type)
}

func TestLoadScenario_InlineNodes(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/single_add.yaml")
	require.NoError(t, err)

	require.Len(t, s.Nodes, 3)
	assert.Equal(t, "add", s.Nodes[2].Op)
	assert.Equal(t, []string{"x", "y"}, s.Nodes[2].Args)

	contains := s.Assertions[1]
	require.NotNil(t, contains.Primitive)
	assert.True(t, *contains.Primitive)
}

func TestLoadScenario_Errors(t *testing.T) {
	specs, err := filepath.Abs("testdata/specs/basic")
	require.NoError(t, err)

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "unknown field",
			body:    "name: s\ndescription: d\nspecs: " + specs + "\nasserts: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing name",
			body:    "description: d\nspecs: " + specs + "\nnodes: [{name: x, kind: var}]\nassertions: [{type: covers_all}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			body:    "name: s\nspecs: " + specs + "\nnodes: [{name: x, kind: var}]\nassertions: [{type: covers_all}]\n",
			wantErr: "description is required",
		},
		{
			name:    "no graph",
			body:    "name: s\ndescription: d\nspecs: " + specs + "\nassertions: [{type: covers_all}]\n",
			wantErr: "graph path or inline nodes are required",
		},
		{
			name:    "graph and nodes",
			body:    "name: s\ndescription: d\ngraph: g.yaml\nnodes: [{name: x, kind: var}]\nspecs: " + specs + "\nassertions: [{type: covers_all}]\n",
			wantErr: "mutually exclusive",
		},
		{
			name:    "missing graph file",
			body:    "name: s\ndescription: d\ngraph: nope.yaml\nspecs: " + specs + "\nassertions: [{type: covers_all}]\n",
			wantErr: "graph file not found",
		},
		{
			name:    "missing specs dir",
			body:    "name: s\ndescription: d\nnodes: [{name: x, kind: var}]\nspecs: nope\nassertions: [{type: covers_all}]\n",
			wantErr: "specs directory not found",
		},
		{
			name:    "bad ops kind",
			body:    "name: s\ndescription: d\nnodes: [{name: x, kind: var}]\nspecs: " + specs + "\nops: {exp: fancy}\nassertions: [{type: covers_all}]\n",
			wantErr: "unknown fusion kind",
		},
		{
			name:    "no assertions",
			body:    "name: s\ndescription: d\nnodes: [{name: x, kind: var}]\nspecs: " + specs + "\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "unknown assertion",
			body:    "name: s\ndescription: d\nnodes: [{name: x, kind: var}]\nspecs: " + specs + "\nassertions: [{type: trace_contains}]\n",
			wantErr: `unknown assertion type "trace_contains"`,
		},
		{
			name:    "empty contains",
			body:    "name: s\ndescription: d\nnodes: [{name: x, kind: var}]\nspecs: " + specs + "\nassertions: [{type: contains}]\n",
			wantErr: "contains needs at least one field",
		},
		{
			name:    "order without rules",
			body:    "name: s\ndescription: d\nnodes: [{name: x, kind: var}]\nspecs: " + specs + "\nassertions: [{type: order}]\n",
			wantErr: "rules list is required",
		},
		{
			name:    "negative count",
			body:    "name: s\ndescription: d\nnodes: [{name: x, kind: var}]\nspecs: " + specs + "\nassertions: [{type: candidate_count, count: -1}]\n",
			wantErr: "count must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, t.TempDir(), tt.body)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
