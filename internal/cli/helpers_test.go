package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

var (
	validSpecs   = filepath.Join("testdata", "specs", "valid")
	invalidSpecs = filepath.Join("testdata", "specs", "invalid")
	warnSpecs    = filepath.Join("testdata", "specs", "warn")
	failingSpecs = filepath.Join("testdata", "specs", "failing")
	matmulGraph  = filepath.Join("testdata", "graphs", "matmul_relu.yaml")
	scenariosDir = filepath.Join("testdata", "scenarios")
)

// execute runs cmd with args and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// decodeResponse parses a JSON CLIResponse and decodes its data into out.
func decodeResponse(t *testing.T, output string, out any) CLIResponse {
	t.Helper()
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	if out != nil && resp.Data != nil {
		raw, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, out))
	}
	return resp
}
