package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := formatter.Success(map[string]string{"result": "success"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	err := formatter.Error("E121", "duplicate rule name", nil)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E121", resp.Error.Code)
	assert.Equal(t, "duplicate rule name", resp.Error.Message)
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: true}

	require.NoError(t, formatter.Error("E005", "not found", "specs/"))
	assert.Contains(t, buf.String(), "Error [E005]: not found")
	assert.Contains(t, buf.String(), "Details: specs/")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut}

	formatter.VerboseLog("hidden %d", 1)
	assert.Empty(t, errOut.String())

	formatter.Verbose = true
	formatter.VerboseLog("shown %d", 2)
	assert.Equal(t, "shown 2\n", errOut.String())
	assert.Empty(t, out.String(), "verbose output must not corrupt JSON")
	assert.Same(t, errOut, formatter.GetErrWriter())
}

func TestExitError(t *testing.T) {
	inner := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "failed to record pass", inner)

	assert.Equal(t, "failed to record pass: disk full", err.Error())
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, "3 scenario(s) failed", NewExitError(ExitFailure, "3 scenario(s) failed").Error())
}

func TestRenderTable(t *testing.T) {
	out := renderTable("cutlass → cuda",
		table.Row{"#", "Rule"},
		[]table.Row{{0, "cutlass_ew.cutlass"}, {1, "host"}})

	assert.Contains(t, out, "cutlass → cuda")
	assert.Contains(t, out, "Rule")
	assert.Contains(t, out, "cutlass_ew.cutlass")
	assert.Contains(t, out, "┌")
}
