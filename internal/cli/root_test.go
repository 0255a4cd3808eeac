package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "collage", cmd.Use)
	assert.Contains(t, cmd.Long, "rule tree")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"compile", "validate", "enumerate", "trace", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestCompileCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	compileCmd, _, err := cmd.Find([]string{"compile"})
	require.NoError(t, err)

	outputFlag := compileCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)
}

func TestEnumerateCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	enumCmd, _, err := cmd.Find([]string{"enumerate"})
	require.NoError(t, err)

	for name, def := range map[string]string{"spec": "", "parallel": "1", "db": ""} {
		flag := enumCmd.Flags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, def, flag.DefValue, name)
	}
}

func TestTraceCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	traceCmd, _, err := cmd.Find([]string{"trace"})
	require.NoError(t, err)

	for _, name := range []string{"db", "pass", "latest", "candidate"} {
		assert.NotNil(t, traceCmd.Flags().Lookup(name), name)
	}
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	_, err := execute(t, cmd, "--format", "xml", "compile", validSpecs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootDispatchesSubcommand(t *testing.T) {
	cmd := NewRootCommand()
	out, err := execute(t, cmd, "validate", validSpecs)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All specs valid")
}
