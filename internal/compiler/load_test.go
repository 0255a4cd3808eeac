package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/collage/internal/ops"
)

func writeCUE(t *testing.T, dir, name, src string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
}

func TestCompileDir(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "ops.cue", `package specs

ops: { "my.gelu": "elemwise" }
`)
	writeCUE(t, dir, "cuda.cue", `package specs

spec: cuda: {
	target: { kind: "cuda", attrs: { compiler: "nvcc" } }
	rule: { kind: "primitive", name: "nvcc", sub: { kind: "op_kind", name: "nvcc_ew" } }
}
`)
	writeCUE(t, dir, "host.cue", `package specs

spec: cpu: { target: kind: "cpu", rule: { kind: "host", name: "host" } }
`)

	specs, overrides, err := CompileDir(dir)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, map[string]ops.Kind{"my.gelu": ops.ElemWise}, overrides)

	names := []string{specs[0].Name(), specs[1].Name()}
	assert.ElementsMatch(t, []string{"cuda", "cpu"}, names)
}

func TestCompileDir_NoOps(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "host.cue", `package specs

spec: cpu: { target: kind: "cpu", rule: { kind: "host", name: "host" } }`)

	specs, overrides, err := CompileDir(dir)
	require.NoError(t, err)
	assert.Len(t, specs, 1)
	assert.Empty(t, overrides)
}

func TestLoadDir_Conflict(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "a.cue", "package specs\n\nx: 1")
	writeCUE(t, dir, "b.cue", "package specs\n\nx: 2")

	_, err := LoadDir(dir)
	require.Error(t, err)
}

func TestCompileDir_BadSpec(t *testing.T) {
	dir := t.TempDir()
	writeCUE(t, dir, "bad.cue", `package specs

spec: bad: { target: kind: "cpu", rule: { kind: "union", name: "u", rules: [{ kind: "host", name: "u" }] } }`)

	_, _, err := CompileDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spec bad")
}
