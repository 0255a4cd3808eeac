package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/collage/internal/compiler"
	"github.com/roach88/collage/internal/ops"
)

func TestLoadSpecs(t *testing.T) {
	result, errs := LoadSpecs(validSpecs, LoadModeFailFast)
	require.Empty(t, errs)
	require.NotNil(t, result)

	assert.Equal(t, 2, result.FileCount)
	assert.Len(t, result.Specs, 2)
	assert.Equal(t, map[string]ops.Kind{"nn.layer_norm": ops.Opaque}, result.Ops)
	assert.True(t, result.CUEValue.Exists())
}

func TestLoadSpecsModes(t *testing.T) {
	_, failFast := LoadSpecs(invalidSpecs, LoadModeFailFast)
	assert.Len(t, failFast, 1)

	result, all := LoadSpecs(invalidSpecs, LoadModeCollectAll)
	assert.Len(t, all, 2)
	assert.Empty(t, result.Specs)
}

func TestLoadSpecsRuleTreeCode(t *testing.T) {
	_, errs := LoadSpecs(invalidSpecs, LoadModeCollectAll)
	codes := map[string]bool{}
	for _, err := range errs {
		var loadErr *LoadError
		require.ErrorAs(t, err, &loadErr)
		codes[loadErr.Code] = true
		assert.True(t, loadErr.Pos.IsValid(), "rule tree errors point at the rule value")
	}
	assert.True(t, codes[compiler.ErrDuplicateRuleName])
	assert.True(t, codes[compiler.ErrInvalidConfig])
}

func TestLoadErrorString(t *testing.T) {
	err := &LoadError{Code: ErrCodeNoFiles, Message: "no CUE files found in specs"}
	assert.Equal(t, "E003: no CUE files found in specs", err.Error())
}

func TestMapFieldToErrorCode(t *testing.T) {
	tests := map[string]string{
		"target":            ErrCodeInvalidTarget,
		"target.attrs.arch": ErrCodeInvalidTarget,
		"pattern.op":        ErrCodeInvalidPattern,
		"predicate":         ErrCodeInvalidPattern,
		"config.max_depth":  ErrCodeInvalidRule,
		"kind":              ErrCodeInvalidRule,
		"rules":             ErrCodeInvalidRule,
		"ops.nn.relu":       ErrCodeGeneric,
	}
	for field, want := range tests {
		assert.Equal(t, want, MapFieldToErrorCode(field), field)
	}
}
