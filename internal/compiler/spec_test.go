package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/collage/internal/ops"
	"github.com/roach88/collage/internal/partition"
	"github.com/roach88/collage/internal/pattern"
	"github.com/roach88/collage/internal/subgraph"
)

const cutlassSpec = `
spec: cutlass: {
	target: { kind: "cuda", attrs: { compiler: "cutlass" } }
	rule: {
		kind: "primitive", name: "cutlass"
		sub: {
			kind: "valid_only", name: "cutlass_valid"
			config: { max_depth: 4, max_exits: 1, allow_taps: false }
			sub: {
				kind: "union", name: "cutlass_ops"
				rules: [
					{
						kind: "composite", name: "cutlass.dense_relu"
						sub: {
							kind: "pattern", name: "dense_relu"
							pattern: { op: "nn.relu", args: [{ op: "nn.dense", args: [{wildcard: true}, {wildcard: true}] }] }
							predicate: "dtype == 'float16'"
						}
					},
					{ kind: "op_kind", name: "cutlass_ewise" },
				]
			}
		}
	}
}
`

func compileCUE(t *testing.T, src string) cue.Value {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	require.NoError(t, v.Err())
	return v
}

func TestCompileSpec(t *testing.T) {
	v := compileCUE(t, cutlassSpec)

	spec, err := CompileSpec(v.LookupPath(cue.ParsePath("spec.cutlass")))
	require.NoError(t, err)

	assert.Equal(t, "cutlass", spec.Name())
	assert.Equal(t, "cuda", spec.Target().Kind)
	compiler, ok := spec.TargetAttribute(partition.CompilerAttr)
	assert.True(t, ok)
	assert.Equal(t, "cutlass", compiler)

	prim, ok := spec.Rule().(*partition.PrimitiveRule)
	require.True(t, ok, "root should be primitive, got %T", spec.Rule())
	assert.Equal(t, "cutlass", prim.Name)

	valid, ok := prim.Sub.(*partition.ValidOnlyRule)
	require.True(t, ok)
	assert.Equal(t, subgraph.Config{MaxDepth: 4, MaxExits: 1}, valid.Config)

	union, ok := valid.Sub.(*partition.UnionRule)
	require.True(t, ok)
	require.Len(t, union.Subs, 2)
	assert.Equal(t, partition.KindComposite, union.Subs[0].Kind())
	assert.Equal(t, partition.KindOpKind, union.Subs[1].Kind())

	comp := union.Subs[0].(*partition.CompositeRule)
	pat, ok := comp.Sub.(*partition.PatternRule)
	require.True(t, ok)
	assert.Equal(t, "nn.relu(nn.dense(*, *))", pat.Pattern.String())
	require.NotNil(t, pat.Predicate)
}

func TestCompileSpecs_FieldOrder(t *testing.T) {
	v := compileCUE(t, `
spec: zeta: { target: kind: "cpu", rule: { kind: "host", name: "zeta_host" } }
spec: alpha: { target: kind: "cpu", rule: { kind: "op_kind", name: "alpha_ew" } }
`)
	specs, err := CompileSpecs(v)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "zeta", specs[0].Name())
	assert.Equal(t, "alpha", specs[1].Name())
}

func TestCompileSpecs_NoSpecField(t *testing.T) {
	v := compileCUE(t, `ops: { "x": "opaque" }`)
	specs, err := CompileSpecs(v)
	require.NoError(t, err)
	assert.Empty(t, specs)
}

func TestCompileSpec_MissingTarget(t *testing.T) {
	v := compileCUE(t, `spec: s: { rule: { kind: "host", name: "h" } }`)
	_, err := CompileSpec(v.LookupPath(cue.ParsePath("spec.s")))
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "target", ce.Field)
}

func TestCompileSpec_MissingRule(t *testing.T) {
	v := compileCUE(t, `spec: s: { target: kind: "cpu" }`)
	_, err := CompileSpec(v.LookupPath(cue.ParsePath("spec.s")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rule is required")
}

func TestCompileSpec_NonStringAttr(t *testing.T) {
	v := compileCUE(t, `spec: s: { target: { kind: "cpu", attrs: { threads: 4 } }, rule: { kind: "host", name: "h" } }`)
	_, err := CompileSpec(v.LookupPath(cue.ParsePath("spec.s")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target.attrs.threads")
}

func TestCompileSpec_RuleTreeErrorsUnwrap(t *testing.T) {
	v := compileCUE(t, `
spec: s: {
	target: kind: "cpu"
	rule: {
		kind: "union", name: "u"
		rules: [
			{ kind: "op_kind", name: "dup" },
			{ kind: "host", name: "dup" },
			{ kind: "composite", name: "c" },
		]
	}
}`)
	_, err := CompileSpec(v.LookupPath(cue.ParsePath("spec.s")))
	require.Error(t, err)

	assert.True(t, partition.IsRuleError(err, partition.ErrCodeDuplicateRuleName))
	codes := []partition.RuleErrorCode{}
	for _, re := range partition.RuleErrors(err) {
		codes = append(codes, re.Code)
	}
	assert.Equal(t, []partition.RuleErrorCode{
		partition.ErrCodeDuplicateRuleName,
		partition.ErrCodeMissingSubRule,
	}, codes)
}

func TestCompileRule_UnknownKind(t *testing.T) {
	v := compileCUE(t, `rule: { kind: "anchor", name: "a" }`)
	_, err := CompileRule(v.LookupPath(cue.ParsePath("rule")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown rule kind "anchor"`)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.True(t, ce.Pos.IsValid(), "position should point at the kind field")
}

func TestCompileRule_MissingKind(t *testing.T) {
	v := compileCUE(t, `rule: { name: "a" }`)
	_, err := CompileRule(v.LookupPath(cue.ParsePath("rule")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kind is required")
}

func TestCompileRule_MissingSubIsNil(t *testing.T) {
	v := compileCUE(t, `rule: { kind: "primitive", name: "p" }`)
	r, err := CompileRule(v.LookupPath(cue.ParsePath("rule")))
	require.NoError(t, err)

	prim := r.(*partition.PrimitiveRule)
	assert.Nil(t, prim.Sub)
}

func TestCompileRule_PatternWithoutPredicate(t *testing.T) {
	v := compileCUE(t, `rule: { kind: "pattern", name: "p", pattern: "nn.softmax" }`)
	r, err := CompileRule(v.LookupPath(cue.ParsePath("rule")))
	require.NoError(t, err)

	pr := r.(*partition.PatternRule)
	assert.Equal(t, pattern.CallAny("nn.softmax"), pr.Pattern)
	assert.Nil(t, pr.Predicate, "absent predicate must be a nil interface")
}

func TestCompileRule_BadPredicate(t *testing.T) {
	v := compileCUE(t, `rule: { kind: "pattern", name: "p", pattern: "*", predicate: "arity + 'x'" }`)
	_, err := CompileRule(v.LookupPath(cue.ParsePath("rule")))
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "predicate", ce.Field)
	assert.NotNil(t, ce.Unwrap())
}

func TestCompileRule_ConfigDefaults(t *testing.T) {
	v := compileCUE(t, `rule: { kind: "valid_only", name: "v", config: { max_exits: 2 }, sub: { kind: "op_kind", name: "ew" } }`)
	r, err := CompileRule(v.LookupPath(cue.ParsePath("rule")))
	require.NoError(t, err)
	assert.Equal(t, subgraph.Config{MaxExits: 2}, r.(*partition.ValidOnlyRule).Config)
}

func TestCompileRule_ConfigWrongType(t *testing.T) {
	v := compileCUE(t, `rule: { kind: "valid_only", name: "v", config: { allow_taps: "yes" }, sub: { kind: "host", name: "h" } }`)
	_, err := CompileRule(v.LookupPath(cue.ParsePath("rule")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "allow_taps must be a bool")
}

func TestCompileOps(t *testing.T) {
	v := compileCUE(t, `ops: { "my.custom": "injective", "my.reduce": "comm_reduce" }`)
	kinds, err := CompileOps(v.LookupPath(cue.ParsePath("ops")))
	require.NoError(t, err)
	assert.Equal(t, map[string]ops.Kind{
		"my.custom": ops.Injective,
		"my.reduce": ops.CommReduce,
	}, kinds)
}

func TestCompileOps_UnknownKind(t *testing.T) {
	v := compileCUE(t, `ops: { "my.custom": "fancy" }`)
	_, err := CompileOps(v.LookupPath(cue.ParsePath("ops")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ops.my.custom")
}

func TestCompileError_Format(t *testing.T) {
	err := &CompileError{Field: "rule", Message: "bad"}
	assert.Equal(t, "rule: bad", err.Error())
}
