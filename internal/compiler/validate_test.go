package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/collage/internal/partition"
	"github.com/roach88/collage/internal/subgraph"
)

func codesOf(errs []ValidationError) []string {
	codes := make([]string, 0, len(errs))
	for _, e := range errs {
		codes = append(codes, e.Code)
	}
	return codes
}

func TestValidate_Rule(t *testing.T) {
	tests := []struct {
		name string
		rule partition.Rule
		want []string
	}{
		{
			name: "valid tree",
			rule: partition.NewPrimitiveRule("p", partition.NewOpKindRule("ew")),
			want: []string{},
		},
		{
			name: "empty name",
			rule: partition.NewHostRule(" "),
			want: []string{ErrEmptyRuleName},
		},
		{
			name: "duplicate after normalisation",
			rule: partition.NewUnionRule("u", partition.NewHostRule("café"), partition.NewOpKindRule("café")),
			want: []string{ErrDuplicateRuleName},
		},
		{
			name: "missing sub",
			rule: partition.NewCompositeRule("c", nil),
			want: []string{ErrMissingSubRule},
		},
		{
			name: "invalid config",
			rule: partition.NewValidOnlyRule("v", partition.NewHostRule("h"), subgraph.Config{MaxDepth: -1}),
			want: []string{ErrInvalidConfig},
		},
		{
			name: "missing pattern",
			rule: partition.NewPatternRule("p", nil, nil),
			want: []string{ErrMissingPattern},
		},
		{
			name: "several at once",
			rule: partition.NewUnionRule("u", partition.NewPatternRule("", nil, nil), partition.NewPrimitiveRule("u", nil)),
			want: []string{ErrEmptyRuleName, ErrMissingPattern, ErrDuplicateRuleName, ErrMissingSubRule},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, codesOf(Validate(tt.rule)))
		})
	}
}

func TestValidate_SharedSubRule(t *testing.T) {
	shared := partition.NewOpKindRule("ew")
	root := partition.NewUnionRule("u", shared, shared)

	errs := Validate(root)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrSharedSubRule, errs[0].Code)
	assert.Equal(t, "rule[ew]", errs[0].Field)
}

func TestValidate_Specs(t *testing.T) {
	a := partition.MustSpec("cuda", partition.Target{Kind: "cuda", Attrs: map[string]string{"compiler": ""}}, partition.NewOpKindRule("ew"))
	b := partition.MustSpec("cuda", partition.Target{Kind: ""}, partition.NewHostRule("host"))

	errs := Validate([]*partition.Spec{a, b})
	assert.Equal(t, []string{ErrInvalidTarget, ErrInvalidTarget, ErrDuplicateSpecName}, codesOf(errs))
	assert.Equal(t, "spec.cuda.target.attrs.compiler", errs[0].Field)
	assert.Equal(t, "spec.cuda.target.kind", errs[1].Field)
}

func TestValidate_UnsupportedType(t *testing.T) {
	errs := Validate(42)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnsupportedType, errs[0].Code)
	assert.Contains(t, errs[0].Message, "int")
}

func TestValidateValue_ReportsEverySpec(t *testing.T) {
	v := compileCUE(t, `
spec: good: { target: kind: "cpu", rule: { kind: "host", name: "h" } }
spec: broken: {
	target: { kind: "" }
	rule: {
		kind: "union", name: "u"
		rules: [
			{ kind: "composite", name: "c" },
			{ kind: "pattern", name: "" },
		]
	}
}
spec: unknown: { target: kind: "cpu", rule: { kind: "anchor", name: "a" } }
`)
	errs := ValidateValue(v)
	assert.Equal(t, []string{
		ErrInvalidTarget,
		ErrMissingSubRule,
		ErrEmptyRuleName,
		ErrMissingPattern,
		ErrSpecCompile,
	}, codesOf(errs))
	assert.Equal(t, "spec.broken.rule[c]", errs[1].Field)
	assert.Equal(t, "spec.unknown.rule", errs[4].Field)
	assert.Positive(t, errs[4].Line)
}

func TestValidationError_Format(t *testing.T) {
	assert.Equal(t, "[E120] rule: empty", ValidationError{Field: "rule", Message: "empty", Code: ErrEmptyRuleName}.Error())
	assert.Equal(t, "[E120] line 3: rule: empty", ValidationError{Field: "rule", Message: "empty", Code: ErrEmptyRuleName, Line: 3}.Error())
}

func TestRuleCode(t *testing.T) {
	assert.Equal(t, ErrEmptyRuleName, RuleCode(partition.ErrCodeEmptyRuleName))
	assert.Equal(t, ErrDuplicateRuleName, RuleCode(partition.ErrCodeDuplicateRuleName))
	assert.Equal(t, ErrInvalidConfig, RuleCode(partition.ErrCodeInvalidConfig))
	assert.Equal(t, ErrSharedSubRule, RuleCode(partition.ErrCodeSharedSubRule))
	assert.Equal(t, ErrMissingSubRule, RuleCode(partition.ErrCodeNodeOutOfRange))
}
