package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilePattern(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"wildcard shorthand", `p: "*"`, "*"},
		{"call shorthand", `p: "exp"`, "exp(...)"},
		{"wildcard struct", `p: { wildcard: true }`, "*"},
		{"constant", `p: { constant: true }`, "const"},
		{"call any args", `p: { op: "nn.relu" }`, "nn.relu(...)"},
		{"call no args", `p: { op: "zeros", args: [] }`, "zeros()"},
		{"nested call", `p: { op: "nn.relu", args: [{ op: "nn.matmul", args: ["*", { constant: true }] }] }`, "nn.relu(nn.matmul(*, const))"},
		{"alt", `p: { alt: ["nn.relu", "sigmoid"] }`, "(nn.relu(...) | sigmoid(...))"},
		{"tuple", `p: { tuple: ["*", "*"] }`, "(*, *,)"},
		{"proj any", `p: { proj: { tuple: ["*"] } }`, "(*,).*"},
		{"proj index", `p: { proj: { tuple: ["*", "*"] }, index: 1 }`, "(*, *,).1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := compileCUE(t, tt.src)
			p, err := CompilePattern(v.LookupPath(cue.ParsePath("p")))
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.String())
		})
	}
}

func TestCompilePattern_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"empty string", `p: ""`, "empty pattern"},
		{"number", `p: 3`, "must be a string or struct"},
		{"empty struct", `p: {}`, "needs one of"},
		{"empty op", `p: { op: "" }`, "op must be a non-empty string"},
		{"args not list", `p: { op: "add", args: "*" }`, "pattern.args must be a list"},
		{"empty alt", `p: { alt: [] }`, "at least one pattern"},
		{"negative index", `p: { proj: "*", index: -1 }`, "non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := compileCUE(t, tt.src)
			_, err := CompilePattern(v.LookupPath(cue.ParsePath("p")))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
