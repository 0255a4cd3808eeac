package ir

// Node kinds accepted in graph documents.
const (
	NodeKindVar      = "var"
	NodeKindConstant = "constant"
	NodeKindCall     = "call"
	NodeKindCallFn   = "call_fn"
	NodeKindTuple    = "tuple"
	NodeKindProj     = "proj"
	NodeKindLet      = "let"
	NodeKindRefNew   = "ref_new"
	NodeKindRefRead  = "ref_read"
	NodeKindRefWrite = "ref_write"
)

// GraphDoc is the serialized form of a dataflow graph.
// Nodes are listed in topological order: every arg names an earlier node.
type GraphDoc struct {
	Name    string    `yaml:"name" json:"name" validate:"required"`
	Nodes   []NodeDoc `yaml:"nodes" json:"nodes" validate:"dive"`
	Outputs []string  `yaml:"outputs,omitempty" json:"outputs,omitempty" validate:"dive,required"`
}

// NodeDoc is one node of a GraphDoc.
type NodeDoc struct {
	Name  string         `yaml:"name" json:"name" validate:"required"`
	Kind  string         `yaml:"kind" json:"kind" validate:"required,oneof=var constant call call_fn tuple proj let ref_new ref_read ref_write"`
	Op    string         `yaml:"op,omitempty" json:"op,omitempty" validate:"required_if=Kind call"`
	Fn    string         `yaml:"fn,omitempty" json:"fn,omitempty" validate:"required_if=Kind call_fn"`
	Args  []string       `yaml:"args,omitempty" json:"args,omitempty" validate:"dive,required"`
	Index int            `yaml:"index,omitempty" json:"index,omitempty" validate:"min=0"`
	DType string         `yaml:"dtype,omitempty" json:"dtype,omitempty"`
	Shape []int64        `yaml:"shape,omitempty" json:"shape,omitempty"`
	Attrs map[string]any `yaml:"attrs,omitempty" json:"attrs,omitempty"`
}
