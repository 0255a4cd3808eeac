// Package ops is the operator metadata service: it answers how generally a
// primitive operator can be fused with its neighbours.
package ops

import (
	"fmt"
	"maps"
	"slices"
)

// Kind is the fusion pattern of an operator. Higher ordinals are harder to
// fuse. The gap between OutEWiseFusable and Tuple is deliberate: the values
// match the numbering downstream fusion passes use.
type Kind int

const (
	ElemWise        Kind = 0
	Broadcast       Kind = 1
	Injective       Kind = 2
	CommReduce      Kind = 3
	OutEWiseFusable Kind = 4
	Tuple           Kind = 7
	Opaque          Kind = 8
)

// FusableThreshold is the most general kind the native fuser absorbs.
const FusableThreshold = OutEWiseFusable

var kindNames = map[Kind]string{
	ElemWise:        "elemwise",
	Broadcast:       "broadcast",
	Injective:       "injective",
	CommReduce:      "comm_reduce",
	OutEWiseFusable: "out_ewise_fusable",
	Tuple:           "tuple",
	Opaque:          "opaque",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Fusable reports whether k is at or below FusableThreshold.
func (k Kind) Fusable() bool {
	return k <= FusableThreshold
}

// ParseKind maps a kind name to its Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown fusion kind %q", s)
}

// Registry maps operator names to fusion kinds. A Registry is immutable.
// Operators it does not know are Opaque.
type Registry struct {
	kinds map[string]Kind
}

// NewRegistry returns a registry holding exactly kinds.
func NewRegistry(kinds map[string]Kind) *Registry {
	return &Registry{kinds: maps.Clone(kinds)}
}

// FusionKind returns the fusion kind of op.
func (r *Registry) FusionKind(op string) Kind {
	if k, ok := r.kinds[op]; ok {
		return k
	}
	return Opaque
}

// With returns a new registry with overrides applied on top of r.
func (r *Registry) With(overrides map[string]Kind) *Registry {
	kinds := maps.Clone(r.kinds)
	if kinds == nil {
		kinds = make(map[string]Kind, len(overrides))
	}
	maps.Copy(kinds, overrides)
	return &Registry{kinds: kinds}
}

// Ops returns the known operator names, sorted.
func (r *Registry) Ops() []string {
	return slices.Sorted(maps.Keys(r.kinds))
}

// Default returns the registry of common tensor operators.
func Default() *Registry {
	return NewRegistry(defaultKinds)
}

var defaultKinds = map[string]Kind{
	"add":             ElemWise,
	"subtract":        ElemWise,
	"multiply":        ElemWise,
	"divide":          ElemWise,
	"maximum":         ElemWise,
	"minimum":         ElemWise,
	"negative":        ElemWise,
	"exp":             ElemWise,
	"log":             ElemWise,
	"sqrt":            ElemWise,
	"rsqrt":           ElemWise,
	"tanh":            ElemWise,
	"sigmoid":         ElemWise,
	"clip":            ElemWise,
	"cast":            ElemWise,
	"nn.relu":         ElemWise,
	"nn.bias_add":     Broadcast,
	"broadcast_to":    Broadcast,
	"reshape":         Injective,
	"transpose":       Injective,
	"squeeze":         Injective,
	"expand_dims":     Injective,
	"concatenate":     Injective,
	"strided_slice":   Injective,
	"take":            Injective,
	"nn.pad":          Injective,
	"sum":             CommReduce,
	"mean":            CommReduce,
	"max":             CommReduce,
	"min":             CommReduce,
	"argmax":          CommReduce,
	"nn.conv2d":       OutEWiseFusable,
	"nn.dense":        OutEWiseFusable,
	"nn.matmul":       OutEWiseFusable,
	"nn.batch_matmul": OutEWiseFusable,
	"nn.softmax":      Opaque,
	"nn.layer_norm":   Opaque,
	"split":           Injective,
}
