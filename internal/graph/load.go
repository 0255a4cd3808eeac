package graph

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/roach88/collage/internal/ir"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads a YAML graph document from path.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: err.Error()}
	}
	return Parse(data)
}

// Parse decodes a YAML graph document. Unknown fields are rejected.
func Parse(data []byte) (*Graph, error) {
	var doc ir.GraphDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, &LoadError{Code: ErrCodeInvalidDoc, Message: fmt.Sprintf("parsing graph: %v", err)}
	}
	return FromDoc(doc)
}

// FromDoc builds a Graph from a document. Args must name earlier nodes.
func FromDoc(doc ir.GraphDoc) (*Graph, error) {
	if err := validate.Struct(doc); err != nil {
		return nil, validationError(err)
	}

	g := &Graph{
		name:   doc.Name,
		nodes:  make([]*Node, 0, len(doc.Nodes)),
		byName: make(map[string]NodeID, len(doc.Nodes)),
		doc:    doc,
	}
	declared := make(map[string]bool, len(doc.Nodes))
	for _, nd := range doc.Nodes {
		declared[nd.Name] = true
	}

	for i, nd := range doc.Nodes {
		if _, dup := g.byName[nd.Name]; dup {
			return nil, &LoadError{Code: ErrCodeDuplicateNode, Node: nd.Name, Message: "duplicate node name"}
		}
		kind, err := ParseNodeKind(nd.Kind)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeInvalidDoc, Node: nd.Name, Message: err.Error()}
		}
		n := &Node{
			ID:    NodeID(i),
			Name:  nd.Name,
			Kind:  kind,
			Op:    nd.Op,
			Fn:    nd.Fn,
			Index: nd.Index,
			DType: nd.DType,
			Shape: nd.Shape,
			Attrs: nd.Attrs,
		}
		for _, a := range nd.Args {
			id, ok := g.byName[a]
			if !ok {
				if declared[a] {
					return nil, &LoadError{Code: ErrCodeForwardRef, Node: nd.Name, Message: fmt.Sprintf("arg %q is declared later; nodes must be topologically ordered", a)}
				}
				return nil, &LoadError{Code: ErrCodeUnknownArg, Node: nd.Name, Message: fmt.Sprintf("unknown arg %q", a)}
			}
			n.Args = append(n.Args, id)
		}
		g.nodes = append(g.nodes, n)
		g.byName[nd.Name] = n.ID
	}

	for _, n := range g.nodes {
		for _, a := range n.Args {
			arg := g.nodes[a]
			// A node consuming the same arg twice is one consumer.
			if len(arg.Consumers) == 0 || arg.Consumers[len(arg.Consumers)-1] != n.ID {
				arg.Consumers = append(arg.Consumers, n.ID)
			}
		}
	}

	for _, o := range doc.Outputs {
		id, ok := g.byName[o]
		if !ok {
			return nil, &LoadError{Code: ErrCodeUnknownOutput, Node: o, Message: "output names no node"}
		}
		g.nodes[id].Output = true
	}

	return g, nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &LoadError{Code: ErrCodeInvalidDoc, Message: err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return &LoadError{Code: ErrCodeInvalidDoc, Message: strings.Join(msgs, "; ")}
}
