package partition

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/list"
)

// Format renders r and its sub-rules as an indented description, one rule
// per line.
//
//	PrimitiveRule(name=prim)
//	  OpKindRule(name=ew)
func Format(r Rule) string {
	var b strings.Builder
	formatRule(&b, r, 0)
	return strings.TrimSuffix(b.String(), "\n")
}

func formatRule(b *strings.Builder, r Rule, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	if isNilRule(r) {
		b.WriteString("<nil>\n")
		return
	}
	b.WriteString(describe(r))
	b.WriteByte('\n')
	for _, c := range Children(r) {
		formatRule(b, c, depth+1)
	}
}

// describe renders one rule without its sub-rules.
func describe(r Rule) string {
	switch r := r.(type) {
	case *PatternRule:
		fields := []string{"name=" + r.Name}
		if r.Pattern != nil {
			fields = append(fields, "pattern="+r.Pattern.String())
		}
		if s, ok := r.Predicate.(fmt.Stringer); ok {
			fields = append(fields, "predicate="+s.String())
		} else if r.Predicate != nil {
			fields = append(fields, "predicate=<func>")
		}
		return "PatternRule(" + strings.Join(fields, ", ") + ")"
	case *OpKindRule:
		return "OpKindRule(name=" + r.Name + ")"
	case *CompositeRule:
		return "CompositeRule(name=" + r.Name + ")"
	case *PrimitiveRule:
		return "PrimitiveRule(name=" + r.Name + ")"
	case *UnionRule:
		return fmt.Sprintf("UnionRule(name=%s, rules=%d)", r.Name, len(r.Subs))
	case *ValidOnlyRule:
		return fmt.Sprintf("ValidOnlyRule(name=%s, config=%s)", r.Name, r.Config)
	case *HostRule:
		return "HostRule(name=" + r.Name + ")"
	}
	return fmt.Sprintf("%T(name=%s)", r, r.RuleName())
}

// Tree renders the rule names as a connected tree for terminal output.
func Tree(r Rule) string {
	l := list.NewWriter()
	l.SetStyle(list.StyleConnectedLight)
	var add func(Rule)
	add = func(r Rule) {
		if isNilRule(r) {
			l.AppendItem("<nil>")
			return
		}
		l.AppendItem(fmt.Sprintf("%s (%s)", r.RuleName(), r.Kind()))
		children := Children(r)
		if len(children) == 0 {
			return
		}
		l.Indent()
		for _, c := range children {
			add(c)
		}
		l.UnIndent()
	}
	add(r)
	return l.Render()
}
