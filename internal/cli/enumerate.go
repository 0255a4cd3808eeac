package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/collage/internal/graph"
	"github.com/roach88/collage/internal/ir"
	"github.com/roach88/collage/internal/ops"
	"github.com/roach88/collage/internal/partition"
	"github.com/roach88/collage/internal/store"
)

// EnumerateOptions holds flags for the enumerate command.
type EnumerateOptions struct {
	*RootOptions
	Spec        string // only enumerate this spec
	Parallelism int    // union fan-out
	Database    string // record passes here when set
}

// CandidateOutput is one enumerated candidate.
type CandidateOutput struct {
	ID     string             `json:"id"`
	Rule   string             `json:"rule"`
	Names  []string           `json:"names"`
	Record ir.CandidateRecord `json:"record"`
}

// SpecEnumeration holds the candidates of one spec.
type SpecEnumeration struct {
	Spec       string            `json:"spec"`
	Target     string            `json:"target"`
	PassID     string            `json:"pass_id,omitempty"`
	Candidates []CandidateOutput `json:"candidates"`
}

// EnumerateResult holds the output of an enumeration run.
type EnumerateResult struct {
	Graph     string            `json:"graph"`
	GraphHash string            `json:"graph_hash"`
	Nodes     int               `json:"nodes"`
	Specs     []SpecEnumeration `json:"specs"`
	Total     int               `json:"total"`
}

// NewEnumerateCommand creates the enumerate command.
func NewEnumerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EnumerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "enumerate <specs-dir> <graph.yaml>",
		Short: "Enumerate partition candidates for a graph",
		Long: `Enumerate every candidate each spec proposes for a dataflow graph.

Candidates are listed in enumeration order with the rule chain that produced
them and the wrapping they would receive if selected. With --db, each spec's
candidates are recorded as a pass that the trace command can read back.
Passes are recorded only after every spec has enumerated successfully.

Examples:
  collage enumerate ./specs ./graphs/matmul_relu.yaml
  collage enumerate ./specs ./graphs/matmul_relu.yaml --spec cutlass
  collage enumerate ./specs ./graphs/matmul_relu.yaml --db ./collage.db
  collage enumerate ./specs ./graphs/matmul_relu.yaml --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnumerate(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Spec, "spec", "", "only enumerate the named spec")
	cmd.Flags().IntVar(&opts.Parallelism, "parallel", 1, "number of union sub-rules enumerated concurrently")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record passes in this SQLite database")

	return cmd
}

func runEnumerate(opts *EnumerateOptions, specsDir, graphPath string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Parallelism < 1 {
		return outputEnumerateError(formatter, ErrCodeGeneric, "parallel must be at least 1")
	}

	loadResult, loadErrors := LoadSpecs(specsDir, LoadModeFailFast)
	if len(loadErrors) > 0 {
		code, message := parseCompileError(loadErrors[0])
		return outputEnumerateError(formatter, code, message)
	}
	specs, err := pickSpec(loadResult.Specs, opts.Spec)
	if err != nil {
		return outputEnumerateError(formatter, ErrCodeNotFound, err.Error())
	}

	g, err := graph.Load(graphPath)
	if err != nil {
		return outputEnumerateError(formatter, ErrCodeGraphFailed, err.Error())
	}
	hash, err := g.Hash()
	if err != nil {
		return outputEnumerateError(formatter, ErrCodeGraphFailed, err.Error())
	}
	formatter.VerboseLog("Loaded graph %s: %d node(s), hash %s", g.Name(), g.Len(), hash)

	enum := partition.NewEnumerator(
		partition.WithOps(ops.Default().With(loadResult.Ops)),
		partition.WithParallelism(opts.Parallelism),
	)

	result := EnumerateResult{
		Graph:     g.Name(),
		GraphHash: hash,
		Nodes:     g.Len(),
		Specs:     make([]SpecEnumeration, 0, len(specs)),
	}

	// Every spec is enumerated before anything is recorded, so a failing
	// spec leaves the database untouched.
	passes := make([][]partition.Candidate, 0, len(specs))
	for _, spec := range specs {
		cands, err := enum.Enumerate(ctx, g, spec)
		if err != nil {
			return outputEnumerateError(formatter, ErrCodeEnumFailed, fmt.Sprintf("spec %s: %v", spec.Name(), err))
		}
		formatter.VerboseLog("Enumerated spec %s: %d candidate(s)", spec.Name(), len(cands))

		se := SpecEnumeration{
			Spec:       spec.Name(),
			Target:     spec.Target().Kind,
			Candidates: make([]CandidateOutput, 0, len(cands)),
		}
		for _, c := range cands {
			id, err := c.ID()
			if err != nil {
				return outputEnumerateError(formatter, ErrCodeEnumFailed, err.Error())
			}
			rec := c.Record()
			se.Candidates = append(se.Candidates, CandidateOutput{
				ID:     id,
				Rule:   c.RuleName(),
				Names:  nodeNames(g, rec.Nodes),
				Record: rec,
			})
		}

		passes = append(passes, cands)
		result.Total += len(se.Candidates)
		result.Specs = append(result.Specs, se)
	}

	if opts.Database != "" {
		if err := recordPasses(ctx, opts.Database, g, hash, specs, passes, &result, formatter); err != nil {
			return err
		}
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return outputEnumerateText(formatter, result)
}

// recordPasses writes one pass per spec and stores the pass ids in result.
func recordPasses(ctx context.Context, path string, g *graph.Graph, hash string, specs []*partition.Spec, passes [][]partition.Candidate, result *EnumerateResult, formatter *OutputFormatter) error {
	st, err := store.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	for i, spec := range specs {
		pass, err := st.WritePass(ctx, store.Pass{
			Spec:      spec.Name(),
			Target:    spec.Target().Kind,
			GraphName: g.Name(),
			GraphHash: hash,
		}, passes[i])
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to record pass", err)
		}
		result.Specs[i].PassID = pass.ID
		formatter.VerboseLog("Recorded pass %s (seq %d)", pass.ID, pass.Seq)
	}
	return nil
}

// pickSpec narrows specs to the one named, or returns all of them.
func pickSpec(specs []*partition.Spec, name string) ([]*partition.Spec, error) {
	if name == "" {
		return specs, nil
	}
	for _, s := range specs {
		if s.Name() == name {
			return []*partition.Spec{s}, nil
		}
	}
	return nil, fmt.Errorf("spec %q not found", name)
}

func nodeNames(g *graph.Graph, nodes []int) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = g.Node(graph.NodeID(n)).Name
	}
	return out
}

// outputEnumerateText prints one table per spec and a summary line.
func outputEnumerateText(formatter *OutputFormatter, result EnumerateResult) error {
	w := formatter.Writer
	for _, se := range result.Specs {
		rows := make([]table.Row, 0, len(se.Candidates))
		for i, c := range se.Candidates {
			primitive := ""
			if c.Record.Primitive {
				primitive = "yes"
			}
			rows = append(rows, table.Row{
				i,
				c.Rule,
				strings.Join(c.Names, ", "),
				c.Record.Composite,
				primitive,
				c.Record.Compiler,
			})
		}
		title := fmt.Sprintf("%s → %s", se.Spec, se.Target)
		if se.PassID != "" {
			title += " (pass " + se.PassID + ")"
		}
		fmt.Fprintln(w, renderTable(title,
			table.Row{"#", "Rule", "Nodes", "Composite", "Primitive", "Compiler"}, rows, 2, 3))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "✓ Enumerated %s candidate(s) from %d spec(s) over %s node(s)\n",
		humanize.Comma(int64(result.Total)), len(result.Specs), humanize.Comma(int64(result.Nodes)))
	return nil
}

// outputEnumerateError reports a failure that stops the run.
func outputEnumerateError(formatter *OutputFormatter, code, message string) error {
	if formatter.Format == "json" {
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message},
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(formatter.Writer, "✗ Enumeration failed")
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", code, message)
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}
