package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/roach88/collage/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database  string
	PassID    string // show candidates of one pass
	Candidate string // find passes containing a candidate ID
	Latest    bool   // show candidates of the most recent pass
}

// TraceResult holds the output of a trace query. Exactly one of Passes or
// Candidates is set.
type TraceResult struct {
	Pass       *store.Pass             `json:"pass,omitempty"`
	Passes     []store.Pass            `json:"passes,omitempty"`
	Candidates []store.StoredCandidate `json:"candidates,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Read back recorded enumeration passes",
		Long: `Read back the passes recorded by enumerate --db.

Without a selector every pass is listed in the order it was recorded.
--pass and --latest show the candidates of one pass with their rule chains.
--candidate lists the passes that produced a given candidate ID.

Examples:
  collage trace --db ./collage.db
  collage trace --db ./collage.db --latest
  collage trace --db ./collage.db --pass 0190f1c2-...
  collage trace --db ./collage.db --candidate 3f2a... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.PassID, "pass", "", "show the candidates of this pass")
	cmd.Flags().BoolVar(&opts.Latest, "latest", false, "show the candidates of the most recent pass")
	cmd.Flags().StringVar(&opts.Candidate, "candidate", "", "list passes containing this candidate ID")
	cmd.MarkFlagsMutuallyExclusive("pass", "latest", "candidate")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	// Opening a missing path would create an empty database.
	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, "database not found", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	switch {
	case opts.Candidate != "":
		passes, err := st.FindCandidate(ctx, opts.Candidate)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to find candidate", err)
		}
		if opts.Format == "json" {
			return formatter.Success(TraceResult{Passes: passes})
		}
		if len(passes) == 0 {
			fmt.Fprintf(formatter.Writer, "No pass contains candidate: %s\n", opts.Candidate)
			return nil
		}
		fmt.Fprintln(formatter.Writer, passTable("Passes containing "+shortID(opts.Candidate), passes))
		return nil

	case opts.PassID != "" || opts.Latest:
		pass, err := lookupPass(ctx, st, opts)
		if errors.Is(err, sql.ErrNoRows) {
			return WrapExitError(ExitCommandError, "pass not found", err)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read pass", err)
		}
		cands, err := st.ReadCandidates(ctx, pass.ID)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read candidates", err)
		}
		formatter.VerboseLog("Pass %s: %d candidate(s)", pass.ID, len(cands))
		if opts.Format == "json" {
			return formatter.Success(TraceResult{Pass: &pass, Candidates: cands})
		}
		fmt.Fprintln(formatter.Writer, candidateTable(pass, cands))
		return nil

	default:
		passes, err := st.ListPasses(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list passes", err)
		}
		if opts.Format == "json" {
			return formatter.Success(TraceResult{Passes: passes})
		}
		if len(passes) == 0 {
			fmt.Fprintln(formatter.Writer, "No passes recorded.")
			return nil
		}
		fmt.Fprintln(formatter.Writer, passTable("Passes", passes))
		return nil
	}
}

func lookupPass(ctx context.Context, st *store.Store, opts *TraceOptions) (store.Pass, error) {
	if opts.Latest {
		return st.LatestPass(ctx)
	}
	return st.ReadPass(ctx, opts.PassID)
}

func passTable(title string, passes []store.Pass) string {
	rows := make([]table.Row, 0, len(passes))
	total := 0
	for _, p := range passes {
		rows = append(rows, table.Row{p.Seq, p.ID, p.Spec, p.Target, p.GraphName, shortID(p.GraphHash), humanize.Comma(int64(p.Count))})
		total += p.Count
	}
	title = fmt.Sprintf("%s (%d pass(es), %s candidate(s))", title, len(passes), humanize.Comma(int64(total)))
	return renderTable(title, table.Row{"Seq", "Pass", "Spec", "Target", "Graph", "Hash", "Candidates"}, rows)
}

func candidateTable(pass store.Pass, cands []store.StoredCandidate) string {
	rows := make([]table.Row, 0, len(cands))
	for _, c := range cands {
		primitive := ""
		if c.Primitive {
			primitive = "yes"
		}
		rows = append(rows, table.Row{
			c.Ordinal,
			shortID(c.ID),
			c.Rule,
			c.Label,
			joinInts(c.Nodes),
			c.Composite,
			primitive,
			c.Compiler,
		})
	}
	title := fmt.Sprintf("Pass %s: %s → %s over %s", pass.ID, pass.Spec, pass.Target, pass.GraphName)
	return renderTable(title,
		table.Row{"#", "ID", "Rule", "Label", "Nodes", "Composite", "Primitive", "Compiler"}, rows, 3, 4)
}

// shortID truncates content hashes for display.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}
