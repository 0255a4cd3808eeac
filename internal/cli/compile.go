package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/collage/internal/compiler"
	"github.com/roach88/collage/internal/ops"
	"github.com/roach88/collage/internal/partition"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// SpecSummary describes one compiled spec.
type SpecSummary struct {
	Name   string            `json:"name"`
	Target string            `json:"target"`
	Attrs  map[string]string `json:"attrs,omitempty"`
	Rules  int               `json:"rules"`
	Tree   string            `json:"tree"`
}

// CompilationResult holds the compiled specs and operator overrides.
type CompilationResult struct {
	Specs    []SpecSummary      `json:"specs"`
	Ops      map[string]string  `json:"ops,omitempty"`
	Warnings []compiler.Warning `json:"warnings"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <specs-dir>",
		Short: "Compile CUE partition specs",
		Long: `Compile CUE partition specs into checked rule trees.

Every spec's rule tree is checked for empty, duplicate and shared rule names,
missing sub-rules and patterns, and bad validity limits. Specs that compile
are analysed for shapes that are legal but probably unintended.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, specsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	loadResult, loadErrors := LoadSpecs(specsDir, LoadModeCollectAll)

	// Handle load errors (directory not found, no files, etc.)
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputCompileError(formatter, loadErr.Code, loadErr.Message, nil)
		}
		return outputCompileError(formatter, ErrCodeGeneric, loadErrors[0].Error(), nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, specsDir)
	for _, spec := range loadResult.Specs {
		formatter.VerboseLog("Compiled spec: %s", spec.Name())
	}

	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	// Names can still collide after NFC normalisation.
	if verrs := compiler.Validate(loadResult.Specs); len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, ve := range verrs {
			errs[i] = &LoadError{Code: ve.Code, Message: fmt.Sprintf("%s: %s", ve.Field, ve.Message)}
		}
		return outputCompileErrors(formatter, errs)
	}

	result := buildCompilationResult(loadResult.Specs, loadResult.Ops)

	if opts.Output != "" {
		if err := writeResultToFile(result, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	return outputCompileSuccess(formatter, result, loadResult.Specs, opts.Output)
}

// buildCompilationResult summarises specs in declaration order.
func buildCompilationResult(specs []*partition.Spec, overrides map[string]ops.Kind) *CompilationResult {
	result := &CompilationResult{
		Specs:    make([]SpecSummary, 0, len(specs)),
		Warnings: compiler.AnalyzeSpecs(specs),
	}
	for _, s := range specs {
		rules := 0
		partition.Walk(s.Rule(), func(partition.Rule, int) bool {
			rules++
			return true
		})
		t := s.Target()
		result.Specs = append(result.Specs, SpecSummary{
			Name:   s.Name(),
			Target: t.Kind,
			Attrs:  t.Attrs,
			Rules:  rules,
			Tree:   partition.Format(s.Rule()),
		})
	}
	if len(overrides) > 0 {
		result.Ops = make(map[string]string, len(overrides))
		for op, k := range overrides {
			result.Ops[op] = k.String()
		}
	}
	return result
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, specs []*partition.Spec, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d spec(s)\n\n", len(result.Specs))

	for i, s := range result.Specs {
		fmt.Fprintf(w, "%s → %s (%d rule(s))\n", s.Name, s.Target, s.Rules)
		fmt.Fprintln(w, partition.Tree(specs[i].Rule()))
		fmt.Fprintln(w)
	}

	if len(result.Ops) > 0 {
		fmt.Fprintf(w, "Operator overrides: %d\n\n", len(result.Ops))
	}

	for _, warn := range result.Warnings {
		if warn.Spec != "" {
			fmt.Fprintf(w, "%s: %s: %s\n", warn.Level, warn.Spec, warn.Message)
			continue
		}
		fmt.Fprintf(w, "%s: %s\n", warn.Level, warn.Message)
	}
	if len(result.Warnings) > 0 {
		fmt.Fprintln(w)
	}

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote compilation summary to %s\n", outputFile)
	}

	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Compilation errors are command-level errors (exit code 2)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// outputCompileErrors outputs multiple compilation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseCompileError(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}

		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors, // Include all errors in data
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		code, message := parseCompileError(err)
		var loadErr *LoadError
		if errors.As(err, &loadErr) && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}

	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// parseCompileError extracts error code and message from an error.
func parseCompileError(err error) (string, string) {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return MapFieldToErrorCode(compileErr.Field), compileErr.Message
	}
	return ErrCodeGeneric, err.Error()
}

// writeResultToFile writes the compilation summary as indented JSON.
func writeResultToFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
