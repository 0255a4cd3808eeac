package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"cuelang.org/go/cue"
	"github.com/spf13/cobra"

	"github.com/roach88/collage/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Specs  int                        `json:"specs"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <specs-dir>",
		Short: "Validate specs without building them",
		Long: `Validate CUE partition specs and report every problem at once.

Unlike compile, validation does not stop at the first broken spec or the
first broken rule: every rule tree is checked in full and all errors are
listed with their codes.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, specsDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	loadResult, loadErr := loadValue(specsDir)
	if loadErr != nil {
		return outputValidateError(formatter, loadErr.Code, loadErr.Message, nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, specsDir)

	count, validationErrors := validateAll(loadResult.CUEValue, formatter)
	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, count, validationErrors)
	}

	return outputValidateSuccess(formatter, count)
}

// validateAll validates the operator table and every spec in the CUE value.
// It returns the number of specs seen.
func validateAll(value cue.Value, formatter *OutputFormatter) (int, []compiler.ValidationError) {
	var allErrors []compiler.ValidationError

	if opsVal := value.LookupPath(cue.ParsePath("ops")); opsVal.Exists() {
		formatter.VerboseLog("Validating operator table")
		if _, err := compiler.CompileOps(opsVal); err != nil {
			allErrors = append(allErrors, compileValidationError("ops", err))
		}
	}

	count := 0
	if specsVal := value.LookupPath(cue.ParsePath("spec")); specsVal.Exists() {
		if iter, err := specsVal.Fields(); err == nil {
			for iter.Next() {
				formatter.VerboseLog("Validating spec: %s", iter.Label())
				count++
			}
		}
	}

	allErrors = append(allErrors, compiler.ValidateValue(value)...)

	if count == 0 && len(allErrors) == 0 {
		allErrors = append(allErrors, compiler.ValidationError{
			Field:   "specs",
			Message: "no specs found",
			Code:    ErrCodeGeneric,
		})
	}

	return count, allErrors
}

// compileValidationError converts a compile error to a validation error.
func compileValidationError(field string, err error) compiler.ValidationError {
	var cErr *compiler.CompileError
	if errors.As(err, &cErr) {
		ve := compiler.ValidationError{
			Field:   cErr.Field,
			Message: cErr.Message,
			Code:    MapFieldToErrorCode(cErr.Field),
		}
		if cErr.Pos.IsValid() {
			ve.Line = cErr.Pos.Line()
		}
		return ve
	}
	return compiler.ValidationError{Field: field, Message: err.Error(), Code: ErrCodeGeneric}
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, count int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Specs: count})
	}

	fmt.Fprintf(formatter.Writer, "✓ All specs valid (%d spec(s))\n", count)
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Load errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, count int, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Specs: count, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
